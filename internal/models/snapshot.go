package models

import "maps"

// Snapshot is the full persisted state of the social graph.
type Snapshot struct {
	Users         []User            `json:"users"`
	Posts         []Post            `json:"posts"`
	CurrentUserID string            `json:"currentUserId,omitempty"`
	Credentials   map[string]string `json:"credentials,omitempty"`
}

// Clone returns a deep copy of the snapshot.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	out := &Snapshot{
		Users:         CloneUsers(s.Users),
		Posts:         ClonePosts(s.Posts),
		CurrentUserID: s.CurrentUserID,
	}
	if s.Credentials != nil {
		out.Credentials = maps.Clone(s.Credentials)
	}
	return out
}
