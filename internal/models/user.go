// Package models contains data structures for the application's domain models.
package models

import "slices"

// User is a registered account. Email is the login lookup key and never changes.
type User struct {
	ID         string   `json:"id"`
	Username   string   `json:"username"`
	Email      string   `json:"email"`
	ProfilePic string   `json:"profilePic"`
	Bio        string   `json:"bio,omitempty"`
	Followers  []string `json:"followers"`
	Following  []string `json:"following"`
	Saved      []string `json:"saved"`
}

// HasSaved reports whether postID is bookmarked by the user.
func (u *User) HasSaved(postID string) bool {
	return slices.Contains(u.Saved, postID)
}

// ToggleSave adds postID to the saved set if absent and removes it otherwise.
// It returns true when the post is saved after the call.
func (u *User) ToggleSave(postID string) bool {
	var saved bool
	u.Saved, saved = toggleMember(u.Saved, postID)
	return saved
}

// Clone returns a deep copy so callers never share slices with the store.
func (u User) Clone() User {
	u.Followers = cloneIDs(u.Followers)
	u.Following = cloneIDs(u.Following)
	u.Saved = cloneIDs(u.Saved)
	return u
}

// ProfileUpdate carries the optional fields of a profile edit. Nil fields
// are left untouched.
type ProfileUpdate struct {
	Username   *string `json:"username,omitempty"`
	Bio        *string `json:"bio,omitempty"`
	ProfilePic *string `json:"profilePic,omitempty"`
}

// Apply merges the provided fields into u.
func (p ProfileUpdate) Apply(u *User) {
	if p.Username != nil {
		u.Username = *p.Username
	}
	if p.Bio != nil {
		u.Bio = *p.Bio
	}
	if p.ProfilePic != nil {
		u.ProfilePic = *p.ProfilePic
	}
}

// TouchesAuthor reports whether the update changes the author snapshot
// copied onto posts.
func (p ProfileUpdate) TouchesAuthor() bool {
	return p.Username != nil || p.ProfilePic != nil
}

// ProfileStats are the counters shown on a profile header.
type ProfileStats struct {
	Posts     int `json:"posts"`
	Followers int `json:"followers"`
	Following int `json:"following"`
}

// Profile is a user together with their grid and counters.
type Profile struct {
	User  User         `json:"user"`
	Stats ProfileStats `json:"stats"`
	Posts []Post       `json:"posts"`
}

// ShareReceipt acknowledges a share; nothing is delivered.
type ShareReceipt struct {
	PostID         string `json:"postId"`
	TargetUserID   string `json:"targetUserId"`
	TargetUsername string `json:"targetUsername"`
}

// toggleMember removes id from ids if present, appends it otherwise.
func toggleMember(ids []string, id string) ([]string, bool) {
	if i := slices.Index(ids, id); i >= 0 {
		out := make([]string, 0, len(ids)-1)
		out = append(out, ids[:i]...)
		return append(out, ids[i+1:]...), false
	}
	out := make([]string, 0, len(ids)+1)
	out = append(out, ids...)
	return append(out, id), true
}

func cloneIDs(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return slices.Clone(ids)
}
