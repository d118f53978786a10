// Package store holds the canonical in-memory social graph: users, posts,
// credentials and the session pointer. All access goes through View and
// Update so every mutation is applied as one unit under a single lock.
package store

import (
	"slices"
	"sync"
	"time"

	"rupl/internal/models"

	"github.com/google/uuid"
)

// Store is the single owner of users and posts. Posts are kept most recent
// first; users in registration order.
type Store struct {
	mu            sync.RWMutex
	users         []models.User
	posts         []models.Post
	credentials   map[string]string
	currentUserID string

	lastTick int64
	now      func() time.Time
	newID    func() string

	hookMu sync.Mutex
	hooks  []func()
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the wall clock used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator overrides id generation.
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) { s.newID = gen }
}

// New returns an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		credentials: make(map[string]string),
		now:         time.Now,
		newID:       newTimeOrderedID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func newTimeOrderedID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// OnCommit registers fn to run after every successful Update.
// Hooks run outside the lock.
func (s *Store) OnCommit(fn func()) {
	s.hookMu.Lock()
	defer s.hookMu.Unlock()
	s.hooks = append(s.hooks, fn)
}

// View runs fn with read access. fn must not mutate anything it is handed.
func (s *Store) View(fn func(tx *Tx) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(&Tx{s: s})
}

// Update runs fn with exclusive write access. fn must finish all validation
// before its first mutation: there is no rollback.
func (s *Store) Update(fn func(tx *Tx) error) error {
	s.mu.Lock()
	err := fn(&Tx{s: s, writable: true})
	s.mu.Unlock()
	if err != nil {
		return err
	}

	s.hookMu.Lock()
	hooks := slices.Clone(s.hooks)
	s.hookMu.Unlock()
	for _, h := range hooks {
		h()
	}
	return nil
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() *models.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := &models.Snapshot{
		Users:         s.users,
		Posts:         s.posts,
		CurrentUserID: s.currentUserID,
		Credentials:   s.credentials,
	}
	return snap.Clone()
}

// Restore replaces the whole state with a deep copy of snap. The logical
// clock is advanced past every timestamp found in it.
func (s *Store) Restore(snap *models.Snapshot) {
	if snap == nil {
		snap = &models.Snapshot{}
	}
	c := snap.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = c.Users
	s.posts = c.Posts
	s.currentUserID = c.CurrentUserID
	s.credentials = c.Credentials
	if s.credentials == nil {
		s.credentials = make(map[string]string)
	}
	s.lastTick = 0
	for _, p := range s.posts {
		s.lastTick = max(s.lastTick, p.CreatedAt)
		for _, cm := range p.Comments {
			s.lastTick = max(s.lastTick, cm.CreatedAt)
		}
	}
}

// Tx is the handle passed to View and Update callbacks. Pointers it returns
// refer to the canonical records and are only valid inside the callback.
type Tx struct {
	s        *Store
	writable bool
}

func (tx *Tx) mustWrite() {
	if !tx.writable {
		panic("store: mutation inside View")
	}
}

// Now returns the next logical timestamp in milliseconds. Successive calls
// are strictly increasing even when the wall clock stalls or goes back.
func (tx *Tx) Now() int64 {
	tx.mustWrite()
	ms := tx.s.now().UnixMilli()
	if ms <= tx.s.lastTick {
		ms = tx.s.lastTick + 1
	}
	tx.s.lastTick = ms
	return ms
}

// NewID returns a fresh unique id.
func (tx *Tx) NewID() string {
	return tx.s.newID()
}

// Users returns every user in registration order.
func (tx *Tx) Users() []models.User {
	return tx.s.users
}

// UserByID returns the canonical user record.
func (tx *Tx) UserByID(id string) (*models.User, bool) {
	for i := range tx.s.users {
		if tx.s.users[i].ID == id {
			return &tx.s.users[i], true
		}
	}
	return nil, false
}

// UserByEmail returns the first user registered with exactly this email.
func (tx *Tx) UserByEmail(email string) (*models.User, bool) {
	for i := range tx.s.users {
		if tx.s.users[i].Email == email {
			return &tx.s.users[i], true
		}
	}
	return nil, false
}

// AppendUser adds a new user.
func (tx *Tx) AppendUser(u models.User) {
	tx.mustWrite()
	tx.s.users = append(tx.s.users, u)
}

// Posts returns every post, most recent first.
func (tx *Tx) Posts() []models.Post {
	return tx.s.posts
}

// PostByID returns the canonical post record.
func (tx *Tx) PostByID(id string) (*models.Post, bool) {
	for i := range tx.s.posts {
		if tx.s.posts[i].ID == id {
			return &tx.s.posts[i], true
		}
	}
	return nil, false
}

// PrependPost inserts p at the head of the collection.
func (tx *Tx) PrependPost(p models.Post) {
	tx.mustWrite()
	tx.s.posts = slices.Insert(tx.s.posts, 0, p)
}

// PostsBy calls fn with every canonical post authored by userID.
func (tx *Tx) PostsBy(userID string, fn func(p *models.Post)) {
	for i := range tx.s.posts {
		if tx.s.posts[i].UserID == userID {
			fn(&tx.s.posts[i])
		}
	}
}

// Credential returns the stored credential for userID.
func (tx *Tx) Credential(userID string) (string, bool) {
	c, ok := tx.s.credentials[userID]
	return c, ok
}

// SetCredential stores the credential for userID.
func (tx *Tx) SetCredential(userID, credential string) {
	tx.mustWrite()
	tx.s.credentials[userID] = credential
}

// CurrentUserID returns the id of the signed in user, or "".
func (tx *Tx) CurrentUserID() string {
	return tx.s.currentUserID
}

// SetCurrentUserID moves the session pointer. "" signs out.
func (tx *Tx) SetCurrentUserID(id string) {
	tx.mustWrite()
	tx.s.currentUserID = id
}
