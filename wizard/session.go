package wizard

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

// ErrSessionNotFound signals an unknown or expired wizard session.
var ErrSessionNotFound = errors.New("wizard: session not found")

// Session bundles everything one seller's listing attempt carries: the form
// store, the navigator, the excursion status, and the in-memory commit latch.
// It is created at wizard start and torn down on commit or abandon.
type Session struct {
	ID   string
	Form *FormStore
	Nav  *Navigator

	mu         sync.Mutex
	status     Status
	failReason string
	listingID  string
	latched    bool
}

func newSession(id string) *Session {
	form := NewFormStore()
	return &Session{
		ID:     id,
		Form:   form,
		Nav:    NewNavigator(form),
		status: StatusIdle,
	}
}

// Status returns the excursion status with its failure reason, if any.
func (s *Session) Status() (Status, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status, s.failReason
}

// SetStatus records the excursion outcome. The failure reason is kept only
// for StatusFailed.
func (s *Session) SetStatus(st Status, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = st
	if st == StatusFailed {
		s.failReason = reason
	} else {
		s.failReason = ""
	}
}

// ListingID returns the committed listing id, empty until committed.
func (s *Session) ListingID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listingID
}

func (s *Session) SetListingID(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listingID = id
}

// Latch sets the commit-attempt latch and reports whether this caller won it.
// The latch is one-way for the lifetime of the session, so a re-evaluation of
// the same success signal can never issue a second commit.
func (s *Session) Latch() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.latched {
		return false
	}
	s.latched = true
	return true
}

// Latched reports whether a commit has already been attempted.
func (s *Session) Latched() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latched
}

// Sessions is an in-memory session registry keyed by opaque id.
type Sessions struct {
	mu    sync.RWMutex
	byID  map[string]*Session
	idGen func() string
}

func NewSessions() *Sessions {
	return &Sessions{
		byID:  make(map[string]*Session),
		idGen: func() string { return uuid.NewString() },
	}
}

// WithIDGenerator overrides session id generation, for tests.
func (r *Sessions) WithIDGenerator(gen func() string) *Sessions {
	r.idGen = gen
	return r
}

// Start creates a fresh session with an empty snapshot on step 1.
func (r *Sessions) Start() *Session {
	s := newSession(r.idGen())
	r.mu.Lock()
	r.byID[s.ID] = s
	r.mu.Unlock()
	return s
}

// Get looks up a session by id.
func (r *Sessions) Get(id string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byID[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Drop tears a session down after commit or abandon.
func (r *Sessions) Drop(id string) {
	r.mu.Lock()
	delete(r.byID, id)
	r.mu.Unlock()
}
