package auth

import (
	"sync"
	"time"

	"github.com/mamadbah2/waterbill/internal/domain/models"
)

// Session is an operator that has signed in and not signed out.
type Session struct {
	Subject    models.Subject
	SignedInAt time.Time
	LastSeenAt time.Time
}

// Event is delivered to listeners whenever a subject signs in or out.
type Event struct {
	Subject  models.Subject
	SignedIn bool
}

// Sessions tracks signed-in subjects. A session is populated on the first
// verified request or an explicit sign-in and cleared on sign-out.
type Sessions struct {
	mu        sync.RWMutex
	sessions  map[string]Session
	listeners map[int]func(Event)
	nextID    int
	now       func() time.Time
}

// NewSessions creates an empty registry.
func NewSessions() *Sessions {
	return &Sessions{
		sessions:  make(map[string]Session),
		listeners: make(map[int]func(Event)),
		now:       time.Now,
	}
}

// SignIn records subject as signed in and refreshes LastSeenAt. Listeners are
// only notified when the subject was not already signed in.
func (s *Sessions) SignIn(subject models.Subject) Session {
	s.mu.Lock()
	now := s.now()
	session, exists := s.sessions[subject.UID]
	if !exists {
		session = Session{Subject: subject, SignedInAt: now}
	}
	session.Subject = subject
	session.LastSeenAt = now
	s.sessions[subject.UID] = session
	listeners := s.snapshotListeners()
	s.mu.Unlock()

	if !exists {
		notify(listeners, Event{Subject: subject, SignedIn: true})
	}
	return session
}

// SignOut clears the session of uid. It reports whether one existed.
func (s *Sessions) SignOut(uid string) bool {
	s.mu.Lock()
	session, exists := s.sessions[uid]
	delete(s.sessions, uid)
	listeners := s.snapshotListeners()
	s.mu.Unlock()

	if exists {
		notify(listeners, Event{Subject: session.Subject, SignedIn: false})
	}
	return exists
}

// Get returns the current session of uid.
func (s *Sessions) Get(uid string) (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[uid]
	return session, ok
}

// Active returns the number of signed-in subjects.
func (s *Sessions) Active() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Subscribe registers fn for sign-in and sign-out events. The returned func
// removes the listener.
func (s *Sessions) Subscribe(fn func(Event)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.listeners[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

func (s *Sessions) snapshotListeners() []func(Event) {
	out := make([]func(Event), 0, len(s.listeners))
	for _, fn := range s.listeners {
		out = append(out, fn)
	}
	return out
}

func notify(listeners []func(Event), event Event) {
	for _, fn := range listeners {
		fn(event)
	}
}
