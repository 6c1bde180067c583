package internal

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// SessionStore holds at most one authenticated user, mirrored to the KV store.
type SessionStore struct {
	kv   KVStore
	auth Authenticator
	now  func() time.Time

	mu        sync.Mutex
	user      *User
	listeners []func(*User)

	inFlight atomic.Int32
}

// NewSessionStore creates the store and hydrates the persisted session. A
// missing or corrupt record starts the store without a session.
func NewSessionStore(kv KVStore, auth Authenticator) *SessionStore {
	s := &SessionStore{
		kv:   kv,
		auth: auth,
		now:  time.Now,
	}
	var user User
	ok, err := loadJSON(kv, sessionKey, &user)
	switch {
	case err != nil:
		LogWarn("Ignoring unreadable session record: %v", err)
	case ok && user.ID != "":
		s.user = &user
		LogDebug("Restored session for %s", user.Username)
	}
	return s
}

// Loading reports whether hydration is still running. Hydration completes
// inside NewSessionStore, so a constructed store never reports loading.
func (s *SessionStore) Loading() bool {
	return false
}

// Busy reports whether a login is in flight.
func (s *SessionStore) Busy() bool {
	return s.inFlight.Load() > 0
}

// Current returns a copy of the session user, or nil
func (s *SessionStore) Current() *User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// Subscribe registers fn to be called with the new user (nil on logout)
// whenever the session changes.
func (s *SessionStore) Subscribe(fn func(*User)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Login authenticates username against the backend and stores the session.
// Concurrent logins are not serialized; the last one to finish wins.
func (s *SessionStore) Login(ctx context.Context, username string) (*User, error) {
	s.inFlight.Add(1)
	defer s.inFlight.Add(-1)

	profile, err := s.auth.Login(ctx, username)
	if err != nil {
		LogDebug("Login for %q failed: %v", username, err)
		return nil, fmt.Errorf("%w: %w", ErrAuthenticationFailed, err)
	}

	fullName := strings.TrimSpace(profile.FirstName + " " + profile.LastName)
	if fullName == "" {
		fullName = profile.Username
	}
	role := RoleEmployee
	if profile.IsManager {
		role = RoleManager
	}
	user := &User{
		ID:              profile.ID,
		Username:        profile.Username,
		FullName:        fullName,
		Email:           profile.Email,
		Role:            role,
		IsAuthenticated: true,
	}

	if err := s.replace(user); err != nil {
		return nil, err
	}
	LogInfo("Logged in as %s (%s)", user.Username, user.Role)
	return s.Current(), nil
}

// Register records a candidate user locally. It does not create a session.
func (s *SessionStore) Register(fullName, email string) (*RegisteredUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var users []RegisteredUser
	if _, err := loadJSON(s.kv, registeredUsersKey, &users); err != nil {
		return nil, err
	}

	entry := RegisteredUser{
		ID:       strconv.FormatInt(s.now().UnixMilli(), 10),
		FullName: fullName,
		Email:    email,
		Role:     RoleEmployee,
	}
	users = append(users, entry)
	if err := saveJSON(s.kv, registeredUsersKey, users); err != nil {
		return nil, err
	}
	return &entry, nil
}

// RegisteredUsers returns the locally recorded registrations
func (s *SessionStore) RegisteredUsers() ([]RegisteredUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var users []RegisteredUser
	if _, err := loadJSON(s.kv, registeredUsersKey, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// Logout clears the session. Calling it without a session is harmless.
func (s *SessionStore) Logout() error {
	return s.replace(nil)
}

// UpdateRole changes the session user's role. Without a session it does nothing.
func (s *SessionStore) UpdateRole(role Role) error {
	if _, err := ParseRole(string(role)); err != nil {
		return err
	}
	current := s.Current()
	if current == nil {
		return nil
	}
	current.Role = role
	return s.replace(current)
}

// replace swaps the session (nil clears it), persists it and notifies listeners
// outside the lock.
func (s *SessionStore) replace(user *User) error {
	s.mu.Lock()
	var err error
	if user == nil {
		err = s.kv.Remove(sessionKey)
	} else {
		err = saveJSON(s.kv, sessionKey, user)
	}
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.user = user
	listeners := append([]func(*User){}, s.listeners...)
	s.mu.Unlock()

	for _, fn := range listeners {
		if user == nil {
			fn(nil)
			continue
		}
		u := *user
		fn(&u)
	}
	return nil
}
