package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"staffingauth/internal/entity"

	"github.com/google/uuid"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type memoryTokenStore struct {
	mu         sync.Mutex
	byHash     map[string]*entity.Token
	createErr  error
	findErr    error
	releaseErr error
	// afterFind runs outside the lock, between lookup and return.
	afterFind  func()
}

func newMemoryTokenStore() *memoryTokenStore {
	return &memoryTokenStore{byHash: make(map[string]*entity.Token)}
}

func (s *memoryTokenStore) Create(_ context.Context, t *entity.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return s.createErr
	}
	if _, exists := s.byHash[t.TokenHash]; exists {
		return errors.New("duplicate token hash")
	}
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	stored := *t
	s.byHash[t.TokenHash] = &stored
	return nil
}

func (s *memoryTokenStore) FindActive(_ context.Context, tokenHash string, purpose entity.TokenPurpose) (*entity.Token, error) {
	s.mu.Lock()
	if s.findErr != nil {
		s.mu.Unlock()
		return nil, s.findErr
	}
	t, ok := s.byHash[tokenHash]
	var found *entity.Token
	if ok && t.ConsumedAt == nil && t.Purpose == purpose {
		copied := *t
		found = &copied
	}
	hook := s.afterFind
	s.mu.Unlock()
	if hook != nil {
		hook()
	}
	return found, nil
}

func (s *memoryTokenStore) Consume(ctx context.Context, t *entity.Token, now time.Time) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.byHash[t.TokenHash]
	if !ok || stored.ID != t.ID || stored.ConsumedAt != nil {
		return false, nil
	}
	consumedAt := now
	stored.ConsumedAt = &consumedAt
	return true, nil
}

func (s *memoryTokenStore) Release(_ context.Context, t *entity.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.releaseErr != nil {
		return s.releaseErr
	}
	if stored, ok := s.byHash[t.TokenHash]; ok && stored.ID == t.ID {
		stored.ConsumedAt = nil
	}
	return nil
}

func (s *memoryTokenStore) DeleteExpired(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var deleted int64
	for hash, t := range s.byHash {
		if t.ExpiresAt.Before(cutoff) || (t.ConsumedAt != nil && t.ConsumedAt.Before(cutoff)) {
			delete(s.byHash, hash)
			deleted++
		}
	}
	return deleted, nil
}

func (s *memoryTokenStore) only() *entity.Token {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.byHash {
		copied := *t
		return &copied
	}
	return nil
}

type fakeIdentity struct {
	mu           sync.Mutex
	confirmCalls map[uuid.UUID]int
	setCalls     map[uuid.UUID]int
	passwords    map[uuid.UUID]string
	users        map[string]*entity.User
	roles        map[uuid.UUID][]entity.Role
	roleCalls    atomic.Int32
	failConfirm  error
	failSet      error
	onConfirm    func(ctx context.Context)
}

func newFakeIdentity() *fakeIdentity {
	return &fakeIdentity{
		confirmCalls: make(map[uuid.UUID]int),
		setCalls:     make(map[uuid.UUID]int),
		passwords:    make(map[uuid.UUID]string),
		users:        make(map[string]*entity.User),
		roles:        make(map[uuid.UUID][]entity.Role),
	}
}

func (f *fakeIdentity) ConfirmEmail(ctx context.Context, userID uuid.UUID) error {
	if f.onConfirm != nil {
		f.onConfirm(ctx)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failConfirm != nil {
		return f.failConfirm
	}
	f.confirmCalls[userID]++
	return nil
}

func (f *fakeIdentity) SetPassword(_ context.Context, userID uuid.UUID, newPassword string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSet != nil {
		return f.failSet
	}
	f.setCalls[userID]++
	f.passwords[userID] = newPassword
	return nil
}

func (f *fakeIdentity) LookupRoles(_ context.Context, userID uuid.UUID) ([]entity.Role, error) {
	f.roleCalls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.roles[userID], nil
}

func (f *fakeIdentity) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.users[email], nil
}

func (f *fakeIdentity) FindByID(_ context.Context, userID uuid.UUID) (*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		if user.ID == userID {
			return user, nil
		}
	}
	return nil, nil
}

func (f *fakeIdentity) addUser(email string) *entity.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	user := &entity.User{ID: uuid.New(), Email: email, IsActive: true}
	f.users[email] = user
	return user
}

func (f *fakeIdentity) password(userID uuid.UUID) (string, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.passwords[userID], f.setCalls[userID]
}

func (f *fakeIdentity) confirmCount(userID uuid.UUID) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.confirmCalls[userID]
}

type sentMail struct {
	To      string
	Subject string
	HTML    string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (n *fakeNotifier) Send(_ context.Context, to string, subject string, htmlBody string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, sentMail{To: to, Subject: subject, HTML: htmlBody})
	return nil
}

func (n *fakeNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

type recordingEvents struct {
	mu     sync.Mutex
	events []entity.TokenEvent
}

func (r *recordingEvents) Log(_ context.Context, event *entity.TokenEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, *event)
	return nil
}

func (r *recordingEvents) ListByUser(_ context.Context, userID uuid.UUID, _ int) ([]entity.TokenEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.TokenEvent
	for _, e := range r.events {
		if e.UserID != nil && *e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *recordingEvents) actions() []entity.TokenAction {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]entity.TokenAction, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Action)
	}
	return out
}
