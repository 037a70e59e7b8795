package db

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"healthtrack-bot/pkg"
)

// MemoryStore is an in-memory implementation of the same persistence surface
// as Repository. It backs the core tests and local development without a
// Postgres instance.
type MemoryStore struct {
	mu      sync.RWMutex
	users   map[int64]*pkg.User
	records map[int64][]pkg.Record
	audit   map[int64][]pkg.Answer
	now     func() time.Time
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:   make(map[int64]*pkg.User),
		records: make(map[int64][]pkg.Record),
		audit:   make(map[int64][]pkg.Answer),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// GetUser returns (nil, nil) when the user is not registered.
func (s *MemoryStore) GetUser(_ context.Context, userID int64) (*pkg.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, nil
	}
	copied := *u
	return &copied, nil
}

// CreateUser registers a user; registering a known id is a no-op.
func (s *MemoryStore) CreateUser(_ context.Context, userID int64, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[userID]; ok {
		return nil
	}
	s.users[userID] = &pkg.User{
		TelegramID: userID,
		Username:   username,
		CreatedAt:  s.now(),
	}
	return nil
}

// UpdateProfile applies the non-nil fields of the update.
func (s *MemoryStore) UpdateProfile(_ context.Context, userID int64, update pkg.ProfileUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return fmt.Errorf("no user with telegram id %d", userID)
	}
	if update.Age != nil {
		u.Age = update.Age
	}
	if update.Gender != nil {
		u.Gender = update.Gender
	}
	if update.HeightCM != nil {
		u.HeightCM = update.HeightCM
	}
	if update.WeightKG != nil {
		u.WeightKG = update.WeightKG
	}
	return nil
}

// AppendRecord stores a new record. Like the Postgres foreign key, it
// rejects records for unregistered users.
func (s *MemoryStore) AppendRecord(_ context.Context, userID int64, kind pkg.RecordKind, content string) (*pkg.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[userID]; !ok {
		return nil, fmt.Errorf("no user with telegram id %d", userID)
	}
	rec := pkg.Record{
		ID:        uuid.NewString(),
		UserID:    userID,
		Kind:      kind,
		Content:   content,
		CreatedAt: s.now(),
	}
	s.records[userID] = append(s.records[userID], rec)
	return &rec, nil
}

// LatestRecord returns the most recently appended record of any kind, or
// (nil, nil) when the user has none.
func (s *MemoryStore) LatestRecord(_ context.Context, userID int64) (*pkg.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	recs := s.records[userID]
	if len(recs) == 0 {
		return nil, nil
	}
	rec := recs[len(recs)-1]
	return &rec, nil
}

// AppendQuestionnaireAudit stores the answers of a completed check-in.
func (s *MemoryStore) AppendQuestionnaireAudit(_ context.Context, userID int64, answers []pkg.Answer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[userID]; !ok {
		return fmt.Errorf("no user with telegram id %d", userID)
	}
	s.audit[userID] = append(s.audit[userID], answers...)
	return nil
}

// Records returns a copy of the user's records in creation order.
func (s *MemoryStore) Records(userID int64) []pkg.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]pkg.Record, len(s.records[userID]))
	copy(out, s.records[userID])
	return out
}

// Audit returns a copy of the user's stored questionnaire answers.
func (s *MemoryStore) Audit(userID int64) []pkg.Answer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]pkg.Answer, len(s.audit[userID]))
	copy(out, s.audit[userID])
	return out
}
