package core

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/looplab/fsm"
	"go.uber.org/zap"

	"healthtrack-bot/pkg"
)

// RecordStore is the persistence surface the core depends on. All operations
// are atomic at single-record granularity; no multi-record transactions are
// required. Lookups return (nil, nil) when the entity does not exist.
type RecordStore interface {
	GetUser(ctx context.Context, userID int64) (*pkg.User, error)
	CreateUser(ctx context.Context, userID int64, username string) error
	UpdateProfile(ctx context.Context, userID int64, update pkg.ProfileUpdate) error
	AppendRecord(ctx context.Context, userID int64, kind pkg.RecordKind, content string) (*pkg.Record, error)
	LatestRecord(ctx context.Context, userID int64) (*pkg.Record, error)
	AppendQuestionnaireAudit(ctx context.Context, userID int64, answers []pkg.Answer) error
}

// State and event names for the per-session machine. A session for an
// N-question check-in moves q0 -> q1 -> ... -> done, one "advance" per
// accepted answer; invalid input fires no event and leaves the state as is.
const (
	sessionDone  = "done"
	eventAdvance = "advance"
)

func stepState(i int) string { return fmt.Sprintf("q%d", i) }

func newSessionMachine(questionCount int) *fsm.FSM {
	events := make(fsm.Events, 0, questionCount)
	for i := 0; i < questionCount; i++ {
		dst := sessionDone
		if i+1 < questionCount {
			dst = stepState(i + 1)
		}
		events = append(events, fsm.EventDesc{Name: eventAdvance, Src: []string{stepState(i)}, Dst: dst})
	}
	return fsm.NewFSM(stepState(0), events, fsm.Callbacks{})
}

// session is one user's in-flight progress through the questionnaire. The
// step index equals len(answers) and always matches the machine state.
type session struct {
	userID    int64
	answers   []pkg.Answer
	machine   *fsm.FSM
	createdAt time.Time
}

// SessionManager owns the process-wide session table, keyed by user id. It
// is the single source of conversational state. Sessions are volatile: a
// restart loses in-flight progress, and restarting a check-in is always safe.
type SessionManager struct {
	mu       sync.Mutex
	sessions map[int64]*session

	quiz   *Questionnaire
	store  RecordStore
	logger *zap.Logger
	now    func() time.Time
}

// NewSessionManager constructs a SessionManager with an empty session table.
func NewSessionManager(quiz *Questionnaire, store RecordStore, logger *zap.Logger) *SessionManager {
	return &SessionManager{
		sessions: make(map[int64]*session),
		quiz:     quiz,
		store:    store,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Start creates a fresh session for the user and returns the first question
// prompt. Any existing session for the user is discarded, not merged: only
// one check-in can be active per user at a time.
func (m *SessionManager) Start(userID int64) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[userID] = &session{
		userID:    userID,
		machine:   newSessionMachine(m.quiz.Len()),
		createdAt: m.now(),
	}
	first, _ := m.quiz.Question(0)
	return first.Prompt
}

// IsActive reports whether the user has a check-in in progress. It is used
// by the dispatcher to route input and never mutates state.
func (m *SessionManager) IsActive(userID int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.sessions[userID]
	return ok
}

// Cancel destroys any session for the user. It is a no-op when none exists.
func (m *SessionManager) Cancel(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
}

// Submit applies one answer to the user's session. Invalid input leaves the
// session unchanged and returns a re-prompt for the same question. A valid
// answer advances the session; the answer completing the last question
// computes the score, persists the (question, answer) audit trail plus a
// questionnaire-result record, destroys the session, and returns the
// terminal score and feedback. Without an active session Submit returns
// ErrNoActiveSession, which callers treat as "not a questionnaire turn".
func (m *SessionManager) Submit(ctx context.Context, userID int64, raw string) (string, error) {
	m.mu.Lock()
	s, ok := m.sessions[userID]
	if !ok {
		m.mu.Unlock()
		return "", ErrNoActiveSession
	}
	step := len(s.answers)
	question, _ := m.quiz.Question(step)
	value, err := m.quiz.ValidateAnswer(step, raw)
	if err != nil {
		m.mu.Unlock()
		return promptInvalidAnswer(question.Prompt), nil
	}
	s.answers = append(s.answers, pkg.Answer{Question: question, Value: value})
	if err := s.machine.Event(ctx, eventAdvance); err != nil {
		// The machine mirrors len(answers), so this cannot happen unless the
		// session table was corrupted. Drop the session and start over.
		delete(m.sessions, userID)
		m.mu.Unlock()
		return "", fmt.Errorf("session state machine: %w", err)
	}
	if s.machine.Current() != sessionDone {
		next, _ := m.quiz.Question(len(s.answers))
		m.mu.Unlock()
		return next.Prompt, nil
	}
	// Terminal step: remove the session before doing any I/O so other users
	// are not blocked behind this one's store writes.
	delete(m.sessions, userID)
	m.mu.Unlock()
	return m.finish(ctx, userID, s.answers)
}

func (m *SessionManager) finish(ctx context.Context, userID int64, answers []pkg.Answer) (string, error) {
	// Persist the audit trail first so the answers survive even a scoring
	// misconfiguration.
	if err := m.store.AppendQuestionnaireAudit(ctx, userID, answers); err != nil {
		m.logger.Warn("questionnaire audit not persisted",
			zap.Int64("user_id", userID),
			zap.Error(err))
	}
	result, err := m.quiz.Score(answers)
	if err != nil {
		m.logger.Error("score band table misconfigured",
			zap.Int64("user_id", userID),
			zap.Error(err))
		return MsgScoreUnavailable, nil
	}
	content := fmt.Sprintf("Wellbeing check-in score: %d of %d. %s", result.Total, result.Max, result.Feedback)
	if _, err := m.store.AppendRecord(ctx, userID, pkg.KindQuestionnaire, content); err != nil {
		m.logger.Warn("questionnaire result record not persisted",
			zap.Int64("user_id", userID),
			zap.Error(err))
	}
	return fmt.Sprintf("Check-in complete. Your score: %d out of %d.\n\n%s", result.Total, result.Max, result.Feedback), nil
}
