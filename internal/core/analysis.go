package core

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"healthtrack-bot/internal/llm"
	"healthtrack-bot/pkg"
)

// AnalysisService compares each new submission against the user's most
// recent stored record and persists the new content exactly once per call.
type AnalysisService struct {
	store  RecordStore
	llm    llm.Client
	logger *zap.Logger
}

// NewAnalysisService constructs an AnalysisService.
func NewAnalysisService(store RecordStore, client llm.Client, logger *zap.Logger) *AnalysisService {
	return &AnalysisService{store: store, llm: client, logger: logger}
}

// AnalyzeAndStore produces a comparison narrative for the new content and
// appends it to the user's history. The new record is written after the
// narrative has been obtained (or after the failure path decides to persist
// anyway), never before, so the prior-record read cannot observe the
// just-submitted content as its own "previous" value.
//
// On inference failure the content is still persisted and the call returns
// ErrAnalysisUnavailable: narrative generation may fail, user data may not
// be lost. Concurrent calls for the same user are not serialized here; the
// caller must not issue overlapping calls for one user id.
func (s *AnalysisService) AnalyzeAndStore(ctx context.Context, userID int64, content string, kind pkg.RecordKind) (string, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("load user: %w", err)
	}
	if user == nil {
		return "", ErrUnknownUser
	}
	previous, err := s.store.LatestRecord(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("load latest record: %w", err)
	}
	if previous == nil {
		if _, err := s.store.AppendRecord(ctx, userID, kind, content); err != nil {
			return "", fmt.Errorf("append record: %w", err)
		}
		return MsgFirstSubmission, nil
	}
	narrative, compareErr := s.llm.Compare(ctx, content, previous.Content)
	if _, err := s.store.AppendRecord(ctx, userID, kind, content); err != nil {
		return "", fmt.Errorf("append record: %w", err)
	}
	if compareErr != nil {
		s.logger.Warn("comparison failed, submission stored without narrative",
			zap.Int64("user_id", userID),
			zap.Error(compareErr))
		return "", fmt.Errorf("%w: %v", ErrAnalysisUnavailable, compareErr)
	}
	return narrative, nil
}
