package core

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"healthtrack-bot/internal/db"
	"healthtrack-bot/pkg"
)

// fakeClient records the arguments of the last Compare call.
type fakeClient struct {
	lastLatest   string
	lastPrevious string
	reply        string
	err          error
	calls        int
}

func (f *fakeClient) Compare(_ context.Context, latest, previous string) (string, error) {
	f.calls++
	f.lastLatest = latest
	f.lastPrevious = previous
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func newTestAnalysis(t *testing.T) (*AnalysisService, *db.MemoryStore, *fakeClient) {
	t.Helper()
	store := db.NewMemoryStore()
	require.NoError(t, store.CreateUser(context.Background(), testUserID, "tester"))
	client := &fakeClient{reply: "your values improved"}
	return NewAnalysisService(store, client, zap.NewNop()), store, client
}

func TestAnalyzeUnknownUser(t *testing.T) {
	t.Parallel()

	store := db.NewMemoryStore()
	client := &fakeClient{}
	svc := NewAnalysisService(store, client, zap.NewNop())

	_, err := svc.AnalyzeAndStore(context.Background(), 999, "blood pressure 120/80", pkg.KindRawText)
	require.ErrorIs(t, err, ErrUnknownUser)
	assert.Zero(t, client.calls)
	assert.Empty(t, store.Records(999))
}

func TestFirstSubmissionSkipsInference(t *testing.T) {
	t.Parallel()

	svc, store, client := newTestAnalysis(t)

	narrative, err := svc.AnalyzeAndStore(context.Background(), testUserID, "blood pressure 120/80", pkg.KindRawText)
	require.NoError(t, err)
	assert.Equal(t, MsgFirstSubmission, narrative)
	assert.Zero(t, client.calls)

	records := store.Records(testUserID)
	require.Len(t, records, 1)
	assert.Equal(t, pkg.KindRawText, records[0].Kind)
	assert.Equal(t, "blood pressure 120/80", records[0].Content)
}

// The comparison request must present the call's input as "latest" and the
// most recent stored record as "previous" - never the other way around, and
// never the just-submitted content.
func TestComparisonDirectionality(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, store, client := newTestAnalysis(t)

	_, err := svc.AnalyzeAndStore(ctx, testUserID, "blood pressure 120/80", pkg.KindRawText)
	require.NoError(t, err)

	narrative, err := svc.AnalyzeAndStore(ctx, testUserID, "blood pressure 130/85", pkg.KindRawText)
	require.NoError(t, err)
	assert.Equal(t, "your values improved", narrative)
	assert.Equal(t, 1, client.calls)
	assert.Equal(t, "blood pressure 130/85", client.lastLatest)
	assert.Equal(t, "blood pressure 120/80", client.lastPrevious)

	records := store.Records(testUserID)
	require.Len(t, records, 2)
	assert.Equal(t, "blood pressure 130/85", records[1].Content)
}

// Any kind of prior record is eligible as "previous": extracted document
// text compares against earlier raw text and vice versa.
func TestComparisonIgnoresRecordKind(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, _, client := newTestAnalysis(t)

	_, err := svc.AnalyzeAndStore(ctx, testUserID, "glucose 5.1", pkg.KindPDFText)
	require.NoError(t, err)

	_, err = svc.AnalyzeAndStore(ctx, testUserID, "glucose 5.6", pkg.KindRawText)
	require.NoError(t, err)
	assert.Equal(t, "glucose 5.1", client.lastPrevious)
}

// Inference failure must not lose the submission: the record is persisted
// and the caller gets ErrAnalysisUnavailable.
func TestInferenceFailureStillPersists(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, store, client := newTestAnalysis(t)

	_, err := svc.AnalyzeAndStore(ctx, testUserID, "weight 82", pkg.KindRawText)
	require.NoError(t, err)

	client.err = errors.New("upstream timeout")
	_, err = svc.AnalyzeAndStore(ctx, testUserID, "weight 81", pkg.KindRawText)
	require.ErrorIs(t, err, ErrAnalysisUnavailable)

	records := store.Records(testUserID)
	require.Len(t, records, 2)
	assert.Equal(t, "weight 81", records[1].Content)
}

// Exactly one record is appended per invocation, regardless of outcome.
func TestExactlyOneRecordPerCall(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, store, client := newTestAnalysis(t)

	inputs := []string{"a", "b", "c"}
	for i, in := range inputs {
		if i == 2 {
			client.err = errors.New("boom")
		}
		_, _ = svc.AnalyzeAndStore(ctx, testUserID, in, pkg.KindRawText)
		assert.Len(t, store.Records(testUserID), i+1)
	}
}
