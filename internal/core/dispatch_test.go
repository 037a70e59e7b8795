package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"healthtrack-bot/internal/db"
	"healthtrack-bot/internal/ingest"
	"healthtrack-bot/pkg"
)

func newTestDispatcher(t *testing.T) (*Dispatcher, *db.MemoryStore, *fakeClient) {
	t.Helper()
	store := db.NewMemoryStore()
	client := &fakeClient{reply: "comparison narrative"}
	logger := zap.NewNop()
	sessions := NewSessionManager(twoQuestionQuiz(), store, logger)
	analysis := NewAnalysisService(store, client, logger)
	d := NewDispatcher(sessions, analysis, store, ingest.New(nil), logger)
	return d, store, client
}

func register(t *testing.T, d *Dispatcher) {
	t.Helper()
	reply, err := d.OnStart(context.Background(), testUserID, "tester")
	require.NoError(t, err)
	require.Equal(t, MsgProfileCreated, reply)
}

func TestOnStartRegistersOnce(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	d, store, _ := newTestDispatcher(t)

	register(t, d)
	user, err := store.GetUser(ctx, testUserID)
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "tester", user.Username)

	reply, err := d.OnStart(ctx, testUserID, "tester")
	require.NoError(t, err)
	assert.Equal(t, MsgWelcomeBack, reply)
}

func TestTextRoutesToActiveSession(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	d, _, client := newTestDispatcher(t)
	register(t, d)

	reply, err := d.OnQuestionnaireCommand(ctx, testUserID)
	require.NoError(t, err)
	assert.Equal(t, "How is your sleep?", reply)

	// Text during a check-in is an answer, not a submission.
	reply, err = d.OnText(ctx, testUserID, "3")
	require.NoError(t, err)
	assert.Equal(t, "How is your energy?", reply)
	assert.Zero(t, client.calls)
}

func TestTextRoutesToAnalysisWithoutSession(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	d, store, _ := newTestDispatcher(t)
	register(t, d)

	reply, err := d.OnText(ctx, testUserID, "blood pressure 120/80")
	require.NoError(t, err)
	assert.Equal(t, MsgFirstSubmission, reply)

	records := store.Records(testUserID)
	require.Len(t, records, 1)
	assert.Equal(t, pkg.KindRawText, records[0].Kind)
	assert.Equal(t, "blood pressure 120/80", records[0].Content)
}

func TestTextFromUnregisteredUser(t *testing.T) {
	t.Parallel()

	d, store, _ := newTestDispatcher(t)

	reply, err := d.OnText(context.Background(), testUserID, "blood pressure 120/80")
	require.NoError(t, err)
	assert.Equal(t, MsgPleaseRegister, reply)
	assert.Empty(t, store.Records(testUserID))
}

func TestQuestionnaireCommandRequiresRegistration(t *testing.T) {
	t.Parallel()

	d, _, _ := newTestDispatcher(t)

	reply, err := d.OnQuestionnaireCommand(context.Background(), testUserID)
	require.NoError(t, err)
	assert.Equal(t, MsgPleaseRegister, reply)
}

func TestCancelEndsSession(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	d, _, _ := newTestDispatcher(t)
	register(t, d)

	_, err := d.OnQuestionnaireCommand(ctx, testUserID)
	require.NoError(t, err)

	assert.Equal(t, MsgCheckinCancelled, d.OnCancel(testUserID))

	// After cancellation text goes to analysis again.
	reply, err := d.OnText(ctx, testUserID, "pulse 60")
	require.NoError(t, err)
	assert.Equal(t, MsgFirstSubmission, reply)
}

func TestAttachmentPlainText(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	d, store, _ := newTestDispatcher(t)
	register(t, d)

	reply, err := d.OnAttachment(ctx, testUserID, []byte("cholesterol 4.9\n"), pkg.MediaText)
	require.NoError(t, err)
	assert.Equal(t, MsgFirstSubmission, reply)

	records := store.Records(testUserID)
	require.Len(t, records, 1)
	assert.Equal(t, "cholesterol 4.9", records[0].Content)
}

// Extraction failure is a non-fatal notice: no record is written.
func TestAttachmentExtractionFailure(t *testing.T) {
	t.Parallel()

	d, store, _ := newTestDispatcher(t)
	register(t, d)

	// No OCR backend is configured, so image payloads cannot be read.
	reply, err := d.OnAttachment(context.Background(), testUserID, []byte{0xff, 0xd8}, pkg.MediaImage)
	require.NoError(t, err)
	assert.Equal(t, MsgExtractionFailed, reply)
	assert.Empty(t, store.Records(testUserID))
}

func TestAttachmentUnsupportedKind(t *testing.T) {
	t.Parallel()

	d, store, _ := newTestDispatcher(t)
	register(t, d)

	reply, err := d.OnAttachment(context.Background(), testUserID, []byte("RIFF"), pkg.MediaKind("audio/wav"))
	require.NoError(t, err)
	assert.Equal(t, MsgUnsupportedMedia, reply)
	assert.Empty(t, store.Records(testUserID))
}

// Extracted image text feeds the same comparison pipeline as raw text, with
// the stored record carrying the extraction kind.
func TestAttachmentWithOCRBackend(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := db.NewMemoryStore()
	client := &fakeClient{reply: "comparison narrative"}
	logger := zap.NewNop()
	sessions := NewSessionManager(twoQuestionQuiz(), store, logger)
	analysis := NewAnalysisService(store, client, logger)
	ocr := func(_ context.Context, _ []byte, _ pkg.MediaKind) (string, error) {
		return "hemoglobin 140", nil
	}
	d := NewDispatcher(sessions, analysis, store, ingest.New(ocr), logger)
	register(t, d)

	_, err := d.OnText(ctx, testUserID, "hemoglobin 135")
	require.NoError(t, err)

	reply, err := d.OnAttachment(ctx, testUserID, []byte{0xff, 0xd8}, pkg.MediaImage)
	require.NoError(t, err)
	assert.Equal(t, "comparison narrative", reply)
	assert.Equal(t, "hemoglobin 140", client.lastLatest)
	assert.Equal(t, "hemoglobin 135", client.lastPrevious)

	records := store.Records(testUserID)
	require.Len(t, records, 2)
	assert.Equal(t, pkg.KindImageText, records[1].Kind)
}

func TestProfileUpdate(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	d, store, _ := newTestDispatcher(t)
	register(t, d)

	reply, err := d.OnProfileUpdate(ctx, testUserID, "age=34 height=172 weight=64.5 gender=f")
	require.NoError(t, err)
	assert.Equal(t, MsgProfileUpdated, reply)

	user, err := store.GetUser(ctx, testUserID)
	require.NoError(t, err)
	require.NotNil(t, user.Age)
	assert.Equal(t, 34, *user.Age)
	require.NotNil(t, user.HeightCM)
	assert.Equal(t, 172, *user.HeightCM)
	require.NotNil(t, user.WeightKG)
	assert.InDelta(t, 64.5, *user.WeightKG, 0.001)
	require.NotNil(t, user.Gender)
	assert.Equal(t, "f", *user.Gender)
}

func TestProfileUpdateRejectsMalformedArgs(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	d, store, _ := newTestDispatcher(t)
	register(t, d)

	for _, args := range []string{"", "age", "age=abc", "shoe=42", "weight=-1"} {
		reply, err := d.OnProfileUpdate(ctx, testUserID, args)
		require.NoError(t, err)
		assert.Equal(t, MsgProfileUsage, reply, "args %q", args)
	}

	user, err := store.GetUser(ctx, testUserID)
	require.NoError(t, err)
	assert.Nil(t, user.Age)
}
