package core

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"healthtrack-bot/internal/ingest"
	"healthtrack-bot/pkg"
)

// Normalizer recovers plain text from attachment payloads.
type Normalizer interface {
	Extract(ctx context.Context, data []byte, kind pkg.MediaKind) (string, error)
}

// Dispatcher routes each inbound user event to the session manager (while a
// check-in is in progress) or to the analysis pipeline (otherwise). It is
// the only component aware of both, and it replies with a single string per
// event.
type Dispatcher struct {
	sessions  *SessionManager
	analysis  *AnalysisService
	store     RecordStore
	extractor Normalizer
	logger    *zap.Logger
}

// NewDispatcher constructs a Dispatcher.
func NewDispatcher(sessions *SessionManager, analysis *AnalysisService, store RecordStore, extractor Normalizer, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		sessions:  sessions,
		analysis:  analysis,
		store:     store,
		extractor: extractor,
		logger:    logger,
	}
}

// OnStart handles /start: it registers the user on first contact and greets
// returning users.
func (d *Dispatcher) OnStart(ctx context.Context, userID int64, username string) (string, error) {
	user, err := d.store.GetUser(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("load user: %w", err)
	}
	if user != nil {
		return MsgWelcomeBack, nil
	}
	if err := d.store.CreateUser(ctx, userID, username); err != nil {
		return "", fmt.Errorf("create user: %w", err)
	}
	return MsgProfileCreated, nil
}

// OnText handles a plain text message. Input belongs to the active check-in
// when one exists; otherwise it is treated as a new health data submission.
func (d *Dispatcher) OnText(ctx context.Context, userID int64, text string) (string, error) {
	if d.sessions.IsActive(userID) {
		reply, err := d.sessions.Submit(ctx, userID, text)
		if errors.Is(err, ErrNoActiveSession) {
			// The session ended between the check and the submit. Per-user
			// ordering makes this unreachable in practice; fall through to
			// analysis rather than drop the message.
			return d.analyze(ctx, userID, text, pkg.KindRawText)
		}
		return reply, err
	}
	return d.analyze(ctx, userID, text, pkg.KindRawText)
}

// OnAttachment normalizes an attachment payload and feeds the extracted text
// to the analysis pipeline. Extraction failures are surfaced as a non-fatal
// notice and nothing is stored.
func (d *Dispatcher) OnAttachment(ctx context.Context, userID int64, payload []byte, kind pkg.MediaKind) (string, error) {
	text, err := d.extractor.Extract(ctx, payload, kind)
	switch {
	case errors.Is(err, ingest.ErrUnsupportedMedia):
		return MsgUnsupportedMedia, nil
	case errors.Is(err, ingest.ErrExtractionFailed):
		d.logger.Info("attachment extraction failed",
			zap.Int64("user_id", userID),
			zap.String("media_kind", string(kind)),
			zap.Error(err))
		return MsgExtractionFailed, nil
	case err != nil:
		return "", fmt.Errorf("extract attachment: %w", err)
	}
	return d.analyze(ctx, userID, text, recordKindFor(kind))
}

// OnQuestionnaireCommand handles /checkin: it starts a fresh check-in,
// discarding any session already in progress for the user.
func (d *Dispatcher) OnQuestionnaireCommand(ctx context.Context, userID int64) (string, error) {
	user, err := d.store.GetUser(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("load user: %w", err)
	}
	if user == nil {
		return MsgPleaseRegister, nil
	}
	return d.sessions.Start(userID), nil
}

// OnCancel handles /cancel. Cancelling is idempotent.
func (d *Dispatcher) OnCancel(userID int64) string {
	d.sessions.Cancel(userID)
	return MsgCheckinCancelled
}

// OnProfileUpdate handles /profile with "field=value" arguments, e.g.
// "/profile age=34 height=172". Unknown fields or malformed values yield a
// usage hint and leave the profile untouched.
func (d *Dispatcher) OnProfileUpdate(ctx context.Context, userID int64, args string) (string, error) {
	user, err := d.store.GetUser(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("load user: %w", err)
	}
	if user == nil {
		return MsgPleaseRegister, nil
	}
	update, ok := parseProfileArgs(args)
	if !ok {
		return MsgProfileUsage, nil
	}
	if err := d.store.UpdateProfile(ctx, userID, update); err != nil {
		return "", fmt.Errorf("update profile: %w", err)
	}
	return MsgProfileUpdated, nil
}

func (d *Dispatcher) analyze(ctx context.Context, userID int64, content string, kind pkg.RecordKind) (string, error) {
	narrative, err := d.analysis.AnalyzeAndStore(ctx, userID, content, kind)
	switch {
	case errors.Is(err, ErrUnknownUser):
		return MsgPleaseRegister, nil
	case errors.Is(err, ErrAnalysisUnavailable):
		return MsgAnalysisUnavailable, nil
	case err != nil:
		return "", err
	}
	return narrative, nil
}

func recordKindFor(kind pkg.MediaKind) pkg.RecordKind {
	switch kind {
	case pkg.MediaImage:
		return pkg.KindImageText
	case pkg.MediaPDF:
		return pkg.KindPDFText
	default:
		return pkg.KindRawText
	}
}

// parseProfileArgs parses "age=34 gender=f height=172 weight=64.5". At least
// one recognized field must be present.
func parseProfileArgs(args string) (pkg.ProfileUpdate, bool) {
	var update pkg.ProfileUpdate
	found := false
	for _, field := range strings.Fields(args) {
		key, value, ok := strings.Cut(field, "=")
		if !ok {
			return pkg.ProfileUpdate{}, false
		}
		switch strings.ToLower(key) {
		case "age":
			v, err := strconv.Atoi(value)
			if err != nil || v <= 0 {
				return pkg.ProfileUpdate{}, false
			}
			update.Age = &v
		case "gender":
			v := strings.ToLower(value)
			if v == "" {
				return pkg.ProfileUpdate{}, false
			}
			update.Gender = &v
		case "height":
			v, err := strconv.Atoi(value)
			if err != nil || v <= 0 {
				return pkg.ProfileUpdate{}, false
			}
			update.HeightCM = &v
		case "weight":
			v, err := strconv.ParseFloat(value, 64)
			if err != nil || v <= 0 {
				return pkg.ProfileUpdate{}, false
			}
			update.WeightKG = &v
		default:
			return pkg.ProfileUpdate{}, false
		}
		found = true
	}
	return update, found
}
