// Package bot adapts Telegram updates to dispatcher events. It owns the
// long-polling loop, attachment downloads and per-user ordered processing;
// everything stateful lives behind the dispatcher.
package bot

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"healthtrack-bot/internal/core"
	"healthtrack-bot/pkg"
)

// maxAttachmentBytes caps how much of an attachment is downloaded.
const maxAttachmentBytes = 20 << 20

// Bot runs the Telegram long-polling loop and forwards each inbound message
// to the dispatcher through the owner user's serial queue.
type Bot struct {
	api         *tgbotapi.BotAPI
	dispatcher  *core.Dispatcher
	queues      *userQueues
	logger      *zap.Logger
	httpClient  *http.Client
	pollTimeout int
}

// New constructs a Bot around an authorized API client.
func New(api *tgbotapi.BotAPI, dispatcher *core.Dispatcher, pollTimeout int, logger *zap.Logger) *Bot {
	return &Bot{
		api:         api,
		dispatcher:  dispatcher,
		queues:      newUserQueues(),
		logger:      logger,
		httpClient:  &http.Client{Timeout: 60 * time.Second},
		pollTimeout: pollTimeout,
	}
}

// Run polls for updates until the context is cancelled, then drains the
// per-user queues before returning.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.pollTimeout
	updates := b.api.GetUpdatesChan(u)
	b.logger.Info("bot started", zap.String("username", b.api.Self.UserName))

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.queues.close()
			b.logger.Info("bot stopped")
			return nil
		case update, ok := <-updates:
			if !ok {
				b.queues.close()
				return nil
			}
			msg := update.Message
			if msg == nil || msg.From == nil {
				continue
			}
			// Events for one user are processed in arrival order; different
			// users proceed in parallel.
			b.queues.enqueue(msg.From.ID, func() { b.handle(ctx, msg) })
		}
	}
}

func (b *Bot) handle(ctx context.Context, msg *tgbotapi.Message) {
	reply, err := b.route(ctx, msg)
	if err != nil {
		b.logger.Error("event handling failed",
			zap.Int64("user_id", msg.From.ID),
			zap.Error(err))
		reply = core.MsgInternalError
	}
	if reply == "" {
		return
	}
	if _, err := b.api.Send(tgbotapi.NewMessage(msg.Chat.ID, reply)); err != nil {
		b.logger.Error("send reply failed",
			zap.Int64("chat_id", msg.Chat.ID),
			zap.Error(err))
	}
}

func (b *Bot) route(ctx context.Context, msg *tgbotapi.Message) (string, error) {
	userID := msg.From.ID
	switch {
	case msg.IsCommand():
		switch msg.Command() {
		case "start":
			return b.dispatcher.OnStart(ctx, userID, msg.From.UserName)
		case "checkin":
			return b.dispatcher.OnQuestionnaireCommand(ctx, userID)
		case "cancel":
			return b.dispatcher.OnCancel(userID), nil
		case "profile":
			return b.dispatcher.OnProfileUpdate(ctx, userID, msg.CommandArguments())
		default:
			return core.MsgUnknownCommand, nil
		}
	case len(msg.Photo) > 0:
		b.sendTyping(msg.Chat.ID)
		// Telegram lists photo sizes smallest first; take the largest.
		photo := msg.Photo[len(msg.Photo)-1]
		payload, err := b.download(ctx, photo.FileID)
		if err != nil {
			return "", fmt.Errorf("download photo: %w", err)
		}
		return b.dispatcher.OnAttachment(ctx, userID, payload, pkg.MediaImage)
	case msg.Document != nil:
		b.sendTyping(msg.Chat.ID)
		payload, err := b.download(ctx, msg.Document.FileID)
		if err != nil {
			return "", fmt.Errorf("download document: %w", err)
		}
		return b.dispatcher.OnAttachment(ctx, userID, payload, mediaKindForMime(msg.Document.MimeType))
	case msg.Text != "":
		b.sendTyping(msg.Chat.ID)
		return b.dispatcher.OnText(ctx, userID, msg.Text)
	default:
		return "", nil
	}
}

func (b *Bot) sendTyping(chatID int64) {
	if _, err := b.api.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)); err != nil {
		b.logger.Debug("chat action failed", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (b *Bot) download(ctx context.Context, fileID string) ([]byte, error) {
	url, err := b.api.GetFileDirectURL(fileID)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("file download: unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxAttachmentBytes))
}

func mediaKindForMime(mime string) pkg.MediaKind {
	switch {
	case mime == "application/pdf":
		return pkg.MediaPDF
	case strings.HasPrefix(mime, "image/"):
		return pkg.MediaImage
	case strings.HasPrefix(mime, "text/"):
		return pkg.MediaText
	default:
		// Unknown mime types are passed through verbatim; the normalizer
		// reports them as unsupported.
		return pkg.MediaKind(mime)
	}
}
