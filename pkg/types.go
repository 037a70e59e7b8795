package pkg

import "time"

// User is a registered bot user, keyed by the stable Telegram user id.
// Profile fields are optional and filled in by /profile updates.
type User struct {
	TelegramID int64     `json:"telegram_id"`
	Username   string    `json:"username"`
	Age        *int      `json:"age,omitempty"`
	Gender     *string   `json:"gender,omitempty"`
	HeightCM   *int      `json:"height_cm,omitempty"`
	WeightKG   *float64  `json:"weight_kg,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// ProfileUpdate carries the optional fields of a profile-update event.
// Nil fields are left unchanged.
type ProfileUpdate struct {
	Age      *int
	Gender   *string
	HeightCM *int
	WeightKG *float64
}

// RecordKind describes where the textual content of a record came from.
type RecordKind string

const (
	KindRawText       RecordKind = "raw-text"
	KindImageText     RecordKind = "image-text"
	KindPDFText       RecordKind = "pdf-text"
	KindQuestionnaire RecordKind = "questionnaire-result"
)

// Record is an immutable piece of user-submitted content. Records are
// append-only: they are never updated or deleted, and a comparison always
// runs against the most recently created record at the moment of the read.
type Record struct {
	ID        string     `json:"id"`
	UserID    int64      `json:"user_id"`
	Kind      RecordKind `json:"kind"`
	Content   string     `json:"content"`
	CreatedAt time.Time  `json:"created_at"`
}

// Question is one item of the check-in questionnaire. The sequence of
// questions is fixed at process start and shared read-only by all sessions.
type Question struct {
	Ordinal int    `json:"ordinal"`
	Prompt  string `json:"prompt"`
}

// Answer pairs a question with the accepted integer value.
type Answer struct {
	Question Question `json:"question"`
	Value    int      `json:"value"`
}

// ScoreBand maps an inclusive score range to feedback text. The configured
// bands must partition the achievable score space with no gaps or overlaps.
type ScoreBand struct {
	Min      int    `json:"min"`
	Max      int    `json:"max"`
	Feedback string `json:"feedback"`
}

// QuestionnaireResult is the scored outcome of a completed check-in.
type QuestionnaireResult struct {
	Total    int      `json:"total"`
	Max      int      `json:"max"`
	Feedback string   `json:"feedback"`
	Answers  []Answer `json:"answers"`
}

// MediaKind is the declared kind of an inbound attachment payload.
type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaPDF   MediaKind = "pdf"
	MediaText  MediaKind = "text"
)
