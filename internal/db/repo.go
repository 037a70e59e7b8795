package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"healthtrack-bot/pkg"
)

// Repository wraps the Postgres persistence for users, records and
// questionnaire audit rows. Records are append-only: nothing here updates
// or deletes a record once written.
type Repository struct {
	DB *sql.DB
}

// NewRepository constructs a Repository from an existing sql.DB. The caller
// is responsible for managing the connection lifecycle.
func NewRepository(db *sql.DB) *Repository { return &Repository{DB: db} }

// GetUser retrieves a user by Telegram id. It returns (nil, nil) when the
// user is not registered.
func (r *Repository) GetUser(ctx context.Context, userID int64) (*pkg.User, error) {
	var u pkg.User
	err := r.DB.QueryRowContext(ctx,
		`SELECT telegram_id, username, age, gender, height_cm, weight_kg, created_at
         FROM users
         WHERE telegram_id = $1`,
		userID,
	).Scan(&u.TelegramID, &u.Username, &u.Age, &u.Gender, &u.HeightCM, &u.WeightKG, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateUser registers a new user. Registering an already known id is a
// no-op so /start stays idempotent under retries.
func (r *Repository) CreateUser(ctx context.Context, userID int64, username string) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO users (telegram_id, username)
         VALUES ($1, $2)
         ON CONFLICT (telegram_id) DO NOTHING`,
		userID, username,
	)
	return err
}

// UpdateProfile applies the non-nil fields of the update to the user row.
func (r *Repository) UpdateProfile(ctx context.Context, userID int64, update pkg.ProfileUpdate) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE users
         SET age       = COALESCE($1, age),
             gender    = COALESCE($2, gender),
             height_cm = COALESCE($3, height_cm),
             weight_kg = COALESCE($4, weight_kg)
         WHERE telegram_id = $5`,
		update.Age, update.Gender, update.HeightCM, update.WeightKG, userID,
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("no user with telegram id %d", userID)
	}
	return nil
}

// AppendRecord stores a new content record for the user and returns it.
func (r *Repository) AppendRecord(ctx context.Context, userID int64, kind pkg.RecordKind, content string) (*pkg.Record, error) {
	rec := pkg.Record{
		ID:      uuid.NewString(),
		UserID:  userID,
		Kind:    kind,
		Content: content,
	}
	err := r.DB.QueryRowContext(ctx,
		`INSERT INTO records (id, user_id, kind, content)
         VALUES ($1, $2, $3, $4)
         RETURNING created_at`,
		rec.ID, rec.UserID, rec.Kind, rec.Content,
	).Scan(&rec.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// LatestRecord returns the most recently created record for the user, of
// any kind, or (nil, nil) when the user has no records yet.
func (r *Repository) LatestRecord(ctx context.Context, userID int64) (*pkg.Record, error) {
	var rec pkg.Record
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, user_id, kind, content, created_at
         FROM records
         WHERE user_id = $1
         ORDER BY created_at DESC
         LIMIT 1`,
		userID,
	).Scan(&rec.ID, &rec.UserID, &rec.Kind, &rec.Content, &rec.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// AppendQuestionnaireAudit stores every (question, answer) pair of a
// completed check-in.
func (r *Repository) AppendQuestionnaireAudit(ctx context.Context, userID int64, answers []pkg.Answer) error {
	for _, a := range answers {
		_, err := r.DB.ExecContext(ctx,
			`INSERT INTO questionnaire_answers (user_id, ordinal, question, answer)
             VALUES ($1, $2, $3, $4)`,
			userID, a.Question.Ordinal, a.Question.Prompt, a.Value,
		)
		if err != nil {
			return err
		}
	}
	return nil
}
