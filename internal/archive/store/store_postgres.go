package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"atelier/internal/archive/models"
	id "atelier/pkg/domain"
	"atelier/pkg/platform/sentinel"
	txcontext "atelier/pkg/platform/tx"
)

// PostgresStore keeps images in archive_images with tags as TEXT[] and the
// generation config as JSONB.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

const selectColumns = `id, user_id, image_data, mime_type, prompt, config, tags, created_at`

// Insert serializes saves per user with a transaction-scoped advisory lock so
// the count check and the insert see the same archive.
func (s *PostgresStore) Insert(ctx context.Context, img *models.Image, limit int) error {
	return txcontext.Run(ctx, s.db, func(ctx context.Context) error {
		db := s.execer(ctx)
		if limit >= 0 {
			if _, err := db.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, img.UserID.String()); err != nil {
				return fmt.Errorf("lock archive: %w", err)
			}
			n, err := s.Count(ctx, img.UserID)
			if err != nil {
				return err
			}
			if n >= limit {
				return sentinel.ErrInsufficient
			}
		}

		config := []byte(img.Config)
		if len(config) == 0 {
			config = []byte("{}")
		}
		tags := pq.StringArray(img.Tags)
		if tags == nil {
			tags = pq.StringArray{}
		}
		_, err := db.ExecContext(ctx, `
			INSERT INTO archive_images (id, user_id, image_data, mime_type, prompt, config, tags, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, uuid.UUID(img.ID), uuid.UUID(img.UserID), img.Data, img.MimeType, img.Prompt,
			config, tags, img.CreatedAt)
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return sentinel.ErrConflict
		}
		if err != nil {
			return fmt.Errorf("insert archive image: %w", err)
		}
		return nil
	})
}

func (s *PostgresStore) Count(ctx context.Context, userID id.UserID) (int, error) {
	var n int
	err := s.execer(ctx).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM archive_images WHERE user_id = $1`, uuid.UUID(userID),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count archive images: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) Get(ctx context.Context, userID id.UserID, imageID id.ImageID) (*models.Image, error) {
	row := s.execer(ctx).QueryRowContext(ctx,
		`SELECT `+selectColumns+` FROM archive_images WHERE id = $1 AND user_id = $2`,
		uuid.UUID(imageID), uuid.UUID(userID),
	)
	img, err := scanImage(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get archive image: %w", err)
	}
	return img, nil
}

func (s *PostgresStore) List(ctx context.Context, userID id.UserID, limit, offset int) ([]*models.Image, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, `
		SELECT `+selectColumns+`
		FROM archive_images
		WHERE user_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2 OFFSET $3
	`, uuid.UUID(userID), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list archive images: %w", err)
	}
	defer rows.Close()

	out := []*models.Image{}
	for rows.Next() {
		img, err := scanImage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan archive image: %w", err)
		}
		out = append(out, img)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate archive images: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Delete(ctx context.Context, userID id.UserID, imageID id.ImageID) error {
	res, err := s.execer(ctx).ExecContext(ctx,
		`DELETE FROM archive_images WHERE id = $1 AND user_id = $2`,
		uuid.UUID(imageID), uuid.UUID(userID),
	)
	if err != nil {
		return fmt.Errorf("delete archive image: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanImage(row scanner) (*models.Image, error) {
	var (
		imageID, userID uuid.UUID
		config          []byte
		tags            pq.StringArray
		img             models.Image
	)
	if err := row.Scan(&imageID, &userID, &img.Data, &img.MimeType, &img.Prompt, &config, &tags, &img.CreatedAt); err != nil {
		return nil, err
	}
	img.ID = id.ImageID(imageID)
	img.UserID = id.UserID(userID)
	img.Tags = []string(tags)
	if img.Tags == nil {
		img.Tags = []string{}
	}
	if len(config) > 0 && string(config) != "{}" {
		img.Config = config
	}
	return &img, nil
}
