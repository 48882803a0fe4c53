package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mediaforge/renditions/cmd/renditions/models"
	"github.com/mediaforge/renditions/common/attachment"
	"github.com/mediaforge/renditions/common/db"
)

// ErrMediaNotFound is returned when no media record matches the id
var ErrMediaNotFound = errors.New("media record not found")

// MediaRepository handles database operations for media records
type MediaRepository struct {
	db *db.DB
}

// NewMediaRepository creates a new media repository
func NewMediaRepository(db *db.DB) *MediaRepository {
	return &MediaRepository{db: db}
}

// Create inserts a new media record
func (r *MediaRepository) Create(ctx context.Context, media *models.MediaRecord) error {
	snapshot, err := json.Marshal(media.Attachment)
	if err != nil {
		return fmt.Errorf("failed to marshal attachment snapshot: %w", err)
	}

	query := `
		INSERT INTO media_record (id, file_name, attachment, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		RETURNING created_at, updated_at
	`

	err = r.db.QueryRow(ctx, query,
		media.ID,
		media.FileName,
		snapshot,
	).Scan(&media.CreatedAt, &media.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create media record: %w", err)
	}

	return nil
}

// GetByID retrieves a media record by id
func (r *MediaRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.MediaRecord, error) {
	query := `
		SELECT id, file_name, attachment, created_at, updated_at
		FROM media_record
		WHERE id = $1
	`

	media := &models.MediaRecord{}
	var snapshot []byte

	err := r.db.QueryRow(ctx, query, id).Scan(
		&media.ID,
		&media.FileName,
		&snapshot,
		&media.CreatedAt,
		&media.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrMediaNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get media record: %w", err)
	}

	if err := json.Unmarshal(snapshot, &media.Attachment); err != nil {
		return nil, fmt.Errorf("failed to unmarshal attachment snapshot: %w", err)
	}

	return media, nil
}

// SwapAttachment replaces the attachment snapshot of an existing record
// and returns the snapshot it displaced. The row stays locked between
// the read and the write so concurrent swaps cannot hand the same old
// renditions to two callers.
func (r *MediaRepository) SwapAttachment(ctx context.Context, id uuid.UUID, fileName string, record attachment.Record) (attachment.Record, error) {
	snapshot, err := json.Marshal(record)
	if err != nil {
		return attachment.Record{}, fmt.Errorf("failed to marshal attachment snapshot: %w", err)
	}

	var old attachment.Record
	err = r.db.WithTx(ctx, func(tx pgx.Tx) error {
		var prev []byte
		err := tx.QueryRow(ctx,
			`SELECT attachment FROM media_record WHERE id = $1 FOR UPDATE`, id,
		).Scan(&prev)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrMediaNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to lock media record: %w", err)
		}

		if err := json.Unmarshal(prev, &old); err != nil {
			return fmt.Errorf("failed to unmarshal attachment snapshot: %w", err)
		}

		query := `
			UPDATE media_record
			SET file_name = $2, attachment = $3, updated_at = NOW()
			WHERE id = $1
		`
		if _, err := tx.Exec(ctx, query, id, fileName, snapshot); err != nil {
			return fmt.Errorf("failed to update media record: %w", err)
		}
		return nil
	})
	if err != nil {
		return attachment.Record{}, err
	}

	return old, nil
}

// Delete removes a media record
func (r *MediaRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM media_record WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete media record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrMediaNotFound
	}

	return nil
}

// List returns media records newest first
func (r *MediaRepository) List(ctx context.Context, limit, offset int) ([]*models.MediaRecord, error) {
	query := `
		SELECT id, file_name, attachment, created_at, updated_at
		FROM media_record
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list media records: %w", err)
	}
	defer rows.Close()

	var records []*models.MediaRecord
	for rows.Next() {
		media := &models.MediaRecord{}
		var snapshot []byte

		if err := rows.Scan(
			&media.ID,
			&media.FileName,
			&snapshot,
			&media.CreatedAt,
			&media.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan media record: %w", err)
		}

		if err := json.Unmarshal(snapshot, &media.Attachment); err != nil {
			return nil, fmt.Errorf("failed to unmarshal attachment snapshot: %w", err)
		}

		records = append(records, media)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate media records: %w", err)
	}

	return records, nil
}
