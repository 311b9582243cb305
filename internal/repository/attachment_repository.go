package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/intake-assistant/internal/domain"
)

// AttachmentRepository persists screenshot attachments for ticket records.
type AttachmentRepository interface {
	Write(ctx context.Context, attachment *domain.Attachment, body []byte) error
}

type attachmentRepository struct {
	pool *pgxpool.Pool
}

// NewAttachmentRepository constructs repository.
func NewAttachmentRepository(pool *pgxpool.Pool) AttachmentRepository {
	return &attachmentRepository{pool: pool}
}

func (r *attachmentRepository) Write(ctx context.Context, attachment *domain.Attachment, body []byte) error {
	const query = `
        INSERT INTO attachments (record_table, record_id, file_name, content_type, size_bytes, body)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		attachment.RecordTable,
		attachment.RecordID,
		attachment.FileName,
		attachment.ContentType,
		attachment.SizeBytes,
		body,
	).Scan(&attachment.ID, &attachment.CreatedAt)
}
