package mail

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// LogEntry records one delivery attempt for a billing document.
type LogEntry struct {
	ID           int64     `json:"id"`
	DocumentType string    `json:"document_type"`
	DocumentID   int64     `json:"document_id"`
	Recipient    string    `json:"recipient"`
	Subject      string    `json:"subject"`
	MessageID    string    `json:"message_id"`
	Status       string    `json:"status"`
	ErrorDetail  string    `json:"error_detail,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// LogStatus values for LogEntry.Status.
const (
	LogStatusSent   = "SENT"
	LogStatusFailed = "FAILED"
)

// LogRepository persists delivery attempts.
type LogRepository interface {
	Record(ctx context.Context, entry LogEntry) error
	ListForDocument(ctx context.Context, documentType string, documentID int64) ([]LogEntry, error)
}

type logRepository struct {
	pool *pgxpool.Pool
}

// NewLogRepository constructs a PostgreSQL backed log repository.
func NewLogRepository(pool *pgxpool.Pool) LogRepository {
	return &logRepository{pool: pool}
}

func (r *logRepository) Record(ctx context.Context, entry LogEntry) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO email_logs (document_type, document_id, recipient, subject, message_id, status, error_detail, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())`,
		entry.DocumentType, entry.DocumentID, entry.Recipient, entry.Subject, entry.MessageID, entry.Status, entry.ErrorDetail)
	return err
}

func (r *logRepository) ListForDocument(ctx context.Context, documentType string, documentID int64) ([]LogEntry, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, document_type, document_id, recipient, subject, message_id, status, error_detail, created_at
FROM email_logs WHERE document_type = $1 AND document_id = $2 ORDER BY created_at DESC`, documentType, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []LogEntry
	for rows.Next() {
		var e LogEntry
		if err := rows.Scan(&e.ID, &e.DocumentType, &e.DocumentID, &e.Recipient, &e.Subject, &e.MessageID, &e.Status, &e.ErrorDetail, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
