package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/intake-assistant/internal/domain"
)

// ticketTables is the closed set of record tables submissions route to.
// Queries interpolate the table name, so it must come from this set.
var ticketTables = map[string]bool{
	"incidents":        true,
	"problems":         true,
	"change_requests":  true,
	"service_requests": true,
	"hr_cases":         true,
	"queries":          true,
}

// TicketRepository persists routed intake tickets across the kind tables.
type TicketRepository interface {
	Create(ctx context.Context, table string, record *domain.TicketRecord) error
	AppendNotes(ctx context.Context, table, id, comment string) error
	HRTableAvailable(ctx context.Context) bool
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository returns a Postgres-backed implementation.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

func validTable(table string) error {
	if !ticketTables[table] {
		return fmt.Errorf("unknown ticket table %q", table)
	}
	return nil
}

func (r *ticketRepository) Create(ctx context.Context, table string, record *domain.TicketRecord) error {
	if err := validTable(table); err != nil {
		return err
	}
	query := fmt.Sprintf(`
        INSERT INTO %s (number, short_description, description, category, priority, state, comments, work_notes, opened_by)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING id, created_at, updated_at`, table)

	return r.pool.QueryRow(ctx, query,
		record.Number,
		record.ShortDescription,
		record.Description,
		record.Category,
		record.Priority,
		record.State,
		record.Comments,
		record.WorkNotes,
		record.OpenedBy,
	).Scan(&record.ID, &record.CreatedAt, &record.UpdatedAt)
}

// AppendNotes appends the comment block to both the public comments and
// the internal work notes of a record.
func (r *ticketRepository) AppendNotes(ctx context.Context, table, id, comment string) error {
	if err := validTable(table); err != nil {
		return err
	}
	query := fmt.Sprintf(`
        UPDATE %s
        SET comments = comments || $1, work_notes = work_notes || $1, updated_at = NOW()
        WHERE id=$2`, table)

	cmd, err := r.pool.Exec(ctx, query, comment, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// HRTableAvailable probes whether the HR case table exists in this
// environment. The check runs at call time, every call, because schema
// availability can differ per deployment.
func (r *ticketRepository) HRTableAvailable(ctx context.Context) bool {
	const query = `SELECT to_regclass('hr_cases') IS NOT NULL`

	var available bool
	if err := r.pool.QueryRow(ctx, query).Scan(&available); err != nil {
		return false
	}
	return available
}
