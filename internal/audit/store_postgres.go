package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"profiled/internal/platform/postgres"
	"profiled/pkg/domain"
)

// PostgresStore implements Store on Postgres. Append joins the caller's
// transaction when one is in context, which is how an audit entry and the
// profile write it describes commit atomically.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, entry Entry) error {
	changes, err := json.Marshal(entry.Changes)
	if err != nil {
		return fmt.Errorf("marshal changes: %w", err)
	}

	query := `
		INSERT INTO audit_logs (id, user_id, action, changes, changed_by, timestamp, ip_address, user_agent, client)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err = postgres.ExecutorFrom(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(entry.ID),
		uuid.UUID(entry.UserID),
		string(entry.Action),
		changes,
		uuid.UUID(entry.ChangedBy),
		entry.Timestamp,
		entry.IPAddress,
		entry.UserAgent,
		entry.Client,
	)
	if err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByUser(ctx context.Context, userID domain.UserID, params ListParams) ([]Entry, int, error) {
	exec := postgres.ExecutorFrom(ctx, s.db)

	var total int
	err := exec.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM audit_logs WHERE user_id = $1`, uuid.UUID(userID),
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count audit logs: %w", err)
	}

	// Sort column and direction come from validated enums, never raw input.
	column := "timestamp"
	if params.SortBy == SortByAction {
		column = "action"
	}
	direction := "DESC"
	if params.Order == OrderAsc {
		direction = "ASC"
	}

	query := fmt.Sprintf(`
		SELECT id, user_id, action, changes, changed_by, timestamp, ip_address, user_agent, client
		FROM audit_logs
		WHERE user_id = $1
		ORDER BY %s %s
		LIMIT $2 OFFSET $3
	`, column, direction)

	rows, err := exec.QueryContext(ctx, query,
		uuid.UUID(userID), params.Limit, (params.Page-1)*params.Limit)
	if err != nil {
		return nil, 0, fmt.Errorf("query audit logs: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e          Entry
			id, userID uuid.UUID
			changedBy  uuid.UUID
			changes    []byte
		)
		if err := rows.Scan(&id, &userID, &e.Action, &changes, &changedBy,
			&e.Timestamp, &e.IPAddress, &e.UserAgent, &e.Client); err != nil {
			return nil, 0, fmt.Errorf("scan audit log: %w", err)
		}
		if err := json.Unmarshal(changes, &e.Changes); err != nil {
			return nil, 0, fmt.Errorf("unmarshal changes: %w", err)
		}
		e.ID = domain.AuditLogID(id)
		e.UserID = domain.UserID(userID)
		e.ChangedBy = domain.UserID(changedBy)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate audit logs: %w", err)
	}
	return entries, total, nil
}

func (s *PostgresStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := postgres.ExecutorFrom(ctx, s.db).ExecContext(ctx,
		`DELETE FROM audit_logs WHERE timestamp < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete old audit logs: %w", err)
	}
	return res.RowsAffected()
}
