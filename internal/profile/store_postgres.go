package profile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"profiled/internal/platform/postgres"
	"profiled/pkg/domain"
	"profiled/pkg/platform/sentinel"
)

// PostgresStore implements Store on Postgres. Calls made inside a TxRunner
// transaction share it via context; ApplyUpdate additionally row-locks the
// user so concurrent updates serialize (last-committed-wins).
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const userColumns = `id, name, email, bio, company, profile_picture, is_deleted,
	last_profile_update, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, u *User) error {
	query := `
		INSERT INTO users (id, name, email, bio, company, profile_picture, is_deleted, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), FALSE, NOW(), NOW())
	`
	_, err := postgres.ExecutorFrom(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(u.ID), u.Name, u.Email, u.Bio, u.Company, u.ProfilePicture,
	)
	if isUniqueViolation(err) {
		return sentinel.ErrAlreadyUsed
	}
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetByID(ctx context.Context, id domain.UserID) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 AND is_deleted = FALSE`
	row := postgres.ExecutorFrom(ctx, s.db).QueryRowContext(ctx, query, uuid.UUID(id))
	return scanUser(row)
}

func (s *PostgresStore) ApplyUpdate(ctx context.Context, id domain.UserID, upd Update) (*User, domain.ChangeSet, error) {
	exec := postgres.ExecutorFrom(ctx, s.db)

	// Lock the row for the remainder of the transaction so the conflict
	// check and diff never run against data another update is changing.
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 AND is_deleted = FALSE FOR UPDATE`
	current, err := scanUser(exec.QueryRowContext(ctx, query, uuid.UUID(id)))
	if err != nil {
		return nil, nil, err
	}

	if upd.Email != nil && *upd.Email != current.Email {
		var taken bool
		err := exec.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM users WHERE email = $1 AND is_deleted = FALSE AND id != $2)`,
			*upd.Email, uuid.UUID(id),
		).Scan(&taken)
		if err != nil {
			return nil, nil, fmt.Errorf("check email uniqueness: %w", err)
		}
		if taken {
			return nil, nil, sentinel.ErrAlreadyUsed
		}
	}

	changes := computeDiff(current, upd)
	if len(changes) == 0 {
		return nil, nil, sentinel.ErrNoChanges
	}

	setClauses, args := buildUpdate(upd)
	args = append(args, uuid.UUID(id))
	updateQuery := fmt.Sprintf(`
		UPDATE users
		SET %s, last_profile_update = NOW(), updated_at = NOW()
		WHERE id = $%d
		RETURNING `+userColumns,
		strings.Join(setClauses, ", "), len(args))

	updated, err := scanUser(exec.QueryRowContext(ctx, updateQuery, args...))
	if isUniqueViolation(err) {
		// Unique partial index backstop for races outside a transaction.
		return nil, nil, sentinel.ErrAlreadyUsed
	}
	if err != nil {
		return nil, nil, fmt.Errorf("update user: %w", err)
	}
	return updated, changes, nil
}

func (s *PostgresStore) SoftDelete(ctx context.Context, id domain.UserID) error {
	query := `UPDATE users SET is_deleted = TRUE, updated_at = NOW() WHERE id = $1 AND is_deleted = FALSE`
	res, err := postgres.ExecutorFrom(ctx, s.db).ExecContext(ctx, query, uuid.UUID(id))
	if err != nil {
		return fmt.Errorf("soft delete user: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("soft delete user: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) LastProfileUpdate(ctx context.Context, id domain.UserID) (time.Time, error) {
	var last sql.NullTime
	err := postgres.ExecutorFrom(ctx, s.db).QueryRowContext(ctx,
		`SELECT last_profile_update FROM users WHERE id = $1 AND is_deleted = FALSE`,
		uuid.UUID(id),
	).Scan(&last)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, sentinel.ErrNotFound
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("query last profile update: %w", err)
	}
	if !last.Valid {
		return time.Time{}, nil
	}
	return last.Time, nil
}

func buildUpdate(upd Update) ([]string, []any) {
	var clauses []string
	var args []any

	add := func(column string, value string) {
		args = append(args, value)
		clauses = append(clauses, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if upd.Name != nil {
		add("name", *upd.Name)
	}
	if upd.Email != nil {
		add("email", *upd.Email)
	}
	if upd.Bio != nil {
		add("bio", *upd.Bio)
	}
	if upd.Company != nil {
		add("company", *upd.Company)
	}
	if upd.ProfilePicture != nil {
		add("profile_picture", *upd.ProfilePicture)
	}
	return clauses, args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*User, error) {
	var (
		u       User
		id      uuid.UUID
		picture sql.NullString
		last    sql.NullTime
	)
	err := row.Scan(&id, &u.Name, &u.Email, &u.Bio, &u.Company, &picture,
		&u.IsDeleted, &last, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	u.ID = domain.UserID(id)
	u.ProfilePicture = picture.String
	if last.Valid {
		u.LastProfileUpdate = last.Time
	}
	return &u, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
