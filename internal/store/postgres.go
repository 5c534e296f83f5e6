package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campusfeed/backend/internal/models"
)

const uniqueViolation = "23505"

// PostgresUserStore handles user CRUD against PostgreSQL. It is used
// instead of MongoUserStore when USER_STORE=postgres.
type PostgresUserStore struct {
	pool *pgxpool.Pool
}

func NewPostgresUserStore(pool *pgxpool.Pool) *PostgresUserStore {
	return &PostgresUserStore{pool: pool}
}

// Migrate creates the users table if it doesn't exist.
func (s *PostgresUserStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			id         UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			name       VARCHAR(100) NOT NULL,
			email      VARCHAR(255) UNIQUE NOT NULL,
			password   VARCHAR(255) NOT NULL,
			role       VARCHAR(50)  NOT NULL DEFAULT 'student',
			university VARCHAR(255) NOT NULL DEFAULT '',
			bio        TEXT         NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ  NOT NULL DEFAULT NOW()
		)
	`)
	return err
}

const userColumns = `id::text, name, email, role, university, bio, created_at`

func scanUser(row pgx.Row, withPassword bool) (*models.User, error) {
	var u models.User
	dest := []any{&u.ID, &u.Name, &u.Email, &u.Role, &u.University, &u.Bio, &u.CreatedAt}
	if withPassword {
		dest = append(dest, &u.Password)
	}
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return &u, nil
}

func pgError(err error, op string) error {
	var pgErr *pgconn.PgError
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return models.ErrNotFound
	case errors.As(err, &pgErr) && pgErr.Code == uniqueViolation:
		return models.ErrEmailTaken
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (s *PostgresUserStore) CreateUser(ctx context.Context, u *models.User) (*models.User, error) {
	row := s.pool.QueryRow(ctx,
		`INSERT INTO users (name, email, password, role, university, bio)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+userColumns,
		u.Name, u.Email, u.Password, u.Role, u.University, u.Bio,
	)
	created, err := scanUser(row, false)
	if err != nil {
		return nil, pgError(err, "create user")
	}
	return created, nil
}

// GetUserByEmail includes the password hash.
func (s *PostgresUserStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+userColumns+`, password FROM users WHERE email = $1`, email,
	)
	u, err := scanUser(row, true)
	if err != nil {
		return nil, pgError(err, "get user by email")
	}
	return u, nil
}

func (s *PostgresUserStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, models.ErrNotFound
	}
	row := s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1::uuid`, id,
	)
	u, err := scanUser(row, false)
	if err != nil {
		return nil, pgError(err, "get user")
	}
	return u, nil
}

// UpdateUser overwrites only the non-nil fields; NULL parameters keep the
// current column value.
func (s *PostgresUserStore) UpdateUser(ctx context.Context, id string, upd models.UserUpdate) (*models.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, models.ErrNotFound
	}
	row := s.pool.QueryRow(ctx,
		`UPDATE users SET
			name       = COALESCE($2, name),
			email      = COALESCE($3, email),
			role       = COALESCE($4, role),
			university = COALESCE($5, university),
			bio        = COALESCE($6, bio)
		 WHERE id = $1::uuid
		 RETURNING `+userColumns,
		id, upd.Name, upd.Email, upd.Role, upd.University, upd.Bio,
	)
	u, err := scanUser(row, false)
	if err != nil {
		return nil, pgError(err, "update user")
	}
	return u, nil
}

// UsersByIDs returns the users found among ids, keyed by id. Ids that are
// not UUIDs are skipped.
func (s *PostgresUserStore) UsersByIDs(ctx context.Context, ids []string) (map[string]*models.User, error) {
	out := make(map[string]*models.User, len(ids))
	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		if parsed, err := uuid.Parse(id); err == nil {
			valid = append(valid, parsed.String())
		}
	}
	if len(valid) == 0 {
		return out, nil
	}

	rows, err := s.pool.Query(ctx,
		`SELECT `+userColumns+` FROM users WHERE id::text = ANY($1::text[])`, valid,
	)
	if err != nil {
		return nil, fmt.Errorf("users by ids: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		u, err := scanUser(rows, false)
		if err != nil {
			return nil, fmt.Errorf("users by ids: %w", err)
		}
		out[u.ID] = u
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("users by ids: %w", err)
	}
	return out, nil
}
