package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/loyalty/internal/logger"
	"github.com/loyalty/internal/model"
)

var ErrNotFound = errors.New("not found")

// userCols is the SELECT column list, including disabled_at.
const userCols = `id, email, full_name, is_admin, total_points, password_hash, created_at, disabled_at`

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// scanUser scans a row into model.User (order matches userCols).
func scanUser(s interface{ Scan(dest ...any) error }, u *model.User) error {
	return s.Scan(&u.ID, &u.Email, &u.FullName, &u.IsAdmin, &u.TotalPoints, &u.PasswordHash, &u.CreatedAt, &u.DisabledAt)
}

func (r *UserRepository) Create(ctx context.Context, u *model.User) error {
	defer logger.DeferLogDuration("user.Create", time.Now())()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	row := r.pool.QueryRow(ctx,
		`INSERT INTO users (email, full_name, is_admin, total_points, password_hash, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		u.Email, u.FullName, u.IsAdmin, u.TotalPoints, u.PasswordHash, u.CreatedAt,
	)
	if err := row.Scan(&u.ID); err != nil {
		return fmt.Errorf("userRepo.Create: %w", err)
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	defer logger.DeferLogDuration("user.GetByID", time.Now())()
	u := &model.User{}
	row := r.pool.QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE id = $1`, id)
	if err := scanUser(row, u); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("userRepo.GetByID: %w", err)
	}
	return u, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	defer logger.DeferLogDuration("user.GetByEmail", time.Now())()
	u := &model.User{}
	row := r.pool.QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE lower(email) = lower($1)`, email)
	if err := scanUser(row, u); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("userRepo.GetByEmail: %w", err)
	}
	return u, nil
}

// AddPoints adjusts the balance by delta (positive or negative) and returns the new total.
// The CHECK constraint on total_points rejects a negative result.
func (r *UserRepository) AddPoints(ctx context.Context, userID int64, delta int) (int, error) {
	defer logger.DeferLogDuration("user.AddPoints", time.Now())()
	var total int
	row := r.pool.QueryRow(ctx,
		`UPDATE users SET total_points = total_points + $1 WHERE id = $2 RETURNING total_points`,
		delta, userID)
	if err := row.Scan(&total); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("userRepo.AddPoints: %w", err)
	}
	return total, nil
}
