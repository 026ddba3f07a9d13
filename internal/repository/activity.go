package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/loyalty/internal/logger"
	"github.com/loyalty/internal/model"
)

type ActivityRepository struct {
	pool *pgxpool.Pool
}

func NewActivityRepository(pool *pgxpool.Pool) *ActivityRepository {
	return &ActivityRepository{pool: pool}
}

func (r *ActivityRepository) Create(ctx context.Context, a *model.Activity) error {
	defer logger.DeferLogDuration("activity.Create", time.Now())()
	row := r.pool.QueryRow(ctx,
		`INSERT INTO activities (user_id, type, description, points, created_at)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		a.UserID, a.Type, a.Description, a.Points, a.CreatedAt)
	if err := row.Scan(&a.ID); err != nil {
		return fmt.Errorf("activityRepo.Create: %w", err)
	}
	return nil
}

// ListByUser returns the most recent activities, newest first.
func (r *ActivityRepository) ListByUser(ctx context.Context, userID int64, limit int) ([]model.Activity, error) {
	defer logger.DeferLogDuration("activity.ListByUser", time.Now())()
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, type, description, points, created_at
		 FROM activities WHERE user_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("activityRepo.ListByUser: %w", err)
	}
	defer rows.Close()
	var list []model.Activity
	for rows.Next() {
		var a model.Activity
		if err := rows.Scan(&a.ID, &a.UserID, &a.Type, &a.Description, &a.Points, &a.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, a)
	}
	return list, rows.Err()
}

type StatsRepository struct {
	pool *pgxpool.Pool
}

func NewStatsRepository(pool *pgxpool.Pool) *StatsRepository {
	return &StatsRepository{pool: pool}
}

// Get aggregates the user's statistics. Never cached: the volumes per user are small.
func (r *StatsRepository) Get(ctx context.Context, userID int64) (*model.Stats, error) {
	defer logger.DeferLogDuration("stats.Get", time.Now())()
	st := &model.Stats{}
	row := r.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM purchases WHERE user_id = $1),
			(SELECT COUNT(*) FROM swaps WHERE user_id = $1),
			(SELECT COALESCE(SUM(points), 0) FROM activities WHERE user_id = $1 AND points > 0),
			(SELECT COALESCE(-SUM(points), 0) FROM activities WHERE user_id = $1 AND points < 0),
			(SELECT COALESCE(AVG(total_amount), 0) FROM purchases WHERE user_id = $1),
			(SELECT COALESCE(SUM(points), 0) FROM activities
			   WHERE user_id = $1 AND points > 0 AND created_at > NOW() - INTERVAL '30 days'),
			(SELECT COALESCE(SUM(points), 0) FROM activities
			   WHERE user_id = $1 AND points > 0 AND created_at > NOW() - INTERVAL '7 days')`,
		userID)
	if err := row.Scan(&st.TotalPurchases, &st.TotalSwaps, &st.TotalPointsEarned, &st.TotalPointsSpent,
		&st.AverageOrderValue, &st.MonthlyPoints, &st.WeeklyPoints); err != nil {
		return nil, fmt.Errorf("statsRepo.Get: %w", err)
	}
	return st, nil
}
