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

// ErrInsufficientPoints is returned by Redeem when the balance does not cover the reward.
var ErrInsufficientPoints = errors.New("insufficient points")

type SwapRepository struct {
	pool *pgxpool.Pool
}

func NewSwapRepository(pool *pgxpool.Pool) *SwapRepository {
	return &SwapRepository{pool: pool}
}

// ListByUser returns a page of the user's swaps, newest first, plus the total count for paging.
func (r *SwapRepository) ListByUser(ctx context.Context, userID int64, limit, offset int) ([]model.Swap, int, error) {
	defer logger.DeferLogDuration("swap.ListByUser", time.Now())()
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM swaps WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("swapRepo.ListByUser count: %w", err)
	}
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, reward_id, title, description, points_used, status, created_at
		 FROM swaps WHERE user_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3`,
		userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("swapRepo.ListByUser: %w", err)
	}
	defer rows.Close()
	var list []model.Swap
	for rows.Next() {
		var s model.Swap
		if err := rows.Scan(&s.ID, &s.UserID, &s.RewardID, &s.Title, &s.Description, &s.PointsUsed, &s.Status, &s.CreatedAt); err != nil {
			return nil, 0, err
		}
		list = append(list, s)
	}
	return list, total, rows.Err()
}

// Redeem exchanges points for a reward in one transaction: conditional balance
// deduction, swap record, activity record. Returns the swap and the new balance.
func (r *SwapRepository) Redeem(ctx context.Context, userID int64, reward *model.Reward) (*model.Swap, int, error) {
	defer logger.DeferLogDuration("swap.Redeem", time.Now())()
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("swapRepo.Redeem begin: %w", err)
	}
	defer tx.Rollback(ctx)

	var balance int
	row := tx.QueryRow(ctx,
		`UPDATE users SET total_points = total_points - $1
		 WHERE id = $2 AND total_points >= $1 RETURNING total_points`,
		reward.PointsRequired, userID)
	if err := row.Scan(&balance); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// User missing or balance too low; the caller already resolved the user.
			return nil, 0, ErrInsufficientPoints
		}
		return nil, 0, fmt.Errorf("swapRepo.Redeem deduct: %w", err)
	}

	now := time.Now().UTC()
	s := &model.Swap{
		UserID:      userID,
		RewardID:    &reward.ID,
		Title:       reward.Title,
		Description: fmt.Sprintf("Redeemed for %d points", reward.PointsRequired),
		PointsUsed:  reward.PointsRequired,
		Status:      model.SwapActive,
		CreatedAt:   now,
	}
	row = tx.QueryRow(ctx,
		`INSERT INTO swaps (user_id, reward_id, title, description, points_used, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
		s.UserID, s.RewardID, s.Title, s.Description, s.PointsUsed, s.Status, s.CreatedAt)
	if err := row.Scan(&s.ID); err != nil {
		return nil, 0, fmt.Errorf("swapRepo.Redeem insert swap: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO activities (user_id, type, description, points, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		userID, model.ActivitySwap, "Swap: "+reward.Title, -reward.PointsRequired, now); err != nil {
		return nil, 0, fmt.Errorf("swapRepo.Redeem insert activity: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, 0, fmt.Errorf("swapRepo.Redeem commit: %w", err)
	}
	return s, balance, nil
}
