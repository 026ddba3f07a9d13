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

type RewardRepository struct {
	pool *pgxpool.Pool
}

func NewRewardRepository(pool *pgxpool.Pool) *RewardRepository {
	return &RewardRepository{pool: pool}
}

func (r *RewardRepository) List(ctx context.Context) ([]model.Reward, error) {
	defer logger.DeferLogDuration("reward.List", time.Now())()
	rows, err := r.pool.Query(ctx,
		`SELECT id, title, icon, points_required, is_available FROM rewards ORDER BY points_required, id`)
	if err != nil {
		return nil, fmt.Errorf("rewardRepo.List: %w", err)
	}
	defer rows.Close()
	var list []model.Reward
	for rows.Next() {
		var rw model.Reward
		if err := rows.Scan(&rw.ID, &rw.Title, &rw.Icon, &rw.PointsRequired, &rw.IsAvailable); err != nil {
			return nil, err
		}
		list = append(list, rw)
	}
	return list, rows.Err()
}

func (r *RewardRepository) GetByID(ctx context.Context, id int64) (*model.Reward, error) {
	defer logger.DeferLogDuration("reward.GetByID", time.Now())()
	rw := &model.Reward{}
	row := r.pool.QueryRow(ctx,
		`SELECT id, title, icon, points_required, is_available FROM rewards WHERE id = $1`, id)
	if err := row.Scan(&rw.ID, &rw.Title, &rw.Icon, &rw.PointsRequired, &rw.IsAvailable); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("rewardRepo.GetByID: %w", err)
	}
	return rw, nil
}

type PromotionRepository struct {
	pool *pgxpool.Pool
}

func NewPromotionRepository(pool *pgxpool.Pool) *PromotionRepository {
	return &PromotionRepository{pool: pool}
}

// List returns promotions that have not expired yet.
func (r *PromotionRepository) List(ctx context.Context) ([]model.Promotion, error) {
	defer logger.DeferLogDuration("promotion.List", time.Now())()
	rows, err := r.pool.Query(ctx,
		`SELECT id, title, description, image_url, expires_at FROM promotions
		 WHERE expires_at IS NULL OR expires_at > NOW() ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("promotionRepo.List: %w", err)
	}
	defer rows.Close()
	var list []model.Promotion
	for rows.Next() {
		var p model.Promotion
		if err := rows.Scan(&p.ID, &p.Title, &p.Description, &p.ImageURL, &p.ExpiresAt); err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, rows.Err()
}
