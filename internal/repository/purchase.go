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

const purchaseCols = `id, user_id, order_number, product_name, product_description, restaurant,
	image_url, delivery_address, payment_method, total_amount, points_earned, status, ordered_at, delivered_at`

type PurchaseRepository struct {
	pool *pgxpool.Pool
}

func NewPurchaseRepository(pool *pgxpool.Pool) *PurchaseRepository {
	return &PurchaseRepository{pool: pool}
}

func scanPurchase(s interface{ Scan(dest ...any) error }, p *model.Purchase) error {
	return s.Scan(&p.ID, &p.UserID, &p.OrderNumber, &p.ProductName, &p.ProductDescription, &p.Restaurant,
		&p.ImageURL, &p.DeliveryAddress, &p.PaymentMethod, &p.TotalAmount, &p.PointsEarned, &p.Status,
		&p.OrderedAt, &p.DeliveredAt)
}

// ListByUser returns a page of the user's purchases, newest first, plus the total count for paging.
func (r *PurchaseRepository) ListByUser(ctx context.Context, userID int64, limit, offset int) ([]model.Purchase, int, error) {
	defer logger.DeferLogDuration("purchase.ListByUser", time.Now())()
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM purchases WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("purchaseRepo.ListByUser count: %w", err)
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+purchaseCols+` FROM purchases WHERE user_id = $1
		 ORDER BY ordered_at DESC, id DESC LIMIT $2 OFFSET $3`, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("purchaseRepo.ListByUser: %w", err)
	}
	defer rows.Close()
	var list []model.Purchase
	for rows.Next() {
		var p model.Purchase
		if err := scanPurchase(rows, &p); err != nil {
			return nil, 0, err
		}
		list = append(list, p)
	}
	return list, total, rows.Err()
}

// GetByID returns the purchase only if it belongs to the user.
func (r *PurchaseRepository) GetByID(ctx context.Context, userID, id int64) (*model.Purchase, error) {
	defer logger.DeferLogDuration("purchase.GetByID", time.Now())()
	p := &model.Purchase{}
	row := r.pool.QueryRow(ctx,
		`SELECT `+purchaseCols+` FROM purchases WHERE id = $1 AND user_id = $2`, id, userID)
	if err := scanPurchase(row, p); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("purchaseRepo.GetByID: %w", err)
	}
	return p, nil
}

func (r *PurchaseRepository) Create(ctx context.Context, p *model.Purchase) error {
	defer logger.DeferLogDuration("purchase.Create", time.Now())()
	row := r.pool.QueryRow(ctx,
		`INSERT INTO purchases (user_id, order_number, product_name, product_description, restaurant,
		   image_url, delivery_address, payment_method, total_amount, points_earned, status, ordered_at, delivered_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13) RETURNING id`,
		p.UserID, p.OrderNumber, p.ProductName, p.ProductDescription, p.Restaurant,
		p.ImageURL, p.DeliveryAddress, p.PaymentMethod, p.TotalAmount, p.PointsEarned, p.Status,
		p.OrderedAt, p.DeliveredAt)
	if err := row.Scan(&p.ID); err != nil {
		return fmt.Errorf("purchaseRepo.Create: %w", err)
	}
	return nil
}
