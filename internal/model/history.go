package model

import "time"

type PurchaseStatus string

const (
	PurchaseDelivered PurchaseStatus = "delivered"
	PurchaseInTransit PurchaseStatus = "in_transit"
	PurchaseCancelled PurchaseStatus = "cancelled"
)

type Purchase struct {
	ID                 int64          `json:"id"`
	UserID             int64          `json:"-"`
	OrderNumber        string         `json:"order_number"`
	ProductName        string         `json:"product_name"`
	ProductDescription string         `json:"product_description"`
	Restaurant         string         `json:"restaurant"`
	ImageURL           string         `json:"image_url"`
	DeliveryAddress    string         `json:"delivery_address"`
	PaymentMethod      string         `json:"payment_method"`
	TotalAmount        float64        `json:"total_amount"`
	PointsEarned       int            `json:"points_earned"`
	Status             PurchaseStatus `json:"status"`
	OrderedAt          time.Time      `json:"ordered_at"`
	DeliveredAt        *time.Time     `json:"delivered_at,omitempty"`
}

type SwapStatus string

const (
	SwapActive  SwapStatus = "active"
	SwapUsed    SwapStatus = "used"
	SwapExpired SwapStatus = "expired"
)

type Swap struct {
	ID          int64      `json:"id"`
	UserID      int64      `json:"-"`
	RewardID    *int64     `json:"reward_id,omitempty"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	PointsUsed  int        `json:"points_used"`
	Status      SwapStatus `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
}

type ActivityType string

const (
	ActivityPurchase ActivityType = "purchase"
	ActivitySwap     ActivityType = "swap"
	ActivityBonus    ActivityType = "bonus"
)

type Activity struct {
	ID          int64        `json:"id"`
	UserID      int64        `json:"-"`
	Type        ActivityType `json:"type"`
	Description string       `json:"description"`
	// Points is the balance delta: positive for purchases and bonuses, negative for swaps.
	Points    int       `json:"points"`
	CreatedAt time.Time `json:"created_at"`
}

// Stats are aggregated per user on request, never stored.
type Stats struct {
	TotalPurchases    int     `json:"total_purchases"`
	TotalSwaps        int     `json:"total_swaps"`
	TotalPointsEarned int     `json:"total_points_earned"`
	TotalPointsSpent  int     `json:"total_points_spent"`
	AverageOrderValue float64 `json:"average_order_value"`
	MonthlyPoints     int     `json:"monthly_points"`
	WeeklyPoints      int     `json:"weekly_points"`
}
