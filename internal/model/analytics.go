package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// AnalyticsSummary is the admin dashboard overview.
type AnalyticsSummary struct {
	OrdersByStatus              map[OrderStatus]int `json:"ordersByStatus"`
	TotalOrders                 int                 `json:"totalOrders"`
	Revenue                     decimal.Decimal     `json:"revenue"`
	RefundedTotal               decimal.Decimal     `json:"refundedTotal"`
	PendingCancellationRequests int                 `json:"pendingCancellationRequests"`
	ReviewCount                 int                 `json:"reviewCount"`
	AverageRating               float64             `json:"averageRating"`
	GeneratedAt                 time.Time           `json:"generatedAt"`
}
