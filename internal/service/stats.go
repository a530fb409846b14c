package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/shopverse/internal/model"
	"github.com/iliyamo/shopverse/internal/repository"
)

// Stats is the admin dashboard summary.
type Stats struct {
	TotalProducts int             `json:"totalProducts"`
	TotalOrders   int             `json:"totalOrders"`
	TotalUsers    int             `json:"totalUsers"`
	TotalRevenue  decimal.Decimal `json:"totalRevenue"`
}

type StatsService struct {
	store repository.Store
}

func NewStatsService(store repository.Store) *StatsService {
	return &StatsService{store: store}
}

// Stats computes totals from the store.  Cancelled orders do not count
// towards revenue.
func (s *StatsService) Stats(ctx context.Context) (Stats, error) {
	products, err := s.store.ListProducts(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("list products: %w", err)
	}
	orders, err := s.store.ListAllOrders(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("list orders: %w", err)
	}
	users, err := s.store.CountUsers(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("count users: %w", err)
	}
	revenue := decimal.Zero
	for _, o := range orders {
		if o.Status != model.OrderCancelled {
			revenue = revenue.Add(o.TotalPrice)
		}
	}
	return Stats{
		TotalProducts: len(products),
		TotalOrders:   len(orders),
		TotalUsers:    users,
		TotalRevenue:  revenue,
	}, nil
}
