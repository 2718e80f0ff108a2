package dashboard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/merchdash/backend/internal/domain/order"
)

type fakeFirebase struct {
	fetchFn func(ctx context.Context, filter order.ListFilter) ([]order.Order, error)
}

func (f *fakeFirebase) FetchOrders(ctx context.Context, filter order.ListFilter) ([]order.Order, error) {
	return f.fetchFn(ctx, filter)
}

func (f *fakeFirebase) CreateOrder(context.Context, *order.Order) error { return nil }
func (f *fakeFirebase) UpdateOrder(context.Context, string, order.Patch, time.Time) error {
	return nil
}
func (f *fakeFirebase) DeleteOrder(context.Context, string) error { return nil }

type fakeWooCommerce struct {
	fetchFn func(ctx context.Context, filter order.PageFilter) (*order.PagedOrders, error)
}

func (f *fakeWooCommerce) FetchOrders(ctx context.Context, filter order.PageFilter) (*order.PagedOrders, error) {
	return f.fetchFn(ctx, filter)
}

func (f *fakeWooCommerce) FetchProduct(context.Context, int64) (*order.ProductDetails, error) {
	return nil, nil
}

func testOrder(source order.Source, customer, price string, qty int, createdAt *time.Time) order.Order {
	return order.Order{
		ID:            "o1",
		Source:        source,
		OrderID:       "1001",
		CustomerName:  customer,
		Status:        order.StatusPending,
		PaymentMethod: order.PaymentPrepaid,
		Products: []order.Product{
			{Name: "Tee", UnitPrice: decimal.RequireFromString(price), Qty: qty, Colour: "Black"},
		},
		CreatedAt: createdAt,
	}
}

func TestDashboardService_GetMetrics(t *testing.T) {
	now := time.Date(2026, 8, 21, 15, 0, 0, 0, time.UTC)
	today := now.Add(-2 * time.Hour)

	fb := &fakeFirebase{
		fetchFn: func(_ context.Context, filter order.ListFilter) ([]order.Order, error) {
			assert.Nil(t, filter.Status, "metrics aggregate all statuses")
			return []order.Order{testOrder(order.SourceFirebase, "Asha", "250.00", 2, &today)}, nil
		},
	}
	woo := &fakeWooCommerce{
		fetchFn: func(_ context.Context, _ order.PageFilter) (*order.PagedOrders, error) {
			return &order.PagedOrders{
				Orders: []order.Order{testOrder(order.SourceWooCommerce, "Ben", "500.00", 1, nil)},
				Total:  1, TotalPages: 1,
			}, nil
		},
	}

	svc := NewDashboardService(fb, woo)
	svc.now = func() time.Time { return now }

	resp, err := svc.GetMetrics(context.Background(), MetricsRequest{})
	require.NoError(t, err)
	assert.Equal(t, "1000.00", resp.TotalRevenue)
	assert.Equal(t, 2, resp.TotalOrdersCount)
	assert.Equal(t, 2, resp.ActiveOrdersCount)
	assert.Equal(t, 2, resp.NewOrdersCount)
	require.Len(t, resp.RecentActivity, 2)
}

func TestDashboardService_GetMetrics_AllOrNothing(t *testing.T) {
	upstreamErr := order.NewNetworkError(order.SourceWooCommerce, "fetch orders", 502, errors.New("bad gateway"))

	fb := &fakeFirebase{
		fetchFn: func(_ context.Context, _ order.ListFilter) ([]order.Order, error) {
			return []order.Order{testOrder(order.SourceFirebase, "Asha", "250.00", 2, nil)}, nil
		},
	}
	woo := &fakeWooCommerce{
		fetchFn: func(_ context.Context, _ order.PageFilter) (*order.PagedOrders, error) {
			return nil, upstreamErr
		},
	}

	svc := NewDashboardService(fb, woo)

	_, err := svc.GetMetrics(context.Background(), MetricsRequest{})
	require.Error(t, err, "one failed channel fails the whole aggregation")

	var netErr *order.NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.Equal(t, order.SourceWooCommerce, netErr.Source)
}

func TestDashboardService_GetMetrics_WindowStart(t *testing.T) {
	now := time.Date(2026, 8, 21, 15, 0, 0, 0, time.UTC)
	old := now.AddDate(0, -2, 0)
	recent := now.Add(-1 * time.Hour)
	windowStart := now.AddDate(0, 0, -7)

	fb := &fakeFirebase{
		fetchFn: func(_ context.Context, _ order.ListFilter) ([]order.Order, error) {
			return []order.Order{
				testOrder(order.SourceFirebase, "Old", "100.00", 1, &old),
				testOrder(order.SourceFirebase, "Recent", "150.00", 1, &recent),
			}, nil
		},
	}
	woo := &fakeWooCommerce{
		fetchFn: func(_ context.Context, _ order.PageFilter) (*order.PagedOrders, error) {
			return &order.PagedOrders{}, nil
		},
	}

	svc := NewDashboardService(fb, woo)
	svc.now = func() time.Time { return now }

	resp, err := svc.GetMetrics(context.Background(), MetricsRequest{WindowStart: &windowStart})
	require.NoError(t, err)
	assert.Equal(t, "150.00", resp.TotalRevenue)
	assert.Equal(t, 1, resp.TotalOrdersCount)
}
