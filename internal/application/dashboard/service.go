package dashboard

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/merchdash/backend/internal/domain/dashboard"
	"github.com/merchdash/backend/internal/domain/order"
	"github.com/merchdash/backend/internal/infrastructure/logger"
)

// defaultFetchTimeout bounds each upstream fetch during metrics aggregation
const defaultFetchTimeout = 10 * time.Second

// DashboardService aggregates orders from both sales channels into
// dashboard metrics.
type DashboardService struct {
	firebase     order.FirebaseChannel
	woocommerce  order.WooCommerceChannel
	fetchTimeout time.Duration
	group        singleflight.Group
	now          func() time.Time
}

// NewDashboardService creates a new DashboardService
func NewDashboardService(firebase order.FirebaseChannel, woocommerce order.WooCommerceChannel) *DashboardService {
	return &DashboardService{
		firebase:     firebase,
		woocommerce:  woocommerce,
		fetchTimeout: defaultFetchTimeout,
		now:          time.Now,
	}
}

// MetricsRequest defines the request filter for dashboard metrics
type MetricsRequest struct {
	// WindowStart, when set, restricts revenue and totals to orders created
	// at or after this instant. Orders without a creation timestamp are
	// always included.
	WindowStart *time.Time `form:"window_start" time_format:"2006-01-02T15:04:05Z07:00"`
}

// MetricsResponse represents the aggregated dashboard metrics
type MetricsResponse struct {
	TotalRevenue      string             `json:"total_revenue"`
	NewOrdersCount    int                `json:"new_orders_count"`
	ActiveOrdersCount int                `json:"active_orders_count"`
	TotalOrdersCount  int                `json:"total_orders_count"`
	RecentActivity    []ActivityResponse `json:"recent_activity"`
}

// ActivityResponse represents one entry of the recent activity feed
type ActivityResponse struct {
	ID           string    `json:"id"`
	CustomerName string    `json:"customer_name"`
	Description  string    `json:"description"`
	Timestamp    time.Time `json:"timestamp"`
}

// GetMetrics fetches both channels concurrently and computes the combined
// metrics. The join is all-or-nothing: if either channel fails, the whole
// call fails rather than reporting figures for a partial order set.
func (s *DashboardService) GetMetrics(ctx context.Context, req MetricsRequest) (*MetricsResponse, error) {
	key := "metrics"
	if req.WindowStart != nil {
		key = "metrics:" + req.WindowStart.UTC().Format(time.RFC3339)
	}

	v, err, _ := s.group.Do(key, func() (interface{}, error) {
		return s.computeMetrics(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	return v.(*MetricsResponse), nil
}

func (s *DashboardService) computeMetrics(ctx context.Context, req MetricsRequest) (*MetricsResponse, error) {
	var (
		firebaseOrders []order.Order
		wooOrders      []order.Order
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		fctx, cancel := context.WithTimeout(gctx, s.fetchTimeout)
		defer cancel()
		orders, err := s.firebase.FetchOrders(fctx, order.ListFilter{})
		if err != nil {
			logger.FromContext(ctx).Warn("metrics aggregation aborted: firebase fetch failed",
				zap.Error(err))
			return err
		}
		firebaseOrders = orders
		return nil
	})
	g.Go(func() error {
		wctx, cancel := context.WithTimeout(gctx, s.fetchTimeout)
		defer cancel()
		paged, err := s.woocommerce.FetchOrders(wctx, order.PageFilter{PerPage: 100})
		if err != nil {
			logger.FromContext(ctx).Warn("metrics aggregation aborted: woocommerce fetch failed",
				zap.Error(err))
			return err
		}
		wooOrders = paged.Orders
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	metrics := dashboard.Compute(firebaseOrders, wooOrders, req.WindowStart, s.now())
	return toMetricsResponse(metrics), nil
}

func toMetricsResponse(m dashboard.Metrics) *MetricsResponse {
	activity := make([]ActivityResponse, 0, len(m.RecentActivity))
	for _, entry := range m.RecentActivity {
		activity = append(activity, ActivityResponse{
			ID:           entry.ID,
			CustomerName: entry.CustomerName,
			Description:  entry.Description,
			Timestamp:    entry.Timestamp,
		})
	}
	return &MetricsResponse{
		TotalRevenue:      m.TotalRevenue.StringFixed(2),
		NewOrdersCount:    m.NewOrdersCount,
		ActiveOrdersCount: m.ActiveOrdersCount,
		TotalOrdersCount:  m.TotalOrdersCount,
		RecentActivity:    activity,
	}
}
