package order

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/merchdash/backend/internal/domain/order"
	"github.com/merchdash/backend/internal/infrastructure/cache"
	"github.com/merchdash/backend/internal/infrastructure/logger"
)

// ---------------------------------------------------------------------------
// Fakes
// ---------------------------------------------------------------------------

type fakeFirebase struct {
	fetchCalls  atomic.Int64
	updateCalls atomic.Int64

	fetchFn  func(ctx context.Context, filter order.ListFilter) ([]order.Order, error)
	createFn func(ctx context.Context, o *order.Order) error
	updateFn func(ctx context.Context, id string, patch order.Patch, updatedAt time.Time) error
	deleteFn func(ctx context.Context, id string) error
}

func (f *fakeFirebase) FetchOrders(ctx context.Context, filter order.ListFilter) ([]order.Order, error) {
	f.fetchCalls.Add(1)
	return f.fetchFn(ctx, filter)
}

func (f *fakeFirebase) CreateOrder(ctx context.Context, o *order.Order) error {
	if f.createFn == nil {
		return nil
	}
	return f.createFn(ctx, o)
}

func (f *fakeFirebase) UpdateOrder(ctx context.Context, id string, patch order.Patch, updatedAt time.Time) error {
	f.updateCalls.Add(1)
	return f.updateFn(ctx, id, patch, updatedAt)
}

func (f *fakeFirebase) DeleteOrder(ctx context.Context, id string) error {
	if f.deleteFn == nil {
		return nil
	}
	return f.deleteFn(ctx, id)
}

type fakeWooCommerce struct {
	fetchFn   func(ctx context.Context, filter order.PageFilter) (*order.PagedOrders, error)
	productFn func(ctx context.Context, productID int64) (*order.ProductDetails, error)
}

func (f *fakeWooCommerce) FetchOrders(ctx context.Context, filter order.PageFilter) (*order.PagedOrders, error) {
	return f.fetchFn(ctx, filter)
}

func (f *fakeWooCommerce) FetchProduct(ctx context.Context, productID int64) (*order.ProductDetails, error) {
	return f.productFn(ctx, productID)
}

func newTestService(fb *fakeFirebase, woo *fakeWooCommerce) (*OrderService, *cache.InMemoryListVersions) {
	invalidator := cache.NewInMemoryListVersions()
	svc := NewOrderService(fb, woo, invalidator)
	svc.now = func() time.Time { return time.Date(2026, 8, 21, 12, 0, 0, 0, time.UTC) }
	return svc, invalidator
}

func sampleOrder(id, orderID, customer string) order.Order {
	return order.Order{
		ID:            id,
		Source:        order.SourceFirebase,
		OrderID:       orderID,
		CustomerName:  customer,
		Status:        order.StatusPending,
		PaymentMethod: order.PaymentPrepaid,
		Products: []order.Product{
			{Name: "Classic Tee", UnitPrice: decimal.RequireFromString("499.00"), Qty: 2, Colour: "Black"},
		},
	}
}

// ---------------------------------------------------------------------------
// List
// ---------------------------------------------------------------------------

func TestOrderService_ListOrders_Firebase(t *testing.T) {
	fb := &fakeFirebase{
		fetchFn: func(_ context.Context, filter order.ListFilter) ([]order.Order, error) {
			require.NotNil(t, filter.Status)
			assert.Equal(t, order.StatusPending, *filter.Status)
			return []order.Order{sampleOrder("f1", "1042", "Asha")}, nil
		},
	}
	svc, _ := newTestService(fb, &fakeWooCommerce{})

	resp, err := svc.ListOrders(context.Background(), ListOrdersRequest{Source: "firebase", Status: "pending"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), resp.Total)
	require.Len(t, resp.Orders, 1)
	assert.Equal(t, "1042", resp.Orders[0].OrderID)
	assert.Equal(t, "998.00", resp.Orders[0].Revenue)
	assert.Equal(t, int64(0), resp.Version)
}

func TestOrderService_ListOrders_WooCommercePagination(t *testing.T) {
	woo := &fakeWooCommerce{
		fetchFn: func(_ context.Context, filter order.PageFilter) (*order.PagedOrders, error) {
			// Defaults applied before the adapter sees the filter.
			assert.Equal(t, 1, filter.Page)
			assert.Equal(t, 20, filter.PerPage)
			assert.Equal(t, "date", filter.OrderBy)
			assert.Equal(t, "desc", filter.Order)
			return &order.PagedOrders{
				Orders:     []order.Order{sampleOrder("55", "55", "Ben")},
				Total:      87,
				TotalPages: 5,
			}, nil
		},
	}
	svc, _ := newTestService(&fakeFirebase{}, woo)

	resp, err := svc.ListOrders(context.Background(), ListOrdersRequest{Source: "woocommerce"})
	require.NoError(t, err)
	assert.Equal(t, int64(87), resp.Total)
	assert.Equal(t, 5, resp.TotalPages)
	assert.Equal(t, 1, resp.Page)
	assert.Equal(t, 20, resp.PerPage)
}

func TestOrderService_ListOrders_RetriesTransportFailure(t *testing.T) {
	var calls atomic.Int64
	fb := &fakeFirebase{
		fetchFn: func(_ context.Context, _ order.ListFilter) ([]order.Order, error) {
			if calls.Add(1) == 1 {
				return nil, order.NewNetworkError(order.SourceFirebase, "fetch orders", 0, errors.New("connection refused"))
			}
			return []order.Order{sampleOrder("f1", "1042", "Asha")}, nil
		},
	}
	svc, _ := newTestService(fb, &fakeWooCommerce{})

	resp, err := svc.ListOrders(context.Background(), ListOrdersRequest{Source: "firebase"})
	require.NoError(t, err)
	assert.Len(t, resp.Orders, 1)
	assert.Equal(t, int64(2), calls.Load())
}

func TestOrderService_ListOrders_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int64
	fb := &fakeFirebase{
		fetchFn: func(_ context.Context, _ order.ListFilter) ([]order.Order, error) {
			calls.Add(1)
			return nil, order.NewNetworkError(order.SourceFirebase, "fetch orders", 403, errors.New("forbidden"))
		},
	}
	svc, _ := newTestService(fb, &fakeWooCommerce{})

	_, err := svc.ListOrders(context.Background(), ListOrdersRequest{Source: "firebase"})
	require.Error(t, err)
	assert.Equal(t, int64(1), calls.Load())

	var netErr *order.NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.Equal(t, 403, netErr.StatusCode)
}

// ---------------------------------------------------------------------------
// Get
// ---------------------------------------------------------------------------

func TestOrderService_GetOrder_FirebaseByBusinessID(t *testing.T) {
	fb := &fakeFirebase{
		fetchFn: func(_ context.Context, filter order.ListFilter) ([]order.Order, error) {
			assert.Equal(t, "1042", filter.Search)
			return []order.Order{
				sampleOrder("f9", "1041", "Other"),
				sampleOrder("f1", "1042", "Asha"),
			}, nil
		},
	}
	svc, _ := newTestService(fb, &fakeWooCommerce{})

	resp, err := svc.GetOrder(context.Background(), order.SourceFirebase, "1042")
	require.NoError(t, err)
	assert.Equal(t, "f1", resp.ID)
	assert.Equal(t, "Asha", resp.CustomerName)
}

func TestOrderService_GetOrder_NotFound(t *testing.T) {
	fb := &fakeFirebase{
		fetchFn: func(_ context.Context, _ order.ListFilter) ([]order.Order, error) {
			return nil, nil
		},
	}
	svc, _ := newTestService(fb, &fakeWooCommerce{})

	_, err := svc.GetOrder(context.Background(), order.SourceFirebase, "9999")
	require.Error(t, err)
	assert.True(t, order.IsNotFound(err))
}

func TestOrderService_GetOrder_WooCommerceEnrichesProducts(t *testing.T) {
	o := sampleOrder("55", "55", "Ben")
	o.Source = order.SourceWooCommerce
	o.Products[0].ProductID = 301

	woo := &fakeWooCommerce{
		fetchFn: func(_ context.Context, filter order.PageFilter) (*order.PagedOrders, error) {
			assert.Equal(t, "55", filter.Search)
			return &order.PagedOrders{Orders: []order.Order{o}, Total: 1, TotalPages: 1}, nil
		},
		productFn: func(_ context.Context, productID int64) (*order.ProductDetails, error) {
			assert.Equal(t, int64(301), productID)
			return &order.ProductDetails{
				ID:          301,
				ImageURL:    "https://store.example/img/301.jpg",
				Permalink:   "https://store.example/product/classic-tee",
				DownloadURL: "https://store.example/dl/301.pdf",
			}, nil
		},
	}
	svc, _ := newTestService(&fakeFirebase{}, woo)

	resp, err := svc.GetOrder(context.Background(), order.SourceWooCommerce, "55")
	require.NoError(t, err)
	require.Len(t, resp.Products, 1)
	assert.Equal(t, "https://store.example/img/301.jpg", resp.Products[0].ImageURL)
	assert.Equal(t, "https://store.example/product/classic-tee", resp.Products[0].ProductPageURL)
	assert.Equal(t, "https://store.example/dl/301.pdf", resp.Products[0].DownloadURL)
}

func TestOrderService_GetOrder_EnrichmentFailureDoesNotHideOrder(t *testing.T) {
	o := sampleOrder("55", "55", "Ben")
	o.Source = order.SourceWooCommerce
	o.Products[0].ProductID = 301

	woo := &fakeWooCommerce{
		fetchFn: func(_ context.Context, _ order.PageFilter) (*order.PagedOrders, error) {
			return &order.PagedOrders{Orders: []order.Order{o}, Total: 1, TotalPages: 1}, nil
		},
		productFn: func(_ context.Context, _ int64) (*order.ProductDetails, error) {
			return nil, order.NewNetworkError(order.SourceWooCommerce, "fetch product", 500, errors.New("boom"))
		},
	}
	svc, _ := newTestService(&fakeFirebase{}, woo)

	resp, err := svc.GetOrder(context.Background(), order.SourceWooCommerce, "55")
	require.NoError(t, err)
	require.Len(t, resp.Products, 1)
	assert.Empty(t, resp.Products[0].ImageURL)
}

// ---------------------------------------------------------------------------
// Mutations
// ---------------------------------------------------------------------------

func TestOrderService_UpdateOrder_ValidatesBeforeNetwork(t *testing.T) {
	fb := &fakeFirebase{
		updateFn: func(_ context.Context, _ string, _ order.Patch, _ time.Time) error {
			t.Fatal("network call issued for an invalid patch")
			return nil
		},
	}
	svc, _ := newTestService(fb, &fakeWooCommerce{})

	bad := "abc"
	err := svc.UpdateOrder(context.Background(), "f1", UpdateOrderRequest{TrackingID: &bad})
	require.Error(t, err)

	var valErr *order.ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "tracking_id", valErr.Field)
	assert.Equal(t, int64(0), fb.updateCalls.Load())
}

func TestOrderService_UpdateOrder_StampsUpdatedAtAndInvalidates(t *testing.T) {
	var gotPatch order.Patch
	var gotUpdatedAt time.Time
	fb := &fakeFirebase{
		updateFn: func(_ context.Context, id string, patch order.Patch, updatedAt time.Time) error {
			assert.Equal(t, "f1", id)
			gotPatch = patch
			gotUpdatedAt = updatedAt
			return nil
		},
	}
	svc, invalidator := newTestService(fb, &fakeWooCommerce{})

	raw := "  AB12345678  "
	status := "completed"
	require.NoError(t, svc.UpdateOrder(context.Background(), "f1", UpdateOrderRequest{
		Status:     &status,
		TrackingID: &raw,
	}))

	require.NotNil(t, gotPatch.TrackingID)
	assert.Equal(t, "AB12345678", *gotPatch.TrackingID, "tracking id is trimmed before the network call")
	require.NotNil(t, gotPatch.Status)
	assert.Equal(t, order.StatusCompleted, *gotPatch.Status)
	assert.Equal(t, time.Date(2026, 8, 21, 12, 0, 0, 0, time.UTC), gotUpdatedAt)

	// Both status partitions and the all-statuses partition are stale.
	for _, key := range []order.PartitionKey{
		{Source: order.SourceFirebase},
		partitionFor(order.StatusPending),
		partitionFor(order.StatusCompleted),
	} {
		v, err := invalidator.Version(context.Background(), key)
		require.NoError(t, err)
		assert.Positive(t, v, "partition %s", key)
	}
}

func TestOrderService_UpdateOrder_WriteNeverRetried(t *testing.T) {
	fb := &fakeFirebase{
		updateFn: func(_ context.Context, _ string, _ order.Patch, _ time.Time) error {
			return order.NewNetworkError(order.SourceFirebase, "update order", 0, errors.New("connection reset"))
		},
	}
	svc, invalidator := newTestService(fb, &fakeWooCommerce{})

	status := "completed"
	err := svc.UpdateOrder(context.Background(), "f1", UpdateOrderRequest{Status: &status})
	require.Error(t, err)
	assert.Equal(t, int64(1), fb.updateCalls.Load())

	// A failed write leaves the partitions untouched.
	v, err := invalidator.Version(context.Background(), order.PartitionKey{Source: order.SourceFirebase})
	require.NoError(t, err)
	assert.Equal(t, int64(0), v)
}

type failingInvalidator struct{}

func (failingInvalidator) Invalidate(context.Context, order.PartitionKey) error {
	return errors.New("cache: failed to connect to Redis")
}

func (failingInvalidator) Version(context.Context, order.PartitionKey) (int64, error) {
	return 0, nil
}

func TestOrderService_UpdateOrder_InvalidationFailureDoesNotFailMutation(t *testing.T) {
	fb := &fakeFirebase{
		updateFn: func(_ context.Context, _ string, _ order.Patch, _ time.Time) error {
			return nil
		},
	}
	svc := NewOrderService(fb, &fakeWooCommerce{}, failingInvalidator{})

	core, recorded := observer.New(zapcore.WarnLevel)
	ctx := logger.WithContext(context.Background(), zap.New(core))

	status := "completed"
	err := svc.UpdateOrder(ctx, "f1", UpdateOrderRequest{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, int64(1), fb.updateCalls.Load())

	// Both affected partitions report the failed bump.
	logs := recorded.FilterMessage("order list invalidation failed").All()
	assert.Len(t, logs, 2)
}

func TestOrderService_CreateOrder(t *testing.T) {
	var created *order.Order
	fb := &fakeFirebase{
		createFn: func(_ context.Context, o *order.Order) error {
			created = o
			return nil
		},
	}
	svc, invalidator := newTestService(fb, &fakeWooCommerce{})

	resp, err := svc.CreateOrder(context.Background(), CreateOrderRequest{
		CustomerName:  "Asha",
		PaymentMethod: "cod",
		Products: []CreateProductRequest{
			{Name: "Classic Tee", UnitPrice: "499.00", Qty: 2},
		},
	})
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, order.SourceFirebase, created.Source)
	assert.Equal(t, order.StatusPending, created.Status)
	assert.Equal(t, order.PaymentCOD, created.PaymentMethod)
	assert.Equal(t, order.DefaultColour, created.Products[0].Colour)
	require.NotNil(t, created.CreatedAt)
	assert.Equal(t, "998.00", resp.Revenue)

	v, err := invalidator.Version(context.Background(), order.PartitionKey{Source: order.SourceFirebase})
	require.NoError(t, err)
	assert.Positive(t, v)
}

func TestOrderService_CreateOrder_RejectsBadUnitPrice(t *testing.T) {
	svc, _ := newTestService(&fakeFirebase{}, &fakeWooCommerce{})

	_, err := svc.CreateOrder(context.Background(), CreateOrderRequest{
		CustomerName: "Asha",
		Products:     []CreateProductRequest{{Name: "Tee", UnitPrice: "free", Qty: 1}},
	})
	require.Error(t, err)

	var valErr *order.ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "unit_price", valErr.Field)
}

func partitionFor(status order.Status) order.PartitionKey {
	return order.PartitionKey{Source: order.SourceFirebase, Status: &status}
}
