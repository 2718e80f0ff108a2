package channels

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/merchdash/backend/internal/domain/order"
)

func TestWooCommerceConfig_Validate(t *testing.T) {
	cfg := &WooCommerceConfig{}
	assert.ErrorIs(t, cfg.Validate(), ErrWooConfigMissingBaseURL)

	cfg = &WooCommerceConfig{BaseURL: "http://localhost"}
	require.NoError(t, cfg.Validate())
	assert.True(t, cfg.TimeoutSeconds > 0)
}

func TestWooCommerceAdapter_FetchOrders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/woocommerce/orders", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "1", q.Get("page"))
		assert.Equal(t, "20", q.Get("per_page"))
		assert.Equal(t, "date", q.Get("orderby"))
		assert.Equal(t, "desc", q.Get("order"))
		assert.Equal(t, "completed", q.Get("status"))

		w.Header().Set("X-WP-Total", "57")
		w.Header().Set("X-WP-TotalPages", "3")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{
				"id": 981,
				"number": "981",
				"status": "completed",
				"payment_method": "cod",
				"date_created": "2026-08-20T09:30:00",
				"billing": {"first_name": "Sunita", "last_name": "Rao"},
				"line_items": [
					{
						"id": 1, "name": "Oversized Tee", "product_id": 55, "sku": "OT-1",
						"quantity": 2, "price": 250, "total": "500.00",
						"meta_data": [
							{"key": "pa_color", "value": "Navy"},
							{"key": "pa_size", "value": "XL"}
						]
					},
					{
						"id": 2, "name": "Poster", "product_id": 56, "sku": "PS-1",
						"quantity": 2, "total": "500",
						"meta_data": []
					}
				]
			},
			{
				"id": 982,
				"number": "982",
				"status": "processing",
				"payment_method": "razorpay",
				"billing": {"first_name": "Dev", "last_name": ""},
				"line_items": [
					{
						"id": 3, "name": "Cap", "product_id": 57, "sku": "CP-1",
						"quantity": 1, "price": "149.00", "total": "149.00",
						"meta_data": [{"key": "Colour Choice", "value": "Beige"}]
					}
				]
			}
		]`))
	}))
	defer server.Close()

	adapter, err := NewWooCommerceAdapter(&WooCommerceConfig{BaseURL: server.URL})
	require.NoError(t, err)

	completed := order.StatusCompleted
	page, err := adapter.FetchOrders(context.Background(), order.PageFilter{Status: &completed})
	require.NoError(t, err)

	// Totals come from headers, not the body.
	assert.Equal(t, int64(57), page.Total)
	assert.Equal(t, 3, page.TotalPages)
	require.Len(t, page.Orders, 2)

	first := page.Orders[0]
	assert.Equal(t, "981", first.ID)
	assert.Equal(t, order.SourceWooCommerce, first.Source)
	assert.Equal(t, "Sunita Rao", first.CustomerName)
	assert.Equal(t, order.StatusCompleted, first.Status)
	assert.Equal(t, order.PaymentCOD, first.PaymentMethod)
	require.NotNil(t, first.CreatedAt)

	require.Len(t, first.Products, 2)
	// Numeric price used directly.
	assert.True(t, first.Products[0].UnitPrice.Equal(decimal.NewFromInt(250)))
	assert.Equal(t, "Navy", first.Products[0].Colour)
	assert.Equal(t, "XL", first.Products[0].Size)
	// Missing price falls back to total/quantity for that item alone.
	assert.True(t, first.Products[1].UnitPrice.Equal(decimal.NewFromInt(250)),
		"got %s", first.Products[1].UnitPrice)
	assert.Equal(t, order.DefaultColour, first.Products[1].Colour)
	assert.Empty(t, first.Products[1].Size)

	second := page.Orders[1]
	// processing is not a recognized status and defaults to pending.
	assert.Equal(t, order.StatusPending, second.Status)
	assert.Equal(t, order.PaymentPrepaid, second.PaymentMethod)
	assert.Equal(t, "Dev", second.CustomerName)
	assert.Nil(t, second.CreatedAt)
	// Quoted numeric price is still used directly.
	assert.True(t, second.Products[0].UnitPrice.Equal(decimal.NewFromInt(149)))
	// Free-form key containing "colour" resolves case-insensitively.
	assert.Equal(t, "Beige", second.Products[0].Colour)
}

func TestWooCommerceAdapter_FetchOrders_CredentialsInQuery(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "ck_test", r.URL.Query().Get("consumer_key"))
		assert.Equal(t, "cs_test", r.URL.Query().Get("consumer_secret"))
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	adapter, err := NewWooCommerceAdapter(&WooCommerceConfig{
		BaseURL:        server.URL,
		ConsumerKey:    "ck_test",
		ConsumerSecret: "cs_test",
	})
	require.NoError(t, err)

	page, err := adapter.FetchOrders(context.Background(), order.PageFilter{})
	require.NoError(t, err)
	assert.Empty(t, page.Orders)
}

func TestWooCommerceAdapter_FetchOrders_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"message": "store busy"}`))
	}))
	defer server.Close()

	adapter, err := NewWooCommerceAdapter(&WooCommerceConfig{BaseURL: server.URL})
	require.NoError(t, err)

	_, err = adapter.FetchOrders(context.Background(), order.PageFilter{})
	var nerr *order.NetworkError
	require.ErrorAs(t, err, &nerr)
	assert.Equal(t, order.SourceWooCommerce, nerr.Source)
	assert.Equal(t, http.StatusServiceUnavailable, nerr.StatusCode)
	assert.Contains(t, err.Error(), "store busy")
}

func TestWooCommerceAdapter_FetchProduct(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/woocommerce/products/55", r.URL.Path)
		_, _ = w.Write([]byte(`{
			"id": 55,
			"name": "Oversized Tee",
			"permalink": "https://store.example/product/oversized-tee",
			"images": [{"src": "https://cdn.example/tee.jpg"}],
			"categories": [{"name": "Apparel"}, {"name": "Tees"}],
			"downloads": [{"file": "https://cdn.example/design.pdf"}]
		}`))
	}))
	defer server.Close()

	adapter, err := NewWooCommerceAdapter(&WooCommerceConfig{BaseURL: server.URL})
	require.NoError(t, err)

	details, err := adapter.FetchProduct(context.Background(), 55)
	require.NoError(t, err)
	assert.Equal(t, int64(55), details.ID)
	assert.Equal(t, "https://cdn.example/tee.jpg", details.ImageURL)
	assert.Equal(t, "https://store.example/product/oversized-tee", details.Permalink)
	assert.Equal(t, []string{"Apparel", "Tees"}, details.Categories)
	assert.Equal(t, "https://cdn.example/design.pdf", details.DownloadURL)
}

func TestWooCommerceAdapter_FetchProduct_InvalidID(t *testing.T) {
	adapter, err := NewWooCommerceAdapter(&WooCommerceConfig{BaseURL: "http://localhost"})
	require.NoError(t, err)

	_, err = adapter.FetchProduct(context.Background(), 0)
	assert.ErrorIs(t, err, ErrWooInvalidProductID)
}

func TestWooCommerceAdapter_FetchOrders_MalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"orders": []}`))
	}))
	defer server.Close()

	adapter, err := NewWooCommerceAdapter(&WooCommerceConfig{BaseURL: server.URL})
	require.NoError(t, err)

	_, err = adapter.FetchOrders(context.Background(), order.PageFilter{})
	var merr *order.MalformedResponseError
	require.ErrorAs(t, err, &merr)
}
