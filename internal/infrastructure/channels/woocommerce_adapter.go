package channels

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/merchdash/backend/internal/domain/order"
)

// ErrWooInvalidProductID indicates a non-positive product id was requested
var ErrWooInvalidProductID = errors.New("woocommerce: invalid product id")

// WooCommerceAdapter implements the WooCommerceChannel port against the
// WooCommerce store API.
type WooCommerceAdapter struct {
	config     *WooCommerceConfig
	httpClient *http.Client
}

// NewWooCommerceAdapter creates a new WooCommerce channel adapter
func NewWooCommerceAdapter(config *WooCommerceConfig) (*WooCommerceAdapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &WooCommerceAdapter{
		config: config,
		httpClient: &http.Client{
			Timeout: time.Duration(config.TimeoutSeconds) * time.Second,
		},
	}, nil
}

// FetchOrders fetches one page of orders and normalizes them. Pagination
// totals come from the X-WP-Total / X-WP-TotalPages response headers, not
// the JSON body.
func (a *WooCommerceAdapter) FetchOrders(ctx context.Context, filter order.PageFilter) (*order.PagedOrders, error) {
	filter.Normalize()

	query := url.Values{}
	query.Set("page", strconv.Itoa(filter.Page))
	query.Set("per_page", strconv.Itoa(filter.PerPage))
	query.Set("orderby", filter.OrderBy)
	query.Set("order", filter.Order)
	if filter.Status != nil {
		query.Set("status", filter.Status.String())
	}
	if filter.Search != "" {
		query.Set("search", filter.Search)
	}

	body, header, err := a.doRequest(ctx, "FetchOrders", "/api/woocommerce/orders", query)
	if err != nil {
		return nil, err
	}

	var docs []wooOrderDoc
	if err := json.Unmarshal(body, &docs); err != nil {
		return nil, order.NewMalformedResponseError(order.SourceWooCommerce, "FetchOrders", err)
	}

	page := &order.PagedOrders{
		Orders:     make([]order.Order, 0, len(docs)),
		Total:      parseHeaderInt(header, "X-WP-Total"),
		TotalPages: int(parseHeaderInt(header, "X-WP-TotalPages")),
	}
	for _, doc := range docs {
		page.Orders = append(page.Orders, doc.toDomain())
	}
	return page, nil
}

// FetchProduct fetches catalog details for one product. Used only when a
// single order is inspected; list views do not enrich.
func (a *WooCommerceAdapter) FetchProduct(ctx context.Context, productID int64) (*order.ProductDetails, error) {
	if productID <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrWooInvalidProductID, productID)
	}

	path := "/api/woocommerce/products/" + strconv.FormatInt(productID, 10)
	body, _, err := a.doRequest(ctx, "FetchProduct", path, nil)
	if err != nil {
		return nil, err
	}

	var doc wooProductDoc
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, order.NewMalformedResponseError(order.SourceWooCommerce, "FetchProduct", err)
	}
	return doc.toDomain(), nil
}

// doRequest performs a GET against the WooCommerce API, returning the body
// and response headers.
func (a *WooCommerceAdapter) doRequest(ctx context.Context, op, path string, query url.Values) ([]byte, http.Header, error) {
	if query == nil {
		query = url.Values{}
	}
	if a.config.ConsumerKey != "" {
		query.Set("consumer_key", a.config.ConsumerKey)
		query.Set("consumer_secret", a.config.ConsumerSecret)
	}

	endpoint := a.config.BaseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, nil, order.NewNetworkError(order.SourceWooCommerce, op, 0, err)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, nil, order.NewNetworkError(order.SourceWooCommerce, op, 0, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, nil, order.NewNetworkError(order.SourceWooCommerce, op, resp.StatusCode,
			fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, nil, order.NewNetworkError(order.SourceWooCommerce, op, resp.StatusCode,
			errors.New(parseErrorBody(body)))
	}

	return body, resp.Header, nil
}

// parseHeaderInt reads an integer response header, 0 when absent or invalid
func parseHeaderInt(header http.Header, key string) int64 {
	n, err := strconv.ParseInt(header.Get(key), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func formatInt(n int64) string {
	return strconv.FormatInt(n, 10)
}

// Ensure WooCommerceAdapter implements the WooCommerceChannel port
var _ order.WooCommerceChannel = (*WooCommerceAdapter)(nil)
