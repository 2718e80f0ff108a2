package dashboard

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/merchdash/backend/internal/domain/order"
)

// maxRecentActivity caps the activity feed length
const maxRecentActivity = 10

// Metrics is the aggregate dashboard view over both order sources
type Metrics struct {
	// TotalRevenue is the revenue sum over all included orders
	TotalRevenue decimal.Decimal
	// NewOrdersCount counts orders placed today (Firebase) plus the
	// fetched WooCommerce orders whose recency cannot be established
	NewOrdersCount int
	// ActiveOrdersCount counts pending orders across both sources
	ActiveOrdersCount int
	// TotalOrdersCount is the total number of fetched orders
	TotalOrdersCount int
	// RecentActivity holds up to 10 entries, most recent first
	RecentActivity []ActivityEntry
}

// ActivityEntry is one row of the dashboard activity feed
type ActivityEntry struct {
	ID           string
	CustomerName string
	Description  string
	Timestamp    time.Time
}

// Compute joins the normalized orders from both sources into dashboard
// metrics. It is a pure function: now is injected so "today" is decided by
// the caller's clock, and no input slice is modified.
//
// Revenue windowing: when windowStart is set, orders are included only if
// their creation timestamp is at or after it. Orders with no creation
// timestamp (legacy WooCommerce payloads carry none) are always included
// rather than silently dropped.
func Compute(firebaseOrders, wooOrders []order.Order, windowStart *time.Time, now time.Time) Metrics {
	m := Metrics{
		TotalRevenue:   decimal.Zero,
		RecentActivity: make([]ActivityEntry, 0, len(firebaseOrders)+len(wooOrders)),
	}

	startOfToday := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	for _, o := range firebaseOrders {
		if inWindow(o.CreatedAt, windowStart) {
			m.TotalRevenue = m.TotalRevenue.Add(o.Revenue())
		}
		if o.CreatedAt != nil && !o.CreatedAt.Before(startOfToday) {
			m.NewOrdersCount++
		}
		if o.Status == order.StatusPending {
			m.ActiveOrdersCount++
		}
	}

	for _, o := range wooOrders {
		if inWindow(o.CreatedAt, windowStart) {
			m.TotalRevenue = m.TotalRevenue.Add(o.Revenue())
		}
		// The WooCommerce fetch is already bounded to the latest page, so
		// orders without a creation timestamp count as recent.
		if o.CreatedAt == nil || !o.CreatedAt.Before(startOfToday) {
			m.NewOrdersCount++
		}
		if o.Status == order.StatusPending {
			m.ActiveOrdersCount++
		}
	}

	m.TotalOrdersCount = len(firebaseOrders) + len(wooOrders)

	m.RecentActivity = buildActivity(firebaseOrders, wooOrders, now)
	return m
}

// inWindow reports whether an order with the given creation time falls inside
// the revenue window. Orders without a timestamp are always included.
func inWindow(createdAt, windowStart *time.Time) bool {
	if windowStart == nil || createdAt == nil {
		return true
	}
	return !createdAt.Before(*windowStart)
}

// buildActivity merges one entry per order from each source, sorts strictly
// on the original timestamp value (never a formatted display string), and
// truncates to the feed cap.
func buildActivity(firebaseOrders, wooOrders []order.Order, now time.Time) []ActivityEntry {
	entries := make([]ActivityEntry, 0, len(firebaseOrders)+len(wooOrders))

	// Synthesized ids stay unique and stable within this call.
	synthMillis := now.UnixMilli()
	nextID := func(source order.Source, id string) string {
		if id != "" {
			return id
		}
		synth := fmt.Sprintf("%s-%d", source, synthMillis)
		synthMillis++
		return synth
	}

	for _, o := range firebaseOrders {
		entries = append(entries, ActivityEntry{
			ID:           nextID(order.SourceFirebase, o.ID),
			CustomerName: o.CustomerName,
			Description:  fmt.Sprintf("Ordered %d items", len(o.Products)),
			Timestamp:    timestampOf(o),
		})
	}
	for _, o := range wooOrders {
		entries = append(entries, ActivityEntry{
			ID:           nextID(order.SourceWooCommerce, o.ID),
			CustomerName: o.CustomerName,
			Description:  "Placed WooCommerce order",
			Timestamp:    timestampOf(o),
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})

	if len(entries) > maxRecentActivity {
		entries = entries[:maxRecentActivity]
	}
	return entries
}

// timestampOf returns the order's creation time, or the zero time when the
// upstream payload carried none (such entries sort to the end of the feed).
func timestampOf(o order.Order) time.Time {
	if o.CreatedAt != nil {
		return *o.CreatedAt
	}
	return time.Time{}
}
