package channels

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/merchdash/backend/internal/domain/order"
)

// wooOrderDoc mirrors the WooCommerce REST order payload (relevant fields)
type wooOrderDoc struct {
	ID            int64         `json:"id"`
	Number        string        `json:"number"`
	Status        string        `json:"status"`
	PaymentMethod string        `json:"payment_method"`
	DateCreated   string        `json:"date_created,omitempty"`
	DateModified  string        `json:"date_modified,omitempty"`
	Billing       wooBilling    `json:"billing"`
	LineItems     []wooLineItem `json:"line_items"`
}

type wooBilling struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// fullName joins the billing name parts
func (b wooBilling) fullName() string {
	return strings.TrimSpace(strings.TrimSpace(b.FirstName) + " " + strings.TrimSpace(b.LastName))
}

type wooLineItem struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	ProductID int64  `json:"product_id"`
	SKU       string `json:"sku"`
	Quantity  int    `json:"quantity"`
	// Price is absent or non-numeric on some historical records; the raw
	// value is kept so the per-item total/quantity fallback can apply.
	Price    json.RawMessage `json:"price,omitempty"`
	Total    string          `json:"total"`
	MetaData []wooMetaEntry  `json:"meta_data"`
}

type wooMetaEntry struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

// wooProductDoc mirrors the WooCommerce REST product payload (relevant fields)
type wooProductDoc struct {
	ID         int64         `json:"id"`
	Name       string        `json:"name"`
	Permalink  string        `json:"permalink"`
	Images     []wooImage    `json:"images"`
	Categories []wooCategory `json:"categories"`
	Downloads  []wooDownload `json:"downloads"`
}

type wooImage struct {
	Src string `json:"src"`
}

type wooCategory struct {
	Name string `json:"name"`
}

type wooDownload struct {
	File string `json:"file"`
}

// toDomain converts a WooCommerce order into the normalized model,
// flattening line items into products.
func (d *wooOrderDoc) toDomain() order.Order {
	o := order.Order{
		ID:            formatInt(d.ID),
		Source:        order.SourceWooCommerce,
		OrderID:       d.Number,
		CustomerName:  d.Billing.fullName(),
		Status:        order.ParseStatus(d.Status),
		PaymentMethod: order.ParsePaymentMethod(d.PaymentMethod),
		Products:      make([]order.Product, 0, len(d.LineItems)),
	}
	for _, item := range d.LineItems {
		o.Products = append(o.Products, item.toProduct())
	}
	o.CreatedAt = parseISOTime(d.DateCreated)
	o.UpdatedAt = parseISOTime(d.DateModified)
	return o
}

// toProduct flattens one line item. The unit price uses item.price when it is
// numeric; otherwise it is derived as total/quantity for this item alone,
// since WooCommerce sometimes omits price on historical records.
func (i *wooLineItem) toProduct() order.Product {
	unitPrice, ok := decimalFromRaw(i.Price)
	if !ok {
		unitPrice = unitPriceFromTotal(i.Total, i.Quantity)
	}
	return order.Product{
		ProductID: i.ProductID,
		SKU:       i.SKU,
		Name:      i.Name,
		UnitPrice: unitPrice,
		Qty:       i.Quantity,
		Colour:    i.metaValue("color", "colour", order.DefaultColour),
		Size:      i.metaValue("size", "", ""),
	}
}

// metaValue scans meta_data for the first key whose lowercase form contains
// one of the needles and returns its string value, or the fallback.
func (i *wooLineItem) metaValue(needle, altNeedle, fallback string) string {
	for _, m := range i.MetaData {
		key := strings.ToLower(m.Key)
		if strings.Contains(key, needle) || (altNeedle != "" && strings.Contains(key, altNeedle)) {
			if s, ok := m.Value.(string); ok && s != "" {
				return s
			}
		}
	}
	return fallback
}

// decimalFromRaw decodes a JSON value that may be a number or a numeric
// string. Returns false when the value is absent or not numeric.
func decimalFromRaw(raw json.RawMessage) (decimal.Decimal, bool) {
	if len(raw) == 0 {
		return decimal.Zero, false
	}
	candidate := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	if candidate == "" || candidate == "null" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(candidate)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// unitPriceFromTotal derives a per-unit price from the line total
func unitPriceFromTotal(total string, quantity int) decimal.Decimal {
	if quantity < 1 {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(strings.TrimSpace(total))
	if err != nil {
		return decimal.Zero
	}
	return d.Div(decimal.NewFromInt(int64(quantity)))
}

// toDomain converts a WooCommerce product into catalog details used for
// single-order line item enrichment.
func (d *wooProductDoc) toDomain() *order.ProductDetails {
	details := &order.ProductDetails{
		ID:        d.ID,
		Name:      d.Name,
		Permalink: d.Permalink,
	}
	if len(d.Images) > 0 {
		details.ImageURL = d.Images[0].Src
	}
	for _, c := range d.Categories {
		details.Categories = append(details.Categories, c.Name)
	}
	if len(d.Downloads) > 0 {
		details.DownloadURL = d.Downloads[0].File
	}
	return details
}
