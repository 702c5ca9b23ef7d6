// Package catalog reads the PrestaShop catalog the exporter prices and publishes.
package catalog

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/diffsolutions/samba-exporters/internal/category"
	"github.com/diffsolutions/samba-exporters/internal/pricing"
)

// ErrNotFound is returned when a requested catalog record does not exist.
var ErrNotFound = errors.New("catalog: not found")

// Source is the read-only catalog the exporter materializes before a pass.
type Source interface {
	LoadSettings(ctx context.Context) (Settings, error)
	LanguageID(ctx context.Context, iso string) (int64, error)
	LoadTaxRates(ctx context.Context, countryID int64) ([]pricing.TaxRate, error)
	LoadOverrides(ctx context.Context) ([]pricing.Override, error)
	LoadCatalogRules(ctx context.Context) ([]pricing.CatalogRule, error)
	LoadPricingContext(ctx context.Context, productID int64) (pricing.Product, error)
	ListProducts(ctx context.Context, shopID, langID int64) ([]Product, error)
	ListCategories(ctx context.Context, shopID, langID int64) ([]category.Node, error)
	ShopGroupID(ctx context.Context, shopID int64) (int64, error)
	ListCustomers(ctx context.Context, shopID, langID int64) ([]Customer, error)
	ListOrders(ctx context.Context, shopID int64) ([]Order, error)
}

// Settings are the shop-level configuration values the exporter depends on.
type Settings struct {
	Version              string
	DefaultShopID        int64
	DefaultCountryID     int64
	DefaultLangID        int64
	SpecificPriceEnabled bool
	// SpecificPricePriorities is the configured priority order for specific
	// prices, e.g. id_shop;id_currency;id_country;id_group.
	SpecificPricePriorities []string
}

// Product is one catalog product as published in the product feed.
type Product struct {
	Pricing           pricing.Product
	Title             string
	Description       string
	LinkRewrite       string
	Reference         string
	DefaultCategoryID int64
	ImageID           int64
	Quantity          int64
	Active            bool
	ShowPrice         bool
	Visibility        string
	WholesalePrice    decimal.Decimal
	Width             decimal.Decimal
	Height            decimal.Decimal
	Depth             decimal.Decimal
	Weight            decimal.Decimal
}

// ID returns the product id.
func (p Product) ID() int64 { return p.Pricing.ID }

// Stock is the quantity to publish. Inactive, hidden, or price-less products
// are reported out of stock.
func (p Product) Stock() int64 {
	if !p.Active || !p.ShowPrice || strings.EqualFold(p.Visibility, "none") {
		return 0
	}
	return p.Quantity
}

// Customer is one shop customer with their first address.
type Customer struct {
	ID         int64
	FirstName  string
	LastName   string
	Email      string
	Phone      string
	PostCode   string
	Gender     string
	Newsletter bool
	Optin      bool
	Deleted    bool
	Birthday   *time.Time
	Registered *time.Time
}

// Publishable reports whether the customer consented and was not deleted.
func (c Customer) Publishable() bool {
	return c.Optin && !c.Deleted
}

// Order is one placed order with its lines.
type Order struct {
	ID         int64
	CustomerID int64
	StateID    int64
	PostCode   string
	Created    *time.Time
	Delivered  *time.Time
	Items      []OrderItem
}

// OrderItem is one order line. Price is the tax-inclusive line total.
type OrderItem struct {
	ProductID int64
	VariantID int64
	Quantity  int64
	Price     decimal.Decimal
}

func splitPriorities(value string) []string {
	parts := strings.Split(value, ";")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func parseDecimal(v string) (decimal.Decimal, error) {
	return decimal.NewFromString(strings.TrimSpace(v))
}
