package export

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/diffsolutions/samba-exporters/internal/catalog"
	"github.com/diffsolutions/samba-exporters/internal/feed"
	"github.com/diffsolutions/samba-exporters/internal/pricing"
)

const categoryTextSeparator = " | "

var errNotPrepared = errors.New("export: context was not prepared for this feed")

func (e *Exporter) exportProducts(ctx context.Context, ec *Context) (Result, error) {
	if ec.Pricing == nil {
		return Result{}, errNotPrepared
	}
	products, err := e.Source.ListProducts(ctx, ec.ShopID, ec.LangID)
	if err != nil {
		return Result{}, fmt.Errorf("export: %w", err)
	}
	w, err := feed.Create(e.Config.OutputDir, feed.ProductsFile, feed.ProductsRoot)
	if err != nil {
		return Result{}, fmt.Errorf("export: %w", err)
	}
	defer func() { _ = w.Abort() }()

	discounted := 0
	for _, p := range products {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		item, err := e.productItem(ec, p)
		if err != nil {
			return Result{}, err
		}
		if item.PriceBeforeDiscount != "" {
			discounted++
		}
		if err := w.Encode(item); err != nil {
			return Result{}, fmt.Errorf("export: product %d: %w", p.ID(), err)
		}
	}
	if err := w.Commit(); err != nil {
		return Result{}, fmt.Errorf("export: %w", err)
	}
	return Result{Path: w.Path(), Items: w.Count(), Discounted: discounted}, nil
}

// productItem prices one product and its variants and maps it to a feed item.
// Any pricing configuration error is returned as is and aborts the pass.
// PRICE_BEFORE_DISCOUNT is written only when the rounded prices differ.
func (e *Exporter) productItem(ec *Context, p catalog.Product) (feed.Product, error) {
	price, err := ec.Pricing.ResolveProduct(p.Pricing)
	if err != nil {
		return feed.Product{}, err
	}
	item := feed.Product{
		ProductID:    p.ID(),
		Title:        p.Title,
		Description:  p.Description,
		URL:          catalog.ProductURL(e.Config.ProductURLTemplate, p.ID()),
		Image:        catalog.ImageURL(e.Config.ImageURLBase, p.ImageID),
		CategoryText: ec.Categories.Text(p.DefaultCategoryID, categoryTextSeparator),
		Stock:        p.Stock(),
	}
	item.Price, item.PriceBeforeDiscount = e.prices(price)
	if e.Config.PriceBuy && !p.WholesalePrice.IsZero() {
		item.PriceBuy = e.money(p.WholesalePrice)
	}
	item.Parameters = parameters(p)

	for _, v := range pricing.OrderVariants(p.Pricing.Variants) {
		vp, err := ec.Pricing.ResolveVariant(p.Pricing, v)
		if err != nil {
			return feed.Product{}, err
		}
		fv := feed.Variant{ID: v.ID}
		fv.Price, fv.PriceBeforeDiscount = e.prices(vp)
		item.Variants = append(item.Variants, fv)
	}
	return item, nil
}

func (e *Exporter) money(d decimal.Decimal) string {
	return d.StringFixed(e.Config.PricePrecision)
}

// prices formats the final price and, when it differs after rounding, the
// pre-discount price.
func (e *Exporter) prices(p pricing.ResolvedPrice) (final, before string) {
	final = e.money(p.Final)
	if !p.Discounted() {
		return final, ""
	}
	if before = e.money(p.BeforeDiscount); before == final {
		return final, ""
	}
	return final, before
}

func parameters(p catalog.Product) []feed.Parameter {
	values := []struct {
		name  string
		value decimal.Decimal
	}{
		{"width", p.Width},
		{"height", p.Height},
		{"depth", p.Depth},
		{"weight", p.Weight},
	}
	var out []feed.Parameter
	for _, v := range values {
		if v.value.IsZero() {
			continue
		}
		out = append(out, feed.Parameter{Name: v.name, Value: v.value.String()})
	}
	return out
}
