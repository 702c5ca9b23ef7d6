package export

import (
	"context"
	"fmt"

	"github.com/diffsolutions/samba-exporters/internal/pricing"
)

// Quote is the resolved price of one product and its variants.
type Quote struct {
	ProductID int64
	Price     pricing.ResolvedPrice
	Variants  []VariantQuote
}

// VariantQuote is the resolved price of one variant.
type VariantQuote struct {
	VariantID int64
	Price     pricing.ResolvedPrice
}

// Quote resolves a single product against a prepared context without writing
// any feed.
func (e *Exporter) Quote(ctx context.Context, ec *Context, productID int64) (Quote, error) {
	if ec.Pricing == nil {
		return Quote{}, errNotPrepared
	}
	p, err := e.Source.LoadPricingContext(ctx, productID)
	if err != nil {
		return Quote{}, fmt.Errorf("export: %w", err)
	}
	price, err := ec.Pricing.ResolveProduct(p)
	if err != nil {
		return Quote{}, err
	}
	q := Quote{ProductID: p.ID, Price: price}
	for _, v := range pricing.OrderVariants(p.Variants) {
		vp, err := ec.Pricing.ResolveVariant(p, v)
		if err != nil {
			return Quote{}, err
		}
		q.Variants = append(q.Variants, VariantQuote{VariantID: v.ID, Price: vp})
	}
	return q, nil
}
