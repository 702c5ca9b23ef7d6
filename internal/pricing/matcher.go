package pricing

// MatchOverride returns the first override, in load order, whose scoped
// attributes all admit ctx. Candidates bearing condition groups never match.
// There is no ranking between multiple matches; load order is the priority.
func MatchOverride(ctx PricingContext, overrides []Override) (Override, bool) {
	for _, ov := range overrides {
		if ov.conditioned() {
			continue
		}
		if matches(ov, ctx) {
			return ov, true
		}
	}
	return Override{}, false
}

func matches(ov Override, ctx PricingContext) bool {
	return ov.Cart.Admits(ctx.Cart) &&
		ov.Product.Admits(ID(ctx.ProductID)) &&
		ov.Currency.Admits(ctx.Currency) &&
		ov.Country.Admits(ctx.Country) &&
		ov.CustomerGroup.Admits(ctx.CustomerGroup) &&
		ov.Customer.Admits(ctx.Customer) &&
		ov.Variant.Admits(ctx.VariantID)
}
