package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/diffsolutions/samba-exporters/internal/category"
	"github.com/diffsolutions/samba-exporters/internal/pricing"
)

// Store reads PrestaShop tables through gorm.
type Store struct {
	db     *gorm.DB
	prefix string
}

// StoreConfig groups Store dependencies.
type StoreConfig struct {
	DB     *gorm.DB
	Prefix string
}

// NewStore constructs a Store instance.
func NewStore(cfg StoreConfig) (*Store, error) {
	if cfg.DB == nil {
		return nil, errors.New("catalog: database is required")
	}
	return &Store{db: cfg.DB, prefix: cfg.Prefix}, nil
}

func (s *Store) table(name string) string {
	return s.prefix + name
}

func (s *Store) query(ctx context.Context, name string) *gorm.DB {
	return s.db.WithContext(ctx).Table(s.table(name))
}

// LoadSettings reads the configuration keys the exporter relies on.
func (s *Store) LoadSettings(ctx context.Context) (Settings, error) {
	var rows []configurationRow
	err := s.query(ctx, "configuration").
		Where("name IN ?", []string{
			"PS_VERSION_DB",
			"PS_SHOP_DEFAULT",
			"PS_COUNTRY_DEFAULT",
			"PS_LANG_DEFAULT",
			"PS_SPECIFIC_PRICE_PRIORITIES",
			"PS_SPECIFIC_PRICE_FEATURE_ACTIVE",
		}).
		Order("id_configuration").
		Find(&rows).Error
	if err != nil {
		return Settings{}, fmt.Errorf("catalog: load settings: %w", err)
	}
	values := make(map[string]string, len(rows))
	for _, row := range rows {
		// shop-specific rows come later and win
		values[row.Name] = strings.TrimSpace(row.Value)
	}
	settings := Settings{
		Version:                 values["PS_VERSION_DB"],
		DefaultShopID:           atoi(values["PS_SHOP_DEFAULT"]),
		DefaultCountryID:        atoi(values["PS_COUNTRY_DEFAULT"]),
		DefaultLangID:           atoi(values["PS_LANG_DEFAULT"]),
		SpecificPriceEnabled:    atoi(values["PS_SPECIFIC_PRICE_FEATURE_ACTIVE"]) != 0,
		SpecificPricePriorities: splitPriorities(values["PS_SPECIFIC_PRICE_PRIORITIES"]),
	}
	return settings, nil
}

// LanguageID resolves a language ISO code to its id.
func (s *Store) LanguageID(ctx context.Context, iso string) (int64, error) {
	var row langRow
	err := s.query(ctx, "lang").Where("iso_code = ?", strings.ToLower(strings.TrimSpace(iso))).Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, fmt.Errorf("catalog: language %q: %w", iso, ErrNotFound)
		}
		return 0, fmt.Errorf("catalog: load language: %w", err)
	}
	return row.IDLang, nil
}

// LoadTaxRates returns the country's rate for every tax rules group.
func (s *Store) LoadTaxRates(ctx context.Context, countryID int64) ([]pricing.TaxRate, error) {
	type rateRow struct {
		IDTaxRulesGroup int64
		Rate            string
	}
	var rows []rateRow
	err := s.query(ctx, "tax_rule").
		Select(fmt.Sprintf("%s.id_tax_rules_group AS id_tax_rules_group, %s.rate AS rate", s.table("tax_rule"), s.table("tax"))).
		Joins(fmt.Sprintf("JOIN %s ON %s.id_tax = %s.id_tax", s.table("tax"), s.table("tax"), s.table("tax_rule"))).
		Where(s.table("tax_rule")+".id_country = ?", countryID).
		Order(s.table("tax_rule") + ".id_tax_rule").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("catalog: load tax rates: %w", err)
	}
	rates := make([]pricing.TaxRate, 0, len(rows))
	for _, row := range rows {
		percent, err := parseDecimal(row.Rate)
		if err != nil {
			return nil, fmt.Errorf("catalog: tax rules group %d: %w", row.IDTaxRulesGroup, err)
		}
		rates = append(rates, pricing.TaxRate{
			TaxGroupID: row.IDTaxRulesGroup,
			Rate:       pricing.RateFromPercent(percent),
		})
	}
	return rates, nil
}

// LoadOverrides returns every specific price ordered by id.
func (s *Store) LoadOverrides(ctx context.Context) ([]pricing.Override, error) {
	var rows []specificPriceRow
	if err := s.query(ctx, "specific_price").Order("id_specific_price").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("catalog: load specific prices: %w", err)
	}
	out := make([]pricing.Override, 0, len(rows))
	for _, row := range rows {
		out = append(out, pricing.Override{
			ID:                   row.IDSpecificPrice,
			RuleID:               pricing.ScopeFromSentinel(row.IDSpecificPriceRule),
			Shop:                 pricing.ScopeFromSentinel(row.IDShop),
			ShopGroup:            pricing.ScopeFromSentinel(row.IDShopGroup),
			Currency:             pricing.ScopeFromSentinel(row.IDCurrency),
			Country:              pricing.ScopeFromSentinel(row.IDCountry),
			CustomerGroup:        pricing.ScopeFromSentinel(row.IDGroup),
			Customer:             pricing.ScopeFromSentinel(row.IDCustomer),
			Cart:                 pricing.ScopeFromSentinel(row.IDCart),
			Product:              pricing.ScopeFromSentinel(row.IDProduct),
			Variant:              pricing.ScopeFromSentinel(row.IDProductAttribute),
			FromQuantity:         row.FromQuantity,
			From:                 optionalTime(row.From),
			To:                   optionalTime(row.To),
			ReductionType:        pricing.ReductionType(strings.TrimSpace(row.ReductionType)),
			Reduction:            row.Reduction,
			ReductionTaxIncluded: row.ReductionTax != 0,
			Price:                row.Price,
		})
	}
	return out, nil
}

// LoadCatalogRules returns every specific price rule with its condition groups.
func (s *Store) LoadCatalogRules(ctx context.Context) ([]pricing.CatalogRule, error) {
	var rules []specificPriceRuleRow
	if err := s.query(ctx, "specific_price_rule").Order("id_specific_price_rule").Find(&rules).Error; err != nil {
		return nil, fmt.Errorf("catalog: load specific price rules: %w", err)
	}
	var groups []conditionGroupRow
	if err := s.query(ctx, "specific_price_rule_condition_group").
		Order("id_specific_price_rule_condition_group").Find(&groups).Error; err != nil {
		return nil, fmt.Errorf("catalog: load condition groups: %w", err)
	}
	var conds []conditionRow
	if err := s.query(ctx, "specific_price_rule_condition").
		Order("id_specific_price_rule_condition").Find(&conds).Error; err != nil {
		return nil, fmt.Errorf("catalog: load conditions: %w", err)
	}

	byGroup := make(map[int64][]pricing.Condition, len(groups))
	for _, c := range conds {
		byGroup[c.IDSpecificPriceRuleConditionGroup] = append(byGroup[c.IDSpecificPriceRuleConditionGroup],
			pricing.Condition{Type: c.Type, Value: c.Value})
	}
	byRule := make(map[int64][]pricing.ConditionGroup, len(rules))
	for _, g := range groups {
		byRule[g.IDSpecificPriceRule] = append(byRule[g.IDSpecificPriceRule], pricing.ConditionGroup{
			ID:         g.IDSpecificPriceRuleConditionGroup,
			Conditions: byGroup[g.IDSpecificPriceRuleConditionGroup],
		})
	}

	out := make([]pricing.CatalogRule, 0, len(rules))
	for _, r := range rules {
		out = append(out, pricing.CatalogRule{
			ID:                   r.IDSpecificPriceRule,
			Name:                 r.Name,
			Shop:                 pricing.ScopeFromSentinel(r.IDShop),
			Currency:             pricing.ScopeFromSentinel(r.IDCurrency),
			Country:              pricing.ScopeFromSentinel(r.IDCountry),
			CustomerGroup:        pricing.ScopeFromSentinel(r.IDGroup),
			FromQuantity:         r.FromQuantity,
			From:                 optionalTime(r.From),
			To:                   optionalTime(r.To),
			ReductionType:        pricing.ReductionType(strings.TrimSpace(r.ReductionType)),
			Reduction:            r.Reduction,
			ReductionTaxIncluded: r.ReductionTax != 0,
			Price:                r.Price,
			ConditionGroups:      byRule[r.IDSpecificPriceRule],
		})
	}
	return out, nil
}

// LoadPricingContext returns the pricing view of a single product.
func (s *Store) LoadPricingContext(ctx context.Context, productID int64) (pricing.Product, error) {
	var row productRow
	if err := s.query(ctx, "product").Where("id_product = ?", productID).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pricing.Product{}, fmt.Errorf("catalog: product %d: %w", productID, ErrNotFound)
		}
		return pricing.Product{}, fmt.Errorf("catalog: load product %d: %w", productID, err)
	}
	var attrs []productAttributeRow
	if err := s.query(ctx, "product_attribute").Where("id_product = ?", productID).
		Order("id_product_attribute").Find(&attrs).Error; err != nil {
		return pricing.Product{}, fmt.Errorf("catalog: load variants of %d: %w", productID, err)
	}
	p := pricingProduct(row)
	p.Variants = variants(attrs)
	return p, nil
}

// ListProducts returns every product translated for the shop and language.
// Products without a translation are not published.
func (s *Store) ListProducts(ctx context.Context, shopID, langID int64) ([]Product, error) {
	var rows []productRow
	if err := s.query(ctx, "product").Order("id_product").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("catalog: list products: %w", err)
	}
	var langs []productLangRow
	if err := s.query(ctx, "product_lang").Where("id_lang = ? AND id_shop = ?", langID, shopID).Find(&langs).Error; err != nil {
		return nil, fmt.Errorf("catalog: list product translations: %w", err)
	}
	type coverRow struct {
		IDProduct int64
		IDImage   int64
	}
	var covers []coverRow
	if err := s.query(ctx, "image").Select("id_product, MIN(id_image) AS id_image").
		Group("id_product").Scan(&covers).Error; err != nil {
		return nil, fmt.Errorf("catalog: list images: %w", err)
	}
	var attrs []productAttributeRow
	if err := s.query(ctx, "product_attribute").Order("id_product_attribute").Find(&attrs).Error; err != nil {
		return nil, fmt.Errorf("catalog: list variants: %w", err)
	}

	byLang := make(map[int64]productLangRow, len(langs))
	for _, l := range langs {
		byLang[l.IDProduct] = l
	}
	byImage := make(map[int64]int64, len(covers))
	for _, c := range covers {
		byImage[c.IDProduct] = c.IDImage
	}
	byProduct := make(map[int64][]productAttributeRow)
	for _, a := range attrs {
		byProduct[a.IDProduct] = append(byProduct[a.IDProduct], a)
	}

	out := make([]Product, 0, len(rows))
	for _, row := range rows {
		lang, ok := byLang[row.IDProduct]
		if !ok {
			continue
		}
		p := pricingProduct(row)
		p.Variants = variants(byProduct[row.IDProduct])
		out = append(out, Product{
			Pricing:           p,
			Title:             lang.Name,
			Description:       lang.Description,
			LinkRewrite:       lang.LinkRewrite,
			Reference:         row.Reference,
			DefaultCategoryID: row.IDCategoryDefault,
			ImageID:           byImage[row.IDProduct],
			Quantity:          row.Quantity,
			Active:            row.Active != 0,
			ShowPrice:         row.ShowPrice > 0,
			Visibility:        row.Visibility,
			WholesalePrice:    row.WholesalePrice,
			Width:             row.Width,
			Height:            row.Height,
			Depth:             row.Depth,
			Weight:            row.Weight,
		})
	}
	return out, nil
}

// ListCategories returns the shop's categories named in the given language.
func (s *Store) ListCategories(ctx context.Context, shopID, langID int64) ([]category.Node, error) {
	var rows []categoryRow
	if err := s.query(ctx, "category").Order("id_category").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("catalog: list categories: %w", err)
	}
	var langs []categoryLangRow
	if err := s.query(ctx, "category_lang").Where("id_lang = ? AND id_shop = ?", langID, shopID).Find(&langs).Error; err != nil {
		return nil, fmt.Errorf("catalog: list category translations: %w", err)
	}
	names := make(map[int64]string, len(langs))
	for _, l := range langs {
		names[l.IDCategory] = l.Name
	}
	out := make([]category.Node, 0, len(rows))
	for _, row := range rows {
		name, ok := names[row.IDCategory]
		if !ok {
			continue
		}
		out = append(out, category.Node{
			ID:       row.IDCategory,
			ParentID: row.IDParent,
			Name:     name,
			IsRoot:   row.IsRootCategory != 0,
		})
	}
	return out, nil
}

// ShopGroupID returns the group the shop belongs to.
func (s *Store) ShopGroupID(ctx context.Context, shopID int64) (int64, error) {
	var row shopRow
	if err := s.query(ctx, "shop").Where("id_shop = ?", shopID).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, fmt.Errorf("catalog: shop %d: %w", shopID, ErrNotFound)
		}
		return 0, fmt.Errorf("catalog: load shop %d: %w", shopID, err)
	}
	return row.IDShopGroup, nil
}

// ListCustomers returns the shop's customers with the gender named in langID
// and contact details taken from their oldest address.
func (s *Store) ListCustomers(ctx context.Context, shopID, langID int64) ([]Customer, error) {
	var rows []customerRow
	if err := s.query(ctx, "customer").Where("id_shop = ?", shopID).Order("id_customer").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("catalog: list customers: %w", err)
	}
	var genders []genderLangRow
	if err := s.query(ctx, "gender_lang").Where("id_lang = ?", langID).Find(&genders).Error; err != nil {
		return nil, fmt.Errorf("catalog: list genders: %w", err)
	}
	var addrs []addressRow
	err := s.query(ctx, "address").
		Where("id_customer IN (?)", s.query(ctx, "customer").Select("id_customer").Where("id_shop = ?", shopID)).
		Order("id_address").
		Find(&addrs).Error
	if err != nil {
		return nil, fmt.Errorf("catalog: list customer addresses: %w", err)
	}

	genderNames := make(map[int64]string, len(genders))
	for _, g := range genders {
		genderNames[g.IDGender] = g.Name
	}
	firstAddr := make(map[int64]addressRow, len(addrs))
	for _, a := range addrs {
		if _, ok := firstAddr[a.IDCustomer]; !ok {
			firstAddr[a.IDCustomer] = a
		}
	}

	out := make([]Customer, 0, len(rows))
	for _, row := range rows {
		addr := firstAddr[row.IDCustomer]
		phone := strings.TrimSpace(addr.PhoneMobile)
		if phone == "" {
			phone = strings.TrimSpace(addr.Phone)
		}
		out = append(out, Customer{
			ID:         row.IDCustomer,
			FirstName:  row.Firstname,
			LastName:   row.Lastname,
			Email:      row.Email,
			Phone:      phone,
			PostCode:   strings.TrimSpace(addr.Postcode),
			Gender:     genderNames[row.IDGender],
			Newsletter: row.Newsletter != 0,
			Optin:      row.Optin != 0,
			Deleted:    row.Deleted != 0,
			Birthday:   optionalTime(row.Birthday),
			Registered: optionalTime(row.DateAdd),
		})
	}
	return out, nil
}

// ListOrders returns the shop's orders with their lines and delivery postcode.
func (s *Store) ListOrders(ctx context.Context, shopID int64) ([]Order, error) {
	var rows []orderRow
	if err := s.query(ctx, "orders").Where("id_shop = ?", shopID).Order("id_order").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("catalog: list orders: %w", err)
	}
	orders, details := s.table("orders"), s.table("order_detail")
	var lines []orderDetailRow
	err := s.query(ctx, "order_detail").
		Select(details+".*").
		Joins(fmt.Sprintf("JOIN %s ON %s.id_order = %s.id_order", orders, orders, details)).
		Where(orders+".id_shop = ?", shopID).
		Order(details + ".id_order_detail").
		Find(&lines).Error
	if err != nil {
		return nil, fmt.Errorf("catalog: list order lines: %w", err)
	}
	var addrs []addressRow
	err = s.query(ctx, "address").
		Where("id_address IN (?)", s.query(ctx, "orders").Select("id_address_delivery").Where("id_shop = ?", shopID)).
		Find(&addrs).Error
	if err != nil {
		return nil, fmt.Errorf("catalog: list delivery addresses: %w", err)
	}

	postcodes := make(map[int64]string, len(addrs))
	for _, a := range addrs {
		postcodes[a.IDAddress] = strings.TrimSpace(a.Postcode)
	}
	items := make(map[int64][]OrderItem, len(rows))
	for _, l := range lines {
		items[l.IDOrder] = append(items[l.IDOrder], OrderItem{
			ProductID: l.ProductID,
			VariantID: l.ProductAttributeID,
			Quantity:  l.ProductQuantity,
			Price:     l.TotalPriceTaxIncl,
		})
	}

	out := make([]Order, 0, len(rows))
	for _, row := range rows {
		out = append(out, Order{
			ID:         row.IDOrder,
			CustomerID: row.IDCustomer,
			StateID:    row.CurrentState,
			PostCode:   postcodes[row.IDAddressDelivery],
			Created:    optionalTime(row.DateAdd),
			Delivered:  optionalTime(row.DeliveryDate),
			Items:      items[row.IDOrder],
		})
	}
	return out, nil
}

func pricingProduct(row productRow) pricing.Product {
	return pricing.Product{
		ID:         row.IDProduct,
		BasePrice:  row.Price,
		TaxGroupID: row.IDTaxRulesGroup,
	}
}

func variants(rows []productAttributeRow) []pricing.Variant {
	if len(rows) == 0 {
		return nil
	}
	out := make([]pricing.Variant, 0, len(rows))
	for _, a := range rows {
		out = append(out, pricing.Variant{
			ID:      a.IDProductAttribute,
			AddOn:   a.Price,
			Default: a.DefaultOn.Valid && a.DefaultOn.Int64 != 0,
		})
	}
	return out
}

// optionalTime maps NULL and MySQL zero dates to nil.
func optionalTime(v sql.NullTime) *time.Time {
	if !v.Valid || v.Time.IsZero() || v.Time.Year() <= 1 {
		return nil
	}
	t := v.Time
	return &t
}

func atoi(v string) int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

var _ Source = (*Store)(nil)
