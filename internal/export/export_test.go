package export

import (
	"context"
	"encoding/xml"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/diffsolutions/samba-exporters/internal/catalog"
	"github.com/diffsolutions/samba-exporters/internal/category"
	"github.com/diffsolutions/samba-exporters/internal/feed"
	"github.com/diffsolutions/samba-exporters/internal/obs"
	"github.com/diffsolutions/samba-exporters/internal/pricing"
)

var testNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

type fakeSource struct {
	settings   catalog.Settings
	langs      map[string]int64
	rates      map[int64][]pricing.TaxRate
	overrides  []pricing.Override
	rules      []pricing.CatalogRule
	products   []catalog.Product
	categories []category.Node
	groups     map[int64]int64
	customers  []catalog.Customer
	orders     []catalog.Order

	overridesLoaded bool
	customersLoaded bool
	productsErr     error
}

func (f *fakeSource) LoadSettings(context.Context) (catalog.Settings, error) {
	return f.settings, nil
}

func (f *fakeSource) LanguageID(_ context.Context, iso string) (int64, error) {
	id, ok := f.langs[iso]
	if !ok {
		return 0, catalog.ErrNotFound
	}
	return id, nil
}

func (f *fakeSource) LoadTaxRates(_ context.Context, countryID int64) ([]pricing.TaxRate, error) {
	return f.rates[countryID], nil
}

func (f *fakeSource) LoadOverrides(context.Context) ([]pricing.Override, error) {
	f.overridesLoaded = true
	return f.overrides, nil
}

func (f *fakeSource) LoadCatalogRules(context.Context) ([]pricing.CatalogRule, error) {
	return f.rules, nil
}

func (f *fakeSource) LoadPricingContext(_ context.Context, productID int64) (pricing.Product, error) {
	for _, p := range f.products {
		if p.ID() == productID {
			return p.Pricing, nil
		}
	}
	return pricing.Product{}, catalog.ErrNotFound
}

func (f *fakeSource) ListProducts(context.Context, int64, int64) ([]catalog.Product, error) {
	return f.products, f.productsErr
}

func (f *fakeSource) ListCategories(context.Context, int64, int64) ([]category.Node, error) {
	return f.categories, nil
}

func (f *fakeSource) ShopGroupID(_ context.Context, shopID int64) (int64, error) {
	id, ok := f.groups[shopID]
	if !ok {
		return 0, catalog.ErrNotFound
	}
	return id, nil
}

func (f *fakeSource) ListCustomers(context.Context, int64, int64) ([]catalog.Customer, error) {
	f.customersLoaded = true
	return f.customers, nil
}

func (f *fakeSource) ListOrders(context.Context, int64) ([]catalog.Order, error) {
	return f.orders, nil
}

func at(year int, month time.Month, day, hour, minute int) *time.Time {
	t := time.Date(year, month, day, hour, minute, 0, 0, time.UTC)
	return &t
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		settings: catalog.Settings{
			DefaultShopID:        1,
			DefaultCountryID:     16,
			DefaultLangID:        1,
			SpecificPriceEnabled: true,
		},
		langs: map[string]int64{"cs": 2},
		rates: map[int64][]pricing.TaxRate{16: {{TaxGroupID: 1, Rate: dec("0.21")}}},
		overrides: []pricing.Override{{
			ID:            1,
			Product:       pricing.ID(1),
			ReductionType: pricing.ReductionPercentage,
			Reduction:     dec("0.10"),
		}},
		products: []catalog.Product{
			{
				Pricing: pricing.Product{
					ID: 1, BasePrice: dec("100"), TaxGroupID: 1,
					Variants: []pricing.Variant{
						{ID: 8},
						{ID: 7, AddOn: dec("10"), Default: true},
					},
				},
				Title: "Boot", Description: "Leather boot", DefaultCategoryID: 4, ImageID: 12,
				Quantity: 5, Active: true, ShowPrice: true, Visibility: "both",
				WholesalePrice: dec("40"), Weight: dec("1.5"),
			},
			{
				Pricing: pricing.Product{ID: 2, BasePrice: dec("105"), TaxGroupID: 1},
				Title:   "Lace", DefaultCategoryID: 3, Quantity: 9, ShowPrice: true,
			},
		},
		categories: []category.Node{
			{ID: 2, ParentID: 1, Name: "Home", IsRoot: true},
			{ID: 3, ParentID: 2, Name: "Shoes"},
			{ID: 4, ParentID: 3, Name: "Boots"},
		},
		groups: map[int64]int64{1: 1, 2: 3},
		customers: []catalog.Customer{
			{
				ID: 1, FirstName: "Jana", LastName: "Nová", Email: "jana@example.com",
				Phone: "+420 777", PostCode: "60200", Gender: "Paní", Newsletter: true, Optin: true,
				Birthday: at(1990, 5, 17, 0, 0), Registered: at(2023, 3, 4, 10, 30),
			},
			{ID: 2, FirstName: "Petr", LastName: "Malý", Email: "petr@example.com"},
			{ID: 3, FirstName: "Eva", LastName: "Stará", Email: "eva@example.com", Optin: true, Deleted: true},
		},
		orders: []catalog.Order{
			{
				ID: 10, CustomerID: 1, StateID: 5, PostCode: "60200",
				Created: at(2024, 5, 2, 9, 0), Delivered: at(2024, 5, 4, 15, 0),
				Items: []catalog.OrderItem{{ProductID: 1, VariantID: 7, Quantity: 2, Price: dec("239.58")}},
			},
			{ID: 11, CustomerID: 2, StateID: 2, Created: at(2024, 5, 3, 8, 0)},
			{ID: 12, CustomerID: 1, StateID: 6, Created: at(2024, 5, 5, 8, 0)},
			{ID: 13, CustomerID: 1, StateID: 3, Created: at(2024, 5, 6, 8, 0)},
		},
	}
}

func newTestExporter(t *testing.T, src catalog.Source, mutate func(*Config)) (*Exporter, *obs.ExportMetrics) {
	t.Helper()
	cfg := Config{
		OutputDir:           t.TempDir(),
		SpecificPrice:       true,
		PricePrecision:      2,
		ProductURLTemplate:  "https://shop.example/p/{id_product}",
		CategoryURLTemplate: "https://shop.example/c/{id_category}",
		ImageURLBase:        "https://shop.example/img/p/",
		OrderCancelled:      []int64{6, 7, 8},
		OrderFinished:       []int64{5},
	}
	if mutate != nil {
		mutate(&cfg)
	}
	metrics := obs.NewExportMetrics("test", prometheus.NewRegistry())
	e := New(src, cfg, zerolog.Nop(), metrics)
	e.Now = func() time.Time { return testNow }
	return e, metrics
}

type productsDoc struct {
	Products []feed.Product `xml:"PRODUCT"`
}

func readProducts(t *testing.T, path string) []feed.Product {
	t.Helper()
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc productsDoc
	require.NoError(t, xml.Unmarshal(raw, &doc))
	return doc.Products
}

func TestRunWritesProductsFeed(t *testing.T) {
	src := newFakeSource()
	e, metrics := newTestExporter(t, src, func(c *Config) { c.PriceBuy = true })

	results, err := e.Run(context.Background(), FeedProducts)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, 2, results[0].Items)
	require.Equal(t, 1, results[0].Discounted)

	products := readProducts(t, results[0].Path)
	require.Len(t, products, 2)

	boot := products[0]
	require.Equal(t, int64(1), boot.ProductID)
	require.Equal(t, "https://shop.example/p/1", boot.URL)
	require.Equal(t, "https://shop.example/img/p/1/2/12.jpg", boot.Image)
	require.Equal(t, "Shoes | Boots", boot.CategoryText)
	require.Equal(t, int64(5), boot.Stock)
	require.Equal(t, "108.90", boot.Price)
	require.Equal(t, "121.00", boot.PriceBeforeDiscount)
	require.Equal(t, "40.00", boot.PriceBuy)
	require.Equal(t, []feed.Parameter{{Name: "weight", Value: "1.5"}}, boot.Parameters)
	require.Equal(t, []feed.Variant{
		{ID: 7, Price: "119.79", PriceBeforeDiscount: "133.10"},
		{ID: 8, Price: "108.90", PriceBeforeDiscount: "121.00"},
	}, boot.Variants)

	lace := products[1]
	require.Equal(t, "127.05", lace.Price)
	require.Empty(t, lace.PriceBeforeDiscount)
	require.Empty(t, lace.PriceBuy)
	require.Equal(t, int64(0), lace.Stock, "inactive products are out of stock")
	require.Equal(t, "Shoes", lace.CategoryText)

	require.Equal(t, float64(1), testutil.ToFloat64(metrics.Runs.WithLabelValues("products", obs.ResultSuccess)))
	require.Equal(t, float64(2), testutil.ToFloat64(metrics.Items.WithLabelValues("products")))
}

func TestRunWritesCategoriesFeed(t *testing.T) {
	e, _ := newTestExporter(t, newFakeSource(), nil)

	results, err := e.Run(context.Background(), FeedCategories)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, 1, results[0].Items)

	raw, err := os.ReadFile(filepath.Join(e.Config.OutputDir, feed.CategoriesFile))
	require.NoError(t, err)
	require.Contains(t, string(raw), "<TITLE>Boots</TITLE>")
	require.Contains(t, string(raw), "<URL>https://shop.example/c/3</URL>")
	require.NotContains(t, string(raw), "<TITLE>Home</TITLE>")
}

func TestRunMissingTaxRateAbortsWithoutOutput(t *testing.T) {
	src := newFakeSource()
	src.products[1].Pricing.TaxGroupID = 9
	e, metrics := newTestExporter(t, src, nil)

	results, err := e.Run(context.Background(), FeedProducts, FeedCategories)
	require.Error(t, err)
	require.Empty(t, results)
	require.True(t, pricing.IsConfigError(err))
	require.ErrorIs(t, err, pricing.ErrMissingTaxRate)

	var cfgErr *pricing.PricingConfigError
	require.True(t, errors.As(err, &cfgErr))
	require.Equal(t, int64(2), cfgErr.ProductID)

	entries, err := os.ReadDir(e.Config.OutputDir)
	require.NoError(t, err)
	require.Empty(t, entries, "an aborted pass must leave no feed behind")
	require.Equal(t, float64(1), testutil.ToFloat64(metrics.Runs.WithLabelValues("products", obs.ResultConfigError)))
}

func TestRunSourceErrorIsNotConfigError(t *testing.T) {
	src := newFakeSource()
	src.productsErr = errors.New("connection reset")
	e, metrics := newTestExporter(t, src, nil)

	_, err := e.Run(context.Background(), FeedProducts)
	require.Error(t, err)
	require.False(t, pricing.IsConfigError(err))
	require.Equal(t, float64(1), testutil.ToFloat64(metrics.Runs.WithLabelValues("products", obs.ResultError)))
}

func TestPrepareFallsBackToShopDefaults(t *testing.T) {
	e, _ := newTestExporter(t, newFakeSource(), nil)

	ec, err := e.Prepare(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, ec.RunID)
	require.Equal(t, testNow, ec.Now)
	require.Equal(t, int64(1), ec.ShopID)
	require.Equal(t, int64(1), ec.ShopGroupID, "group of the default shop")
	require.Equal(t, int64(16), ec.CountryID)
	require.Equal(t, int64(1), ec.LangID)
	require.Equal(t, testNow, ec.Pricing.Now())
	require.Len(t, ec.Pricing.Overrides(), 1)
}

func TestPrepareResolvesLanguageCode(t *testing.T) {
	e, _ := newTestExporter(t, newFakeSource(), func(c *Config) { c.Lang = "cs" })

	ec, err := e.Prepare(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(2), ec.LangID)

	e.Config.Lang = "xx"
	_, err = e.Prepare(context.Background())
	require.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestPrepareRequiresLanguage(t *testing.T) {
	src := newFakeSource()
	src.settings.DefaultLangID = 0
	e, _ := newTestExporter(t, src, nil)

	_, err := e.Prepare(context.Background())
	require.Error(t, err)
}

func TestPrepareResolvesShopGroup(t *testing.T) {
	e, _ := newTestExporter(t, newFakeSource(), func(c *Config) { c.ShopID = 2 })
	ec, err := e.Prepare(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(3), ec.ShopGroupID)

	e.Config.ShopGroupID = 5
	ec, err = e.Prepare(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(5), ec.ShopGroupID, "configured group wins")

	e.Config.ShopGroupID = 0
	e.Config.ShopID = 9
	_, err = e.Prepare(context.Background())
	require.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestPrepareLoadsOnlyWhatFeedsNeed(t *testing.T) {
	src := newFakeSource()
	e, _ := newTestExporter(t, src, nil)

	ec, err := e.Prepare(context.Background(), FeedCategories)
	require.NoError(t, err)
	require.Nil(t, ec.Pricing)
	require.NotNil(t, ec.Categories)
	require.False(t, src.overridesLoaded)
	require.False(t, src.customersLoaded)

	ec, err = e.Prepare(context.Background(), FeedOrders)
	require.NoError(t, err)
	require.Nil(t, ec.Pricing)
	require.Nil(t, ec.Categories)
	require.True(t, src.customersLoaded)
	require.Equal(t, map[int64]string{1: "jana@example.com"}, ec.CustomerEmails)

	_, err = e.Export(context.Background(), ec, FeedProducts)
	require.Error(t, err)
}

func TestBrokenCategoryTreeOnlyFailsCategoriesFeed(t *testing.T) {
	src := newFakeSource()
	src.categories = append(src.categories, category.Node{ID: 9, ParentID: 1, Name: "Other root", IsRoot: true})
	e, metrics := newTestExporter(t, src, nil)

	results, err := e.Run(context.Background(), FeedProducts)
	require.NoError(t, err)
	require.Len(t, results, 1)
	products := readProducts(t, results[0].Path)
	require.Len(t, products, 2)
	require.Empty(t, products[0].CategoryText)
	require.Equal(t, "108.90", products[0].Price)

	results, err = e.Run(context.Background(), FeedProducts, FeedCategories)
	var structural *category.StructuralError
	require.True(t, errors.As(err, &structural))
	require.Len(t, results, 1, "products are committed before the categories feed fails")
	require.Equal(t, FeedProducts, results[0].Feed)

	_, statErr := os.Stat(filepath.Join(e.Config.OutputDir, feed.CategoriesFile))
	require.True(t, os.IsNotExist(statErr))
	require.Equal(t, float64(1), testutil.ToFloat64(metrics.Runs.WithLabelValues("categories", obs.ResultError)))
}

func TestShopDisabledSpecificPricesExportsBasePrices(t *testing.T) {
	src := newFakeSource()
	src.settings.SpecificPriceEnabled = false
	e, _ := newTestExporter(t, src, nil)

	results, err := e.Run(context.Background(), FeedProducts)
	require.NoError(t, err)
	require.False(t, src.overridesLoaded)

	products := readProducts(t, results[0].Path)
	require.Equal(t, "121.00", products[0].Price)
	require.Empty(t, products[0].PriceBeforeDiscount)
}

func TestOverrideWindowUsesInjectedNow(t *testing.T) {
	src := newFakeSource()
	from := testNow.Add(time.Hour)
	src.overrides[0].From = &from
	e, _ := newTestExporter(t, src, nil)

	results, err := e.Run(context.Background(), FeedProducts)
	require.NoError(t, err)
	products := readProducts(t, results[0].Path)
	require.Equal(t, "121.00", products[0].Price)

	e.Now = func() time.Time { return from.Add(time.Minute) }
	results, err = e.Run(context.Background(), FeedProducts)
	require.NoError(t, err)
	products = readProducts(t, results[0].Path)
	require.Equal(t, "108.90", products[0].Price)
}

func TestQuote(t *testing.T) {
	e, _ := newTestExporter(t, newFakeSource(), nil)
	ec, err := e.Prepare(context.Background())
	require.NoError(t, err)

	q, err := e.Quote(context.Background(), ec, 1)
	require.NoError(t, err)
	require.True(t, dec("108.9").Equal(q.Price.Final))
	require.True(t, q.Price.Discounted())
	require.Len(t, q.Variants, 2)
	require.Equal(t, int64(7), q.Variants[0].VariantID)

	_, err = e.Quote(context.Background(), ec, 404)
	require.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestParseFeeds(t *testing.T) {
	feeds, err := ParseFeeds("")
	require.NoError(t, err)
	require.Equal(t, AllFeeds, feeds)

	feeds, err = ParseFeeds(" Categories, products,categories ")
	require.NoError(t, err)
	require.Equal(t, []Feed{FeedCategories, FeedProducts}, feeds)

	feeds, err = ParseFeeds("orders,CUSTOMERS")
	require.NoError(t, err)
	require.Equal(t, []Feed{FeedOrders, FeedCustomers}, feeds)

	_, err = ParseFeeds("products,invoices")
	require.ErrorIs(t, err, ErrUnknownFeed)
}

func TestSurchargeKeepsPriceBeforeDiscount(t *testing.T) {
	src := newFakeSource()
	src.overrides = append(src.overrides, pricing.Override{
		ID:                   2,
		Product:              pricing.ID(2),
		ReductionType:        pricing.ReductionAmount,
		Reduction:            dec("-5"),
		ReductionTaxIncluded: true,
	})
	e, _ := newTestExporter(t, src, nil)

	results, err := e.Run(context.Background(), FeedProducts)
	require.NoError(t, err)
	lace := readProducts(t, results[0].Path)[1]
	require.Equal(t, "132.05", lace.Price)
	require.Equal(t, "127.05", lace.PriceBeforeDiscount)
	require.Equal(t, 2, results[0].Discounted)
}

func TestSubPrecisionReductionIsNotReported(t *testing.T) {
	src := newFakeSource()
	src.overrides = append(src.overrides, pricing.Override{
		ID:                   2,
		Product:              pricing.ID(2),
		ReductionType:        pricing.ReductionAmount,
		Reduction:            dec("0.001"),
		ReductionTaxIncluded: true,
	})
	e, _ := newTestExporter(t, src, nil)

	results, err := e.Run(context.Background(), FeedProducts)
	require.NoError(t, err)
	lace := readProducts(t, results[0].Path)[1]
	require.Equal(t, "127.05", lace.Price)
	require.Empty(t, lace.PriceBeforeDiscount)
	require.Equal(t, 1, results[0].Discounted)
}

type customersDoc struct {
	Customers []feed.Customer `xml:"CUSTOMER"`
}

type ordersDoc struct {
	Orders []feed.Order `xml:"ORDER"`
}

func readDoc(t *testing.T, path string, doc any) {
	t.Helper()
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, xml.Unmarshal(raw, doc))
}

func TestRunWritesCustomersFeed(t *testing.T) {
	e, _ := newTestExporter(t, newFakeSource(), nil)

	results, err := e.Run(context.Background(), FeedCustomers)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, 1, results[0].Items, "only opted-in, undeleted customers are published")

	var doc customersDoc
	readDoc(t, results[0].Path, &doc)
	require.Len(t, doc.Customers, 1)
	jana := doc.Customers[0]
	require.Equal(t, int64(1), jana.CustomerID)
	require.Equal(t, "jana@example.com", jana.Email)
	require.Equal(t, "+420 777", jana.Phone)
	require.Equal(t, "60200", jana.ZipCode)
	require.Equal(t, "every day", jana.NewsletterFrequency)
	require.Equal(t, "2023-03-04T10:30:00Z", jana.Registration)
	require.Equal(t, []feed.Parameter{
		{Name: "Gender", Value: "Paní"},
		{Name: "Birthday", Value: "1990-05-17"},
	}, jana.Parameters)
}

func TestRunWritesOrdersFeed(t *testing.T) {
	e, _ := newTestExporter(t, newFakeSource(), nil)

	results, err := e.Run(context.Background(), FeedOrders)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, 3, results[0].Items)

	var doc ordersDoc
	readDoc(t, results[0].Path, &doc)
	require.Len(t, doc.Orders, 3)

	delivered := doc.Orders[0]
	require.Equal(t, int64(10), delivered.OrderID)
	require.Equal(t, "jana@example.com", delivered.Email)
	require.Equal(t, feed.OrderFinished, delivered.Status)
	require.Equal(t, "2024-05-02T09:00:00Z", delivered.CreatedOn)
	require.Equal(t, "2024-05-04T15:00:00Z", delivered.FinishedOn)
	require.Equal(t, "60200", delivered.ZipCode)
	require.Equal(t, []feed.OrderItem{{ProductID: 1, Price: "239.58", Amount: 2}}, delivered.Items)

	canceled := doc.Orders[1]
	require.Equal(t, int64(12), canceled.OrderID, "orders of unpublished customers are skipped")
	require.Equal(t, feed.OrderCanceled, canceled.Status)
	require.Empty(t, canceled.FinishedOn)
	require.Empty(t, canceled.Items)

	require.Equal(t, feed.OrderCreated, doc.Orders[2].Status)
}

func TestRunWritesEveryFeedByDefault(t *testing.T) {
	e, _ := newTestExporter(t, newFakeSource(), nil)

	results, err := e.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, results, len(AllFeeds))
	for i, f := range AllFeeds {
		require.Equal(t, f, results[i].Feed)
		_, err := os.Stat(results[i].Path)
		require.NoError(t, err, f)
	}
}
