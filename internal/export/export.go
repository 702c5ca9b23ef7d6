// Package export runs feed export passes over the catalog.
package export

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/diffsolutions/samba-exporters/internal/catalog"
	"github.com/diffsolutions/samba-exporters/internal/category"
	"github.com/diffsolutions/samba-exporters/internal/config"
	"github.com/diffsolutions/samba-exporters/internal/obs"
	"github.com/diffsolutions/samba-exporters/internal/pricing"
)

// Feed names a feed the exporter can produce.
type Feed string

const (
	FeedCustomers  Feed = "customers"
	FeedProducts   Feed = "products"
	FeedOrders     Feed = "orders"
	FeedCategories Feed = "categories"
)

// AllFeeds lists every feed in export order.
var AllFeeds = []Feed{FeedCustomers, FeedProducts, FeedOrders, FeedCategories}

func known(f Feed) bool {
	for _, k := range AllFeeds {
		if k == f {
			return true
		}
	}
	return false
}

func wants(feeds []Feed, targets ...Feed) bool {
	for _, f := range feeds {
		for _, t := range targets {
			if f == t {
				return true
			}
		}
	}
	return false
}

// ErrUnknownFeed is returned for feed names the exporter does not produce.
var ErrUnknownFeed = errors.New("export: unknown feed")

// ParseFeeds parses a comma separated feed list. An empty list selects every feed.
func ParseFeeds(list string) ([]Feed, error) {
	if strings.TrimSpace(list) == "" {
		return append([]Feed(nil), AllFeeds...), nil
	}
	seen := make(map[Feed]bool)
	var feeds []Feed
	for _, part := range strings.Split(list, ",") {
		f := Feed(strings.ToLower(strings.TrimSpace(part)))
		if f == "" || seen[f] {
			continue
		}
		if !known(f) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownFeed, part)
		}
		seen[f] = true
		feeds = append(feeds, f)
	}
	return feeds, nil
}

// Config holds the per-run settings of an export pass.
type Config struct {
	OutputDir string

	// Zero ids fall back to the shop's configured defaults.
	ShopID      int64
	ShopGroupID int64
	CountryID   int64
	LangID      int64
	Lang        string

	SpecificPrice  bool
	PriceBuy       bool
	PricePrecision int32

	OrderCancelled []int64
	OrderFinished  []int64

	ProductURLTemplate  string
	CategoryURLTemplate string
	ImageURLBase        string
}

// ConfigFrom maps the process configuration onto an export Config.
func ConfigFrom(cfg *config.Config) Config {
	return Config{
		OutputDir:           cfg.OutputDir,
		ShopID:              cfg.ShopID,
		ShopGroupID:         cfg.ShopGroupID,
		CountryID:           cfg.CountryID,
		LangID:              cfg.LangID,
		Lang:                cfg.Lang,
		SpecificPrice:       cfg.SpecificPrice,
		PriceBuy:            cfg.PriceBuy,
		PricePrecision:      cfg.PricePrecision,
		OrderCancelled:      cfg.OrderCancelled,
		OrderFinished:       cfg.OrderFinished,
		ProductURLTemplate:  cfg.ProductURLTemplate,
		CategoryURLTemplate: cfg.CategoryURLTemplate,
		ImageURLBase:        cfg.ImageURLBase,
	}
}

// Context is everything one pass reads, materialized before any feed is
// written. Parts no requested feed needs are left nil.
type Context struct {
	RunID       string
	Now         time.Time
	ShopID      int64
	ShopGroupID int64
	CountryID   int64
	LangID      int64
	Settings    catalog.Settings
	Pricing     *pricing.Snapshot

	// Categories is nil when the category graph is broken; CategoriesErr
	// then holds the reason and only the categories feed fails on it.
	Categories    *category.Tree
	CategoriesErr error

	// Customers are the publishable customers; CustomerEmails indexes
	// them by id for the orders feed.
	Customers      []catalog.Customer
	CustomerEmails map[int64]string
}

// Result describes one committed feed.
type Result struct {
	Feed       Feed
	Path       string
	Items      int
	Discounted int
	Duration   time.Duration
}

// Exporter produces feeds from a catalog source.
type Exporter struct {
	Source  catalog.Source
	Config  Config
	Logger  zerolog.Logger
	Metrics *obs.ExportMetrics
	// Now is read once per pass. Defaults to time.Now.
	Now func() time.Time
}

// New constructs an Exporter.
func New(source catalog.Source, cfg Config, logger zerolog.Logger, metrics *obs.ExportMetrics) *Exporter {
	return &Exporter{Source: source, Config: cfg, Logger: logger, Metrics: metrics, Now: time.Now}
}

func (e *Exporter) now() time.Time {
	if e.Now == nil {
		return time.Now()
	}
	return e.Now()
}

// Prepare resolves run settings and materializes what the given feeds read:
// the pricing snapshot, the category tree and the customer index. No feeds
// means every feed.
func (e *Exporter) Prepare(ctx context.Context, feeds ...Feed) (*Context, error) {
	if len(feeds) == 0 {
		feeds = AllFeeds
	}
	if e.Source == nil {
		return nil, errors.New("export: catalog source not configured")
	}
	settings, err := e.Source.LoadSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	ec := &Context{
		RunID:     uuid.NewString(),
		Now:       e.now(),
		ShopID:    firstSet(e.Config.ShopID, settings.DefaultShopID),
		CountryID: firstSet(e.Config.CountryID, settings.DefaultCountryID),
		Settings:  settings,
	}
	if ec.ShopID == 0 {
		return nil, errors.New("export: shop id is not configured and PS_SHOP_DEFAULT is missing")
	}
	if ec.CountryID == 0 {
		return nil, errors.New("export: country id is not configured and PS_COUNTRY_DEFAULT is missing")
	}
	if ec.ShopGroupID, err = e.shopGroupID(ctx, ec.ShopID); err != nil {
		return nil, err
	}
	ec.LangID, err = e.languageID(ctx, settings)
	if err != nil {
		return nil, err
	}
	logger := obs.WithRun(e.Logger, ec.RunID, "")

	if wants(feeds, FeedProducts) {
		if ec.Pricing, err = e.pricingSnapshot(ctx, ec, logger); err != nil {
			return nil, err
		}
	}
	if wants(feeds, FeedProducts, FeedCategories) {
		nodes, err := e.Source.ListCategories(ctx, ec.ShopID, ec.LangID)
		if err != nil {
			return nil, fmt.Errorf("export: %w", err)
		}
		if ec.Categories, err = category.Build(nodes); err != nil {
			ec.Categories = nil
			ec.CategoriesErr = fmt.Errorf("export: %w", err)
			logger.Warn().Err(err).Msg("category tree unusable, product category text left empty")
		}
	}
	if wants(feeds, FeedCustomers, FeedOrders) {
		customers, err := e.Source.ListCustomers(ctx, ec.ShopID, ec.LangID)
		if err != nil {
			return nil, fmt.Errorf("export: %w", err)
		}
		ec.CustomerEmails = make(map[int64]string, len(customers))
		for _, c := range customers {
			if !c.Publishable() {
				continue
			}
			ec.Customers = append(ec.Customers, c)
			ec.CustomerEmails[c.ID] = c.Email
		}
	}

	event := logger.Info().
		Int64("shop_id", ec.ShopID).
		Int64("shop_group_id", ec.ShopGroupID).
		Int64("country_id", ec.CountryID).
		Int64("lang_id", ec.LangID).
		Int("customers", len(ec.Customers))
	if ec.Pricing != nil {
		event = event.
			Int("tax_rates", ec.Pricing.Taxes().Len()).
			Int("specific_prices", len(ec.Pricing.Overrides())).
			Int("catalog_rules", len(ec.Pricing.Rules()))
	}
	event.Msg("export prepared")
	return ec, nil
}

func (e *Exporter) pricingSnapshot(ctx context.Context, ec *Context, logger zerolog.Logger) (*pricing.Snapshot, error) {
	rates, err := e.Source.LoadTaxRates(ctx, ec.CountryID)
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	var (
		overrides []pricing.Override
		rules     []pricing.CatalogRule
	)
	switch {
	case !e.Config.SpecificPrice:
		logger.Info().Msg("specific prices disabled by configuration")
	case !ec.Settings.SpecificPriceEnabled:
		logger.Warn().Msg("specific prices disabled in shop configuration, exporting base prices")
	default:
		if overrides, err = e.Source.LoadOverrides(ctx); err != nil {
			return nil, fmt.Errorf("export: %w", err)
		}
		if rules, err = e.Source.LoadCatalogRules(ctx); err != nil {
			return nil, fmt.Errorf("export: %w", err)
		}
	}
	return pricing.NewSnapshot(pricing.SnapshotConfig{
		Now:        ec.Now,
		Run:        pricing.RunScope{ShopID: ec.ShopID, ShopGroupID: ec.ShopGroupID, CountryID: ec.CountryID},
		TaxRates:   rates,
		Overrides:  overrides,
		Rules:      rules,
		Priorities: ec.Settings.SpecificPricePriorities,
	}), nil
}

func (e *Exporter) shopGroupID(ctx context.Context, shopID int64) (int64, error) {
	if e.Config.ShopGroupID > 0 {
		return e.Config.ShopGroupID, nil
	}
	id, err := e.Source.ShopGroupID(ctx, shopID)
	if err != nil {
		return 0, fmt.Errorf("export: shop group: %w", err)
	}
	return id, nil
}

func (e *Exporter) languageID(ctx context.Context, settings catalog.Settings) (int64, error) {
	if e.Config.LangID > 0 {
		return e.Config.LangID, nil
	}
	if iso := strings.TrimSpace(e.Config.Lang); iso != "" {
		id, err := e.Source.LanguageID(ctx, iso)
		if err != nil {
			return 0, fmt.Errorf("export: %w", err)
		}
		return id, nil
	}
	if settings.DefaultLangID > 0 {
		return settings.DefaultLangID, nil
	}
	return 0, errors.New("export: language is not configured and PS_LANG_DEFAULT is missing")
}

// Run prepares one export context and writes the requested feeds in order.
// The first failing feed stops the run; feeds committed before it are kept.
func (e *Exporter) Run(ctx context.Context, feeds ...Feed) ([]Result, error) {
	if len(feeds) == 0 {
		feeds = AllFeeds
	}
	ctx, span := otel.Tracer("samba-exporters/export").Start(ctx, "export.run")
	defer span.End()

	ec, err := e.Prepare(ctx, feeds...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		for _, f := range feeds {
			e.Metrics.ObserveRun(string(f), resultLabel(err), 0)
		}
		return nil, err
	}
	span.SetAttributes(attribute.String("export.run_id", ec.RunID))

	results := make([]Result, 0, len(feeds))
	for _, f := range feeds {
		res, err := e.Export(ctx, ec, f)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

// Export writes a single feed from a prepared context.
func (e *Exporter) Export(ctx context.Context, ec *Context, f Feed) (Result, error) {
	logger := obs.WithRun(e.Logger, ec.RunID, string(f))
	ctx, span := otel.Tracer("samba-exporters/export").Start(ctx, "export.feed",
		traceAttrs(ec, f)...)
	defer span.End()

	start := time.Now()
	var (
		res Result
		err error
	)
	switch f {
	case FeedCustomers:
		res, err = e.exportCustomers(ctx, ec)
	case FeedProducts:
		res, err = e.exportProducts(ctx, ec)
	case FeedOrders:
		res, err = e.exportOrders(ctx, ec)
	case FeedCategories:
		res, err = e.exportCategories(ec)
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownFeed, f)
	}
	res.Feed = f
	res.Duration = time.Since(start)
	e.Metrics.ObserveRun(string(f), resultLabel(err), res.Duration)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Error().Err(err).Dur("duration", res.Duration).Msg("export aborted, no feed written")
		return res, err
	}
	e.Metrics.ObserveCommit(string(f), res.Items, res.Discounted, ec.Now)
	span.SetAttributes(attribute.Int("export.items", res.Items))
	logger.Info().
		Str("path", res.Path).
		Int("items", res.Items).
		Int("discounted", res.Discounted).
		Dur("duration", res.Duration).
		Msg("feed exported")
	return res, nil
}

func traceAttrs(ec *Context, f Feed) []trace.SpanStartOption {
	return []trace.SpanStartOption{trace.WithAttributes(
		attribute.String("export.run_id", ec.RunID),
		attribute.String("export.feed", string(f)),
		attribute.Int64("export.shop_id", ec.ShopID),
	)}
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return obs.ResultSuccess
	case pricing.IsConfigError(err):
		return obs.ResultConfigError
	default:
		return obs.ResultError
	}
}

func firstSet(values ...int64) int64 {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}
