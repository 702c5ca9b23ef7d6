package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/diffsolutions/samba-exporters/internal/app"
	"github.com/diffsolutions/samba-exporters/internal/config"
	"github.com/diffsolutions/samba-exporters/internal/export"
	"github.com/diffsolutions/samba-exporters/internal/pricing"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		feedsList = flag.String("feeds", "", "comma separated feeds to export (customers,products,orders,categories); defaults to all")
		quoteID   = flag.Int64("quote", 0, "print the resolved price of one product instead of exporting")
		outputDir = flag.String("out", "", "output directory; overrides OUTPUT_DIR")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	if *outputDir != "" {
		cfg.OutputDir = *outputDir
	}
	feeds, err := export.ParseFeeds(*feedsList)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, err := app.Bootstrap(ctx, cfg, "exporter")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	logger := deps.Logger
	exporter := deps.Exporter()

	code := 0
	if *quoteID > 0 {
		code = quote(ctx, exporter, *quoteID)
	} else if _, err := exporter.Run(ctx, feeds...); err != nil {
		if pricing.IsConfigError(err) {
			logger.Error().Err(err).Msg("catalog pricing is misconfigured, fix the shop data and rerun")
		} else {
			logger.Error().Err(err).Msg("export failed")
		}
		code = 1
	}

	if err := deps.Close(context.Background()); err != nil {
		logger.Error().Err(err).Msg("close dependencies")
	}
	return code
}

func quote(ctx context.Context, exporter *export.Exporter, productID int64) int {
	ec, err := exporter.Prepare(ctx, export.FeedProducts)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	q, err := exporter.Quote(ctx, ec, productID)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	precision := exporter.Config.PricePrecision
	fmt.Printf("product %d: %s (before discount %s)\n", q.ProductID,
		q.Price.Final.StringFixed(precision), q.Price.BeforeDiscount.StringFixed(precision))
	for _, v := range q.Variants {
		fmt.Printf("  variant %d: %s (before discount %s)\n", v.VariantID,
			v.Price.Final.StringFixed(precision), v.Price.BeforeDiscount.StringFixed(precision))
	}
	return 0
}
