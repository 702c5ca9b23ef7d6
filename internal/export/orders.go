package export

import (
	"context"
	"fmt"
	"slices"

	"github.com/diffsolutions/samba-exporters/internal/catalog"
	"github.com/diffsolutions/samba-exporters/internal/feed"
	"github.com/diffsolutions/samba-exporters/internal/obs"
)

// exportOrders writes orders of publishable customers only. Orders of
// customers who withdrew consent or were deleted are left out.
func (e *Exporter) exportOrders(ctx context.Context, ec *Context) (Result, error) {
	if ec.CustomerEmails == nil {
		return Result{}, errNotPrepared
	}
	orders, err := e.Source.ListOrders(ctx, ec.ShopID)
	if err != nil {
		return Result{}, fmt.Errorf("export: %w", err)
	}
	w, err := feed.Create(e.Config.OutputDir, feed.OrdersFile, feed.OrdersRoot)
	if err != nil {
		return Result{}, fmt.Errorf("export: %w", err)
	}
	defer func() { _ = w.Abort() }()

	skipped := 0
	for _, o := range orders {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		email, ok := ec.CustomerEmails[o.CustomerID]
		if !ok {
			skipped++
			continue
		}
		if err := w.Encode(e.orderItem(o, email)); err != nil {
			return Result{}, fmt.Errorf("export: order %d: %w", o.ID, err)
		}
	}
	if err := w.Commit(); err != nil {
		return Result{}, fmt.Errorf("export: %w", err)
	}
	if skipped > 0 {
		logger := obs.WithRun(e.Logger, ec.RunID, string(FeedOrders))
		logger.Debug().
			Int("skipped", skipped).Msg("orders of unpublished customers skipped")
	}
	return Result{Path: w.Path(), Items: w.Count()}, nil
}

func (e *Exporter) orderItem(o catalog.Order, email string) feed.Order {
	item := feed.Order{
		OrderID:    o.ID,
		CustomerID: o.CustomerID,
		Email:      email,
		CreatedOn:  timestamp(o.Created),
		FinishedOn: timestamp(o.Delivered),
		Status:     e.orderStatus(o.StateID),
		ZipCode:    o.PostCode,
	}
	for _, line := range o.Items {
		item.Items = append(item.Items, feed.OrderItem{
			ProductID: line.ProductID,
			Price:     e.money(line.Price),
			Amount:    line.Quantity,
		})
	}
	return item
}

func (e *Exporter) orderStatus(state int64) string {
	switch {
	case slices.Contains(e.Config.OrderCancelled, state):
		return feed.OrderCanceled
	case slices.Contains(e.Config.OrderFinished, state):
		return feed.OrderFinished
	default:
		return feed.OrderCreated
	}
}
