package export

import (
	"context"
	"fmt"
	"time"

	"github.com/diffsolutions/samba-exporters/internal/catalog"
	"github.com/diffsolutions/samba-exporters/internal/feed"
)

const dateLayout = "2006-01-02"

func (e *Exporter) exportCustomers(ctx context.Context, ec *Context) (Result, error) {
	if ec.CustomerEmails == nil {
		return Result{}, errNotPrepared
	}
	w, err := feed.Create(e.Config.OutputDir, feed.CustomersFile, feed.CustomersRoot)
	if err != nil {
		return Result{}, fmt.Errorf("export: %w", err)
	}
	defer func() { _ = w.Abort() }()

	for _, c := range ec.Customers {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		if err := w.Encode(customerItem(c)); err != nil {
			return Result{}, fmt.Errorf("export: customer %d: %w", c.ID, err)
		}
	}
	if err := w.Commit(); err != nil {
		return Result{}, fmt.Errorf("export: %w", err)
	}
	return Result{Path: w.Path(), Items: w.Count()}, nil
}

func customerItem(c catalog.Customer) feed.Customer {
	item := feed.Customer{
		FirstName:           c.FirstName,
		LastName:            c.LastName,
		CustomerID:          c.ID,
		Email:               c.Email,
		Phone:               c.Phone,
		ZipCode:             c.PostCode,
		NewsletterFrequency: "never",
		Registration:        timestamp(c.Registered),
	}
	if c.Newsletter {
		item.NewsletterFrequency = "every day"
	}
	if c.Gender != "" {
		item.Parameters = append(item.Parameters, feed.Parameter{Name: "Gender", Value: c.Gender})
	}
	if c.Birthday != nil {
		item.Parameters = append(item.Parameters, feed.Parameter{Name: "Birthday", Value: c.Birthday.Format(dateLayout)})
	}
	return item
}

// timestamp formats t as RFC 3339 with its zone offset. Nil yields "".
func timestamp(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}
