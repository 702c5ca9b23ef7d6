package export

import (
	"fmt"

	"github.com/diffsolutions/samba-exporters/internal/catalog"
	"github.com/diffsolutions/samba-exporters/internal/feed"
)

func (e *Exporter) exportCategories(ec *Context) (Result, error) {
	if ec.CategoriesErr != nil {
		return Result{}, ec.CategoriesErr
	}
	if ec.Categories == nil {
		return Result{}, errNotPrepared
	}
	w, err := feed.Create(e.Config.OutputDir, feed.CategoriesFile, feed.CategoriesRoot)
	if err != nil {
		return Result{}, fmt.Errorf("export: %w", err)
	}
	defer func() { _ = w.Abort() }()

	var url func(int64) string
	if e.Config.CategoryURLTemplate != "" {
		url = func(id int64) string { return catalog.CategoryURL(e.Config.CategoryURLTemplate, id) }
	}
	if err := feed.WriteCategoryTree(w, ec.Categories, url); err != nil {
		return Result{}, fmt.Errorf("export: %w", err)
	}
	if err := w.Commit(); err != nil {
		return Result{}, fmt.Errorf("export: %w", err)
	}
	return Result{Path: w.Path(), Items: w.Count()}, nil
}
