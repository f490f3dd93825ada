// pkg/pipeline/pipeline.go

// Package pipeline orchestrates the cleaning run: it loads each raw
// extract, cleans the tables in dependency order so that key sets exist
// before the tables that reference them, persists the cleaned outputs
// and aggregates per-table reports into a run summary.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/olist-analytics/olist-etl/pkg/cleaner"
	"github.com/olist-analytics/olist-etl/pkg/csvio"
	"github.com/olist-analytics/olist-etl/pkg/model"
)

// rawFiles maps each logical table to its raw extract filename
var rawFiles = map[string]string{
	"customers":   "olist_customers_dataset_dirty.csv",
	"orders":      "olist_orders_dataset_dirty.csv",
	"order_items": "olist_order_items_dataset_dirty.csv",
	"payments":    "olist_order_payments_dataset_dirty.csv",
	"products":    "olist_products_dataset_dirty.csv",
	"reviews":     "olist_order_reviews_dataset_dirty.csv",
	"sellers":     "olist_sellers_dataset_dirty.csv",
	"geolocation": "olist_geolocation_dataset_dirty.csv",
	"categories":  "product_category_name_translation_dirty.csv",
}

// CleanedData holds every cleaned table plus the retained key sets,
// ready for verification and warehouse loading
type CleanedData struct {
	Customers   model.Table
	Products    model.Table
	Sellers     model.Table
	Categories  model.Table
	Geolocation model.Table
	Orders      model.Table
	OrderItems  model.Table
	Payments    model.Table
	Reviews     model.Table

	CustomerIDs model.KeySet
	ProductIDs  model.KeySet
	SellerIDs   model.KeySet
	OrderIDs    model.KeySet
}

// Pipeline runs the full cleaning pass over the raw extracts
type Pipeline struct {
	store   *csvio.Store
	cleaner *cleaner.Cleaner
	logger  *zap.Logger
}

// New creates a pipeline over the given store
func New(store *csvio.Store, logger *zap.Logger) (*Pipeline, error) {
	if store == nil {
		return nil, errors.New("store cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	c, err := cleaner.New(logger)
	if err != nil {
		return nil, err
	}

	return &Pipeline{
		store:   store,
		cleaner: c,
		logger:  logger,
	}, nil
}

// Run executes the cleaning pass. Independent tables go first, then the
// dependent ones in an order that guarantees every foreign key is
// checked against an already-cleaned key set. A structural defect in
// any extract aborts the run; quality problems never do.
func (p *Pipeline) Run(ctx context.Context) (*RunSummary, *CleanedData, error) {
	summary := NewRunSummary()
	data := &CleanedData{}

	p.logger.Info("Starting cleaning run", zap.String("run_id", summary.RunID))

	steps := []struct {
		name  string
		clean func(raw model.Table) (model.Table, *cleaner.TableReport, error)
		out   *model.Table
	}{
		{"customers", func(raw model.Table) (model.Table, *cleaner.TableReport, error) {
			t, keys, rep, err := p.cleaner.CleanCustomers(raw)
			data.CustomerIDs = keys
			return t, rep, err
		}, &data.Customers},
		{"products", func(raw model.Table) (model.Table, *cleaner.TableReport, error) {
			t, keys, rep, err := p.cleaner.CleanProducts(raw)
			data.ProductIDs = keys
			return t, rep, err
		}, &data.Products},
		{"sellers", func(raw model.Table) (model.Table, *cleaner.TableReport, error) {
			t, keys, rep, err := p.cleaner.CleanSellers(raw)
			data.SellerIDs = keys
			return t, rep, err
		}, &data.Sellers},
		{"categories", func(raw model.Table) (model.Table, *cleaner.TableReport, error) {
			return p.cleaner.CleanCategoryTranslation(raw)
		}, &data.Categories},
		{"geolocation", func(raw model.Table) (model.Table, *cleaner.TableReport, error) {
			return p.cleaner.CleanGeolocation(raw)
		}, &data.Geolocation},
		{"orders", func(raw model.Table) (model.Table, *cleaner.TableReport, error) {
			t, keys, rep, err := p.cleaner.CleanOrders(raw, data.CustomerIDs)
			data.OrderIDs = keys
			return t, rep, err
		}, &data.Orders},
		{"order_items", func(raw model.Table) (model.Table, *cleaner.TableReport, error) {
			return p.cleaner.CleanOrderItems(raw, data.OrderIDs, data.ProductIDs, data.SellerIDs)
		}, &data.OrderItems},
		{"payments", func(raw model.Table) (model.Table, *cleaner.TableReport, error) {
			return p.cleaner.CleanPayments(raw, data.OrderIDs)
		}, &data.Payments},
		{"reviews", func(raw model.Table) (model.Table, *cleaner.TableReport, error) {
			return p.cleaner.CleanReviews(raw, data.OrderIDs)
		}, &data.Reviews},
	}

	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return summary, nil, fmt.Errorf("cleaning run cancelled: %w", err)
		}

		report, err := p.runStep(step.name, step.clean, step.out)
		if err != nil {
			summary.Complete()
			return summary, nil, err
		}
		summary.AddReport(report)
	}

	summary.Complete()

	p.logger.Info("Cleaning run complete",
		zap.String("run_id", summary.RunID),
		zap.Int("tables", len(summary.Reports)),
		zap.Int("rows_in", summary.TotalRowsIn),
		zap.Int("rows_out", summary.TotalRowsOut),
		zap.Int("rows_dropped", summary.TotalRowsDropped),
		zap.Duration("duration", summary.Duration))

	return summary, data, nil
}

// runStep loads, cleans and persists one table
func (p *Pipeline) runStep(
	name string,
	clean func(raw model.Table) (model.Table, *cleaner.TableReport, error),
	out *model.Table,
) (*cleaner.TableReport, error) {
	raw, err := p.store.ReadTable(name, rawFiles[name])
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", name, err)
	}

	cleanTable, report, err := clean(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to clean %s: %w", name, err)
	}

	if err := p.store.WriteTable(name+"_clean.csv", cleanTable); err != nil {
		return nil, fmt.Errorf("failed to persist %s: %w", name, err)
	}

	*out = cleanTable

	p.logger.Info("Cleaned table", report.LogFields()...)
	return report, nil
}

// newRunID returns a unique identifier for one pipeline execution
func newRunID() string {
	return uuid.New().String()
}
