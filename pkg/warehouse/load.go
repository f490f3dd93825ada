// pkg/warehouse/load.go
package warehouse

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/olist-analytics/olist-etl/pkg/model"
)

// insertBatchSize caps the number of rows per INSERT statement
const insertBatchSize = 1000

// LoadResult reports the outcome of loading one warehouse table
type LoadResult struct {
	Table        string
	RowsInserted int64
}

// tableMapping ties a warehouse table to the cleaned columns that feed it
type tableMapping struct {
	target  string
	columns []string
}

var (
	customerMapping = tableMapping{
		target: "dim_customer",
		columns: []string{
			"customer_id",
			"customer_unique_id",
			"customer_zip_code_prefix",
			"customer_city",
			"customer_state",
		},
	}
	productMapping = tableMapping{
		target: "dim_product",
		columns: []string{
			"product_id",
			"product_category_name",
			"product_weight_g",
			"product_length_cm",
			"product_height_cm",
			"product_width_cm",
		},
	}
	sellerMapping = tableMapping{
		target: "dim_seller",
		columns: []string{
			"seller_id",
			"seller_zip_code_prefix",
			"seller_city",
			"seller_state",
		},
	}
	orderMapping = tableMapping{
		target: "dim_order",
		columns: []string{
			"order_id",
			"customer_id",
			"order_status",
			"order_purchase_timestamp",
			"order_approved_at",
			"order_delivered_carrier_date",
			"order_delivered_customer_date",
			"order_estimated_delivery_date",
		},
	}
	orderItemMapping = tableMapping{
		target: "fact_order_items",
		columns: []string{
			"order_id",
			"product_id",
			"seller_id",
			"shipping_limit_date",
			"price",
			"freight_value",
		},
	}
)

// LoadStarSchema loads the cleaned tables into the dimensional model.
// Dimensions go first, the date dimension is derived from the order
// dimension, and the fact table goes last.
func (w *Warehouse) LoadStarSchema(
	ctx context.Context,
	customers, products, sellers, orders, orderItems model.Table,
) ([]LoadResult, error) {
	loads := []struct {
		mapping tableMapping
		source  model.Table
	}{
		{customerMapping, customers},
		{productMapping, products},
		{sellerMapping, sellers},
		{orderMapping, orders},
		{orderItemMapping, orderItems},
	}

	results := make([]LoadResult, 0, len(loads)+1)

	for _, load := range loads {
		inserted, err := w.loadTable(ctx, load.mapping, load.source)
		if err != nil {
			return results, err
		}
		results = append(results, LoadResult{Table: load.mapping.target, RowsInserted: inserted})
	}

	dateRows, err := w.PopulateDateDimension(ctx, orders)
	if err != nil {
		return results, err
	}
	results = append(results, LoadResult{Table: "dim_date", RowsInserted: dateRows})

	return results, nil
}

// loadTable projects the mapped columns out of the cleaned table and
// bulk-inserts them
func (w *Warehouse) loadTable(ctx context.Context, mapping tableMapping, source model.Table) (int64, error) {
	if missing := source.MissingColumns(mapping.columns); len(missing) > 0 {
		return 0, fmt.Errorf("cleaned table %s is missing columns %v required by %s",
			source.Name, missing, mapping.target)
	}

	valueRows := make([][]interface{}, 0, source.Len())
	for _, row := range source.Rows {
		args := make([]interface{}, len(mapping.columns))
		for i, col := range mapping.columns {
			args[i] = row.Get(col).Interface()
		}
		valueRows = append(valueRows, args)
	}

	inserted, err := w.batchInsert(ctx, mapping.target, mapping.columns, valueRows, insertBatchSize)
	if err != nil {
		return inserted, err
	}

	w.logger.Info("Loaded warehouse table",
		zap.String("table", mapping.target),
		zap.Int64("rows", inserted))

	return inserted, nil
}

// PopulateDateDimension fills dim_date with one row per calendar day
// between the earliest purchase and the latest estimated delivery
func (w *Warehouse) PopulateDateDimension(ctx context.Context, orders model.Table) (int64, error) {
	start, end, err := dateDimensionBounds(orders)
	if err != nil {
		return 0, err
	}

	query := `
		INSERT INTO dim_date (date_id, year, month, day, weekday)
		SELECT
			d::date AS date_id,
			EXTRACT(YEAR FROM d)::int AS year,
			EXTRACT(MONTH FROM d)::int AS month,
			EXTRACT(DAY FROM d)::int AS day,
			EXTRACT(DOW FROM d)::int AS weekday
		FROM generate_series($1::date, $2::date, '1 day') AS d
	`

	result, err := w.db.ExecContext(ctx, query,
		start.Format("2006-01-02"), end.Format("2006-01-02"))
	if err != nil {
		return 0, fmt.Errorf("failed to populate date dimension: %w", err)
	}

	inserted, err := result.RowsAffected()
	if err != nil {
		w.logger.Warn("Couldn't get rows affected", zap.Error(err))
	}

	w.logger.Info("Populated date dimension",
		zap.Time("start", start),
		zap.Time("end", end),
		zap.Int64("rows", inserted))

	return inserted, nil
}

// dateDimensionBounds scans the cleaned orders for the calendar span the
// date dimension must cover
func dateDimensionBounds(orders model.Table) (time.Time, time.Time, error) {
	var start, end time.Time

	for _, row := range orders.Rows {
		if purchased, ok := row.Get("order_purchase_timestamp").TimeVal(); ok {
			if start.IsZero() || purchased.Before(start) {
				start = purchased
			}
		}
		if estimated, ok := row.Get("order_estimated_delivery_date").TimeVal(); ok {
			if end.IsZero() || estimated.After(end) {
				end = estimated
			}
		}
	}

	if start.IsZero() || end.IsZero() {
		return start, end, errors.New("orders carry no usable dates for the date dimension")
	}
	if end.Before(start) {
		end = start
	}

	return start, end, nil
}
