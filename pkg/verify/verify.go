// pkg/verify/verify.go

// Package verify checks the cleaned tables against the guarantees the
// cleaners are supposed to establish: natural key uniqueness,
// referential integrity, value ranges and order chronology. A clean run
// should produce an empty issue list; anything found here is a defect
// in the cleaning pass, not in the raw data.
package verify

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/olist-analytics/olist-etl/pkg/dates"
	"github.com/olist-analytics/olist-etl/pkg/model"
	"github.com/olist-analytics/olist-etl/pkg/pipeline"
)

// Issue represents one verification failure
type Issue struct {
	IssueType    string
	Table        string
	Column       string
	Description  string
	AffectedRows int
}

// VerificationReport contains the results of verifying one cleaning run
type VerificationReport struct {
	VerificationTime time.Time
	Duration         time.Duration
	TablesChecked    int
	Issues           []Issue
}

// Passed reports whether the run produced no issues
func (r *VerificationReport) Passed() bool {
	return len(r.Issues) == 0
}

// Verifier checks cleaned tables in memory
type Verifier struct {
	logger *zap.Logger
}

// NewVerifier creates a new verifier
func NewVerifier(logger *zap.Logger) (*Verifier, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	return &Verifier{logger: logger}, nil
}

// Verify runs every check over the cleaned data
func (v *Verifier) Verify(data *pipeline.CleanedData) (*VerificationReport, error) {
	if data == nil {
		return nil, errors.New("cleaned data cannot be nil")
	}

	start := time.Now()
	report := &VerificationReport{
		VerificationTime: start,
		Issues:           make([]Issue, 0),
	}

	v.checkUniqueKeys(report, data)
	v.checkReferences(report, data)
	v.checkRanges(report, data)
	v.checkChronology(report, data)

	report.TablesChecked = 9
	report.Duration = time.Since(start)

	if report.Passed() {
		v.logger.Info("Verification passed",
			zap.Int("tables", report.TablesChecked),
			zap.Duration("duration", report.Duration))
	} else {
		v.logger.Warn("Verification found issues",
			zap.Int("issues", len(report.Issues)),
			zap.Duration("duration", report.Duration))
		for _, issue := range report.Issues {
			v.logger.Warn("Verification issue",
				zap.String("type", issue.IssueType),
				zap.String("table", issue.Table),
				zap.String("column", issue.Column),
				zap.Int("affected_rows", issue.AffectedRows),
				zap.String("description", issue.Description))
		}
	}

	return report, nil
}

// checkUniqueKeys verifies natural key uniqueness on every keyed table
func (v *Verifier) checkUniqueKeys(report *VerificationReport, data *pipeline.CleanedData) {
	keyed := []struct {
		table model.Table
		cols  []string
	}{
		{data.Customers, []string{"customer_id"}},
		{data.Products, []string{"product_id"}},
		{data.Sellers, []string{"seller_id"}},
		{data.Categories, []string{"product_category_name"}},
		{data.Orders, []string{"order_id"}},
		{data.OrderItems, []string{"order_id", "order_item_id"}},
		{data.Payments, []string{"order_id", "payment_sequential"}},
		{data.Reviews, []string{"review_id"}},
	}

	for _, k := range keyed {
		seen := make(map[string]struct{}, k.table.Len())
		dupes := 0
		for _, row := range k.table.Rows {
			key, ok := model.CompositeKey(row, k.cols...)
			if !ok {
				continue
			}
			if _, found := seen[key]; found {
				dupes++
				continue
			}
			seen[key] = struct{}{}
		}
		if dupes > 0 {
			report.Issues = append(report.Issues, Issue{
				IssueType:    "duplicate_key",
				Table:        k.table.Name,
				Column:       fmt.Sprintf("%v", k.cols),
				Description:  "natural key occurs more than once",
				AffectedRows: dupes,
			})
		}
	}
}

// checkReferences verifies that every foreign key resolves against its
// cleaned parent key set
func (v *Verifier) checkReferences(report *VerificationReport, data *pipeline.CleanedData) {
	refs := []struct {
		table  model.Table
		column string
		parent model.KeySet
	}{
		{data.Orders, "customer_id", data.CustomerIDs},
		{data.OrderItems, "order_id", data.OrderIDs},
		{data.OrderItems, "product_id", data.ProductIDs},
		{data.OrderItems, "seller_id", data.SellerIDs},
		{data.Payments, "order_id", data.OrderIDs},
		{data.Reviews, "order_id", data.OrderIDs},
	}

	for _, ref := range refs {
		orphans := 0
		for _, row := range ref.table.Rows {
			key, ok := row.Get(ref.column).Str()
			if !ok || !ref.parent.Contains(key) {
				orphans++
			}
		}
		if orphans > 0 {
			report.Issues = append(report.Issues, Issue{
				IssueType:    "referential_violation",
				Table:        ref.table.Name,
				Column:       ref.column,
				Description:  "foreign key not found in cleaned parent table",
				AffectedRows: orphans,
			})
		}
	}
}

// checkRanges verifies the numeric bounds the cleaners enforce
func (v *Verifier) checkRanges(report *VerificationReport, data *pipeline.CleanedData) {
	v.checkIntRange(report, data.Reviews, "review_score", 1, 5)
	v.checkIntRange(report, data.Customers, "customer_zip_code_prefix", 1, 99999)
	v.checkIntRange(report, data.Sellers, "seller_zip_code_prefix", 1, 99999)
	v.checkIntRange(report, data.Geolocation, "geolocation_zip_code_prefix", 1, 99999)
	v.checkPositiveFloat(report, data.OrderItems, "price")
	v.checkPositiveFloat(report, data.Payments, "payment_value")
}

func (v *Verifier) checkIntRange(report *VerificationReport, t model.Table, column string, min, max int64) {
	bad := 0
	for _, row := range t.Rows {
		val := row.Get(column)
		if val.IsMissing() {
			continue
		}
		n, ok := val.AsInt()
		if !ok || n < min || n > max {
			bad++
		}
	}
	if bad > 0 {
		report.Issues = append(report.Issues, Issue{
			IssueType:    "out_of_range",
			Table:        t.Name,
			Column:       column,
			Description:  fmt.Sprintf("value outside [%d, %d]", min, max),
			AffectedRows: bad,
		})
	}
}

func (v *Verifier) checkPositiveFloat(report *VerificationReport, t model.Table, column string) {
	bad := 0
	for _, row := range t.Rows {
		val := row.Get(column)
		if val.IsMissing() {
			continue
		}
		f, ok := val.AsFloat()
		if !ok || f <= 0 {
			bad++
		}
	}
	if bad > 0 {
		report.Issues = append(report.Issues, Issue{
			IssueType:    "out_of_range",
			Table:        t.Name,
			Column:       column,
			Description:  "value is not strictly positive",
			AffectedRows: bad,
		})
	}
}

// checkChronology verifies order event ordering and the epoch window
func (v *Verifier) checkChronology(report *VerificationReport, data *pipeline.CleanedData) {
	backwards := 0
	outsideEpoch := 0

	timestampColumns := []string{
		"order_purchase_timestamp",
		"order_approved_at",
		"order_delivered_carrier_date",
		"order_delivered_customer_date",
		"order_estimated_delivery_date",
	}

	for _, row := range data.Orders.Rows {
		purchased, hasPurchased := row.Get("order_purchase_timestamp").TimeVal()
		if approved, ok := row.Get("order_approved_at").TimeVal(); ok && hasPurchased {
			if approved.Before(purchased) {
				backwards++
			}
		}

		for _, col := range timestampColumns {
			if ts, ok := row.Get(col).TimeVal(); ok {
				if ts.Before(dates.EpochMin) || ts.After(dates.EpochMax) {
					outsideEpoch++
				}
			}
		}
	}

	if backwards > 0 {
		report.Issues = append(report.Issues, Issue{
			IssueType:    "chronology_violation",
			Table:        data.Orders.Name,
			Column:       "order_approved_at",
			Description:  "approval precedes purchase",
			AffectedRows: backwards,
		})
	}
	if outsideEpoch > 0 {
		report.Issues = append(report.Issues, Issue{
			IssueType:    "outside_epoch",
			Table:        data.Orders.Name,
			Column:       "order_timestamps",
			Description:  "timestamp outside the dataset's operating window",
			AffectedRows: outsideEpoch,
		})
	}
}
