// pkg/verify/verify_test.go
package verify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/olist-analytics/olist-etl/pkg/model"
	"github.com/olist-analytics/olist-etl/pkg/pipeline"
)

func newTestVerifier(t *testing.T) *Verifier {
	t.Helper()
	v, err := NewVerifier(zap.NewNop())
	require.NoError(t, err)
	return v
}

func cleanFixture() *pipeline.CleanedData {
	purchase := time.Date(2017, time.May, 3, 10, 0, 0, 0, time.UTC)

	customers := model.NewTable("customers", []string{"customer_id", "customer_zip_code_prefix"})
	customers.Append(model.Record{
		"customer_id":              model.String("c1"),
		"customer_zip_code_prefix": model.Int(1001),
	})

	products := model.NewTable("products", []string{"product_id"})
	products.Append(model.Record{"product_id": model.String("p1")})

	sellers := model.NewTable("sellers", []string{"seller_id", "seller_zip_code_prefix"})
	sellers.Append(model.Record{
		"seller_id":              model.String("s1"),
		"seller_zip_code_prefix": model.Int(3003),
	})

	categories := model.NewTable("categories", []string{"product_category_name"})
	categories.Append(model.Record{"product_category_name": model.String("beleza_saude")})

	geolocation := model.NewTable("geolocation", []string{"geolocation_zip_code_prefix"})
	geolocation.Append(model.Record{"geolocation_zip_code_prefix": model.Int(1001)})

	orders := model.NewTable("orders", []string{
		"order_id", "customer_id",
		"order_purchase_timestamp", "order_approved_at",
		"order_delivered_carrier_date", "order_delivered_customer_date",
		"order_estimated_delivery_date",
	})
	orders.Append(model.Record{
		"order_id":                      model.String("o1"),
		"customer_id":                   model.String("c1"),
		"order_purchase_timestamp":      model.Time(purchase),
		"order_approved_at":             model.Time(purchase.Add(time.Hour)),
		"order_delivered_carrier_date":  model.Missing(),
		"order_delivered_customer_date": model.Missing(),
		"order_estimated_delivery_date": model.Time(purchase.Add(7 * 24 * time.Hour)),
	})

	orderItems := model.NewTable("order_items", []string{
		"order_id", "order_item_id", "product_id", "seller_id", "price",
	})
	orderItems.Append(model.Record{
		"order_id":      model.String("o1"),
		"order_item_id": model.Int(1),
		"product_id":    model.String("p1"),
		"seller_id":     model.String("s1"),
		"price":         model.Float(19.90),
	})

	payments := model.NewTable("payments", []string{
		"order_id", "payment_sequential", "payment_value",
	})
	payments.Append(model.Record{
		"order_id":           model.String("o1"),
		"payment_sequential": model.Int(1),
		"payment_value":      model.Float(24.90),
	})

	reviews := model.NewTable("reviews", []string{"review_id", "order_id", "review_score"})
	reviews.Append(model.Record{
		"review_id":    model.String("r1"),
		"order_id":     model.String("o1"),
		"review_score": model.Int(5),
	})

	return &pipeline.CleanedData{
		Customers:   customers,
		Products:    products,
		Sellers:     sellers,
		Categories:  categories,
		Geolocation: geolocation,
		Orders:      orders,
		OrderItems:  orderItems,
		Payments:    payments,
		Reviews:     reviews,

		CustomerIDs: model.NewKeySet(customers, "customer_id"),
		ProductIDs:  model.NewKeySet(products, "product_id"),
		SellerIDs:   model.NewKeySet(sellers, "seller_id"),
		OrderIDs:    model.NewKeySet(orders, "order_id"),
	}
}

func TestVerifyPassesOnCleanData(t *testing.T) {
	v := newTestVerifier(t)

	report, err := v.Verify(cleanFixture())
	require.NoError(t, err)
	assert.True(t, report.Passed(), "unexpected issues: %+v", report.Issues)
	assert.Equal(t, 9, report.TablesChecked)
}

func TestVerifyRejectsNil(t *testing.T) {
	v := newTestVerifier(t)
	_, err := v.Verify(nil)
	assert.Error(t, err)
}

func findIssue(report *VerificationReport, issueType, table string) *Issue {
	for i := range report.Issues {
		if report.Issues[i].IssueType == issueType && report.Issues[i].Table == table {
			return &report.Issues[i]
		}
	}
	return nil
}

func TestVerifyDetectsDuplicateKeys(t *testing.T) {
	v := newTestVerifier(t)
	data := cleanFixture()

	data.Customers.Append(model.Record{
		"customer_id":              model.String("c1"),
		"customer_zip_code_prefix": model.Int(1001),
	})

	report, err := v.Verify(data)
	require.NoError(t, err)

	issue := findIssue(report, "duplicate_key", "customers")
	require.NotNil(t, issue)
	assert.Equal(t, 1, issue.AffectedRows)
}

func TestVerifyDetectsOrphans(t *testing.T) {
	v := newTestVerifier(t)
	data := cleanFixture()

	data.Payments.Append(model.Record{
		"order_id":           model.String("ghost"),
		"payment_sequential": model.Int(1),
		"payment_value":      model.Float(10),
	})

	report, err := v.Verify(data)
	require.NoError(t, err)

	issue := findIssue(report, "referential_violation", "payments")
	require.NotNil(t, issue)
	assert.Equal(t, "order_id", issue.Column)
	assert.Equal(t, 1, issue.AffectedRows)
}

func TestVerifyDetectsOutOfRangeScore(t *testing.T) {
	v := newTestVerifier(t)
	data := cleanFixture()

	data.Reviews.Append(model.Record{
		"review_id":    model.String("r2"),
		"order_id":     model.String("o1"),
		"review_score": model.Int(6),
	})

	report, err := v.Verify(data)
	require.NoError(t, err)

	issue := findIssue(report, "out_of_range", "reviews")
	require.NotNil(t, issue)
	assert.Equal(t, "review_score", issue.Column)
}

func TestVerifyDetectsNonPositivePrice(t *testing.T) {
	v := newTestVerifier(t)
	data := cleanFixture()

	data.OrderItems.Append(model.Record{
		"order_id":      model.String("o1"),
		"order_item_id": model.Int(2),
		"product_id":    model.String("p1"),
		"seller_id":     model.String("s1"),
		"price":         model.Float(0),
	})

	report, err := v.Verify(data)
	require.NoError(t, err)

	issue := findIssue(report, "out_of_range", "order_items")
	require.NotNil(t, issue)
	assert.Equal(t, "price", issue.Column)
}

func TestVerifyDetectsChronologyViolation(t *testing.T) {
	v := newTestVerifier(t)
	data := cleanFixture()

	purchase := time.Date(2017, time.May, 3, 10, 0, 0, 0, time.UTC)
	data.Orders.Append(model.Record{
		"order_id":                      model.String("o2"),
		"customer_id":                   model.String("c1"),
		"order_purchase_timestamp":      model.Time(purchase),
		"order_approved_at":             model.Time(purchase.Add(-time.Hour)),
		"order_estimated_delivery_date": model.Time(purchase.Add(24 * time.Hour)),
	})

	report, err := v.Verify(data)
	require.NoError(t, err)

	issue := findIssue(report, "chronology_violation", "orders")
	require.NotNil(t, issue)
	assert.Equal(t, 1, issue.AffectedRows)
}

func TestVerifyDetectsTimestampsOutsideEpoch(t *testing.T) {
	v := newTestVerifier(t)
	data := cleanFixture()

	old := time.Date(2012, time.January, 1, 0, 0, 0, 0, time.UTC)
	data.Orders.Append(model.Record{
		"order_id":                 model.String("o2"),
		"customer_id":              model.String("c1"),
		"order_purchase_timestamp": model.Time(old),
	})

	report, err := v.Verify(data)
	require.NoError(t, err)

	issue := findIssue(report, "outside_epoch", "orders")
	require.NotNil(t, issue)
}
