// pkg/cleaner/cleaner_test.go
package cleaner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/olist-analytics/olist-etl/pkg/model"
)

func newTestCleaner(t *testing.T) *Cleaner {
	t.Helper()
	c, err := New(zap.NewNop())
	require.NoError(t, err)
	return c
}

func tableOf(name string, columns []string, rows ...model.Record) model.Table {
	t := model.NewTable(name, columns)
	for _, r := range rows {
		t.Append(r)
	}
	return t
}

func cell(s string) model.Value {
	return model.String(s)
}

func TestNewRequiresLogger(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)
}

func TestRequireColumnsStructuralError(t *testing.T) {
	c := newTestCleaner(t)

	raw := tableOf("customers", []string{"customer_id"},
		model.Record{"customer_id": cell("c1")})

	_, _, _, err := c.CleanCustomers(raw)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing required columns")
}

func customerRow(id, uid, zip, city, state string) model.Record {
	r := model.Record{
		"customer_id":              cell(id),
		"customer_unique_id":       cell(uid),
		"customer_zip_code_prefix": cell(zip),
		"customer_city":            cell(city),
		"customer_state":           cell(state),
	}
	for k, v := range r {
		if s, _ := v.Str(); s == "" {
			r[k] = model.Missing()
		}
	}
	return r
}

func TestCleanCustomers(t *testing.T) {
	c := newTestCleaner(t)

	raw := tableOf("customers", customerColumns,
		customerRow("c1", "u1", "1001", "sÃ£o paulo", "sp"),
		customerRow("c1", "u1", "1001", "sÃ£o paulo", "sp"), // exact duplicate
		customerRow("c2", "u2", "garbage", "sao paulo", "SP"),
		customerRow("c3_dirty", "u3", "", "", ""), // unrecoverable placeholder
		customerRow("", "u4", "2002", "campinas", "sp"),
	)

	cleaned, keys, rep, err := c.CleanCustomers(raw)
	require.NoError(t, err)

	assert.Equal(t, 2, cleaned.Len())
	assert.Equal(t, 2, keys.Len())
	assert.True(t, keys.Contains("c1"))
	assert.True(t, keys.Contains("c2"))

	assert.Equal(t, 1, rep.DropCount(DropExactDuplicate))
	assert.Equal(t, 1, rep.DropCount(DropMissingIdentifier))
	assert.Equal(t, 1, rep.DropCount(DropEntityRule))
	assert.Equal(t, 5, rep.RowsIn)
	assert.Equal(t, 2, rep.RowsOut)

	// Mojibake city repaired and title-cased
	first := cleaned.Rows[0]
	city, ok := first.Get("customer_city").Str()
	require.True(t, ok)
	assert.Equal(t, "Sao Paulo", city)

	// Invalid zip imputed from the city/state mode of the valid rows
	second := cleaned.Rows[1]
	zip, ok := second.Get("customer_zip_code_prefix").IntVal()
	require.True(t, ok)
	assert.Equal(t, int64(1001), zip)
}

func TestCleanCustomersKeepsPlaceholderWithGeography(t *testing.T) {
	c := newTestCleaner(t)

	raw := tableOf("customers", customerColumns,
		customerRow("c9_dirty", "u9", "3003", "curitiba", "pr"),
	)

	cleaned, _, rep, err := c.CleanCustomers(raw)
	require.NoError(t, err)
	assert.Equal(t, 1, cleaned.Len())
	assert.Equal(t, 0, rep.DropCount(DropEntityRule))
}

func TestCleanCustomersRejectsInvalidState(t *testing.T) {
	c := newTestCleaner(t)

	raw := tableOf("customers", customerColumns,
		customerRow("c1", "u1", "1001", "somewhere", "xx"),
	)

	cleaned, _, rep, err := c.CleanCustomers(raw)
	require.NoError(t, err)
	require.Equal(t, 1, cleaned.Len())
	assert.True(t, cleaned.Rows[0].Get("customer_state").IsMissing())
	assert.Equal(t, 1, rep.RepairCount("customer_state"))
}

func orderRow(id, customer, status, purchased, approved string) model.Record {
	r := model.Record{
		"order_id":                      cell(id),
		"customer_id":                   cell(customer),
		"order_status":                  cell(status),
		"order_purchase_timestamp":      cell(purchased),
		"order_approved_at":             cell(approved),
		"order_delivered_carrier_date":  model.Missing(),
		"order_delivered_customer_date": model.Missing(),
		"order_estimated_delivery_date": model.Missing(),
	}
	for k, v := range r {
		if s, isStr := v.Str(); isStr && s == "" {
			r[k] = model.Missing()
		}
	}
	return r
}

func TestCleanOrders(t *testing.T) {
	c := newTestCleaner(t)
	customers := model.KeySet{"c1": {}, "c2": {}}

	raw := tableOf("orders", orderColumns,
		orderRow("o1", "c1", "DELIVERED", "2017-05-03 10:00:00", "2017-05-03 11:00:00"),
		orderRow("o2", "ghost", "delivered", "2017-05-03 10:00:00", ""),
		orderRow("o3", "c2", "shipped", "31/04/2017", ""),
	)

	cleaned, keys, rep, err := c.CleanOrders(raw, customers)
	require.NoError(t, err)

	assert.Equal(t, 2, cleaned.Len())
	assert.True(t, keys.Contains("o1"))
	assert.True(t, keys.Contains("o3"))

	// Exactly one orphan, attributed to the customer foreign key
	assert.Equal(t, 1, rep.DropCount(DropOrphanedForeignKey))
	assert.Equal(t, 1, rep.OrphanCount("customer_id"))

	// Status lowercased
	status, ok := cleaned.Rows[0].Get("order_status").Str()
	require.True(t, ok)
	assert.Equal(t, "delivered", status)

	// Impossible calendar date downgraded to missing, counted as repair
	assert.True(t, cleaned.Rows[1].Get("order_purchase_timestamp").IsMissing())
	assert.Equal(t, 1, rep.RepairCount("order_purchase_timestamp"))
}

func TestCleanOrdersClampsEarlyApproval(t *testing.T) {
	c := newTestCleaner(t)
	customers := model.KeySet{"c1": {}}

	raw := tableOf("orders", orderColumns,
		orderRow("o1", "c1", "delivered", "2017-05-03 10:00:00", "2017-05-02 09:00:00"),
	)

	cleaned, _, rep, err := c.CleanOrders(raw, customers)
	require.NoError(t, err)
	require.Equal(t, 1, cleaned.Len())

	purchased, ok := cleaned.Rows[0].Get("order_purchase_timestamp").TimeVal()
	require.True(t, ok)
	approved, ok := cleaned.Rows[0].Get("order_approved_at").TimeVal()
	require.True(t, ok)

	assert.True(t, approved.Equal(purchased))
	assert.Equal(t, 1, rep.RepairCount("order_approved_at"))
}

func TestCleanOrdersDropsBackwardsDeliveries(t *testing.T) {
	c := newTestCleaner(t)
	customers := model.KeySet{"c1": {}}

	row := orderRow("o1", "c1", "delivered", "2017-05-01 10:00:00", "2017-05-01 11:00:00")
	row["order_delivered_carrier_date"] = cell("2017-05-02 10:00:00")
	row["order_delivered_customer_date"] = cell("2017-05-01 12:00:00") // before carrier

	raw := tableOf("orders", orderColumns, row)

	cleaned, _, rep, err := c.CleanOrders(raw, customers)
	require.NoError(t, err)
	require.Equal(t, 1, cleaned.Len())

	assert.True(t, cleaned.Rows[0].Get("order_delivered_customer_date").IsMissing())
	assert.Equal(t, 1, rep.RepairCount("order_delivered_customer_date"))
}

func itemRow(order, seq, product, seller, price, freight string) model.Record {
	r := model.Record{
		"order_id":            cell(order),
		"order_item_id":       cell(seq),
		"product_id":          cell(product),
		"seller_id":           cell(seller),
		"shipping_limit_date": cell("2017-05-10 00:00:00"),
		"price":               cell(price),
		"freight_value":       cell(freight),
	}
	for k, v := range r {
		if s, isStr := v.Str(); isStr && s == "" {
			r[k] = model.Missing()
		}
	}
	return r
}

func TestCleanOrderItems(t *testing.T) {
	c := newTestCleaner(t)
	orders := model.KeySet{"o1": {}}
	products := model.KeySet{"p1": {}}
	sellers := model.KeySet{"s1": {}}

	raw := tableOf("order_items", orderItemColumns,
		itemRow("o1", "1", "p1", "s1", "19.90", "5.00"),
		itemRow("o1", "2.0", "p1", "s1", "10.00", "3.00"), // float-rendered sequence
		itemRow("o1", "3", "ghost", "s1", "10.00", "3.00"),
		itemRow("o1", "4", "p1", "s1", "-5.00", "3.00"), // negative price
		itemRow("o1", "5", "p1", "s1", "0", "3.00"),     // zero price
	)

	cleaned, rep, err := c.CleanOrderItems(raw, orders, products, sellers)
	require.NoError(t, err)

	assert.Equal(t, 2, cleaned.Len())
	assert.Equal(t, 1, rep.OrphanCount("product_id"))
	assert.Equal(t, 2, rep.DropCount(DropEntityRule))

	seq, ok := cleaned.Rows[1].Get("order_item_id").IntVal()
	require.True(t, ok)
	assert.Equal(t, int64(2), seq)
}

func paymentRow(order, seq, ptype, installments, value string) model.Record {
	r := model.Record{
		"order_id":             cell(order),
		"payment_sequential":   cell(seq),
		"payment_type":         cell(ptype),
		"payment_installments": cell(installments),
		"payment_value":        cell(value),
	}
	for k, v := range r {
		if s, isStr := v.Str(); isStr && s == "" {
			r[k] = model.Missing()
		}
	}
	return r
}

func TestCleanPayments(t *testing.T) {
	c := newTestCleaner(t)
	orders := model.KeySet{"o1": {}, "o2": {}}

	raw := tableOf("payments", paymentColumns,
		paymentRow("o1", "1", "CREDIT_CARD", "3", "120.50"),
		paymentRow("o1", "1", "credit_card", "3", "99.00"), // duplicate key
		paymentRow("o2", "1", "boleto", "0", "50.00"),      // installments below floor
		paymentRow("o2", "2", "voucher", "1", "-10.00"),    // invalid value
		paymentRow("ghost", "1", "boleto", "1", "10.00"),
	)

	cleaned, rep, err := c.CleanPayments(raw, orders)
	require.NoError(t, err)

	assert.Equal(t, 2, cleaned.Len())
	assert.Equal(t, 1, rep.DropCount(DropDuplicateNaturalKey))
	assert.Equal(t, 1, rep.OrphanCount("order_id"))
	assert.Equal(t, 1, rep.DropCount(DropEntityRule))

	// Payment type lowercased
	ptype, ok := cleaned.Rows[0].Get("payment_type").Str()
	require.True(t, ok)
	assert.Equal(t, "credit_card", ptype)

	// Out-of-range installments downgraded to missing, record kept
	assert.True(t, cleaned.Rows[1].Get("payment_installments").IsMissing())
	assert.Equal(t, 1, rep.RepairCount("payment_installments"))
}

func reviewRow(id, order, score, created, answered string) model.Record {
	r := model.Record{
		"review_id":               cell(id),
		"order_id":                cell(order),
		"review_score":            cell(score),
		"review_comment_title":    model.Missing(),
		"review_comment_message":  model.Missing(),
		"review_creation_date":    cell(created),
		"review_answer_timestamp": cell(answered),
	}
	for k, v := range r {
		if s, isStr := v.Str(); isStr && s == "" {
			r[k] = model.Missing()
		}
	}
	return r
}

func TestCleanReviews(t *testing.T) {
	c := newTestCleaner(t)
	orders := model.KeySet{"o1": {}, "o2": {}, "o3": {}}

	raw := tableOf("reviews", reviewColumns,
		reviewRow("r1", "o1", "5", "2017-05-03 00:00:00", "2017-05-04 12:00:00"),
		reviewRow("r2", "o2", "6", "2017-05-03 00:00:00", ""), // impossible score
		reviewRow("r3", "o3", "4.0", "2017-05-03 00:00:00", "2017-05-01 00:00:00"),
	)

	cleaned, rep, err := c.CleanReviews(raw, orders)
	require.NoError(t, err)

	assert.Equal(t, 2, cleaned.Len())
	assert.Equal(t, 1, rep.DropCount(DropEntityRule))

	// Float-rendered score coerced
	score, ok := cleaned.Rows[1].Get("review_score").IntVal()
	require.True(t, ok)
	assert.Equal(t, int64(4), score)

	// Answer before creation downgraded to missing
	assert.True(t, cleaned.Rows[1].Get("review_answer_timestamp").IsMissing())
	assert.Equal(t, 1, rep.RepairCount("review_answer_timestamp"))
}

func TestCleanReviewsPreservesCommentCase(t *testing.T) {
	c := newTestCleaner(t)
	orders := model.KeySet{"o1": {}}

	row := reviewRow("r1", "o1", "5", "2017-05-03 00:00:00", "")
	row["review_comment_message"] = cell("Produto Ã³timo, chegou rÃ¡pido")

	raw := tableOf("reviews", reviewColumns, row)

	cleaned, _, err := c.CleanReviews(raw, orders)
	require.NoError(t, err)
	require.Equal(t, 1, cleaned.Len())

	msg, ok := cleaned.Rows[0].Get("review_comment_message").Str()
	require.True(t, ok)
	assert.Equal(t, "Produto otimo, chegou rapido", msg)
}

func productRow(id, category, weight string) model.Record {
	r := model.Record{
		"product_id":                 cell(id),
		"product_category_name":      cell(category),
		"product_name_lenght":        cell("40"),
		"product_description_lenght": cell("300"),
		"product_photos_qty":         cell("2"),
		"product_weight_g":           cell(weight),
		"product_length_cm":          cell("20"),
		"product_height_cm":          cell("10"),
		"product_width_cm":           cell("15"),
	}
	for k, v := range r {
		if s, isStr := v.Str(); isStr && s == "" {
			r[k] = model.Missing()
		}
	}
	return r
}

func TestCleanProducts(t *testing.T) {
	c := newTestCleaner(t)

	raw := tableOf("products", productColumns,
		productRow("p1", "eletrodomesticos_2", "500"),
		productRow("p2", "moveis_decoracao", "-1"),
	)

	cleaned, keys, rep, err := c.CleanProducts(raw)
	require.NoError(t, err)

	assert.Equal(t, 2, cleaned.Len())
	assert.Equal(t, 2, keys.Len())

	// Duplicate category spelling corrected
	category, ok := cleaned.Rows[0].Get("product_category_name").Str()
	require.True(t, ok)
	assert.Equal(t, "eletrodomesticos", category)
	assert.Equal(t, 1, rep.RepairCount("product_category_name"))

	// Implausible weight downgraded to missing
	assert.True(t, cleaned.Rows[1].Get("product_weight_g").IsMissing())
	assert.Equal(t, 1, rep.RepairCount("product_weight_g"))
}

func TestCleanSellers(t *testing.T) {
	c := newTestCleaner(t)

	raw := tableOf("sellers", sellerColumns,
		model.Record{
			"seller_id":              cell("s1"),
			"seller_zip_code_prefix": cell("88010"),
			"seller_city":            cell("florianÃ³polis"),
			"seller_state":           cell("sc"),
		},
		model.Record{
			"seller_id":              cell("s1"), // duplicate key
			"seller_zip_code_prefix": cell("88010"),
			"seller_city":            cell("florianopolis"),
			"seller_state":           cell("sc"),
		},
	)

	cleaned, keys, rep, err := c.CleanSellers(raw)
	require.NoError(t, err)

	assert.Equal(t, 1, cleaned.Len())
	assert.Equal(t, 1, keys.Len())
	assert.Equal(t, 1, rep.DropCount(DropDuplicateNaturalKey))

	city, ok := cleaned.Rows[0].Get("seller_city").Str()
	require.True(t, ok)
	assert.Equal(t, "Florianopolis", city)

	state, ok := cleaned.Rows[0].Get("seller_state").Str()
	require.True(t, ok)
	assert.Equal(t, "SC", state)
}

func geolocationRow(zip, lat, lng, city, state string) model.Record {
	r := model.Record{
		"geolocation_zip_code_prefix": cell(zip),
		"geolocation_lat":             cell(lat),
		"geolocation_lng":             cell(lng),
		"geolocation_city":            cell(city),
		"geolocation_state":           cell(state),
	}
	for k, v := range r {
		if s, isStr := v.Str(); isStr && s == "" {
			r[k] = model.Missing()
		}
	}
	return r
}

func TestCleanGeolocation(t *testing.T) {
	c := newTestCleaner(t)

	raw := tableOf("geolocation", geolocationColumns,
		geolocationRow("1001", "-23.55", "-46.63", "sao paulo", "sp"),
		geolocationRow("1001", "89.99", "-46.63", "sao paulo", "sp"), // lat off the map
		geolocationRow("", "-23.55", "-46.63", "sao paulo", "sp"),    // no zip
	)

	cleaned, rep, err := c.CleanGeolocation(raw)
	require.NoError(t, err)

	assert.Equal(t, 1, cleaned.Len())
	assert.Equal(t, 2, rep.DropCount(DropEntityRule))
	assert.Equal(t, 1, rep.RepairCount("geolocation_lat"))
}

func TestCleanCategoryTranslation(t *testing.T) {
	c := newTestCleaner(t)

	raw := tableOf("categories", categoryColumns,
		model.Record{
			"product_category_name":         cell("beleza_saude"),
			"product_category_name_english": cell("health_beauty"),
		},
		model.Record{
			"product_category_name":         cell("casa_conforto"),
			"product_category_name_english": cell("home_confort"), // known typo
		},
		model.Record{
			"product_category_name":         cell("pc_gamer"),
			"product_category_name_english": model.Missing(), // supplementary lookup
		},
		model.Record{
			"product_category_name":         cell("categoria_inventada"),
			"product_category_name_english": model.Missing(), // unknown sentinel
		},
	)

	cleaned, _, err := c.CleanCategoryTranslation(raw)
	require.NoError(t, err)
	require.Equal(t, 4, cleaned.Len())

	english := func(i int) string {
		s, ok := cleaned.Rows[i].Get("product_category_name_english").Str()
		require.True(t, ok)
		return s
	}

	assert.Equal(t, "health_beauty", english(0))
	assert.Equal(t, "home_comfort", english(1))
	assert.Equal(t, "pc_gamer", english(2))
	assert.Equal(t, "unknown", english(3))
}

func TestReportTimestamps(t *testing.T) {
	rep := NewTableReport("t", 10)
	rep.Complete(8)

	assert.False(t, rep.StartTime.IsZero())
	assert.False(t, rep.EndTime.IsZero())
	assert.True(t, rep.EndTime.Sub(rep.StartTime) >= time.Duration(0))
	assert.Equal(t, 8, rep.RowsOut)
}
