// pkg/cleaner/reviews.go
package cleaner

import (
	"github.com/olist-analytics/olist-etl/pkg/model"
	"github.com/olist-analytics/olist-etl/pkg/textnorm"
)

var reviewColumns = []string{
	"review_id",
	"order_id",
	"review_score",
	"review_comment_title",
	"review_comment_message",
	"review_creation_date",
	"review_answer_timestamp",
}

const (
	minReviewScore = 1
	maxReviewScore = 5
)

// CleanReviews cleans the review table, filtering against the cleaned
// order key set. The score is the entity's defining attribute: a record
// whose score cannot be an integer in [1,5] is dropped entirely, not
// nulled.
func (c *Cleaner) CleanReviews(raw model.Table, orders model.KeySet) (model.Table, *TableReport, error) {
	rep := NewTableReport(raw.Name, raw.Len())

	if err := requireColumns(raw, reviewColumns); err != nil {
		return model.Table{}, nil, err
	}

	t := dropEmptyAndExactDuplicates(raw, rep)
	t = normalizeText(t, "review_id", "order_id")
	t = requireIdentifiers(t, rep, "review_id", "order_id")
	t = filterOrphans(t, rep, "order_id", orders)
	t = dedupeByKey(t, rep, "review_id")
	t = repairReviewFields(t, rep)
	t = t.WithoutColumn(qualityFlagColumn)

	rep.Complete(t.Len())
	return t, rep, nil
}

func repairReviewFields(t model.Table, rep *TableReport) model.Table {
	out := model.NewTable(t.Name, t.Columns)

	for _, row := range t.Rows {
		nr := row.Clone()

		score, ok := nr.Get("review_score").AsInt()
		if !ok || score < minReviewScore || score > maxReviewScore {
			rep.RecordDrop(DropEntityRule)
			continue
		}
		nr["review_score"] = model.Int(score)

		nr["review_comment_title"] = commentCell(nr.Get("review_comment_title"))
		nr["review_comment_message"] = commentCell(nr.Get("review_comment_message"))

		repairTimestamp(nr, rep, "review_creation_date")
		repairTimestamp(nr, rep, "review_answer_timestamp")

		created, hasCreated := nr.Get("review_creation_date").TimeVal()
		if answered, hasAnswer := nr.Get("review_answer_timestamp").TimeVal(); hasCreated && hasAnswer {
			if answered.Before(created) {
				nr["review_answer_timestamp"] = model.Missing()
				rep.RecordRepair("review_answer_timestamp")
			}
		}

		out.Append(nr)
	}

	return out
}

// commentCell repairs free-text review comments, preserving case
func commentCell(v model.Value) model.Value {
	if v.IsMissing() {
		return v
	}
	s, ok := textnorm.Normalize(v.Text())
	if !ok {
		return model.Missing()
	}
	return model.String(s)
}
