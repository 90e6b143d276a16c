package momentum

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Statistics summarizes the score distribution for one calculation date.
type Statistics struct {
	CalculationDate time.Time       `json:"calculation_date"`
	Count           int             `json:"count"`
	Mean            decimal.Decimal `json:"mean"`
	Median          decimal.Decimal `json:"median"`
	Min             decimal.Decimal `json:"min"`
	Max             decimal.Decimal `json:"max"`
}

// ComputeStatistics loads the scores for calcDate and returns their
// distribution summary, or nil when no scores exist.
func ComputeStatistics(ctx context.Context, store Store, calcDate time.Time) (*Statistics, error) {
	scores, err := store.GetMomentumScores(ctx, calcDate)
	if err != nil {
		return nil, fmt.Errorf("failed to load scores: %w", err)
	}
	if len(scores) == 0 {
		return nil, nil
	}

	values := make([]decimal.Decimal, len(scores))
	for i, s := range scores {
		values[i] = s.Score
	}
	sort.Slice(values, func(i, j int) bool { return values[i].LessThan(values[j]) })

	sum := decimal.Zero
	for _, v := range values {
		sum = sum.Add(v)
	}

	n := len(values)
	var median decimal.Decimal
	if n%2 == 1 {
		median = values[n/2]
	} else {
		median = values[n/2-1].Add(values[n/2]).Div(decimal.NewFromInt(2))
	}

	return &Statistics{
		CalculationDate: calcDate,
		Count:           n,
		Mean:            sum.Div(decimal.NewFromInt(int64(n))),
		Median:          median,
		Min:             values[0],
		Max:             values[n-1],
	}, nil
}
