package momentum

import (
	"context"
	"fmt"
	"sort"
	"time"

	"momentum-trader/models"
)

// Ranker orders a date's scores and assigns quintile buckets.
type Ranker struct {
	store Store
}

func NewRanker(store Store) *Ranker {
	return &Ranker{store: store}
}

// RankAndBucket loads all scores for the calculation date, assigns ranks and
// quintiles, and persists the result. Returns the ranked scores best first.
func (r *Ranker) RankAndBucket(ctx context.Context, calcDate time.Time) ([]models.MomentumScore, error) {
	scores, err := r.store.GetMomentumScores(ctx, calcDate)
	if err != nil {
		return nil, fmt.Errorf("failed to load scores for ranking: %w", err)
	}
	if len(scores) == 0 {
		return nil, nil
	}

	AssignRanks(scores)

	for i := range scores {
		if err := r.store.SaveMomentumScore(ctx, &scores[i]); err != nil {
			return nil, fmt.Errorf("failed to persist rank for %s: %w", scores[i].Ticker, err)
		}
	}

	return scores, nil
}

// AssignRanks sorts scores by descending score and sets rank, quintile, and
// the top-quintile flag in place.
//
// quintile_size = floor(N/5). When it is zero (fewer than five instruments)
// every instrument lands in quintile 1 and is flagged top-quintile.
func AssignRanks(scores []models.MomentumScore) {
	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].Score.GreaterThan(scores[j].Score)
	})

	quintileSize := len(scores) / 5

	for i := range scores {
		rank := i + 1
		scores[i].Rank = rank

		if quintileSize > 0 {
			q := (rank-1)/quintileSize + 1
			if q > 5 {
				q = 5
			}
			scores[i].Quintile = q
		} else {
			scores[i].Quintile = 1
		}

		scores[i].IsTopQuintile = scores[i].Quintile == 1
	}
}
