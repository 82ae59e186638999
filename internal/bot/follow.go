package bot

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/wdzeng/shopback-bot/internal/metrics"
	"github.com/wdzeng/shopback-bot/internal/shopback"
	domain "github.com/wdzeng/shopback-bot/pkg/types"
)

// defaultBatchSize is the number of follow requests dispatched concurrently
// per wave.
const defaultBatchSize = 50

// FollowOffer follows a single offer. It returns true when the follow was
// newly created. An already-followed conflict returns false; with force set
// it is treated as success, otherwise the conflict error is surfaced.
func (b *Bot) FollowOffer(ctx context.Context, offerID int64, force bool) (bool, error) {
	if err := b.session.EnsureValid(ctx); err != nil {
		return false, err
	}

	err := b.gateway.Follow(ctx, offerID, b.session.Credential().AccessToken)
	if err == nil {
		metrics.FollowsTotal.WithLabelValues("new").Inc()
		return true, nil
	}

	var already *shopback.OfferAlreadyFollowedError
	if errors.As(err, &already) {
		metrics.FollowsTotal.WithLabelValues("already_followed").Inc()
		if force {
			return false, nil
		}
	}
	return false, err
}

// FollowOffersByKeywords searches for offers matching the keywords and
// follows every result in concurrent batches. Already-followed offers count
// as success with a false outcome; any other per-offer failure aborts the
// remaining batches once the current batch has settled.
func (b *Bot) FollowOffersByKeywords(
	ctx context.Context,
	keywords []string,
	limit int,
	listener FollowListener,
) (*domain.FollowResult, error) {
	list, err := b.SearchOffers(ctx, keywords, limit, nil)
	if err != nil {
		return nil, err
	}

	result := &domain.FollowResult{OfferList: *list}

	for start := 0; start < len(list.Offers); start += b.batchSize {
		batch := list.Offers[start:min(start+b.batchSize, len(list.Offers))]

		outcomes, err := b.followBatch(ctx, batch)
		if err != nil {
			return nil, err
		}
		result.NewlyFollowed = append(result.NewlyFollowed, outcomes...)

		if listener != nil {
			listener(&domain.OfferList{
				Offers:    batch,
				Merchants: MergeMerchants(list.Merchants, batch),
			}, outcomes)
		}
	}

	return result, nil
}

// followBatch refreshes the session once, then follows every offer in the
// batch concurrently. Each goroutine records its own outcome or error; the
// join waits for all of them so one failure cannot mask sibling results.
func (b *Bot) followBatch(
	ctx context.Context,
	batch []domain.Offer,
) ([]bool, error) {
	if err := b.session.EnsureValid(ctx); err != nil {
		return nil, err
	}
	// Token snapshot taken before dispatch; no refresh happens while follow
	// requests are in flight.
	token := b.session.Credential().AccessToken

	timer := prometheus.NewTimer(metrics.FollowBatchDuration)
	defer timer.ObserveDuration()

	outcomes := make([]bool, len(batch))
	errs := make([]error, len(batch))

	var wg sync.WaitGroup
	for i := range batch {
		wg.Add(1)
		go func() {
			defer wg.Done()

			err := b.gateway.Follow(ctx, batch[i].ID, token)
			if err == nil {
				outcomes[i] = true
				return
			}

			var already *shopback.OfferAlreadyFollowedError
			if errors.As(err, &already) {
				// Expected steady state for offers followed on a previous run.
				return
			}
			errs[i] = err
		}()
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("following offer %d: %w", batch[i].ID, err)
		}
	}

	for _, newly := range outcomes {
		if newly {
			metrics.FollowsTotal.WithLabelValues("new").Inc()
		} else {
			metrics.FollowsTotal.WithLabelValues("already_followed").Inc()
		}
	}

	return outcomes, nil
}
