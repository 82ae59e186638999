// Package bot implements the ShopBack bot engine: paginated offer
// aggregation, merchant de-duplication, and concurrent batched follow
// dispatch.
package bot

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/wdzeng/shopback-bot/internal/session"
	domain "github.com/wdzeng/shopback-bot/pkg/types"
)

// pageSize is the number of offers requested per page. The ShopBack server
// silently truncates larger requests to 15 items, so the aggregator never
// asks for more.
const pageSize = 50

// Gateway is the subset of the ShopBack API the bot engine consumes.
type Gateway interface {
	SearchOffers(ctx context.Context, keyword string, page, size int) (*domain.OfferList, bool, error)
	ListFollowedOffers(ctx context.Context, accessToken string, page, size int) (*domain.OfferList, int, error)
	Follow(ctx context.Context, offerID int64, accessToken string) error
}

// Listener receives each page's trimmed OfferList before it is accumulated,
// letting callers stream partial progress.
type Listener func(page *domain.OfferList)

// FollowListener receives each settled follow batch together with the
// parallel outcome slice (true = newly followed).
type FollowListener func(batch *domain.OfferList, newlyFollowed []bool)

// Bot aggregates offers across pages and dispatches follow requests.
type Bot struct {
	gateway   Gateway
	session   *session.Manager
	log       *slog.Logger
	batchSize int
}

// Option configures the Bot.
type Option func(*Bot)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(b *Bot) {
		b.log = l
	}
}

// WithBatchSize overrides the default follow batch width.
func WithBatchSize(n int) Option {
	return func(b *Bot) {
		b.batchSize = n
	}
}

// New creates a Bot. The session manager may be unauthenticated when only
// anonymous operations (search) are used.
func New(gateway Gateway, sess *session.Manager, opts ...Option) *Bot {
	b := &Bot{
		gateway:   gateway,
		session:   sess,
		log:       slog.Default(),
		batchSize: defaultBatchSize,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// FollowedOffers aggregates the offers the account follows. Pagination stops
// when the server-reported total is reached, the limit (if positive) is
// reached, or a page comes back empty — the total can drift under concurrent
// remote mutation, and an empty page is the signal to stop rather than loop.
func (b *Bot) FollowedOffers(
	ctx context.Context,
	limit int,
	listener Listener,
) (*domain.OfferList, error) {
	result := &domain.OfferList{}
	total := -1

	for page := 0; ; page++ {
		if limit > 0 && len(result.Offers) >= limit {
			break
		}
		if total >= 0 && len(result.Offers) >= total {
			break
		}

		if err := b.session.EnsureValid(ctx); err != nil {
			return nil, err
		}

		pageList, pageTotal, err := b.gateway.ListFollowedOffers(
			ctx,
			b.session.Credential().AccessToken,
			page,
			pageSize,
		)
		if err != nil {
			return nil, fmt.Errorf("listing followed offers page %d: %w", page, err)
		}

		if len(pageList.Offers) == 0 {
			break
		}
		if total < 0 {
			total = pageTotal
		}

		b.accumulatePage(result, pageList, limit, listener)
	}

	result.Merchants = MergeMerchants(result.Merchants, result.Offers)
	return result, nil
}

// SearchOffers aggregates catalog search results for each keyword in turn.
// Every keyword is paginated independently up to limit (per keyword) and the
// partial lists are merged into one cumulative result.
func (b *Bot) SearchOffers(
	ctx context.Context,
	keywords []string,
	limit int,
	listener Listener,
) (*domain.OfferList, error) {
	result := &domain.OfferList{}

	for _, keyword := range keywords {
		kwList, err := b.searchKeyword(ctx, keyword, limit, listener)
		if err != nil {
			return nil, err
		}
		MergeOfferLists(result, kwList)
	}

	return result, nil
}

func (b *Bot) searchKeyword(
	ctx context.Context,
	keyword string,
	limit int,
	listener Listener,
) (*domain.OfferList, error) {
	result := &domain.OfferList{}

	hasNext := true
	for page := 0; hasNext && (limit <= 0 || len(result.Offers) < limit); page++ {
		pageList, more, err := b.gateway.SearchOffers(ctx, keyword, page, pageSize)
		if err != nil {
			return nil, fmt.Errorf("searching %q page %d: %w", keyword, page, err)
		}

		if len(pageList.Offers) == 0 {
			break
		}
		hasNext = more

		b.accumulatePage(result, pageList, limit, listener)
	}

	result.Merchants = MergeMerchants(result.Merchants, result.Offers)
	return result, nil
}

// accumulatePage trims the fetched page to the remaining limit budget,
// reports it to the listener, and appends it to the running result. Merchant
// merging for the page uses only the trimmed offers; the aggregate merchant
// set is recomputed once at the end of the loop.
func (b *Bot) accumulatePage(
	result *domain.OfferList,
	pageList *domain.OfferList,
	limit int,
	listener Listener,
) {
	trimmed := pageList.Offers
	if remaining := limit - len(result.Offers); limit > 0 && len(trimmed) > remaining {
		trimmed = trimmed[:remaining]
	}

	if listener != nil {
		listener(&domain.OfferList{
			Offers:    trimmed,
			Merchants: MergeMerchants(pageList.Merchants, trimmed),
		})
	}

	result.Offers = append(result.Offers, trimmed...)
	result.Merchants = append(result.Merchants, pageList.Merchants...)
}
