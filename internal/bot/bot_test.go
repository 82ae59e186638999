package bot_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wdzeng/shopback-bot/internal/bot"
	"github.com/wdzeng/shopback-bot/internal/credential"
	"github.com/wdzeng/shopback-bot/internal/session"
	"github.com/wdzeng/shopback-bot/internal/shopback"
	domain "github.com/wdzeng/shopback-bot/pkg/types"
)

// fakeGateway satisfies both the bot and session gateway interfaces.
type fakeGateway struct {
	mu           sync.Mutex
	refreshCalls int
	followCalls  []int64

	searchFn   func(keyword string, page, size int) (*domain.OfferList, bool, error)
	followedFn func(page, size int) (*domain.OfferList, int, error)
	followFn   func(offerID int64) error
}

func (f *fakeGateway) Refresh(
	_ context.Context,
	_, _, _ string,
) (*shopback.TokenSet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshCalls++
	return &shopback.TokenSet{
		AccessToken:  "new-at",
		RefreshToken: "new-rt",
		ExpiresIn:    time.Hour,
	}, nil
}

func (f *fakeGateway) GetProfile(
	_ context.Context,
	_, _ string,
) (*domain.Profile, error) {
	return &domain.Profile{Name: "tester", Country: "TW"}, nil
}

func (f *fakeGateway) SearchOffers(
	_ context.Context,
	keyword string,
	page, size int,
) (*domain.OfferList, bool, error) {
	return f.searchFn(keyword, page, size)
}

func (f *fakeGateway) ListFollowedOffers(
	_ context.Context,
	_ string,
	page, size int,
) (*domain.OfferList, int, error) {
	return f.followedFn(page, size)
}

func (f *fakeGateway) Follow(_ context.Context, offerID int64, _ string) error {
	f.mu.Lock()
	f.followCalls = append(f.followCalls, offerID)
	f.mu.Unlock()
	if f.followFn != nil {
		return f.followFn(offerID)
	}
	return nil
}

func newTestBot(gw *fakeGateway, opts ...bot.Option) *bot.Bot {
	sess := session.NewManager(gw, session.WithCredential(credential.Credential{
		AccessToken:     "at",
		RefreshToken:    "rt",
		ClientUserAgent: "ua",
	}))
	return bot.New(gw, sess, opts...)
}

// makeOffers builds n offers with sequential ids starting at first, all
// referencing the given merchant.
func makeOffers(first int64, n int, merchantID int64) []domain.Offer {
	offers := make([]domain.Offer, n)
	for i := range offers {
		offers[i] = domain.Offer{
			ID:          first + int64(i),
			Title:       fmt.Sprintf("offer-%d", first+int64(i)),
			MerchantIDs: []int64{merchantID},
		}
	}
	return offers
}

// pagedFollowed serves the given pages in order, reporting total as the
// follow count, and an empty page afterwards.
func pagedFollowed(total int, pages ...[]domain.Offer) func(page, size int) (*domain.OfferList, int, error) {
	return func(page, size int) (*domain.OfferList, int, error) {
		if page >= len(pages) {
			return &domain.OfferList{}, total, nil
		}
		return &domain.OfferList{
			Offers:    pages[page],
			Merchants: []domain.Merchant{merchant(1)},
		}, total, nil
	}
}

func TestFollowedOffers_AggregatesAllPages(t *testing.T) {
	t.Parallel()

	gw := &fakeGateway{
		followedFn: pagedFollowed(80, makeOffers(0, 50, 1), makeOffers(50, 30, 1)),
	}
	b := newTestBot(gw)

	result, err := b.FollowedOffers(context.Background(), 0, nil)
	require.NoError(t, err)

	assert.Len(t, result.Offers, 80)
	require.Len(t, result.Merchants, 1)
	assert.Equal(t, int64(1), result.Merchants[0].ID)
}

func TestFollowedOffers_RespectsLimit(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		limit int
		want  int
	}{
		{name: "limit below one page", limit: 7, want: 7},
		{name: "limit across pages", limit: 70, want: 70},
		{name: "limit above total", limit: 500, want: 80},
		{name: "no limit", limit: 0, want: 80},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			gw := &fakeGateway{
				followedFn: pagedFollowed(80, makeOffers(0, 50, 1), makeOffers(50, 30, 1)),
			}
			b := newTestBot(gw)

			result, err := b.FollowedOffers(context.Background(), tt.limit, nil)
			require.NoError(t, err)
			assert.Len(t, result.Offers, tt.want)
		})
	}
}

func TestFollowedOffers_EmptyPageStopsInconsistentTotal(t *testing.T) {
	t.Parallel()

	// The server claims 100 followed offers but runs dry after 80. The empty
	// page must end the loop instead of spinning forever.
	gw := &fakeGateway{
		followedFn: pagedFollowed(100, makeOffers(0, 50, 1), makeOffers(50, 30, 1)),
	}
	b := newTestBot(gw)

	result, err := b.FollowedOffers(context.Background(), 0, nil)
	require.NoError(t, err)
	assert.Len(t, result.Offers, 80)
}

func TestFollowedOffers_ListenerReceivesTrimmedPages(t *testing.T) {
	t.Parallel()

	gw := &fakeGateway{
		followedFn: pagedFollowed(80, makeOffers(0, 50, 1), makeOffers(50, 30, 1)),
	}
	b := newTestBot(gw)

	var pageSizes []int
	listener := func(page *domain.OfferList) {
		pageSizes = append(pageSizes, len(page.Offers))
	}

	result, err := b.FollowedOffers(context.Background(), 60, listener)
	require.NoError(t, err)

	assert.Len(t, result.Offers, 60)
	// Second page is trimmed client-side to the remaining budget.
	assert.Equal(t, []int{50, 10}, pageSizes)
}

func TestSearchOffers_StopsOnHasNextPageFalse(t *testing.T) {
	t.Parallel()

	gw := &fakeGateway{}
	gw.searchFn = func(keyword string, page, size int) (*domain.OfferList, bool, error) {
		assert.Equal(t, 50, size)
		switch page {
		case 0:
			return &domain.OfferList{
				Offers:    makeOffers(0, 50, 1),
				Merchants: []domain.Merchant{merchant(1)},
			}, true, nil
		case 1:
			return &domain.OfferList{
				Offers:    makeOffers(50, 20, 2),
				Merchants: []domain.Merchant{merchant(2)},
			}, false, nil
		default:
			t.Fatalf("unexpected page %d", page)
			return nil, false, nil
		}
	}
	b := newTestBot(gw)

	result, err := b.SearchOffers(context.Background(), []string{"tea"}, 0, nil)
	require.NoError(t, err)

	assert.Len(t, result.Offers, 70)
	var ids []int64
	for _, m := range result.Merchants {
		ids = append(ids, m.ID)
	}
	assert.Equal(t, []int64{1, 2}, ids)
}

func TestSearchOffers_LimitIsPerKeyword(t *testing.T) {
	t.Parallel()

	gw := &fakeGateway{}
	gw.searchFn = func(keyword string, page, size int) (*domain.OfferList, bool, error) {
		first := int64(0)
		if keyword == "coffee" {
			first = 1000
		}
		return &domain.OfferList{
			Offers:    makeOffers(first+int64(page*50), 50, 1),
			Merchants: []domain.Merchant{merchant(1)},
		}, true, nil
	}
	b := newTestBot(gw)

	result, err := b.SearchOffers(context.Background(), []string{"tea", "coffee"}, 30, nil)
	require.NoError(t, err)

	// 30 per keyword, merged into one list.
	assert.Len(t, result.Offers, 60)
	assert.Equal(t, int64(0), result.Offers[0].ID)
	assert.Equal(t, int64(1000), result.Offers[30].ID)
	require.Len(t, result.Merchants, 1)
}

func TestSearchOffers_EmptyFirstPage(t *testing.T) {
	t.Parallel()

	gw := &fakeGateway{}
	gw.searchFn = func(_ string, _, _ int) (*domain.OfferList, bool, error) {
		return &domain.OfferList{}, true, nil
	}
	b := newTestBot(gw)

	result, err := b.SearchOffers(context.Background(), []string{"nothing"}, 10, nil)
	require.NoError(t, err)
	assert.Empty(t, result.Offers)
	assert.Empty(t, result.Merchants)
}

func TestSearchOffers_CrossPageMerchantsCollapse(t *testing.T) {
	t.Parallel()

	gw := &fakeGateway{}
	gw.searchFn = func(_ string, page, _ int) (*domain.OfferList, bool, error) {
		// Both pages carry the same merchant.
		return &domain.OfferList{
			Offers:    makeOffers(int64(page*50), 50, 7),
			Merchants: []domain.Merchant{merchant(7)},
		}, page == 0, nil
	}
	b := newTestBot(gw)

	result, err := b.SearchOffers(context.Background(), []string{"tea"}, 0, nil)
	require.NoError(t, err)

	assert.Len(t, result.Offers, 100)
	require.Len(t, result.Merchants, 1)
	assert.Equal(t, int64(7), result.Merchants[0].ID)
}
