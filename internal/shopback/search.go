package shopback

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/wdzeng/shopback-bot/internal/metrics"
	domain "github.com/wdzeng/shopback-bot/pkg/types"
)

// searchResponse is the offer-search payload. Offers arrive wrapped in a
// single "group" item whose data holds the actual page.
type searchResponse struct {
	Items []struct {
		Type string `json:"type"`
		Data struct {
			Total int `json:"total"`
			Items []struct {
				Data wireOffer `json:"data"`
			} `json:"items"`
		} `json:"data"`
	} `json:"items"`
	HasNextPage bool `json:"hasNextPage"`
}

// SearchOffers queries the offer catalog for one keyword page. The page
// argument is zero-based; the endpoint itself counts pages from one.
// Sponsored (ads-tagged) entries are dropped. The returned merchant set is
// derived from the merchants embedded in the retained offers.
func (c *Client) SearchOffers(
	ctx context.Context,
	keyword string,
	page, size int,
) (*domain.OfferList, bool, error) {
	params := url.Values{}
	params.Set("keyword", keyword)
	params.Set("productPage", "1")
	params.Set("productSizePerPage", "20")
	params.Set("sbMartOfferSortBy", "default")
	params.Set("sbMartOfferPage", strconv.Itoa(page+1))
	params.Set("sbMartOfferSizePerPage", strconv.Itoa(size))
	params.Set("sbMartAdsOfferPageType", "SEARCH")
	params.Add("types[]", "mart")

	u := c.baseURL + "/v2/search?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return nil, false, fmt.Errorf("creating search request: %w", err)
	}
	setCommonHeaders(req)

	body, err := c.do(ctx, "search", req)
	if err != nil {
		if f, ok := asFailure(err); ok {
			return nil, false, f.generic()
		}
		return nil, false, err
	}

	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, false, fmt.Errorf("parsing search response: %w", err)
	}

	metrics.PagesFetchedTotal.WithLabelValues("search").Inc()

	list := &domain.OfferList{}
	if len(resp.Items) == 0 {
		return list, false, nil
	}

	var merchants []domain.Merchant
	for i := range resp.Items[0].Data.Items {
		offer := &resp.Items[0].Data.Items[i].Data
		if offer.AdsTag != "" {
			continue
		}
		list.Offers = append(list.Offers, offer.toDomain())
		merchants = append(merchants, toMerchants(offer.Merchants)...)
	}
	list.Merchants = merchants

	return list, resp.HasNextPage, nil
}
