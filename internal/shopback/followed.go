package shopback

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/wdzeng/shopback-bot/internal/metrics"
	domain "github.com/wdzeng/shopback-bot/pkg/types"
)

const followedOffersQuery = `
query GetFollowOffers($input: FollowOffersQueryInput!) {
  followOffers(followOffersQueryInput: $input) {
    total
    offers {
      id
      title
      offerCashback {
        amount
        sign
        description
        modifier
        currency
      }
      price
      hint
      rules
      startTime
      endTime
      totalRedeemableCount
      status
      merchantIds
      imageUrl
      products {
        id
        imageUrl
        title
        price
      }
    }
  }
  merchants {
    merchants {
      id
      name
      shortName
      imageUrl
    }
  }
}`

type followedOffersRequest struct {
	OperationName string `json:"operationName"`
	Variables     struct {
		Input struct {
			Page int `json:"page"`
			Size int `json:"size"`
		} `json:"input"`
	} `json:"variables"`
	Query string `json:"query"`
}

type followedOffersResponse struct {
	Data struct {
		FollowOffers struct {
			Total  int         `json:"total"`
			Offers []wireOffer `json:"offers"`
		} `json:"followOffers"`
		Merchants struct {
			Merchants []wireMerchant `json:"merchants"`
		} `json:"merchants"`
	} `json:"data"`
}

// ListFollowedOffers fetches one page of the offers the account follows,
// along with the server-reported total follow count.
func (c *Client) ListFollowedOffers(
	ctx context.Context,
	accessToken string,
	page, size int,
) (*domain.OfferList, int, error) {
	reqBody := followedOffersRequest{
		OperationName: "GetFollowOffers",
		Query:         followedOffersQuery,
	}
	reqBody.Variables.Input.Page = page
	reqBody.Variables.Input.Size = size

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, 0, fmt.Errorf("encoding followed-offers request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.graphqlURL,
		bytes.NewReader(payload),
	)
	if err != nil {
		return nil, 0, fmt.Errorf("creating followed-offers request: %w", err)
	}

	setCommonHeaders(req)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "JWT "+accessToken)

	body, err := c.do(ctx, "followed_offers", req)
	if err != nil {
		if f, ok := asFailure(err); ok {
			if f.status == http.StatusUnauthorized || f.status == http.StatusForbidden {
				return nil, 0, &NotLoggedInError{}
			}
			return nil, 0, f.generic()
		}
		return nil, 0, err
	}

	var resp followedOffersResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, 0, fmt.Errorf("parsing followed-offers response: %w", err)
	}

	metrics.PagesFetchedTotal.WithLabelValues("followed").Inc()

	list := &domain.OfferList{
		Merchants: toMerchants(resp.Data.Merchants.Merchants),
	}
	for i := range resp.Data.FollowOffers.Offers {
		list.Offers = append(list.Offers, resp.Data.FollowOffers.Offers[i].toDomain())
	}

	return list, resp.Data.FollowOffers.Total, nil
}
