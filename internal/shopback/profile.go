package shopback

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	domain "github.com/wdzeng/shopback-bot/pkg/types"
)

type profileResponse struct {
	AccountID int64  `json:"account_id"`
	Email     string `json:"email"`
	FullName  string `json:"full_name"`
	Country   string `json:"country"`
}

// GetProfile fetches the authenticated account profile. The token-rejection
// error codes this endpoint emits map to NotLoggedInError.
func (c *Client) GetProfile(
	ctx context.Context,
	accessToken, userAgent string,
) (*domain.Profile, error) {
	url := c.baseURL + "/members/v3/me?type=mobile&ctag=tag_kyc_fetch"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating profile request: %w", err)
	}

	setCommonHeaders(req)
	req.Header.Set("Authorization", "JWT "+accessToken)
	req.Header.Set("x-shopback-client-user-agent", userAgent)
	req.Header.Set("x-shopback-domain", "www.shopback.com.tw")

	body, err := c.do(ctx, "profile", req)
	if err != nil {
		if f, ok := asFailure(err); ok {
			if f.code == errCodeTokenRejected || f.code == errCodeSessionRevoked {
				return nil, &NotLoggedInError{}
			}
			return nil, f.generic()
		}
		return nil, err
	}

	var resp profileResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parsing profile response: %w", err)
	}

	return &domain.Profile{
		ID:      resp.AccountID,
		Name:    resp.FullName,
		Email:   resp.Email,
		Country: resp.Country,
	}, nil
}
