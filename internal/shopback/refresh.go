package shopback

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

type refreshResponse struct {
	TokenType    string `json:"token_type"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

// Refresh exchanges the current token triple for a fresh one. A forbidden
// response means the refresh token itself is no longer accepted and the user
// must log in again.
func (c *Client) Refresh(
	ctx context.Context,
	accessToken, refreshToken, userAgent string,
) (*TokenSet, error) {
	url := c.baseURL + "/members/me/refresh-jwt-token"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating refresh request: %w", err)
	}

	setCommonHeaders(req)
	req.Header.Set("x-shopback-client-user-agent", userAgent)
	req.Header.Set("x-shopback-jwt-access-token", accessToken)
	req.Header.Set("x-shopback-member-refresh-token", refreshToken)

	body, err := c.do(ctx, "refresh", req)
	if err != nil {
		if f, ok := asFailure(err); ok {
			if f.status == http.StatusUnauthorized || f.status == http.StatusForbidden {
				return nil, &NotLoggedInError{}
			}
			return nil, f.generic()
		}
		return nil, err
	}

	var resp refreshResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parsing refresh response: %w", err)
	}

	return &TokenSet{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		ExpiresIn:    time.Duration(resp.ExpiresIn) * time.Second,
	}, nil
}
