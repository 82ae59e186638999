package shopback

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
)

// Follow subscribes the account to one offer. A conflict response maps to
// OfferAlreadyFollowedError and a missing offer to OfferNotFoundError, both
// carrying the offer id so batch callers can report which item failed.
func (c *Client) Follow(ctx context.Context, offerID int64, accessToken string) error {
	url := c.baseURL + "/rs/offer/follow/" + strconv.FormatInt(offerID, 10)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, http.NoBody)
	if err != nil {
		return fmt.Errorf("creating follow request: %w", err)
	}

	setCommonHeaders(req)
	req.Header.Set("Authorization", "JWT "+accessToken)

	if _, err := c.do(ctx, "follow", req); err != nil {
		if f, ok := asFailure(err); ok {
			switch f.status {
			case http.StatusConflict:
				return &OfferAlreadyFollowedError{OfferID: offerID}
			case http.StatusNotFound:
				return &OfferNotFoundError{OfferID: offerID}
			case http.StatusUnauthorized, http.StatusForbidden:
				return &NotLoggedInError{}
			}
			return f.generic()
		}
		return err
	}

	return nil
}
