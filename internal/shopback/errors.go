package shopback

import (
	"fmt"
)

// Upstream error codes that mean the session is not usable.
const (
	errCodeTokenRejected  = 50002
	errCodeSessionRevoked = 20031
)

// NotLoggedInError indicates the credentials were rejected and cannot be
// recovered by a token refresh. Fatal; the user must log in again.
type NotLoggedInError struct{}

func (e *NotLoggedInError) Error() string {
	return "user is not logged in"
}

// UserNotInTaiwanError indicates the account is registered outside the
// service's home region. The bot only operates against ShopBack Taiwan.
type UserNotInTaiwanError struct {
	Country string
}

func (e *UserNotInTaiwanError) Error() string {
	return fmt.Sprintf("user is not in Taiwan (country %q)", e.Country)
}

// OfferAlreadyFollowedError indicates a follow request hit an offer the
// account already follows. Benign under force-follow semantics.
type OfferAlreadyFollowedError struct {
	OfferID int64
}

func (e *OfferAlreadyFollowedError) Error() string {
	return fmt.Sprintf("offer already followed: %d", e.OfferID)
}

// OfferNotFoundError indicates a follow request referenced an offer that does
// not exist (or is no longer visible).
type OfferNotFoundError struct {
	OfferID int64
}

func (e *OfferNotFoundError) Error() string {
	return fmt.Sprintf("offer not found: %d", e.OfferID)
}

// APIError is an unclassified upstream failure. It is propagated as-is and
// never retried by the client.
type APIError struct {
	Status  int
	Code    int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("shopback API error (status %d)", e.Status)
	}
	return fmt.Sprintf("shopback API error (status %d, code %d): %s", e.Status, e.Code, e.Message)
}
