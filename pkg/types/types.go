// Package domain defines the core business types for shopback-bot.
package domain

import (
	"time"
)

// OfferStatus represents the lifecycle state ShopBack reports for an offer.
type OfferStatus string

// Offer status constants as returned by the ShopBack API.
const (
	OfferStatusActive   OfferStatus = "active"
	OfferStatusInactive OfferStatus = "inactive"
	OfferStatusExpired  OfferStatus = "expired"
)

// Cashback describes the cashback terms attached to an offer.
type Cashback struct {
	Amount      float64 `json:"amount"`
	Sign        string  `json:"sign"`
	Description string  `json:"description"`
	Modifier    string  `json:"modifier"`
	Currency    string  `json:"currency"`
}

// Product is a purchasable item attached to an offer.
type Product struct {
	ID       int64   `json:"id"`
	ImageURL string  `json:"imageUrl"`
	Title    string  `json:"title"`
	Price    float64 `json:"price"`
}

// Offer is a single cashback offer. Offers are immutable once fetched;
// identity is ID.
type Offer struct {
	ID                   int64       `json:"id"`
	Title                string      `json:"title"`
	Cashback             Cashback    `json:"offerCashback"`
	Price                float64     `json:"price"`
	ImageURL             string      `json:"imageUrl"`
	Hint                 string      `json:"hint"`
	Rules                []string    `json:"rules"`
	StartTime            time.Time   `json:"startTime"`
	EndTime              time.Time   `json:"endTime"`
	TotalRedeemableCount int         `json:"totalRedeemableCount"`
	Status               OfferStatus `json:"status"`
	Products             []Product   `json:"products"`
	MerchantIDs          []int64     `json:"merchantIds"`
}

// Merchant is a store an offer can be redeemed at. Identity is ID.
type Merchant struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	ShortName string `json:"shortName"`
	ImageURL  string `json:"imageUrl"`
}

// OfferList is an aggregated result set. Offers keep source order; Merchants
// is sorted ascending by ID, deduplicated, and contains exactly the merchants
// referenced by at least one offer in Offers.
type OfferList struct {
	Offers    []Offer    `json:"offers"`
	Merchants []Merchant `json:"merchants"`
}

// FollowResult pairs an aggregated offer list with the per-offer follow
// outcome. NewlyFollowed is parallel to Offers: true means the follow request
// created a new subscription, false means the offer was already followed.
type FollowResult struct {
	OfferList
	NewlyFollowed []bool `json:"newlyFollowed"`
}

// Profile is the authenticated account profile.
type Profile struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Country string `json:"country"`
}

// RunRecord captures one scheduled follow run executed by the watch daemon.
type RunRecord struct {
	ID          string     `json:"id"`
	Keywords    []string   `json:"keywords"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	OffersSeen  int        `json:"offers_seen"`
	NewFollows  int        `json:"new_follows"`
	ErrorText   string     `json:"error_text,omitempty"`
}
