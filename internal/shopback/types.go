package shopback

import (
	"time"

	domain "github.com/wdzeng/shopback-bot/pkg/types"
)

// TokenSet is the result of a successful token refresh.
type TokenSet struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    time.Duration
}

// errorResponse is the error envelope ShopBack wraps failures in.
type errorResponse struct {
	Error struct {
		Code     int    `json:"code"`
		Message  string `json:"message"`
		HTTPCode int    `json:"http_code"`
	} `json:"error"`
}

// wireCashback mirrors the cashback terms as serialized by the API.
type wireCashback struct {
	Amount      float64 `json:"amount"`
	Sign        string  `json:"sign"`
	Description string  `json:"description"`
	Modifier    string  `json:"modifier"`
	Currency    string  `json:"currency"`
}

type wireProduct struct {
	ID       int64   `json:"id"`
	ImageURL string  `json:"imageUrl"`
	Title    string  `json:"title"`
	Price    float64 `json:"price"`
}

type wireMerchant struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	ShortName string `json:"shortName"`
	ImageURL  string `json:"imageUrl"`
}

// wireOffer is the offer payload shared by the search and followed-offers
// endpoints. The search endpoint embeds full merchant objects; the GraphQL
// followed-offers endpoint returns bare merchant ids instead.
type wireOffer struct {
	ID                   int64          `json:"id"`
	Title                string         `json:"title"`
	OfferCashback        wireCashback   `json:"offerCashback"`
	Price                float64        `json:"price"`
	Hint                 string         `json:"hint"`
	Rules                []string       `json:"rules"`
	StartTime            string         `json:"startTime"`
	EndTime              string         `json:"endTime"`
	TotalRedeemableCount int            `json:"totalRedeemableCount"`
	Status               string         `json:"status"`
	ImageURL             string         `json:"imageUrl"`
	Products             []wireProduct  `json:"products"`
	MerchantIDs          []int64        `json:"merchantIds"`
	Merchants            []wireMerchant `json:"merchants"`
	AdsTag               string         `json:"adsTag"`
}

func (w *wireOffer) toDomain() domain.Offer {
	ids := w.MerchantIDs
	if len(ids) == 0 && len(w.Merchants) > 0 {
		ids = make([]int64, len(w.Merchants))
		for i := range w.Merchants {
			ids[i] = w.Merchants[i].ID
		}
	}

	return domain.Offer{
		ID:                   w.ID,
		Title:                w.Title,
		Cashback:             domain.Cashback(w.OfferCashback),
		Price:                w.Price,
		ImageURL:             w.ImageURL,
		Hint:                 w.Hint,
		Rules:                w.Rules,
		StartTime:            parseAPITime(w.StartTime),
		EndTime:              parseAPITime(w.EndTime),
		TotalRedeemableCount: w.TotalRedeemableCount,
		Status:               domain.OfferStatus(w.Status),
		Products:             toProducts(w.Products),
		MerchantIDs:          ids,
	}
}

func toProducts(ws []wireProduct) []domain.Product {
	if len(ws) == 0 {
		return nil
	}
	ps := make([]domain.Product, len(ws))
	for i := range ws {
		ps[i] = domain.Product(ws[i])
	}
	return ps
}

func toMerchants(ws []wireMerchant) []domain.Merchant {
	if len(ws) == 0 {
		return nil
	}
	ms := make([]domain.Merchant, len(ws))
	for i := range ws {
		ms[i] = domain.Merchant(ws[i])
	}
	return ms
}

// parseAPITime parses the RFC 3339 timestamps the API emits. A malformed
// value yields the zero time rather than failing the whole page.
func parseAPITime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
