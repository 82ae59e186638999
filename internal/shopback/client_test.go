package shopback_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wdzeng/shopback-bot/internal/shopback"
)

func newTestClient(srv *httptest.Server) *shopback.Client {
	return shopback.New(
		shopback.WithBaseURL(srv.URL),
		shopback.WithGraphQLURL(srv.URL+"/rs/graphql-auth"),
	)
}

func errorJSON(code int, message string) string {
	return fmt.Sprintf(`{"error":{"code":%d,"message":%q}}`, code, message)
}

func TestRefresh(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		handler    http.HandlerFunc
		wantErr    error
		wantAccess string
	}{
		{
			name: "success",
			handler: func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "/members/me/refresh-jwt-token", r.URL.Path)
				assert.Equal(t, "old-at", r.Header.Get("x-shopback-jwt-access-token"))
				assert.Equal(t, "old-rt", r.Header.Get("x-shopback-member-refresh-token"))
				assert.Equal(t, "ua", r.Header.Get("x-shopback-client-user-agent"))
				assert.NotEmpty(t, r.Header.Get("x-shopback-key"))

				_, _ = w.Write([]byte(`{
					"token_type": "Bearer",
					"access_token": "new-at",
					"refresh_token": "new-rt",
					"expires_in": 3600
				}`))
			},
			wantAccess: "new-at",
		},
		{
			name: "unauthorized maps to not logged in",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
			},
			wantErr: &shopback.NotLoggedInError{},
		},
		{
			name: "server error maps to APIError",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte(errorJSON(99999, "boom")))
			},
			wantErr: &shopback.APIError{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			c := newTestClient(srv)
			tokens, err := c.Refresh(context.Background(), "old-at", "old-rt", "ua")

			if tt.wantErr != nil {
				require.Error(t, err)
				assert.IsType(t, tt.wantErr, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantAccess, tokens.AccessToken)
			assert.Equal(t, "new-rt", tokens.RefreshToken)
			assert.Equal(t, time.Hour, tokens.ExpiresIn)
		})
	}
}

const searchPageJSON = `{
	"items": [
		{
			"type": "group",
			"data": {
				"total": 3,
				"items": [
					{"data": {
						"id": 11,
						"title": "instant noodles",
						"offerCashback": {"amount": 5, "sign": "$", "description": "", "modifier": "", "currency": "TWD"},
						"price": 50,
						"startTime": "2024-03-01T00:00:00Z",
						"endTime": "2024-04-01T00:00:00Z",
						"totalRedeemableCount": 3,
						"status": "active",
						"imageUrl": "https://img/11",
						"merchants": [{"id": 2, "name": "7-11", "shortName": "711", "imageUrl": "https://img/m2"}]
					}},
					{"data": {
						"id": 12,
						"title": "sponsored noodles",
						"adsTag": "ads",
						"merchants": [{"id": 9, "name": "ads", "shortName": "ads", "imageUrl": ""}]
					}},
					{"data": {
						"id": 13,
						"title": "milk tea",
						"status": "active",
						"merchants": [{"id": 2, "name": "7-11", "shortName": "711", "imageUrl": "https://img/m2"}]
					}}
				]
			}
		}
	],
	"hasNextPage": true
}`

func TestSearchOffers(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/search", r.URL.Path)
		query := r.URL.Query()
		assert.Equal(t, "noodles", query.Get("keyword"))
		// Zero-based caller page maps to the endpoint's one-based counting.
		assert.Equal(t, "3", query.Get("sbMartOfferPage"))
		assert.Equal(t, "50", query.Get("sbMartOfferSizePerPage"))

		_, _ = w.Write([]byte(searchPageJSON))
	}))
	defer srv.Close()

	c := newTestClient(srv)
	list, hasNext, err := c.SearchOffers(context.Background(), "noodles", 2, 50)
	require.NoError(t, err)

	assert.True(t, hasNext)
	// The ads-tagged offer is dropped.
	require.Len(t, list.Offers, 2)
	assert.Equal(t, int64(11), list.Offers[0].ID)
	assert.Equal(t, int64(13), list.Offers[1].ID)
	assert.Equal(t, []int64{2}, list.Offers[0].MerchantIDs)
	assert.Equal(t, 5.0, list.Offers[0].Cashback.Amount)
	assert.Equal(t,
		time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		list.Offers[0].StartTime,
	)

	// Raw page merchants; de-duplication happens in the aggregator.
	assert.Len(t, list.Merchants, 2)
}

func TestSearchOffers_EmptyResponse(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"items": [], "hasNextPage": false}`))
	}))
	defer srv.Close()

	c := newTestClient(srv)
	list, hasNext, err := c.SearchOffers(context.Background(), "nothing", 0, 50)
	require.NoError(t, err)

	assert.False(t, hasNext)
	assert.Empty(t, list.Offers)
}

func TestListFollowedOffers(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rs/graphql-auth", r.URL.Path)
		assert.Equal(t, "JWT token-123", r.Header.Get("Authorization"))

		var body struct {
			OperationName string `json:"operationName"`
			Variables     struct {
				Input struct {
					Page int `json:"page"`
					Size int `json:"size"`
				} `json:"input"`
			} `json:"variables"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "GetFollowOffers", body.OperationName)
		assert.Equal(t, 1, body.Variables.Input.Page)
		assert.Equal(t, 50, body.Variables.Input.Size)

		_, _ = w.Write([]byte(`{
			"data": {
				"followOffers": {
					"total": 120,
					"offers": [
						{"id": 21, "title": "eggs", "status": "active", "merchantIds": [3]},
						{"id": 22, "title": "bread", "status": "active", "merchantIds": [4]}
					]
				},
				"merchants": {
					"merchants": [
						{"id": 3, "name": "PX Mart", "shortName": "PX", "imageUrl": ""},
						{"id": 4, "name": "Carrefour", "shortName": "CF", "imageUrl": ""}
					]
				}
			}
		}`))
	}))
	defer srv.Close()

	c := newTestClient(srv)
	list, total, err := c.ListFollowedOffers(context.Background(), "token-123", 1, 50)
	require.NoError(t, err)

	assert.Equal(t, 120, total)
	require.Len(t, list.Offers, 2)
	assert.Equal(t, []int64{3}, list.Offers[0].MerchantIDs)
	assert.Len(t, list.Merchants, 2)
}

func TestListFollowedOffers_Unauthorized(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := newTestClient(srv)
	_, _, err := c.ListFollowedOffers(context.Background(), "stale", 0, 50)

	var notLoggedIn *shopback.NotLoggedInError
	assert.True(t, errors.As(err, &notLoggedIn))
}

func TestFollow(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		status  int
		check   func(t *testing.T, err error)
	}{
		{
			name:   "success",
			status: http.StatusOK,
			check: func(t *testing.T, err error) {
				require.NoError(t, err)
			},
		},
		{
			name:   "conflict maps to already followed",
			status: http.StatusConflict,
			check: func(t *testing.T, err error) {
				var already *shopback.OfferAlreadyFollowedError
				require.True(t, errors.As(err, &already))
				assert.Equal(t, int64(42), already.OfferID)
			},
		},
		{
			name:   "missing offer maps to not found",
			status: http.StatusNotFound,
			check: func(t *testing.T, err error) {
				var notFound *shopback.OfferNotFoundError
				require.True(t, errors.As(err, &notFound))
				assert.Equal(t, int64(42), notFound.OfferID)
			},
		},
		{
			name:   "unauthorized maps to not logged in",
			status: http.StatusUnauthorized,
			check: func(t *testing.T, err error) {
				var notLoggedIn *shopback.NotLoggedInError
				require.True(t, errors.As(err, &notLoggedIn))
			},
		},
		{
			name:   "server error maps to APIError",
			status: http.StatusInternalServerError,
			check: func(t *testing.T, err error) {
				var apiErr *shopback.APIError
				require.True(t, errors.As(err, &apiErr))
				assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/rs/offer/follow/42", r.URL.Path)
				assert.Equal(t, "JWT token-123", r.Header.Get("Authorization"))
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			c := newTestClient(srv)
			tt.check(t, c.Follow(context.Background(), 42, "token-123"))
		})
	}
}

func TestGetProfile(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		handler     http.HandlerFunc
		wantCountry string
		wantErr     error
	}{
		{
			name: "success",
			handler: func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/members/v3/me", r.URL.Path)
				assert.Equal(t, "ua", r.Header.Get("x-shopback-client-user-agent"))
				_, _ = w.Write([]byte(`{
					"account_id": 7,
					"email": "a@example.com",
					"full_name": "Alex Chen",
					"country": "TW"
				}`))
			},
			wantCountry: "TW",
		},
		{
			name: "token rejection code maps to not logged in",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(errorJSON(50002, "invalid token")))
			},
			wantErr: &shopback.NotLoggedInError{},
		},
		{
			name: "session revoked code maps to not logged in",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(errorJSON(20031, "revoked")))
			},
			wantErr: &shopback.NotLoggedInError{},
		},
		{
			name: "other upstream code maps to APIError",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(errorJSON(12345, "nope")))
			},
			wantErr: &shopback.APIError{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			c := newTestClient(srv)
			profile, err := c.GetProfile(context.Background(), "token-123", "ua")

			if tt.wantErr != nil {
				require.Error(t, err)
				assert.IsType(t, tt.wantErr, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, "Alex Chen", profile.Name)
			assert.Equal(t, tt.wantCountry, profile.Country)
			assert.Equal(t, int64(7), profile.ID)
		})
	}
}
