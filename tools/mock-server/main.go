// Package main implements a mock ShopBack API server for local development.
// It serves a fixture offer catalog and keeps follow state in memory, so the
// CLI can be pointed at it with --api-url without real credentials.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

type offer struct {
	ID    int64           `json:"id"`
	Title string          `json:"title"`
	Raw   json.RawMessage `json:"-"`
}

// catalog holds the fixture offers plus the mutable follow state.
type catalog struct {
	mu       sync.Mutex
	offers   []offer
	followed map[int64]bool
}

func main() {
	port := flag.Int("port", 8089, "port to listen on")
	fixtureFile := flag.String("fixture", "tools/mock-server/testdata/offers.json", "path to offer fixture")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	cat, err := loadCatalog(*fixtureFile)
	if err != nil {
		logger.Error("failed to load fixture", "path", *fixtureFile, "error", err)
		os.Exit(1)
	}
	logger.Info("loaded fixture", "offers", len(cat.offers))

	mux := http.NewServeMux()
	mux.HandleFunc("POST /members/me/refresh-jwt-token", refreshHandler(logger))
	mux.HandleFunc("GET /v2/search", searchHandler(logger, cat))
	mux.HandleFunc("POST /rs/graphql-auth", followedHandler(logger, cat))
	mux.HandleFunc("POST /rs/offer/follow/{id}", followHandler(logger, cat))
	mux.HandleFunc("GET /members/v3/me", profileHandler(logger))

	addr := fmt.Sprintf(":%d", *port)
	logger.Info("starting mock ShopBack server", "addr", addr)

	srv := &http.Server{
		Addr:         addr,
		Handler:      requestLogger(logger, mux),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func loadCatalog(path string) (*catalog, error) {
	data, err := os.ReadFile(path) //nolint:gosec // fixture path from trusted CLI flag
	if err != nil {
		return nil, fmt.Errorf("reading fixture: %w", err)
	}
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("parsing fixture: %w", err)
	}

	cat := &catalog{followed: make(map[int64]bool)}
	for _, raw := range raws {
		var o offer
		if err := json.Unmarshal(raw, &o); err != nil {
			return nil, fmt.Errorf("parsing fixture offer: %w", err)
		}
		o.Raw = raw
		cat.offers = append(cat.offers, o)
	}
	return cat, nil
}

func requestLogger(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.Debug("request", "method", r.Method, "path", r.URL.Path, "query", r.URL.RawQuery)
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck,gosec // best-effort write to HTTP response in mock server
	json.NewEncoder(w).Encode(v)
}

func refreshHandler(logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-shopback-member-refresh-token") == "" {
			logger.Warn("refresh request missing refresh token header")
			writeJSON(w, http.StatusUnauthorized, map[string]any{
				"error": map[string]any{"code": 50002, "message": "invalid token"},
			})
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"token_type":    "Bearer",
			"access_token":  "mock-at-" + strconv.FormatInt(time.Now().Unix(), 16),
			"refresh_token": "mock-rt-" + strconv.FormatInt(int64(os.Getpid()), 16),
			"expires_in":    3600,
		})
		logger.Info("issued mock token pair")
	}
}

func searchHandler(logger *slog.Logger, cat *catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		keyword := strings.ToLower(r.URL.Query().Get("keyword"))

		page := 1
		if v, err := strconv.Atoi(r.URL.Query().Get("sbMartOfferPage")); err == nil && v > 0 {
			page = v
		}
		size := 15
		if v, err := strconv.Atoi(r.URL.Query().Get("sbMartOfferSizePerPage")); err == nil && v > 0 {
			size = v
		}

		var matched []json.RawMessage
		for _, o := range cat.offers {
			if keyword == "" || strings.Contains(strings.ToLower(o.Title), keyword) {
				matched = append(matched, wrapSearchItem(o.Raw))
			}
		}
		total := len(matched)

		offset := (page - 1) * size
		if offset >= len(matched) {
			matched = nil
		} else {
			end := min(offset+size, len(matched))
			matched = matched[offset:end]
		}
		if matched == nil {
			matched = []json.RawMessage{}
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"items": []map[string]any{
				{
					"type": "group",
					"data": map[string]any{"total": total, "items": matched},
				},
			},
			"hasNextPage": offset+size < total,
		})
		logger.Info("search", "keyword", keyword, "matched", total, "returned", len(matched), "page", page)
	}
}

func wrapSearchItem(raw json.RawMessage) json.RawMessage {
	wrapped, _ := json.Marshal(map[string]json.RawMessage{"data": raw})
	return wrapped
}

func followedHandler(logger *slog.Logger, cat *catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.Header.Get("Authorization"), "JWT ") {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		var body struct {
			Variables struct {
				Input struct {
					Page int `json:"page"`
					Size int `json:"size"`
				} `json:"input"`
			} `json:"variables"`
		}
		//nolint:errcheck,gosec // malformed bodies just yield the first page
		json.NewDecoder(r.Body).Decode(&body)
		page, size := body.Variables.Input.Page, body.Variables.Input.Size
		if size <= 0 {
			size = 15
		}

		cat.mu.Lock()
		var followed []json.RawMessage
		for _, o := range cat.offers {
			if cat.followed[o.ID] {
				followed = append(followed, o.Raw)
			}
		}
		cat.mu.Unlock()

		total := len(followed)
		offset := page * size
		if offset >= len(followed) {
			followed = nil
		} else {
			end := min(offset+size, len(followed))
			followed = followed[offset:end]
		}
		if followed == nil {
			followed = []json.RawMessage{}
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"data": map[string]any{
				"followOffers": map[string]any{"total": total, "offers": followed},
				"merchants":    map[string]any{"merchants": []any{}},
			},
		})
		logger.Info("followed offers", "total", total, "returned", len(followed), "page", page)
	}
}

func followHandler(logger *slog.Logger, cat *catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.Header.Get("Authorization"), "JWT ") {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		known := false
		for _, o := range cat.offers {
			if o.ID == id {
				known = true
				break
			}
		}
		if !known {
			logger.Warn("follow request for unknown offer", "offer_id", id)
			w.WriteHeader(http.StatusNotFound)
			return
		}

		cat.mu.Lock()
		already := cat.followed[id]
		cat.followed[id] = true
		cat.mu.Unlock()

		if already {
			logger.Info("offer already followed", "offer_id", id)
			w.WriteHeader(http.StatusConflict)
			return
		}

		logger.Info("offer followed", "offer_id", id)
		w.WriteHeader(http.StatusOK)
	}
}

func profileHandler(logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.Header.Get("Authorization"), "JWT ") {
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"error": map[string]any{"code": 50002, "message": "invalid token"},
			})
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"account_id": 1,
			"email":      "mock@example.com",
			"full_name":  "Mock User",
			"country":    "TW",
		})
		logger.Info("served mock profile")
	}
}
