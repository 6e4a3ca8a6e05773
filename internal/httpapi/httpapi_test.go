package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"marketwatch/internal/fetcher"
	"marketwatch/internal/market"
	"marketwatch/internal/service"
	"marketwatch/internal/storage"
)

type stubQueries struct {
	stats    market.Stats
	statsErr error
	points   []market.PricePoint
	filter   storage.ListingFilter
}

func (s *stubQueries) Aggregates(context.Context, string, string) (market.Stats, error) {
	return s.stats, s.statsErr
}

func (s *stubQueries) History(context.Context, string) ([]market.PricePoint, error) {
	return s.points, nil
}

func (s *stubQueries) Listings(_ context.Context, f storage.ListingFilter) ([]market.LiveListing, error) {
	s.filter = f
	return []market.LiveListing{{ID: 1, Seller: "Bob"}}, nil
}

func (s *stubQueries) TopItems(context.Context, int) ([]storage.TopItem, error) {
	return []storage.TopItem{{Name: "Vollmondschwert+0", Count: 12}}, nil
}

func (s *stubQueries) Servers(context.Context) ([]service.ServerStatus, error) {
	return []service.ServerStatus{{ServerInfo: fetcher.ServerInfo{Name: "Chimera", ID: "531", Group: "Ruby"}, HasData: true}}, nil
}

func (s *stubQueries) Watchlist(context.Context) ([]market.WatchlistItem, error) {
	return nil, errors.New("db down")
}

func (s *stubQueries) FakeSellers(context.Context) ([]market.FakeSeller, error) {
	return []market.FakeSeller{}, nil
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

func newTestRouter(q *stubQueries, pinger Pinger, maxPoints int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return NewRouter(q, pinger, nil, maxPoints, zerolog.Nop())
}

func get(t *testing.T, r *gin.Engine, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestAggregatesEndpoint(t *testing.T) {
	q := &stubQueries{stats: market.Stats{Min: 100, AvgBottom20: 100, Avg: 300, Count: 5}}
	r := newTestRouter(q, nil, 0)

	rec := get(t, r, "/api/v1/prices?query=Vollmond")
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	var body struct {
		Stats *market.Stats `json:"stats"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Stats == nil || body.Stats.Avg != 300 {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}

	q.statsErr = market.ErrNoData
	rec = get(t, r, "/api/v1/prices?query=Nothing")
	if rec.Code != http.StatusOK || !json.Valid(rec.Body.Bytes()) {
		t.Fatalf("no data should still be 200, got %d", rec.Code)
	}
	body.Stats = nil
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	if body.Stats != nil {
		t.Fatal("stats should be null when nothing matches")
	}

	if rec := get(t, r, "/api/v1/prices"); rec.Code != http.StatusBadRequest {
		t.Fatalf("missing query should be 400, got %d", rec.Code)
	}
}

func TestHistoryDownsampled(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	q := &stubQueries{}
	for i := 0; i < 50; i++ {
		q.points = append(q.points, market.PricePoint{Timestamp: base.Add(time.Duration(i) * time.Minute), Avg: int64(i)})
	}
	rec := get(t, newTestRouter(q, nil, 10), "/api/v1/history?item=Vollmondschwert%2B0")
	var body struct {
		Item   string              `json:"item"`
		Points []market.PricePoint `json:"points"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Item != "Vollmondschwert+0" || len(body.Points) != 10 {
		t.Fatalf("unexpected history response: %s %d", body.Item, len(body.Points))
	}
}

func TestListingsFilterParsing(t *testing.T) {
	q := &stubQueries{}
	rec := get(t, newTestRouter(q, nil, 0), "/api/v1/listings?server=Chimera&search=Schwert&sort=price_asc&offset=20&limit=5")
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	if q.filter.Server != "Chimera" || q.filter.ItemName != "Schwert" || q.filter.Sort != storage.SortPriceAsc || q.filter.Offset != 20 || q.filter.Limit != 5 {
		t.Fatalf("filter not parsed: %+v", q.filter)
	}
}

func TestErrorsHideInternals(t *testing.T) {
	rec := get(t, newTestRouter(&stubQueries{}, nil, 0), "/api/v1/watchlist")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	if body := rec.Body.String(); body != `{"error":"internal error"}` {
		t.Fatalf("internal error leaked: %s", body)
	}
}

func TestHealth(t *testing.T) {
	if rec := get(t, newTestRouter(&stubQueries{}, stubPinger{}, 0), "/health"); rec.Code != http.StatusOK {
		t.Fatalf("healthy backend should be 200, got %d", rec.Code)
	}
	if rec := get(t, newTestRouter(&stubQueries{}, stubPinger{err: errors.New("down")}, 0), "/health"); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("failing backend should be 503, got %d", rec.Code)
	}
}

func TestServersEndpoint(t *testing.T) {
	rec := get(t, newTestRouter(&stubQueries{}, nil, 0), "/api/v1/servers")
	var servers []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &servers); err != nil {
		t.Fatal(err)
	}
	if len(servers) != 1 || servers[0]["name"] != "Chimera" || servers[0]["has_data"] != true {
		t.Fatalf("unexpected servers body: %s", rec.Body.String())
	}
}
