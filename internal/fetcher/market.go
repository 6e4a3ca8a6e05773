package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"marketwatch/internal/market"
)

const (
	resourceEntries = "entries"
	resourceNames   = "names"
)

// MarketOptions parameterise the upstream market client.
type MarketOptions struct {
	DataURL   string
	NamesURL  string
	Referer   string
	UserAgent string
	Timeout   time.Duration
	ServerTTL time.Duration
	NamesTTL  time.Duration
}

// Market fetches full-server listing dumps and item-name tables through a read-through cache.
type Market struct {
	opts     MarketOptions
	logger   zerolog.Logger
	client   *resty.Client
	cache    Cache
	limiter  Limiter
	recorder CacheRecorder
	now      func() time.Time
}

// Option customises a Market.
type Option func(*Market)

// WithCache replaces the default in-memory cache.
func WithCache(c Cache) Option {
	return func(m *Market) {
		if c != nil {
			m.cache = c
		}
	}
}

// WithLimiter paces upstream requests. Cache hits are not limited.
func WithLimiter(l Limiter) Option {
	return func(m *Market) { m.limiter = l }
}

// WithRecorder reports cache hits and misses.
func WithRecorder(r CacheRecorder) Option {
	return func(m *Market) {
		if r != nil {
			m.recorder = r
		}
	}
}

// WithClock overrides the time source used for cache-busting parameters.
func WithClock(now func() time.Time) Option {
	return func(m *Market) {
		if now != nil {
			m.now = now
		}
	}
}

// NewMarket constructs the upstream client.
func NewMarket(opts MarketOptions, logger zerolog.Logger, options ...Option) *Market {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	if opts.DataURL == "" {
		opts.DataURL = "https://metin2alerts.com/store/public/data/{server_id}.json"
	}
	if opts.NamesURL == "" {
		opts.NamesURL = "https://metin2alerts.com/m2_data/{lang}/item_names.json"
	}

	client := resty.New().SetTimeout(timeout)
	client.SetHeader("Accept", "application/json")
	if ua := strings.TrimSpace(opts.UserAgent); ua != "" {
		client.SetHeader("User-Agent", ua)
	} else {
		client.SetHeader("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	}
	if opts.Referer != "" {
		client.SetHeader("Referer", opts.Referer)
	}

	m := &Market{
		opts:     opts,
		logger:   logger.With().Str("component", "market_fetcher").Logger(),
		client:   client,
		cache:    NewMemoryCache(nil),
		recorder: nopRecorder{},
		now:      time.Now,
	}
	for _, o := range options {
		o(m)
	}
	return m
}

// FetchEntries returns the raw listing objects of one server. Each element is left undecoded
// so a malformed entry can be skipped without failing the whole dump.
func (m *Market) FetchEntries(ctx context.Context, serverID string) ([]json.RawMessage, error) {
	if strings.TrimSpace(serverID) == "" {
		return nil, fmt.Errorf("%w: server id is required", market.ErrValidation)
	}

	key := "entries:" + serverID
	payload, err := m.readThrough(ctx, resourceEntries, key, m.opts.ServerTTL, func() (*resty.Request, string) {
		req := m.client.R().
			SetQueryParam("v", strconv.FormatInt(m.now().UnixMilli(), 10)).
			SetQueryParam("r", strconv.Itoa(100000+rand.Intn(900000)))
		return req, strings.ReplaceAll(m.opts.DataURL, "{server_id}", serverID)
	})
	if err != nil {
		return nil, err
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(payload, &entries); err != nil {
		_ = m.cache.Invalidate(ctx, key)
		return nil, fmt.Errorf("%w: server %s payload is not a list: %v", market.ErrDecode, serverID, err)
	}
	return entries, nil
}

// FetchItemNames returns the item-id to localized-name table for lang.
func (m *Market) FetchItemNames(ctx context.Context, lang string) (map[string]string, error) {
	if lang == "" {
		lang = "de"
	}

	key := "names:" + lang
	payload, err := m.readThrough(ctx, resourceNames, key, m.opts.NamesTTL, func() (*resty.Request, string) {
		return m.client.R(), strings.ReplaceAll(m.opts.NamesURL, "{lang}", lang)
	})
	if err != nil {
		return nil, err
	}

	var names map[string]string
	if err := json.Unmarshal(payload, &names); err != nil {
		_ = m.cache.Invalidate(ctx, key)
		return nil, fmt.Errorf("%w: item names for %s: %v", market.ErrDecode, lang, err)
	}
	return names, nil
}

// Invalidate drops the cached dump of one server so the next fetch goes upstream.
func (m *Market) Invalidate(ctx context.Context, serverID string) error {
	return m.cache.Invalidate(ctx, "entries:"+serverID)
}

func (m *Market) readThrough(ctx context.Context, resource, key string, ttl time.Duration, build func() (*resty.Request, string)) ([]byte, error) {
	if cached, ok, err := m.cache.Get(ctx, key); err != nil {
		m.logger.Warn().Err(err).Str("key", key).Msg("cache read failed, fetching upstream")
	} else if ok {
		m.recorder.CacheHit(resource)
		return cached, nil
	}
	m.recorder.CacheMiss(resource)

	if m.limiter != nil {
		if err := m.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: rate limiter: %v", market.ErrTransientFetch, err)
		}
	}

	req, url := build()
	resp, err := req.SetContext(ctx).Get(url)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", market.ErrTransientFetch, resource, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: %s: upstream status %d", market.ErrTransientFetch, resource, resp.StatusCode())
	}

	body := resp.Body()
	m.logger.Debug().
		Str("resource", resource).
		Str("key", key).
		Int("bytes", len(body)).
		Dur("elapsed", resp.Time()).
		Msg("fetched upstream payload")

	if err := m.cache.Set(ctx, key, body, ttl); err != nil {
		m.logger.Warn().Err(err).Str("key", key).Msg("cache write failed")
	}
	return body, nil
}

var _ Source = (*Market)(nil)
