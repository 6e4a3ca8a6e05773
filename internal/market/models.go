package market

import (
	"fmt"
	"strings"
	"time"
)

// Server is a game server whose market is tracked.
type Server struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Item is a distinct localized item name.
type Item struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Category string  `json:"category"`
	ImageURL *string `json:"image_url,omitempty"`
}

// Bonus is one decoded attribute of a listing.
type Bonus struct {
	Name  string `json:"bonus_name"`
	Value string `json:"bonus_value"`
}

// Listing is a normalized live market entry ready for persistence.
type Listing struct {
	ItemName  string  `json:"item_name"`
	Seller    string  `json:"seller_name"`
	Quantity  int     `json:"quantity"`
	PriceWon  int64   `json:"price_won"`
	PriceYang int64   `json:"price_yang"`
	Total     int64   `json:"total_price_yang"`
	Bonuses   []Bonus `json:"bonuses"`
}

// UnitPrice is the per-piece price in the combined unit.
func (l Listing) UnitPrice() int64 {
	return UnitPrice(l.Total, l.Quantity)
}

// Signature identifies byte-identical duplicates returned across market pages.
type Signature struct {
	ItemName string
	Seller   string
	Total    int64
	Quantity int
}

// Signature returns the deduplication key of the listing.
func (l Listing) Signature() Signature {
	return Signature{ItemName: l.ItemName, Seller: l.Seller, Total: l.Total, Quantity: l.Quantity}
}

// LiveListing is a persisted listing as read back for browsing.
type LiveListing struct {
	ID         int64     `json:"id"`
	ServerName string    `json:"server"`
	Item       Item      `json:"item"`
	Seller     string    `json:"seller_name"`
	Quantity   int       `json:"quantity"`
	PriceWon   int64     `json:"price_won"`
	PriceYang  int64     `json:"price_yang"`
	Total      int64     `json:"total_price_yang"`
	SeenAt     time.Time `json:"seen_at"`
	Bonuses    []Bonus   `json:"bonuses"`
}

// Batch is the normalized result of one full-market fetch for a server.
// Every snapshot written from a batch carries ScrapedAt.
type Batch struct {
	ServerName string
	ScrapedAt  time.Time
	Listings   []Listing
	Discarded  int
	Duplicates int
	Skipped    int
}

// Snapshot is an immutable per-listing price record.
type Snapshot struct {
	ID         int64     `json:"id"`
	ItemName   string    `json:"item_name"`
	Seller     string    `json:"seller_name"`
	ServerName string    `json:"server_name"`
	Quantity   int       `json:"quantity"`
	PriceWon   int64     `json:"price_won"`
	PriceYang  int64     `json:"price_yang"`
	Total      int64     `json:"total_price_yang"`
	UnitPrice  int64     `json:"unit_price"`
	ScrapedAt  time.Time `json:"scraped_at"`
}

// PricePoint is one entry of a reconstructed price series. A zero Timestamp marks a
// legacy row recorded without one.
type PricePoint struct {
	Timestamp     time.Time `json:"timestamp"`
	Avg           int64     `json:"avg_unit_price"`
	Min           int64     `json:"min_unit_price"`
	AvgBottom20   *int64    `json:"avg_bottom20_price"`
	TotalListings int       `json:"total_listings"`
}

// CheckLegacyRows rejects legacy rows that would overlap snapshot-based history starting at
// earliestSnapshot. Rows without a timestamp always precede snapshots. A zero earliestSnapshot
// means the item has no snapshots yet.
func CheckLegacyRows(points []PricePoint, earliestSnapshot time.Time) error {
	if earliestSnapshot.IsZero() {
		return nil
	}
	for i, p := range points {
		if !p.Timestamp.IsZero() && !p.Timestamp.Before(earliestSnapshot) {
			return fmt.Errorf("%w: legacy row %d (%s) is not before the first snapshot (%s)", ErrConflict, i+1,
				p.Timestamp.UTC().Format(time.RFC3339), earliestSnapshot.UTC().Format(time.RFC3339))
		}
	}
	return nil
}

// FakeSeller is a seller excluded from every price computation.
type FakeSeller struct {
	ID        int64     `json:"id"`
	Name      string    `json:"seller_name"`
	Reason    *string   `json:"reason,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// NewFakeSeller validates a moderation flag.
func NewFakeSeller(name, reason string) (FakeSeller, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return FakeSeller{}, fmt.Errorf("%w: seller name is required", ErrValidation)
	}
	fs := FakeSeller{Name: name}
	if r := strings.TrimSpace(reason); r != "" {
		fs.Reason = &r
	}
	return fs, nil
}

// WatchlistItem is a tracked (query, server) pair.
type WatchlistItem struct {
	ID              int64             `json:"id"`
	Query           string            `json:"query"`
	ServerName      string            `json:"server_name"`
	Active          bool              `json:"is_active"`
	IntervalMinutes int               `json:"interval_minutes"`
	LastScrapedAt   *time.Time        `json:"last_scraped_at,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	PriceAlerts     []PriceAlert      `json:"alerts,omitempty"`
	PercentAlerts   []PercentageAlert `json:"percentage_alerts,omitempty"`
}

// DefaultIntervalMinutes is the polling interval assigned when none is given.
const DefaultIntervalMinutes = 20

// NewWatchlistItem validates a watchlist entry.
func NewWatchlistItem(query, server string, intervalMinutes int) (WatchlistItem, error) {
	query = strings.TrimSpace(query)
	server = strings.TrimSpace(server)
	if query == "" {
		return WatchlistItem{}, fmt.Errorf("%w: query is required", ErrValidation)
	}
	if server == "" {
		return WatchlistItem{}, fmt.Errorf("%w: server name is required", ErrValidation)
	}
	if intervalMinutes < 0 {
		return WatchlistItem{}, fmt.Errorf("%w: interval must not be negative", ErrValidation)
	}
	if intervalMinutes == 0 {
		intervalMinutes = DefaultIntervalMinutes
	}
	return WatchlistItem{Query: query, ServerName: server, Active: true, IntervalMinutes: intervalMinutes}, nil
}

// TelegramSettings carries the notification sink credentials.
type TelegramSettings struct {
	ID        int64     `json:"id"`
	BotToken  string    `json:"bot_token"`
	ChatID    string    `json:"chat_id"`
	Active    bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// NewTelegramSettings validates sink credentials.
func NewTelegramSettings(botToken, chatID string) (TelegramSettings, error) {
	botToken = strings.TrimSpace(botToken)
	chatID = strings.TrimSpace(chatID)
	if botToken == "" || chatID == "" {
		return TelegramSettings{}, fmt.Errorf("%w: bot token and chat id are required", ErrValidation)
	}
	return TelegramSettings{BotToken: botToken, ChatID: chatID, Active: true}, nil
}
