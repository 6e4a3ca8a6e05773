package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"marketwatch/internal/market"
)

const (
	insertFakeSellerSQL = `INSERT INTO fake_sellers (seller_name, reason) VALUES ($1,$2)
    RETURNING id, seller_name, reason, created_at;`

	listFakeSellersSQL = `SELECT id, seller_name, reason, created_at FROM fake_sellers ORDER BY created_at DESC, id DESC;`

	deleteFakeSellerSQL = `DELETE FROM fake_sellers WHERE id = $1;`

	telegramColumns = `id, bot_token, chat_id, is_active, created_at`

	firstTelegramSQL = `SELECT ` + telegramColumns + ` FROM telegram_settings ORDER BY id LIMIT 1;`

	lockTelegramSQL = `SELECT ` + telegramColumns + ` FROM telegram_settings ORDER BY id LIMIT 1 FOR UPDATE;`

	activeTelegramSQL = `SELECT ` + telegramColumns + ` FROM telegram_settings WHERE is_active ORDER BY id LIMIT 1;`

	updateTelegramSQL = `UPDATE telegram_settings SET bot_token = $2, chat_id = $3 WHERE id = $1
    RETURNING ` + telegramColumns + `;`

	insertTelegramSQL = `INSERT INTO telegram_settings (bot_token, chat_id, is_active) VALUES ($1,$2,TRUE)
    RETURNING ` + telegramColumns + `;`

	toggleTelegramSQL = `UPDATE telegram_settings SET is_active = NOT is_active
    WHERE id = (SELECT id FROM telegram_settings ORDER BY id LIMIT 1)
    RETURNING ` + telegramColumns + `;`
)

// SellerStore covers the moderation list.
type SellerStore interface {
	FlagSeller(ctx context.Context, fs market.FakeSeller) (market.FakeSeller, error)
	ListFakeSellers(ctx context.Context) ([]market.FakeSeller, error)
	UnflagSeller(ctx context.Context, id int64) error
}

// TelegramStore covers the single logical notification settings row.
type TelegramStore interface {
	TelegramSettings(ctx context.Context) (market.TelegramSettings, error)
	ActiveTelegramSettings(ctx context.Context) (market.TelegramSettings, bool, error)
	SaveTelegramSettings(ctx context.Context, ts market.TelegramSettings) (market.TelegramSettings, error)
	ToggleTelegram(ctx context.Context) (market.TelegramSettings, error)
}

// FlagSeller adds a seller to the exclusion list. Flagging twice yields market.ErrConflict.
func (s *Store) FlagSeller(ctx context.Context, fs market.FakeSeller) (market.FakeSeller, error) {
	pool, err := s.getPool()
	if err != nil {
		return market.FakeSeller{}, err
	}
	var out market.FakeSeller
	if err := pool.QueryRow(ctx, insertFakeSellerSQL, fs.Name, fs.Reason).Scan(&out.ID, &out.Name, &out.Reason, &out.CreatedAt); err != nil {
		return market.FakeSeller{}, classify("flag seller", err)
	}
	return out, nil
}

// ListFakeSellers returns flagged sellers, newest first.
func (s *Store) ListFakeSellers(ctx context.Context) ([]market.FakeSeller, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}
	rows, err := pool.Query(ctx, listFakeSellersSQL)
	if err != nil {
		return nil, fmt.Errorf("list fake sellers: %w", err)
	}
	defer rows.Close()

	out := make([]market.FakeSeller, 0)
	for rows.Next() {
		var fs market.FakeSeller
		if err := rows.Scan(&fs.ID, &fs.Name, &fs.Reason, &fs.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, fs)
	}
	return out, rows.Err()
}

// UnflagSeller removes a seller from the exclusion list.
func (s *Store) UnflagSeller(ctx context.Context, id int64) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}
	tag, err := pool.Exec(ctx, deleteFakeSellerSQL, id)
	if err != nil {
		return fmt.Errorf("unflag seller: %w", err)
	}
	return requireRow("unflag seller", tag)
}

func scanTelegram(row pgx.Row) (market.TelegramSettings, error) {
	var ts market.TelegramSettings
	err := row.Scan(&ts.ID, &ts.BotToken, &ts.ChatID, &ts.Active, &ts.CreatedAt)
	return ts, err
}

// TelegramSettings returns the settings row regardless of its active flag.
func (s *Store) TelegramSettings(ctx context.Context) (market.TelegramSettings, error) {
	pool, err := s.getPool()
	if err != nil {
		return market.TelegramSettings{}, err
	}
	ts, err := scanTelegram(pool.QueryRow(ctx, firstTelegramSQL))
	if err != nil {
		return market.TelegramSettings{}, classify("telegram settings", err)
	}
	return ts, nil
}

// ActiveTelegramSettings returns the enabled settings row. ok is false when none is enabled.
func (s *Store) ActiveTelegramSettings(ctx context.Context) (market.TelegramSettings, bool, error) {
	pool, err := s.getPool()
	if err != nil {
		return market.TelegramSettings{}, false, err
	}
	ts, err := scanTelegram(pool.QueryRow(ctx, activeTelegramSQL))
	if errors.Is(err, pgx.ErrNoRows) {
		return market.TelegramSettings{}, false, nil
	}
	if err != nil {
		return market.TelegramSettings{}, false, fmt.Errorf("active telegram settings: %w", err)
	}
	return ts, true, nil
}

// SaveTelegramSettings updates the single settings row or creates it.
func (s *Store) SaveTelegramSettings(ctx context.Context, ts market.TelegramSettings) (market.TelegramSettings, error) {
	pool, err := s.getPool()
	if err != nil {
		return market.TelegramSettings{}, err
	}

	tx, err := pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return market.TelegramSettings{}, fmt.Errorf("begin telegram save: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	existing, err := scanTelegram(tx.QueryRow(ctx, lockTelegramSQL))
	var saved market.TelegramSettings
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		saved, err = scanTelegram(tx.QueryRow(ctx, insertTelegramSQL, ts.BotToken, ts.ChatID))
	case err != nil:
		return market.TelegramSettings{}, fmt.Errorf("load telegram settings: %w", err)
	default:
		saved, err = scanTelegram(tx.QueryRow(ctx, updateTelegramSQL, existing.ID, ts.BotToken, ts.ChatID))
	}
	if err != nil {
		return market.TelegramSettings{}, fmt.Errorf("save telegram settings: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return market.TelegramSettings{}, fmt.Errorf("commit telegram settings: %w", err)
	}
	return saved, nil
}

// ToggleTelegram flips notifications on or off globally.
func (s *Store) ToggleTelegram(ctx context.Context) (market.TelegramSettings, error) {
	pool, err := s.getPool()
	if err != nil {
		return market.TelegramSettings{}, err
	}
	ts, err := scanTelegram(pool.QueryRow(ctx, toggleTelegramSQL))
	if err != nil {
		return market.TelegramSettings{}, classify("toggle telegram", err)
	}
	return ts, nil
}
