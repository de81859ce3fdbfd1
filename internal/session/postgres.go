package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/sqlc-dev/pqtype"
)

// SQLBackend stores slots in the session_slots table.
type SQLBackend struct {
	db *sql.DB
}

// NewSQLBackend creates a Backend over db, which must use the pgx driver
// and have the session_slots migration applied.
func NewSQLBackend(db *sql.DB) *SQLBackend {
	return &SQLBackend{db: db}
}

const getSlot = `
SELECT value FROM session_slots
WHERE browser_hash = $1 AND slot = $2 AND expires_at > $3
`

func (b *SQLBackend) Get(ctx context.Context, key string, slot Slot, now time.Time) (string, bool, error) {
	var value string
	err := b.db.QueryRowContext(ctx, getSlot, key, string(slot), now).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get session slot: %w", err)
	}
	return value, true, nil
}

const upsertSlot = `
INSERT INTO session_slots (browser_hash, slot, value, expires_at, ip_address)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (browser_hash, slot) DO UPDATE
SET value = EXCLUDED.value,
    expires_at = EXCLUDED.expires_at,
    ip_address = EXCLUDED.ip_address,
    updated_at = NOW()
`

func (b *SQLBackend) Put(ctx context.Context, e Entry) error {
	if _, err := b.db.ExecContext(ctx, upsertSlot, e.Key, string(e.Slot), e.Value, e.ExpiresAt, inet(e.IP)); err != nil {
		return fmt.Errorf("put session slot: %w", err)
	}
	return nil
}

const deleteSlot = `
DELETE FROM session_slots WHERE browser_hash = $1 AND slot = $2
`

func (b *SQLBackend) Delete(ctx context.Context, key string, slots ...Slot) error {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete session slots: %w", err)
	}
	defer tx.Rollback()

	for _, slot := range slots {
		if _, err := tx.ExecContext(ctx, deleteSlot, key, string(slot)); err != nil {
			return fmt.Errorf("delete session slot %s: %w", slot, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete session slots: %w", err)
	}
	return nil
}

const deleteExpiredSlots = `
DELETE FROM session_slots WHERE expires_at <= $1
`

func (b *SQLBackend) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := b.db.ExecContext(ctx, deleteExpiredSlots, now)
	if err != nil {
		return 0, fmt.Errorf("delete expired session slots: %w", err)
	}
	return res.RowsAffected()
}

// inet converts ip for the ip_address column. A nil ip stores NULL.
func inet(ip net.IP) pqtype.Inet {
	if ip == nil {
		return pqtype.Inet{}
	}
	bits := 128
	if v4 := ip.To4(); v4 != nil {
		ip = v4
		bits = 32
	}
	return pqtype.Inet{
		IPNet: net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)},
		Valid: true,
	}
}
