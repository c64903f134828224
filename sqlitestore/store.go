// Package sqlitestore persists intake sessions in SQLite through the pure-Go
// modernc.org/sqlite driver.
package sqlitestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/gekabilgi/yatirimadestek-732014e5-sub001/agent"
	"github.com/gekabilgi/yatirimadestek-732014e5-sub001/types"
)

var ErrNotFound = errors.New("intake session not found")

// slotUpdates are the conditional writes for each slot, in fill order. A
// slot is written only while it is NULL and its predecessor is set.
var slotUpdates = []struct {
	slot  types.SlotName
	query string
}{
	{types.SlotSector, `UPDATE intake_sessions SET sector = ?, updated_at = ?
		WHERE id = ? AND sector IS NULL`},
	{types.SlotProvince, `UPDATE intake_sessions SET province = ?, updated_at = ?
		WHERE id = ? AND province IS NULL AND sector IS NOT NULL`},
	{types.SlotDistrict, `UPDATE intake_sessions SET district = ?, updated_at = ?
		WHERE id = ? AND district IS NULL AND province IS NOT NULL`},
	{types.SlotOSBStatus, `UPDATE intake_sessions SET osb_status = ?, updated_at = ?
		WHERE id = ? AND osb_status IS NULL AND district IS NOT NULL`},
}

const selectColumns = `id, session_id, status, sector, province, district, osb_status, created_at, updated_at`

// Store implements agent.SessionStore.
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

var _ agent.SessionStore = (*Store)(nil)

// Open opens or creates a database file at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	conn, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return newStore(conn, path)
}

// OpenInMemory creates a private in-memory database.
func OpenInMemory() (*Store, error) {
	conn, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory database: %w", err)
	}
	// Every connection would get its own empty database.
	conn.SetMaxOpenConns(1)
	return newStore(conn, ":memory:")
}

func newStore(conn *sql.DB, path string) (*Store, error) {
	if _, err := conn.Exec(Schema); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &Store{db: conn, path: path, now: time.Now}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Store) Path() string {
	return s.path
}

func (s *Store) LoadActive(ctx context.Context) (*types.IntakeSession, error) {
	key, ok := agent.SessionKeyFromContext(ctx)
	if !ok {
		return nil, nil
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+selectColumns+`
		FROM intake_sessions
		WHERE session_id = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT 1`, key)
	session, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load intake session: %w", err)
	}
	return session, nil
}

func (s *Store) Create(ctx context.Context) (*types.IntakeSession, error) {
	key, ok := agent.SessionKeyFromContext(ctx)
	if !ok {
		return nil, agent.ErrNoSessionKey
	}
	now := s.now()
	session := &types.IntakeSession{
		ID:        uuid.NewString(),
		SessionID: key,
		Status:    types.StatusCollecting,
		CreatedAt: time.UnixMilli(now.UnixMilli()),
		UpdatedAt: time.UnixMilli(now.UnixMilli()),
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO intake_sessions (id, session_id, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`, session.ID, session.SessionID, string(session.Status), now.UnixMilli(), now.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("failed to create intake session: %w", err)
	}
	return session, nil
}

func (s *Store) UpdateSlots(ctx context.Context, session *types.IntakeSession, slots types.Slots) (*types.IntakeSession, error) {
	if session == nil {
		return nil, ErrNotFound
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := s.now().UnixMilli()
	for _, u := range slotUpdates {
		value := slots.Get(u.slot)
		if value == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, u.query, value, now, session.ID); err != nil {
			return nil, fmt.Errorf("failed to update %s: %w", u.slot, err)
		}
	}

	updated, err := scanSession(tx.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM intake_sessions WHERE id = ?`, session.ID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to reload intake session: %w", err)
	}
	if err := updated.Validate(); err != nil {
		return nil, fmt.Errorf("update rejected: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}
	return updated, nil
}

func (s *Store) MarkCompleted(ctx context.Context, session *types.IntakeSession) error {
	if session == nil {
		return ErrNotFound
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE intake_sessions SET status = 'completed', updated_at = ?
		WHERE id = ? AND status = 'collecting'
			AND sector IS NOT NULL AND province IS NOT NULL
			AND district IS NOT NULL AND osb_status IS NOT NULL
	`, s.now().UnixMilli(), session.ID)
	if err != nil {
		return fmt.Errorf("failed to complete intake session: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		return nil
	}

	current, err := scanSession(s.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM intake_sessions WHERE id = ?`, session.ID))
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to reload intake session: %w", err)
	}
	if current.Status == types.StatusCompleted {
		return nil
	}
	return agent.ErrSessionIncomplete
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*types.IntakeSession, error) {
	var (
		session                               types.IntakeSession
		status                                string
		sector, province, district, osbStatus sql.NullString
		createdAt, updatedAt                  int64
	)
	err := row.Scan(&session.ID, &session.SessionID, &status,
		&sector, &province, &district, &osbStatus, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	session.Status = types.Status(status)
	session.Sector = sector.String
	session.Province = province.String
	session.District = district.String
	session.OSBStatus = types.ZoneStatus(osbStatus.String)
	session.CreatedAt = time.UnixMilli(createdAt)
	session.UpdatedAt = time.UnixMilli(updatedAt)
	return &session, nil
}
