// Package history keeps a local audit trail of device reports and
// published commands in SQLite.
//
// The trail is write-only from the daemon's point of view: it is never
// read back into the state cache. Only the status API reads it.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nerrad567/gray-logic-lights/internal/light"
)

// Entry kinds.
const (
	KindReport  = "report"
	KindCommand = "command"
)

const (
	defaultLimit = 50
	maxLimit     = 200

	// timeLayout is fixed width so stored timestamps sort as strings.
	timeLayout = "2006-01-02T15:04:05.000000Z"
)

// Entry is one row of the audit trail.
type Entry struct {
	ID     int64  `json:"id"`
	Device string `json:"device"`
	Kind   string `json:"kind"`

	// Command and CorrelationID are set for command entries only.
	Command       string `json:"command,omitempty"`
	CorrelationID string `json:"correlation_id,omitempty"`

	// Payload is the full state for reports and the published delta for commands.
	Payload json.RawMessage `json:"payload"`

	CreatedAt time.Time `json:"created_at"`
}

// Store records history rows for one device.
// It is safe for concurrent use.
type Store struct {
	db     *sql.DB
	device string
	now    func() time.Time
}

// NewStore returns a Store writing rows tagged with device.
// The light_history table must already exist.
func NewStore(db *sql.DB, device string) *Store {
	return &Store{
		db:     db,
		device: device,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// RecordReport stores an accepted device report.
func (s *Store) RecordReport(ctx context.Context, state light.DeviceState) error {
	return s.insert(ctx, KindReport, "", "", light.EncodeState(state))
}

// RecordCommand stores a published delta with its correlation id.
func (s *Store) RecordCommand(ctx context.Context, id string, cmd light.Command, delta light.StateDelta) error {
	return s.insert(ctx, KindCommand, cmd.String(), id, light.EncodeDelta(delta))
}

func (s *Store) insert(ctx context.Context, kind, command, correlationID string, payload []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO light_history (device, kind, command, correlation_id, payload, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		s.device,
		kind,
		nullable(command),
		nullable(correlationID),
		string(payload),
		s.now().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("inserting %s history: %w", kind, err)
	}
	return nil
}

// GetHistory returns the most recent entries for the device, newest first.
// limit defaults to 50 and is capped at 200.
func (s *Store) GetHistory(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, device, kind, command, correlation_id, payload, created_at
		 FROM light_history
		 WHERE device = ?
		 ORDER BY id DESC
		 LIMIT ?`,
		s.device,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0, limit)
	for rows.Next() {
		var (
			entry         Entry
			command       sql.NullString
			correlationID sql.NullString
			payload       string
			createdAt     string
		)
		if err := rows.Scan(&entry.ID, &entry.Device, &entry.Kind, &command, &correlationID, &payload, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning history: %w", err)
		}

		entry.Command = command.String
		entry.CorrelationID = correlationID.String
		entry.Payload = json.RawMessage(payload)

		entry.CreatedAt, err = time.Parse(timeLayout, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}

		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating history: %w", err)
	}

	return entries, nil
}

// Prune deletes entries older than olderThan and returns how many went.
func (s *Store) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		return 0, fmt.Errorf("olderThan must be positive")
	}

	cutoff := s.now().Add(-olderThan).Format(timeLayout)
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM light_history WHERE created_at < ?",
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("deleting history: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("checking rows affected: %w", err)
	}
	return n, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
