// Package journal persists settlement events to SQLite so the external
// settlement pipeline can reconcile value transfers after a crash. Writes
// are batched off the hot path; the simulation never waits on the disk.
package journal

import (
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"sol-arena/internal/game"
)

const (
	flushInterval = time.Second
	flushBatch    = 64
)

// Journal consumes settlement events from a sink and writes them in
// batches inside one transaction per flush.
type Journal struct {
	db *sql.DB

	mu      sync.Mutex
	pending []game.SettlementEvent

	stopChan chan struct{}
	wg       sync.WaitGroup
}

// Open creates (or reopens) the journal database at path.
func Open(path string) (*Journal, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	// WAL keeps writers from blocking the stats readers.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("journal WAL: %w", err)
	}
	j := &Journal{db: db, stopChan: make(chan struct{})}
	if err := j.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return j, nil
}

func (j *Journal) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS settlements (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		event_type TEXT NOT NULL,
		room_id INTEGER NOT NULL,
		eater TEXT NOT NULL DEFAULT '',
		eaten TEXT NOT NULL,
		lamports INTEGER NOT NULL,
		occurred_at DATETIME NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_settlements_eaten ON settlements(eaten);
	CREATE INDEX IF NOT EXISTS idx_settlements_occurred ON settlements(occurred_at);
	`
	if _, err := j.db.Exec(schema); err != nil {
		return fmt.Errorf("journal migration: %w", err)
	}
	return nil
}

// Consume drains a sink until Close. Call once, after Open.
func (j *Journal) Consume(events <-chan game.SettlementEvent) {
	j.wg.Add(1)
	go func() {
		defer j.wg.Done()
		ticker := time.NewTicker(flushInterval)
		defer ticker.Stop()
		for {
			select {
			case ev := <-events:
				j.enqueue(ev)
			case <-ticker.C:
				j.Flush()
			case <-j.stopChan:
				// Drain whatever is already queued on the channel.
				for {
					select {
					case ev := <-events:
						j.enqueue(ev)
					default:
						j.Flush()
						return
					}
				}
			}
		}
	}()
}

func (j *Journal) enqueue(ev game.SettlementEvent) {
	j.mu.Lock()
	j.pending = append(j.pending, ev)
	full := len(j.pending) >= flushBatch
	j.mu.Unlock()
	if full {
		j.Flush()
	}
}

// Flush writes all pending events in one transaction. Failed batches are
// re-queued for the next flush.
func (j *Journal) Flush() {
	j.mu.Lock()
	batch := j.pending
	j.pending = nil
	j.mu.Unlock()
	if len(batch) == 0 {
		return
	}

	if err := j.writeBatch(batch); err != nil {
		log.Printf("⚠️ journal flush failed (%d events kept): %v", len(batch), err)
		j.mu.Lock()
		j.pending = append(batch, j.pending...)
		j.mu.Unlock()
	}
}

func (j *Journal) writeBatch(batch []game.SettlementEvent) error {
	tx, err := j.db.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT INTO settlements
		(event_type, room_id, eater, eaten, lamports, occurred_at)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, ev := range batch {
		if _, err := stmt.Exec(ev.Type.String(), ev.RoomID, ev.Eater, ev.Eaten, ev.Lamports, ev.Timestamp); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// Close stops the consumer, flushes the tail, and closes the database.
func (j *Journal) Close() error {
	close(j.stopChan)
	j.wg.Wait()
	return j.db.Close()
}

// SettlementRow is one persisted settlement.
type SettlementRow struct {
	ID         int64
	Type       string
	RoomID     int
	Eater      string
	Eaten      string
	Lamports   uint64
	OccurredAt time.Time
}

// Recent returns the newest settlements, most recent first.
func (j *Journal) Recent(limit int) ([]SettlementRow, error) {
	rows, err := j.db.Query(`
		SELECT id, event_type, room_id, eater, eaten, lamports, occurred_at
		FROM settlements ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SettlementRow
	for rows.Next() {
		var r SettlementRow
		if err := rows.Scan(&r.ID, &r.Type, &r.RoomID, &r.Eater, &r.Eaten, &r.Lamports, &r.OccurredAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// PlayerEarnings sums the lamports a wallet has gained by eating.
func (j *Journal) PlayerEarnings(address string) (uint64, error) {
	var total sql.NullInt64
	err := j.db.QueryRow(
		"SELECT SUM(lamports) FROM settlements WHERE event_type = 'eat' AND eater = ?",
		address).Scan(&total)
	if err != nil {
		return 0, err
	}
	if !total.Valid {
		return 0, nil
	}
	return uint64(total.Int64), nil
}
