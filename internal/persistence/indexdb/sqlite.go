// Package indexdb keeps a sqlite index of persisted chunks: coordinate,
// byte size, content digest and the tick of the last save. All writes
// funnel through one goroutine; sqlite sees a single writer.
package indexdb

import (
	"context"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"driftworld/internal/sim/chunk"
)

type SQLiteIndex struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool
}

type reqKind int

const (
	reqSave reqKind = iota + 1
	reqDelete
	reqSync
)

type req struct {
	kind reqKind

	save  chunkRow
	coord chunk.Coord
	done  chan struct{}
}

type chunkRow struct {
	CX        int
	CY        int
	SizeBytes int
	Digest    string
	SavedTick uint64
	UpdatedAt string
}

// Entry is one indexed chunk.
type Entry struct {
	Coord     chunk.Coord
	SizeBytes int
	Digest    string
	SavedTick uint64
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{
		db: db,
		// Buffered so a save burst during eviction never stalls the tick.
		ch: make(chan req, 4096),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	// WAL is much faster for append-style workloads.
	// NORMAL is a decent durability/perf tradeoff for a secondary index.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS chunks (
			cx INTEGER NOT NULL,
			cy INTEGER NOT NULL,
			size_bytes INTEGER NOT NULL,
			digest TEXT NOT NULL,
			saved_tick INTEGER NOT NULL,
			updated_at TEXT NOT NULL,
			PRIMARY KEY (cx, cy)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_chunks_saved_tick ON chunks(saved_tick);`,
		`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','1');`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

// RecordSave indexes a persisted chunk. Non-blocking: if the indexer falls
// behind, the entry is dropped and the chunk file remains authoritative.
func (s *SQLiteIndex) RecordSave(c chunk.Coord, sizeBytes int, digest [32]byte, tick uint64) {
	if s == nil || s.closed.Load() {
		return
	}
	r := chunkRow{
		CX:        c.X,
		CY:        c.Y,
		SizeBytes: sizeBytes,
		Digest:    hex.EncodeToString(digest[:]),
		SavedTick: tick,
		UpdatedAt: time.Now().UTC().Format(time.RFC3339Nano),
	}
	select {
	case s.ch <- req{kind: reqSave, save: r}:
	default:
	}
}

// RecordDelete drops a chunk's index row after its file is removed.
func (s *SQLiteIndex) RecordDelete(c chunk.Coord) {
	if s == nil || s.closed.Load() {
		return
	}
	select {
	case s.ch <- req{kind: reqDelete, coord: c}:
	default:
	}
}

// Sync blocks until every previously queued write has been committed.
// Tests and shutdown paths use it; the tick loop never does.
func (s *SQLiteIndex) Sync() {
	if s == nil || s.closed.Load() {
		return
	}
	done := make(chan struct{})
	s.ch <- req{kind: reqSync, done: done}
	<-done
}

// Lookup reads one indexed chunk.
func (s *SQLiteIndex) Lookup(c chunk.Coord) (Entry, bool, error) {
	var e Entry
	e.Coord = c
	row := s.db.QueryRow(
		`SELECT size_bytes, digest, saved_tick FROM chunks WHERE cx=? AND cy=?`,
		c.X, c.Y,
	)
	if err := row.Scan(&e.SizeBytes, &e.Digest, &e.SavedTick); err != nil {
		if err == sql.ErrNoRows {
			return e, false, nil
		}
		return e, false, err
	}
	return e, true, nil
}

// Stats reports indexed chunk count and total persisted bytes.
func (s *SQLiteIndex) Stats() (count int, totalBytes int64, err error) {
	row := s.db.QueryRow(`SELECT COUNT(*), COALESCE(SUM(size_bytes),0) FROM chunks`)
	if err := row.Scan(&count, &totalBytes); err != nil {
		return 0, 0, err
	}
	return count, totalBytes, nil
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	insert, _ := s.db.Prepare(`INSERT OR REPLACE INTO chunks(cx,cy,size_bytes,digest,saved_tick,updated_at) VALUES(?,?,?,?,?,?)`)
	remove, _ := s.db.Prepare(`DELETE FROM chunks WHERE cx=? AND cy=?`)
	defer func() {
		if insert != nil {
			_ = insert.Close()
		}
		if remove != nil {
			_ = remove.Close()
		}
	}()

	var (
		tx            *sql.Tx
		opCount       int
		lastCommit    = time.Now()
		commitEvery   = 256
		commitMaxWait = 500 * time.Millisecond
	)

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
	}
	commit := func() {
		if tx == nil {
			return
		}
		_ = tx.Commit()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	rollback := func() {
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}

	for r := range s.ch {
		if r.kind == reqSync {
			commit()
			close(r.done)
			continue
		}

		begin()
		if tx == nil {
			continue
		}
		switch r.kind {
		case reqSave:
			if insert != nil {
				row := r.save
				if _, err := tx.Stmt(insert).Exec(
					row.CX, row.CY, row.SizeBytes, row.Digest, int64(row.SavedTick), row.UpdatedAt,
				); err != nil {
					rollback()
					continue
				}
				opCount++
			}
		case reqDelete:
			if remove != nil {
				if _, err := tx.Stmt(remove).Exec(r.coord.X, r.coord.Y); err != nil {
					rollback()
					continue
				}
				opCount++
			}
		}

		if opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait {
			commit()
		}
	}

	commit()
}
