// Package recorder is an optional SQLite event log for post-hoc
// inspection of a run: chunk sends/receives and stream state
// transitions, batched and flushed the way the teacher's performance
// analyzer batches its own SQLite writes.
package recorder

import (
	"database/sql"
	"os"

	// Registers the sqlite3 driver for database/sql.
	_ "github.com/mattn/go-sqlite3"
)

// Event is one row of the event log.
type Event struct {
	TimeNs   int64
	Rank     int
	Kind     string // "chunk" or "stream"
	Src, Dst int
	Size     int
	Tag      int
	StreamID int64
	State    string
}

// Recorder batches Events and flushes them to a SQLite file once
// batchSize is reached or Flush is called explicitly.
type Recorder struct {
	db        *sql.DB
	statement *sql.Stmt
	batchSize int
	entries   []Event
}

// New creates (overwriting any existing file) a SQLite-backed Recorder
// at dbFilename.
func New(dbFilename string) (*Recorder, error) {
	r := &Recorder{batchSize: 50000}

	if err := r.createDatabase(dbFilename); err != nil {
		return nil, err
	}
	if err := r.prepareStatement(); err != nil {
		return nil, err
	}

	return r, nil
}

func (r *Recorder) createDatabase(dbFilename string) error {
	if _, err := os.Stat(dbFilename); err == nil {
		if err := os.Remove(dbFilename); err != nil {
			return err
		}
	}

	db, err := sql.Open("sqlite3", dbFilename)
	if err != nil {
		return err
	}
	r.db = db

	_, err = r.db.Exec(`
	create table events (
		id integer not null primary key,
		time_ns integer,
		rank integer,
		kind text,
		src integer,
		dst integer,
		size integer,
		tag integer,
		stream_id integer,
		state text
	);
	`)
	return err
}

func (r *Recorder) prepareStatement() error {
	stmt, err := r.db.Prepare(`
	insert into events(time_ns, rank, kind, src, dst, size, tag, stream_id, state)
	values(?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	r.statement = stmt
	return err
}

// RecordChunk logs one chunk transfer.
func (r *Recorder) RecordChunk(timeNs int64, rank, src, dst, size, tag int) {
	r.add(Event{TimeNs: timeNs, Rank: rank, Kind: "chunk", Src: src, Dst: dst, Size: size, Tag: tag})
}

// RecordStreamTransition logs one streaming.Stream state change.
func (r *Recorder) RecordStreamTransition(timeNs int64, rank int, streamID int64, state string) {
	r.add(Event{TimeNs: timeNs, Rank: rank, Kind: "stream", StreamID: streamID, State: state})
}

func (r *Recorder) add(e Event) {
	r.entries = append(r.entries, e)
	if len(r.entries) >= r.batchSize {
		_ = r.Flush()
	}
}

// Flush commits every buffered Event to the database.
func (r *Recorder) Flush() error {
	if len(r.entries) == 0 {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}

	for _, e := range r.entries {
		if _, err := tx.Stmt(r.statement).Exec(
			e.TimeNs, e.Rank, e.Kind, e.Src, e.Dst, e.Size, e.Tag, e.StreamID, e.State,
		); err != nil {
			_ = tx.Rollback()
			return err
		}
	}

	r.entries = r.entries[:0]
	return tx.Commit()
}

// Close flushes any buffered Events and closes the underlying database.
func (r *Recorder) Close() error {
	if err := r.Flush(); err != nil {
		return err
	}
	return r.db.Close()
}
