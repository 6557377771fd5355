package duckdb

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	goduckdb "github.com/marcboeker/go-duckdb"

	"github.com/inodb/syntenyfinder/internal/synteny"
)

// Run describes one stored block construction.
type Run struct {
	ID         string
	CreatedAt  time.Time
	K          int
	TrimK      int
	MinSize    int
	SharedOnly bool
	BlockCount int
	Inputs     []FileFingerprint
}

// BlockRecord is a stored block instance. BlockID carries the strand sign;
// Start and End are 0-based half-open.
type BlockRecord struct {
	BlockID    int
	SeqID      int
	Chromosome string
	Start      int64
	End        int64
}

// WriteRun stores a run and its block instances and returns the run with
// its generated id and timestamp filled in.
func (s *Store) WriteRun(run Run, blocks []synteny.BlockInstance) (Run, error) {
	run.ID = uuid.NewString()
	run.CreatedAt = time.Now().UTC().Truncate(time.Microsecond)
	ids := make(map[int]bool)
	for _, b := range blocks {
		ids[b.BlockID()] = true
	}
	run.BlockCount = len(ids)

	tx, err := s.db.Begin()
	if err != nil {
		return Run{}, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`INSERT INTO runs VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.CreatedAt, run.K, run.TrimK, run.MinSize, run.SharedOnly, run.BlockCount); err != nil {
		return Run{}, fmt.Errorf("insert run: %w", err)
	}
	for _, in := range run.Inputs {
		if _, err := tx.Exec(`INSERT INTO run_inputs VALUES (?, ?, ?, ?)`,
			run.ID, in.Path, in.Size, in.ModTime); err != nil {
			return Run{}, fmt.Errorf("insert run input: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return Run{}, fmt.Errorf("commit run: %w", err)
	}

	// The Appender works outside the transaction, so a failed append
	// removes the run rows again.
	if err := s.appendBlocks(run.ID, blocks); err != nil {
		if derr := s.DeleteRun(run.ID); derr != nil {
			return Run{}, errors.Join(err, fmt.Errorf("remove incomplete run %s: %w", run.ID, derr))
		}
		return Run{}, err
	}
	return run, nil
}

// appendBlocks batch-inserts block instances using the Appender API.
func (s *Store) appendBlocks(runID string, blocks []synteny.BlockInstance) error {
	if len(blocks) == 0 {
		return nil
	}

	conn, err := s.db.Conn(context.Background())
	if err != nil {
		return fmt.Errorf("get connection: %w", err)
	}
	defer conn.Close()

	var appender *goduckdb.Appender
	if err := conn.Raw(func(driverConn any) error {
		var err error
		appender, err = goduckdb.NewAppenderFromConn(driverConn.(driver.Conn), "", "block_instances")
		return err
	}); err != nil {
		return fmt.Errorf("create appender: %w", err)
	}
	defer appender.Close()

	for _, b := range blocks {
		if err := appender.AppendRow(
			runID, int32(b.BlockID()), b.Direction().String(),
			int32(b.Chr.ID+1), b.Chr.Name(), int64(b.Start), int64(b.End),
		); err != nil {
			return fmt.Errorf("append block instance: %w", err)
		}
	}

	return appender.Flush()
}

// Runs lists the stored runs, oldest first, with their inputs.
func (s *Store) Runs() ([]Run, error) {
	rows, err := s.db.Query(`SELECT run_id, created_at, k, trim_k, min_size, shared_only, block_count
		FROM runs ORDER BY created_at, run_id`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.CreatedAt, &r.K, &r.TrimK, &r.MinSize, &r.SharedOnly, &r.BlockCount); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}

	for i := range runs {
		inputs, err := s.runInputs(runs[i].ID)
		if err != nil {
			return nil, err
		}
		runs[i].Inputs = inputs
	}
	return runs, nil
}

func (s *Store) runInputs(runID string) ([]FileFingerprint, error) {
	rows, err := s.db.Query(`SELECT path, size, mod_time FROM run_inputs WHERE run_id=? ORDER BY path`, runID)
	if err != nil {
		return nil, fmt.Errorf("query run inputs: %w", err)
	}
	defer rows.Close()

	var inputs []FileFingerprint
	for rows.Next() {
		var f FileFingerprint
		if err := rows.Scan(&f.Path, &f.Size, &f.ModTime); err != nil {
			return nil, fmt.Errorf("scan run input: %w", err)
		}
		f.ModTime = f.ModTime.UTC()
		inputs = append(inputs, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run inputs: %w", err)
	}
	return inputs, nil
}

// LoadBlocks returns the block instances of a run sorted by block id,
// sequence and start.
func (s *Store) LoadBlocks(runID string) ([]BlockRecord, error) {
	rows, err := s.db.Query(`SELECT block_id, strand, seq_id, chromosome, start_pos, end_pos
		FROM block_instances WHERE run_id=?
		ORDER BY block_id, seq_id, start_pos`, runID)
	if err != nil {
		return nil, fmt.Errorf("query blocks: %w", err)
	}
	defer rows.Close()

	var blocks []BlockRecord
	for rows.Next() {
		var b BlockRecord
		var strand string
		if err := rows.Scan(&b.BlockID, &strand, &b.SeqID, &b.Chromosome, &b.Start, &b.End); err != nil {
			return nil, fmt.Errorf("scan block: %w", err)
		}
		if strand == "-" {
			b.BlockID = -b.BlockID
		}
		blocks = append(blocks, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate blocks: %w", err)
	}
	return blocks, nil
}

// DeleteRun removes a run and everything stored with it.
func (s *Store) DeleteRun(runID string) error {
	for _, table := range []string{"block_instances", "run_inputs", "runs"} {
		if _, err := s.db.Exec("DELETE FROM "+table+" WHERE run_id=?", runID); err != nil {
			return fmt.Errorf("delete from %s: %w", table, err)
		}
	}
	return nil
}
