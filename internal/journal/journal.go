// Package journal persists per-fragment metadata records to a local SQLite
// database, one run at a time, so partial results can be inspected after
// the fact. The journal is optional reporting state, never a payload or
// artifact store.
package journal

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"spectral/internal/fragment"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	started_at  TEXT NOT NULL,
	lambda_min  REAL NOT NULL,
	lambda_max  REAL NOT NULL,
	probe_only  INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS fragments (
	run_id        INTEGER NOT NULL REFERENCES runs(id),
	fragment_id   TEXT NOT NULL,
	node_id       TEXT NOT NULL,
	endpoint      TEXT NOT NULL,
	query         TEXT NOT NULL,
	lambda_min    REAL NOT NULL,
	lambda_max    REAL NOT NULL,
	inchikey      TEXT NOT NULL,
	kind          TEXT NOT NULL,
	leaf          INTEGER NOT NULL,
	truncated     INTEGER NOT NULL,
	count_headers TEXT,
	conversion    TEXT NOT NULL,
	payload_path  TEXT,
	artifact_path TEXT,
	failure_cause TEXT
);
CREATE INDEX IF NOT EXISTS fragments_run ON fragments(run_id);
CREATE INDEX IF NOT EXISTS fragments_conversion ON fragments(conversion);
`

// Journal is an open run journal.
type Journal struct {
	db *sql.DB
}

// Open opens or creates the journal database at path.
func Open(path string) (*Journal, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init journal schema: %w", err)
	}
	return &Journal{db: db}, nil
}

// Close releases the database handle.
func (j *Journal) Close() error {
	return j.db.Close()
}

// RecordRun stores one run and all its fragment metadata records.
func (j *Journal) RecordRun(lambdaMin, lambdaMax float64, probeOnly bool, records []fragment.MetadataRecord) error {
	tx, err := j.db.Begin()
	if err != nil {
		return fmt.Errorf("begin journal tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		"INSERT INTO runs (started_at, lambda_min, lambda_max, probe_only) VALUES (?, ?, ?, ?)",
		time.Now().UTC().Format(time.RFC3339), lambdaMin, lambdaMax, probeOnly)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("run id: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO fragments
		(run_id, fragment_id, node_id, endpoint, query, lambda_min, lambda_max,
		 inchikey, kind, leaf, truncated, count_headers, conversion,
		 payload_path, artifact_path, failure_cause)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		headers, err := json.Marshal(r.CountHeaders)
		if err != nil {
			return fmt.Errorf("encode count headers: %w", err)
		}
		if _, err := stmt.Exec(runID, r.FragmentID, r.NodeID, r.Endpoint, r.Query,
			r.LambdaMin, r.LambdaMax, r.InChIKey, r.Kind, r.Leaf, r.Truncated,
			string(headers), string(r.Conversion), r.PayloadPath, r.ArtifactPath,
			r.FailureCause); err != nil {
			return fmt.Errorf("insert fragment %s: %w", r.FragmentID, err)
		}
	}
	return tx.Commit()
}

// CountByConversion returns how many journaled fragments ended in the given
// conversion status, across all runs.
func (j *Journal) CountByConversion(status fragment.ConversionStatus) (int, error) {
	var n int
	err := j.db.QueryRow("SELECT COUNT(*) FROM fragments WHERE conversion = ?", string(status)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count fragments: %w", err)
	}
	return n, nil
}
