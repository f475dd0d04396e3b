// Package trace records the progress of swarm runs in a SQLite database.
//
// Every run gets a row in the runs table, keyed by a random UUID, and one
// row per generation in each of
//
//   - swarmparticles: the position evaluated by each particle
//   - swarmparticlesbest: each particle's personal best
//   - swarmbest: the global best of the swarm
//
// Positions are stored as JSON arrays.  The trace is a diagnostic log: it
// is never read back to resume a run.
package trace

import (
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/rwcarlsen/cpso"
)

//go:embed schema.sql
var schemaSQL string

const (
	// TblParticles is the name of the sql database table that contains
	// positions and values for particles for each iteration.
	TblParticles = "swarmparticles"
	// TblParticlesBest is the name of the sql database table that contains
	// each particle's personal best position at each iteration.
	TblParticlesBest = "swarmparticlesbest"
	// TblBest is the name of the sql database table that contains
	// the best position for the entire swarm at each iteration.
	TblBest = "swarmbest"
	TblRuns = "runs"
)

// Recorder writes the IterationRecords of a single run.  It implements
// cpso.Observer.
type Recorder struct {
	db  *sql.DB
	run string
}

// Open creates or opens the SQLite database at path and registers a new
// run of an ndim dimensional problem.
func Open(path string, ndim int) (*Recorder, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to trace database: %w", err)
	}

	// SQLite supports a single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	r := &Recorder{db: db, run: uuid.NewString()}
	if _, err := db.Exec("INSERT INTO "+TblRuns+" (id, ndim) VALUES (?, ?)", r.run, ndim); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to register run: %w", err)
	}
	return r, nil
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

// RunID returns the id of the run being recorded.
func (r *Recorder) RunID() string { return r.run }

// DB returns the underlying database for queries.
func (r *Recorder) DB() *sql.DB { return r.db }

// Observe writes the particles, personal bests and global best of one
// generation in a single transaction.
func (r *Recorder) Observe(rec cpso.IterationRecord) (err error) {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("trace iteration %d: %w", rec.Iter, err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
			err = fmt.Errorf("trace iteration %d: %w", rec.Iter, err)
		}
	}()

	s0 := "INSERT INTO " + TblParticles + " (run, particle, iter, val, feasible, violation, err, pos) VALUES (?,?,?,?,?,?,?,?)"
	for i, p := range rec.Points {
		var msg sql.NullString
		if p.Err != nil {
			msg = sql.NullString{String: p.Err.Error(), Valid: true}
		}
		if _, err := tx.Exec(s0, r.run, i, rec.Iter, nullReal(p.Val), p.Feasible, nullReal(p.Violation), msg, posJSON(p)); err != nil {
			return err
		}
	}

	s1 := "INSERT INTO " + TblParticlesBest + " (run, particle, iter, best, feasible, violation, pos) VALUES (?,?,?,?,?,?,?)"
	for i, p := range rec.Bests {
		if _, err := tx.Exec(s1, r.run, i, rec.Iter, nullReal(p.Val), p.Feasible, nullReal(p.Violation), posJSON(p)); err != nil {
			return err
		}
	}

	s2 := "INSERT INTO " + TblBest + " (run, iter, val, feasible, violation, nfeasible, nfailed, evals, pos) VALUES (?,?,?,?,?,?,?,?,?)"
	glob := rec.Best
	if _, err := tx.Exec(s2, r.run, rec.Iter, nullReal(glob.Val), glob.Feasible, nullReal(glob.Violation),
		rec.Feasible, rec.Failed, rec.TotalEvals, posJSON(glob)); err != nil {
		return err
	}
	return tx.Commit()
}

// Finish stores the outcome of the run.
func (r *Recorder) Finish(res *cpso.Result) error {
	pos, err := json.Marshal(res.Position)
	if err != nil {
		return err
	}
	_, err = r.db.Exec("UPDATE "+TblRuns+" SET seed = ?, reason = ?, iterations = ?, evals = ?, val = ?, feasible = ?, violation = ?, pos = ? WHERE id = ?",
		strconv.FormatUint(res.Seed, 10), res.Reason.String(), res.Iterations, res.Evals,
		nullReal(res.Value), res.Feasible, nullReal(res.Violation), string(pos), r.run)
	if err != nil {
		return fmt.Errorf("trace finish: %w", err)
	}
	return nil
}

func (r *Recorder) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

// nullReal maps NaN to NULL.  Infinities are stored as SQLite's infinite REAL.
func nullReal(v float64) sql.NullFloat64 {
	return sql.NullFloat64{Float64: v, Valid: !math.IsNaN(v)}
}

func posJSON(p cpso.Point) string {
	data, _ := json.Marshal(p.Pos())
	return string(data)
}
