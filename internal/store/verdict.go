package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/roach88/kbound/internal/canon"
	"github.com/roach88/kbound/internal/solver"
)

// Mode names the entry point that answered a query.
type Mode string

const (
	ModeOne  Mode = "one"
	ModeMany Mode = "many"
	ModeDual Mode = "dual"
)

// Key identifies a query.
type Key struct {
	Hash string // automaton.Hash of the (conjoined) automaton
	Mode Mode
	Turn solver.Turn
	KMin int
	K    int
	KInc int
}

// ID is the content address of k.
func (k Key) ID() (string, error) {
	return canon.HashValue(canon.DomainQuery, map[string]any{
		"hash":  k.Hash,
		"mode":  string(k.Mode),
		"turn":  k.Turn.String(),
		"k_min": k.KMin,
		"k":     k.K,
		"k_inc": k.KInc,
	})
}

// Record is one memoized verdict.
type Record struct {
	Key        Key
	Verdict    solver.Verdict
	KReached   int
	Iterations int
	Stats      solver.Stats
	RunID      string
	Seq        int64
}

func marshalStats(st solver.Stats) (string, error) {
	b, err := canon.Marshal(map[string]any{
		"iterations":      st.Iterations,
		"size":            st.Size,
		"input_classes":   st.InputClasses,
		"actions":         st.Actions,
		"critical_inputs": st.CriticalInputs,
	})
	if err != nil {
		return "", fmt.Errorf("marshal stats: %w", err)
	}
	return string(b), nil
}

type statsDoc struct {
	Iterations     int `json:"iterations"`
	Size           int `json:"size"`
	InputClasses   int `json:"input_classes"`
	Actions        int `json:"actions"`
	CriticalInputs int `json:"critical_inputs"`
}

func unmarshalStats(data string) (solver.Stats, error) {
	var doc statsDoc
	if err := json.Unmarshal([]byte(data), &doc); err != nil {
		return solver.Stats{}, fmt.Errorf("unmarshal stats: %w", err)
	}
	return solver.Stats{
		Iterations:     doc.Iterations,
		Size:           doc.Size,
		InputClasses:   doc.InputClasses,
		Actions:        doc.Actions,
		CriticalInputs: doc.CriticalInputs,
	}, nil
}

// Record stores rec. Seq 0 assigns the next logical seq. Writing a key that
// is already present is a no-op.
func (s *Store) Record(ctx context.Context, rec Record) error {
	id, err := rec.Key.ID()
	if err != nil {
		return fmt.Errorf("record verdict: %w", err)
	}
	stats, err := marshalStats(rec.Stats)
	if err != nil {
		return fmt.Errorf("record verdict: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO verdicts
		(id, aut_hash, mode, turn, k_min, k_max, k_inc, verdict, k_reached, iterations, stats, run_id, seq)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?,
			CASE WHEN ? > 0 THEN ? ELSE (SELECT COALESCE(MAX(seq), 0) + 1 FROM verdicts) END)
		ON CONFLICT(id) DO NOTHING
	`,
		id,
		rec.Key.Hash,
		string(rec.Key.Mode),
		rec.Key.Turn.String(),
		rec.Key.KMin,
		rec.Key.K,
		rec.Key.KInc,
		rec.Verdict.String(),
		rec.KReached,
		rec.Iterations,
		stats,
		rec.RunID,
		rec.Seq, rec.Seq,
	)
	if err != nil {
		return fmt.Errorf("record verdict: %w", err)
	}
	return nil
}

const selectRecord = `
	SELECT aut_hash, mode, turn, k_min, k_max, k_inc, verdict, k_reached, iterations, stats, run_id, seq
	FROM verdicts`

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (Record, error) {
	var (
		rec     Record
		mode    string
		turn    string
		verdict string
		stats   string
	)
	if err := row.Scan(
		&rec.Key.Hash, &mode, &turn,
		&rec.Key.KMin, &rec.Key.K, &rec.Key.KInc,
		&verdict, &rec.KReached, &rec.Iterations,
		&stats, &rec.RunID, &rec.Seq,
	); err != nil {
		return Record{}, err
	}
	rec.Key.Mode = Mode(mode)
	if turn == solver.SysFirst.String() {
		rec.Key.Turn = solver.SysFirst
	}
	v, err := solver.ParseVerdict(verdict)
	if err != nil {
		return Record{}, err
	}
	rec.Verdict = v
	if rec.Stats, err = unmarshalStats(stats); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// Lookup returns the record stored for key. The boolean is false when the
// query has not been answered before.
func (s *Store) Lookup(ctx context.Context, key Key) (Record, bool, error) {
	id, err := key.ID()
	if err != nil {
		return Record{}, false, fmt.Errorf("lookup verdict: %w", err)
	}
	rec, err := scanRecord(s.db.QueryRowContext(ctx, selectRecord+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, fmt.Errorf("lookup verdict: %w", err)
	}
	return rec, true, nil
}

// History returns every record for an automaton hash in seq order.
func (s *Store) History(ctx context.Context, hash string) ([]Record, error) {
	return s.query(ctx, selectRecord+`
		WHERE aut_hash = ?
		ORDER BY seq ASC, run_id ASC COLLATE BINARY`, hash)
}

// Run returns every record written by one run.
func (s *Store) Run(ctx context.Context, runID string) ([]Record, error) {
	return s.query(ctx, selectRecord+`
		WHERE run_id = ?
		ORDER BY seq ASC, id ASC COLLATE BINARY`, runID)
}

func (s *Store) query(ctx context.Context, q string, args ...any) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query verdicts: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan verdict: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate verdicts: %w", err)
	}
	return out, nil
}
