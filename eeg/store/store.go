// Package store persists a recording, including bad channels, sensor
// positions and annotations, to a single SQLite file.
package store

import (
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cwbudde/algo-eeg/eeg"
)

// Extension is the conventional suffix of store files.
const Extension = ".eegdb"

// ErrCorrupt reports a store file whose contents do not form a recording.
var ErrCorrupt = errors.New("store: corrupt session file")

const schema = `
CREATE TABLE recording (
	id        INTEGER PRIMARY KEY CHECK (id = 1),
	rate      REAL    NOT NULL,
	startedAt INTEGER,
	highpass  REAL    NOT NULL,
	lowpass   REAL    NOT NULL,
	savedAt   REAL    NOT NULL
);
CREATE TABLE channels (
	idx  INTEGER PRIMARY KEY,
	name TEXT    NOT NULL UNIQUE,
	kind TEXT    NOT NULL,
	bad  INTEGER NOT NULL,
	x    REAL,
	y    REAL,
	z    REAL,
	data BLOB    NOT NULL
);
CREATE TABLE annotations (
	idx      INTEGER PRIMARY KEY,
	onset    REAL NOT NULL,
	duration REAL NOT NULL,
	label    TEXT NOT NULL
);
`

// Save writes rec to path, replacing any existing file.
func Save(path string, rec *eeg.Recording) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("store: remove existing: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("store: open database: %w", err)
	}
	defer db.Close()

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("store: begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.Exec(schema); err != nil {
		return fmt.Errorf("store: create schema: %w", err)
	}

	var started sql.NullInt64
	if t := rec.StartTime(); !t.IsZero() {
		started = sql.NullInt64{Int64: t.UnixNano(), Valid: true}
	}
	hp, lp := rec.FilterBand()
	if _, err := tx.Exec(`INSERT INTO recording (id, rate, startedAt, highpass, lowpass, savedAt)
		VALUES (1, ?, ?, ?, ?, ?)`,
		rec.Rate(), started, hp, lp, float64(time.Now().UnixNano())/1e9); err != nil {
		return fmt.Errorf("store: insert recording: %w", err)
	}

	chStmt, err := tx.Prepare(`INSERT INTO channels (idx, name, kind, bad, x, y, z, data)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("store: prepare channels: %w", err)
	}
	defer chStmt.Close()

	data := rec.Data()
	for i := range rec.NumChannels() {
		var x, y, z sql.NullFloat64
		if p, ok := rec.Position(i); ok {
			x = sql.NullFloat64{Float64: p.X, Valid: true}
			y = sql.NullFloat64{Float64: p.Y, Valid: true}
			z = sql.NullFloat64{Float64: p.Z, Valid: true}
		}
		bad := 0
		if rec.IsBad(i) {
			bad = 1
		}
		if _, err := chStmt.Exec(i, rec.Channel(i), rec.Kind(i).String(), bad, x, y, z,
			encodeSamples(data[i])); err != nil {
			return fmt.Errorf("store: insert channel %s: %w", rec.Channel(i), err)
		}
	}

	for i, a := range rec.Annotations() {
		if _, err := tx.Exec(`INSERT INTO annotations (idx, onset, duration, label) VALUES (?, ?, ?, ?)`,
			i, a.Onset, a.Duration, a.Label); err != nil {
			return fmt.Errorf("store: insert annotation: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit: %w", err)
	}
	return db.Close()
}

// Load reads a recording written by Save.
func Load(path string) (*eeg.Recording, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}

	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?mode=ro", path))
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}
	defer db.Close()

	var (
		rate    float64
		hp, lp  float64
		started sql.NullInt64
	)
	err = db.QueryRow(`SELECT rate, startedAt, highpass, lowpass FROM recording WHERE id = 1`).
		Scan(&rate, &started, &hp, &lp)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: recording: %v", ErrCorrupt, path, err)
	}

	rows, err := db.Query(`SELECT name, kind, bad, x, y, z, data FROM channels ORDER BY idx ASC`)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: channels: %v", ErrCorrupt, path, err)
	}
	defer rows.Close()

	var (
		names []string
		kinds []eeg.Kind
		data  [][]float64
		bads  []string
		pos   = map[string]eeg.Position{}
	)
	for rows.Next() {
		var (
			name, kind string
			bad        int
			x, y, z    sql.NullFloat64
			blob       []byte
		)
		if err := rows.Scan(&name, &kind, &bad, &x, &y, &z, &blob); err != nil {
			return nil, fmt.Errorf("%w: scan channel: %v", ErrCorrupt, err)
		}
		k, err := eeg.ParseKind(kind)
		if err != nil {
			return nil, fmt.Errorf("%w: channel %s: %v", ErrCorrupt, name, err)
		}
		samples, err := decodeSamples(blob)
		if err != nil {
			return nil, fmt.Errorf("%w: channel %s: %v", ErrCorrupt, name, err)
		}
		names = append(names, name)
		kinds = append(kinds, k)
		data = append(data, samples)
		if bad != 0 {
			bads = append(bads, name)
		}
		if x.Valid && y.Valid && z.Valid {
			pos[name] = eeg.Position{X: x.Float64, Y: y.Float64, Z: z.Float64}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: channels: %v", ErrCorrupt, err)
	}

	annotations, err := loadAnnotations(db)
	if err != nil {
		return nil, err
	}

	opts := []eeg.Option{
		eeg.WithKinds(kinds),
		eeg.WithAnnotations(annotations),
		eeg.WithFilterBand(hp, lp),
	}
	if started.Valid {
		opts = append(opts, eeg.WithStartTime(time.Unix(0, started.Int64).UTC()))
	}
	rec, err := eeg.NewRecording(names, rate, data, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if len(pos) > 0 {
		if rec, err = rec.WithPositions(pos); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
	}
	if len(bads) > 0 {
		if rec, err = rec.WithBads(bads...); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
	}
	return rec, nil
}

func loadAnnotations(db *sql.DB) ([]eeg.Annotation, error) {
	rows, err := db.Query(`SELECT onset, duration, label FROM annotations ORDER BY idx ASC`)
	if err != nil {
		return nil, fmt.Errorf("%w: annotations: %v", ErrCorrupt, err)
	}
	defer rows.Close()

	var out []eeg.Annotation
	for rows.Next() {
		var a eeg.Annotation
		if err := rows.Scan(&a.Onset, &a.Duration, &a.Label); err != nil {
			return nil, fmt.Errorf("%w: scan annotation: %v", ErrCorrupt, err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// encodeSamples packs x as little-endian IEEE 754 doubles.
func encodeSamples(x []float64) []byte {
	buf := make([]byte, 8*len(x))
	for i, v := range x {
		binary.LittleEndian.PutUint64(buf[8*i:], math.Float64bits(v))
	}
	return buf
}

func decodeSamples(buf []byte) ([]float64, error) {
	if len(buf)%8 != 0 {
		return nil, fmt.Errorf("sample blob of %d bytes", len(buf))
	}
	out := make([]float64, len(buf)/8)
	for i := range out {
		out[i] = math.Float64frombits(binary.LittleEndian.Uint64(buf[8*i:]))
	}
	return out, nil
}
