// srtools-go: sim racing data conversion tools
// Copyright (C) 2018  Yishen Miao
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

// Package sandbox reads engine data from Automation's sandbox database.
package sandbox

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	// Registers the "sqlite" driver.
	_ "modernc.org/sqlite"

	"github.com/mys721tx/srtools-go/pkg/curve"
	"github.com/mys721tx/srtools-go/pkg/tree"
)

// ErrNotFound is returned when no row matches a query.
var ErrNotFound = errors.New("sandbox: no matching row")

// CurveColumns are the blob columns of the EngineCurves table, in the order
// Curves.Map lists them.
var CurveColumns = []string{"RPMCurve", "PowerCurve", "TorqueCurve", "EconCurve", "EconEffCurve", "BoostCurve"}

// PerformanceColumns are the EngineResults columns describing how an engine
// performs.
var PerformanceColumns = []string{
	"AverageCruiseEcon", "Econ", "MinEcon", "WorstEcon", "EconEff", "IdleSpeed", "MaxRPM",
	"MTTF", "Weight", "PeakTorque", "PeakTorqueRPM", "PeakPower", "PeakPowerRPM",
	"PeakBoost", "PeakBoostRPM",
}

// BillOfMaterialColumns are the EngineResults columns describing what an
// engine costs to make.
var BillOfMaterialColumns = []string{
	"EngineeringCost", "EngineeringTime", "ManHours", "MaterialCost", "ToolingCosts",
	"TotalCost", "ServiceCost",
}

// familyColumns maps Families columns to the keys Engine stores them under.
var familyColumns = [][2]string{
	{"Name", "FamilyName"},
	{"BlockConfig", "BlockConfig"},
	{"BlockMaterial", "BlockMaterial"},
	{"BlockType", "BlockType"},
	{"Head", "Head"},
	{"HeadMaterial", "HeadMaterial"},
	{"Valves", "Valves"},
	{"VVL", "VVL"},
}

// Option configures a DB.
type Option func(*DB)

// WithLogger sets the logger queries are reported to.
func WithLogger(l *slog.Logger) Option {
	return func(d *DB) {
		if l != nil {
			d.log = l
		}
	}
}

// DB is a read-only handle on a sandbox database.
type DB struct {
	db  *sql.DB
	log *slog.Logger
}

// Open opens the sandbox database at path for reading.
func Open(path string, opts ...Option) (*DB, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("sandbox: %w", err)
	}

	db, err := sql.Open("sqlite", "file:"+filepath.ToSlash(path)+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("sandbox: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("sandbox: unable to open %s: %w", path, err)
	}

	d := &DB{db: db, log: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(d)
	}

	return d, nil
}

// Close closes the database.
func (d *DB) Close() error {
	return d.db.Close()
}

// Curves holds the decoded engine curves of one variant. Every curve pairs by
// index with RPM.
type Curves struct {
	RPM     []float64
	Power   []float64
	Torque  []float64
	Econ    []float64
	EconEff []float64
	Boost   []float64
}

// Map returns the curves keyed rpm-curve, power-curve, torque-curve,
// econ-curve, econ-eff-curve and boost-curve.
func (c *Curves) Map() *tree.Map {
	m := tree.NewMap()

	for _, e := range []struct {
		key string
		val []float64
	}{
		{"rpm-curve", c.RPM},
		{"power-curve", c.Power},
		{"torque-curve", c.Torque},
		{"econ-curve", c.Econ},
		{"econ-eff-curve", c.EconEff},
		{"boost-curve", c.Boost},
	} {
		l := make([]any, len(e.val))
		for i, v := range e.val {
			l[i] = v
		}

		m.Set(e.key, l)
	}

	return m
}

// EngineCurves returns the curves of the engine variant uid. A NULL column
// decodes to an empty curve.
func (d *DB) EngineCurves(ctx context.Context, uid string) (*Curves, error) {
	blobs := make([][]byte, len(CurveColumns))
	dest := make([]any, len(blobs))
	for i := range blobs {
		dest[i] = &blobs[i]
	}

	q := "SELECT RPMCurve, PowerCurve, TorqueCurve, EconCurve, EconEffCurve, BoostCurve " +
		"FROM EngineCurves WHERE UID = ?"

	d.log.Debug("reading engine curves", "uid", uid)

	if err := d.db.QueryRowContext(ctx, q, uid).Scan(dest...); err != nil {
		return nil, d.wrap(err, "curves of %s", uid)
	}

	c := &Curves{}
	out := []*[]float64{&c.RPM, &c.Power, &c.Torque, &c.Econ, &c.EconEff, &c.Boost}

	for i, b := range blobs {
		if b == nil {
			continue
		}

		v, err := curve.Decode(b)
		if err != nil {
			return nil, fmt.Errorf("sandbox: %s of %s: %w", CurveColumns[i], uid, err)
		}

		*out[i] = v
	}

	return c, nil
}

// EngineUID returns the UID of the variant called variant in the engine
// family called family.
func (d *DB) EngineUID(ctx context.Context, family, variant string) (string, error) {
	q := "SELECT v.UID FROM Variants v JOIN Families f ON v.FUID = f.UID " +
		"WHERE f.Name = ? AND v.Name = ?"

	var uid string
	if err := d.db.QueryRowContext(ctx, q, family, variant).Scan(&uid); err != nil {
		return "", d.wrap(err, "variant %q of family %q", variant, family)
	}

	return uid, nil
}

// EnginePerformance returns the PerformanceColumns of the variant uid.
func (d *DB) EnginePerformance(ctx context.Context, uid string) (*tree.Map, error) {
	results, err := d.row(ctx, "SELECT * FROM EngineResults WHERE UID = ?", uid)
	if err != nil {
		return nil, d.wrap(err, "results of %s", uid)
	}

	return pick(results, PerformanceColumns), nil
}

// Engine gathers everything known about the variant uid: its Variants row,
// the describing columns of its family, its performance, bill of materials
// and curves.
func (d *DB) Engine(ctx context.Context, uid string) (*tree.Map, error) {
	m, err := d.row(ctx, "SELECT * FROM Variants WHERE UID = ?", uid)
	if err != nil {
		return nil, d.wrap(err, "variant %s", uid)
	}

	fuid, ok := m.Get("FUID")
	if !ok {
		return nil, fmt.Errorf("sandbox: variant %s has no FUID", uid)
	}

	family, err := d.row(ctx, "SELECT * FROM Families WHERE UID = ?", fuid)
	if err != nil {
		return nil, d.wrap(err, "family %v", fuid)
	}

	for _, fc := range familyColumns {
		if v, ok := family.Get(fc[0]); ok {
			m.Set(fc[1], v)
		}
	}

	results, err := d.row(ctx, "SELECT * FROM EngineResults WHERE UID = ?", uid)
	if err != nil {
		return nil, d.wrap(err, "results of %s", uid)
	}

	for _, cols := range [][]string{PerformanceColumns, BillOfMaterialColumns} {
		for k, v := range pick(results, cols).All() {
			m.Set(k, v)
		}
	}

	c, err := d.EngineCurves(ctx, uid)
	if err != nil {
		return nil, err
	}

	for k, v := range c.Map().All() {
		m.Set(k, v)
	}

	return m, nil
}

// row runs q and returns its first row keyed by column name.
func (d *DB) row(ctx context.Context, q string, args ...any) (*tree.Map, error) {
	rows, err := d.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}

		return nil, sql.ErrNoRows
	}

	vals := make([]any, len(cols))
	dest := make([]any, len(cols))
	for i := range vals {
		dest[i] = &vals[i]
	}

	if err := rows.Scan(dest...); err != nil {
		return nil, err
	}

	m := tree.NewMap()
	for i, c := range cols {
		m.Set(c, scalar(vals[i]))
	}

	return m, rows.Err()
}

func (d *DB) wrap(err error, format string, args ...any) error {
	what := fmt.Sprintf(format, args...)

	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", ErrNotFound, what)
	}

	return fmt.Errorf("sandbox: %s: %w", what, err)
}

// scalar converts a column value to the types trees hold.
func scalar(v any) any {
	switch t := v.(type) {
	case int64:
		return float64(t)
	case []byte:
		return string(t)
	default:
		return t
	}
}

func pick(m *tree.Map, cols []string) *tree.Map {
	out := tree.NewMap()

	for _, c := range cols {
		if v, ok := m.Get(c); ok {
			out.Set(c, v)
		}
	}

	return out
}
