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

// Package automation gathers the data of a car exported from Automation to
// BeamNG.drive: its car file, its engine JBeam and, when the sandbox
// database is available, the engine curves and results stored there.
package automation

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"math"
	"os"

	"github.com/mys721tx/srtools-go/pkg/capture"
	"github.com/mys721tx/srtools-go/pkg/carfile"
	"github.com/mys721tx/srtools-go/pkg/config"
	"github.com/mys721tx/srtools-go/pkg/jbeam"
	"github.com/mys721tx/srtools-go/pkg/sandbox"
	"github.com/mys721tx/srtools-go/pkg/tree"
)

// EngineKey is the top level key of the engine JBeam.
const EngineKey = "Camso_Engine"

var (
	// ErrNoExport is returned when neither the export directory nor its
	// archive exists.
	ErrNoExport = errors.New("automation: export not found")
	// ErrNoCarFile is returned when an export holds no .car file.
	ErrNoCarFile = errors.New("automation: no .car file in export")
)

// Option configures LoadExport.
type Option func(*options)

type options struct {
	car   []carfile.Option
	jbeam []jbeam.Option
	log   *slog.Logger
}

// WithCarOptions passes opts to the car file decoder.
func WithCarOptions(opts ...carfile.Option) Option {
	return func(o *options) {
		o.car = append(o.car, opts...)
	}
}

// WithJBeamOptions passes opts to the JBeam parser.
func WithJBeamOptions(opts ...jbeam.Option) Option {
	return func(o *options) {
		o.jbeam = append(o.jbeam, opts...)
	}
}

// WithLogger sets the logger used by LoadExport and the decoders it calls.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// Export is an exported car.
type Export struct {
	// Name is the export name, also the mod and vehicle directory name.
	Name string
	// Source is where the files were read from.
	Source string
	// Car is the decoded car file.
	Car *carfile.File
	// Engine is the parsed engine JBeam.
	Engine *tree.Map
	// UID identifies the engine variant in the sandbox.
	UID string
	// Sandbox holds the sandbox data of the variant. It is nil when no
	// sandbox database was found.
	Sandbox *tree.Map
}

// Data returns everything known about the export as one map.
func (e *Export) Data() *tree.Map {
	m := tree.NewMap()
	m.Set("name", e.Name)
	m.Set("uid", e.UID)
	m.Set("car", e.Car.Data())
	m.Set("engine-jbeam", e.Engine)

	if e.Sandbox != nil {
		m.Set("sandbox", e.Sandbox)
	}

	return m
}

// MainEngine returns the mainEngine section of the engine JBeam.
func (e *Export) MainEngine() (*tree.Map, error) {
	return e.Engine.Sub(EngineKey, "mainEngine")
}

// Inertia returns the engine inertia rounded to three decimals.
func (e *Export) Inertia() (float64, error) {
	v, err := e.Engine.Float(EngineKey, "mainEngine", "inertia")
	if err != nil {
		return 0, err
	}

	return math.Round(v*1000) / 1000, nil
}

// LoadExport reads the export called name from cfg.ExportPath.
func LoadExport(ctx context.Context, cfg *config.Config, name string, opts ...Option) (*Export, error) {
	o := options{log: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(&o)
	}

	src, err := openSource(cfg, name)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	o.log.Debug("reading export", "name", name, "source", src.String())

	e := &Export{Name: name, Source: src.String()}

	if e.Car, err = loadCar(src, o); err != nil {
		return nil, err
	}

	if e.Engine, err = loadEngine(src, cfg.EngineJBeam, o); err != nil {
		return nil, err
	}

	if e.UID, err = e.Car.Root.String("Variant", "UID"); err != nil {
		return nil, fmt.Errorf("automation: %s: %w", e.Car.Name, err)
	}

	db := cfg.SandboxPath()
	if _, err := os.Stat(db); errors.Is(err, fs.ErrNotExist) {
		o.log.Info("sandbox database not found, skipping", "path", db)
		return e, nil
	}

	sb, err := sandbox.Open(db, sandbox.WithLogger(o.log))
	if err != nil {
		return nil, err
	}
	defer sb.Close()

	if e.Sandbox, err = sb.Engine(ctx, e.UID); err != nil {
		return nil, err
	}

	return e, nil
}

func loadCar(src source, o options) (*carfile.File, error) {
	matches, err := src.glob("*.car")
	if err != nil {
		return nil, err
	}

	if len(matches) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoCarFile, src)
	}

	if len(matches) > 1 {
		o.log.Warn("several car files in export, using the first", "files", matches)
	}

	raw, err := readRaw(src, matches[0])
	if err != nil {
		return nil, err
	}

	car, err := carfile.DecodeFile(matches[0], raw, append([]carfile.Option{carfile.WithLogger(o.log)}, o.car...)...)
	if err != nil {
		return nil, fmt.Errorf("automation: %s: %w", matches[0], err)
	}

	return car, nil
}

func loadEngine(src source, name string, o options) (*tree.Map, error) {
	raw, err := readRaw(src, name)
	if err != nil {
		return nil, err
	}

	v, err := jbeam.ParseReader(bytes.NewReader(raw), append([]jbeam.Option{jbeam.WithLogger(o.log)}, o.jbeam...)...)
	if err != nil {
		return nil, fmt.Errorf("automation: %s: %w", name, err)
	}

	m, ok := v.(*tree.Map)
	if !ok {
		return nil, fmt.Errorf("automation: %s: %w", name, jbeam.ErrNotMap)
	}

	return m, nil
}

// readRaw reads name from src, unpacking captures.
func readRaw(src source, name string) ([]byte, error) {
	b, err := src.read(name)
	if err != nil {
		return nil, err
	}

	raw, err := capture.Raw(b)
	if err != nil {
		return nil, fmt.Errorf("automation: %s: %w", name, err)
	}

	return raw, nil
}
