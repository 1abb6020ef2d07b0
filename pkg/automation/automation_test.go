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

package automation_test

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mys721tx/srtools-go/pkg/automation"
	"github.com/mys721tx/srtools-go/pkg/capture"
	"github.com/mys721tx/srtools-go/pkg/config"
	"github.com/mys721tx/srtools-go/pkg/jbeam"
)

const engineJBeam = `{
"Camso_Engine": {
    "mainEngine": {
        "inertia":0.18349,
        "friction":11.2,
        "dynamicFriction":0.0231
    }
}
}`

// carFile returns a car file whose Variant section holds uid.
func carFile(uid string) []byte {
	var buf bytes.Buffer

	text := func(s string) {
		buf.WriteByte(0x53)
		binary.Write(&buf, binary.LittleEndian, uint32(len(s)))
		buf.WriteString(s)
	}

	header := func(n uint32) {
		binary.Write(&buf, binary.LittleEndian, n)
		binary.Write(&buf, binary.LittleEndian, uint32(0))
	}

	buf.Write([]byte{0x01, 0x00})
	header(2)
	text("Name")
	text("Camso Sprint")
	text("Variant")
	buf.WriteByte(0x54)
	header(1)
	text("UID")
	text(uid)

	return buf.Bytes()
}

func curveBlob(vals ...float64) []byte {
	var buf bytes.Buffer

	buf.Write([]byte{0x01, 0x00})
	binary.Write(&buf, binary.LittleEndian, uint64(len(vals)))

	for _, v := range vals {
		buf.Write(make([]byte, 10))
		binary.Write(&buf, binary.LittleEndian, v)
	}

	return buf.Bytes()
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()

	root := t.TempDir()

	return &config.Config{
		UserDataPath: filepath.Join(root, "user"),
		ExportPath:   filepath.Join(root, "mods"),
		SandboxDB:    config.SandboxDB,
		EngineJBeam:  config.EngineJBeam,
	}
}

func writeExport(t *testing.T, cfg *config.Config, name string, car []byte) {
	t.Helper()

	dir := cfg.ExportDir(name)
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name+".car"), car, 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, cfg.EngineJBeam), []byte(engineJBeam), 0644))
}

func writeSandbox(t *testing.T, cfg *config.Config, uid string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(cfg.UserDataPath, 0755))

	db, err := sql.Open("sqlite", cfg.SandboxPath())
	require.NoError(t, err)
	defer db.Close()

	for _, q := range []string{
		"CREATE TABLE Families (UID TEXT, Name TEXT)",
		"CREATE TABLE Variants (UID TEXT, FUID TEXT, Name TEXT)",
		"CREATE TABLE EngineResults (UID TEXT, PeakPower REAL, MaxRPM REAL)",
		"CREATE TABLE EngineCurves (UID TEXT, RPMCurve BLOB, PowerCurve BLOB, TorqueCurve BLOB, " +
			"EconCurve BLOB, EconEffCurve BLOB, BoostCurve BLOB)",
	} {
		_, err := db.Exec(q)
		require.NoError(t, err)
	}

	_, err = db.Exec("INSERT INTO Families VALUES ('F1', 'Camso I4')")
	require.NoError(t, err)
	_, err = db.Exec("INSERT INTO Variants VALUES (?, 'F1', '1.6')", uid)
	require.NoError(t, err)
	_, err = db.Exec("INSERT INTO EngineResults VALUES (?, 98.5, 7200)", uid)
	require.NoError(t, err)
	_, err = db.Exec("INSERT INTO EngineCurves VALUES (?, ?, ?, ?, NULL, NULL, NULL)",
		uid, curveBlob(1000, 2000), curveBlob(20, 60), curveBlob(190, 210))
	require.NoError(t, err)
}

func TestLoadExportWithoutSandbox(t *testing.T) {
	cfg := testConfig(t)
	writeExport(t, cfg, "sprint", carFile("V1"))

	e, err := automation.LoadExport(context.Background(), cfg, "sprint")
	require.NoError(t, err)

	assert.Equal(t, "V1", e.UID)
	assert.Equal(t, "sprint.car", e.Car.Name)
	assert.Nil(t, e.Sandbox)

	inertia, err := e.Inertia()
	require.NoError(t, err)
	assert.Equal(t, 0.183, inertia)

	main, err := e.MainEngine()
	require.NoError(t, err)
	assert.Equal(t, []string{"inertia", "friction", "dynamicFriction"}, main.Keys())

	assert.Equal(t, []string{"name", "uid", "car", "engine-jbeam"}, e.Data().Keys())
}

func TestLoadExportWithSandbox(t *testing.T) {
	cfg := testConfig(t)
	writeExport(t, cfg, "sprint", carFile("V7"))
	writeSandbox(t, cfg, "V7")

	e, err := automation.LoadExport(context.Background(), cfg, "sprint")
	require.NoError(t, err)
	require.NotNil(t, e.Sandbox)

	family, err := e.Sandbox.String("FamilyName")
	require.NoError(t, err)
	assert.Equal(t, "Camso I4", family)

	rpm, ok := e.Sandbox.Get("rpm-curve")
	require.True(t, ok)
	assert.Equal(t, []any{1000.0, 2000.0}, rpm)

	assert.Contains(t, e.Data().Keys(), "sandbox")
}

func TestLoadExportCapturedFiles(t *testing.T) {
	cfg := testConfig(t)

	var buf bytes.Buffer
	require.NoError(t, capture.Pack(&buf, carFile("V1"), capture.CodecZstd))
	writeExport(t, cfg, "sprint", buf.Bytes())

	e, err := automation.LoadExport(context.Background(), cfg, "sprint")
	require.NoError(t, err)
	assert.Equal(t, "V1", e.UID)
}

func TestLoadExportFromArchive(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.MkdirAll(cfg.ExportPath, 0755))

	f, err := os.Create(filepath.Join(cfg.ExportPath, "sprint.zip"))
	require.NoError(t, err)

	zw := zip.NewWriter(f)
	for name, content := range map[string][]byte{
		"vehicles/sprint/sprint.car":         carFile("V3"),
		"vehicles/sprint/camso_engine.jbeam": []byte(engineJBeam),
		"vehicles/other/other.car":           carFile("V9"),
	} {
		w, err := zw.Create(name)
		require.NoError(t, err)

		_, err = w.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	e, err := automation.LoadExport(context.Background(), cfg, "sprint")
	require.NoError(t, err)
	assert.Equal(t, "V3", e.UID)
	assert.Contains(t, e.Source, "sprint.zip")
}

func TestLoadExportErrors(t *testing.T) {
	cfg := testConfig(t)

	_, err := automation.LoadExport(context.Background(), cfg, "missing")
	assert.True(t, errors.Is(err, automation.ErrNoExport))

	require.NoError(t, os.MkdirAll(cfg.ExportDir("empty"), 0755))

	_, err = automation.LoadExport(context.Background(), cfg, "empty")
	assert.True(t, errors.Is(err, automation.ErrNoCarFile))

	writeExport(t, cfg, "broken", carFile("V1"))
	require.NoError(t, os.WriteFile(
		filepath.Join(cfg.ExportDir("broken"), cfg.EngineJBeam), []byte(`{"a": [1}`), 0644))

	_, err = automation.LoadExport(context.Background(), cfg, "broken")
	assert.True(t, errors.Is(err, jbeam.ErrSyntax))

	_, err = automation.LoadExport(context.Background(), cfg, "broken",
		automation.WithJBeamOptions(jbeam.WithPermissiveClose()))
	assert.True(t, errors.Is(err, jbeam.ErrUnterminated))
}
