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

package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mys721tx/srtools-go/pkg/config"
)

func TestLoadMissingFile(t *testing.T) {
	c, err := config.Load(filepath.Join(t.TempDir(), "none.yaml"))
	require.NoError(t, err)

	assert.Equal(t, config.SandboxDB, c.SandboxDB)
	assert.Equal(t, config.EngineJBeam, c.EngineJBeam)
	assert.Equal(t, config.SandboxDB, filepath.Base(c.SandboxPath()))
}

func TestLoadOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
user-data-path: /games/automation
export-path: /games/mods
sandbox-db: Sandbox_test.db
`), 0644))

	c, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join("/games/automation", "Sandbox_test.db"), c.SandboxPath())
	assert.Equal(t, filepath.Join("/games/mods", "gt", "vehicles", "gt"), c.ExportDir("gt"))
	assert.Equal(t, config.EngineJBeam, c.EngineJBeam)
}

func TestLoadInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("user-data-path: [unclosed"), 0644))

	_, err := config.Load(path)
	assert.Error(t, err)
}

func TestWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	c := &config.Config{UserDataPath: "/a", ExportPath: "/b", SandboxDB: "c.db", EngineJBeam: "d.jbeam"}
	require.NoError(t, c.Write(path))

	got, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, c, got)
}
