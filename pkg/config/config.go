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

// Package config locates the Automation data the tools read.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	homedir "github.com/mitchellh/go-homedir"
	yaml "gopkg.in/yaml.v2"
)

const (
	// SandboxDB is the default sandbox database file name.
	SandboxDB = "Sandbox_openbeta.db"
	// EngineJBeam is the default engine JBeam file name in an export.
	EngineJBeam = "camso_engine.jbeam"

	gameName = "Automation"
	gameID   = "293760"
)

// Config locates the sandbox database and the BeamNG exports.
type Config struct {
	// UserDataPath is Automation's "My Games" directory holding the sandbox.
	UserDataPath string `yaml:"user-data-path"`
	// ExportPath is the directory Automation exports BeamNG mods to.
	ExportPath string `yaml:"export-path"`
	// SandboxDB is the sandbox database file name inside UserDataPath.
	SandboxDB string `yaml:"sandbox-db"`
	// EngineJBeam is the engine file name inside an exported vehicle.
	EngineJBeam string `yaml:"engine-jbeam"`
}

// DefaultPath returns ~/.srt/config.yaml.
func DefaultPath() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", err
	}

	return filepath.Join(home, ".srt", "config.yaml"), nil
}

// Default returns the configuration used when no file is present. Paths
// follow the Proton prefix Steam creates for the game.
func Default() (*Config, error) {
	home, err := homedir.Dir()
	if err != nil {
		return nil, err
	}

	docs := filepath.Join(home, ".steam", "debian-installation", "steamapps", "compatdata",
		gameID, "pfx", "drive_c", "users", "steamuser", "My Documents")

	return &Config{
		UserDataPath: filepath.Join(docs, "My Games", gameName),
		ExportPath:   filepath.Join(docs, "BeamNG.drive", "mods"),
		SandboxDB:    SandboxDB,
		EngineJBeam:  EngineJBeam,
	}, nil
}

// Load reads the YAML file at path over the defaults. An empty path means
// DefaultPath. A missing file is not an error.
func Load(path string) (*Config, error) {
	c, err := Default()
	if err != nil {
		return nil, err
	}

	if path == "" {
		if path, err = DefaultPath(); err != nil {
			return nil, err
		}
	}

	if path, err = homedir.Expand(path); err != nil {
		return nil, err
	}

	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return c, nil
	} else if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}

	for _, p := range []*string{&c.UserDataPath, &c.ExportPath} {
		if *p, err = homedir.Expand(*p); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// SandboxPath returns the path of the sandbox database.
func (c *Config) SandboxPath() string {
	return filepath.Join(c.UserDataPath, c.SandboxDB)
}

// ExportDir returns the directory holding the data files of the exported car
// called name.
func (c *Config) ExportDir(name string) string {
	return filepath.Join(c.ExportPath, name, "vehicles", name)
}

// Write saves the configuration to path.
func (c *Config) Write(path string) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	return os.WriteFile(path, b, 0644)
}
