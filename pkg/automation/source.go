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

package automation

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"

	"github.com/klauspost/compress/zip"

	"github.com/mys721tx/srtools-go/pkg/config"
)

// source lists and reads the files of one exported vehicle.
type source interface {
	glob(pattern string) ([]string, error)
	read(name string) ([]byte, error)
	String() string
	Close() error
}

// openSource opens the export directory of name, falling back to the mod
// archive BeamNG.drive keeps when the directory is absent.
func openSource(cfg *config.Config, name string) (source, error) {
	dir := cfg.ExportDir(name)

	if fi, err := os.Stat(dir); err == nil && fi.IsDir() {
		return &dirSource{dir: dir}, nil
	}

	archive := filepath.Join(cfg.ExportPath, name+".zip")

	zr, err := zip.OpenReader(archive)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: neither %s nor %s exists", ErrNoExport, dir, archive)
	} else if err != nil {
		return nil, fmt.Errorf("automation: %s: %w", archive, err)
	}

	return &zipSource{archive: archive, prefix: path.Join("vehicles", name), zr: zr}, nil
}

type dirSource struct {
	dir string
}

func (s *dirSource) glob(pattern string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, pattern))
	if err != nil {
		return nil, err
	}

	for i, m := range matches {
		matches[i] = filepath.Base(m)
	}

	return matches, nil
}

func (s *dirSource) read(name string) ([]byte, error) {
	return os.ReadFile(filepath.Join(s.dir, name))
}

func (s *dirSource) String() string {
	return s.dir
}

func (s *dirSource) Close() error {
	return nil
}

type zipSource struct {
	archive string
	prefix  string
	zr      *zip.ReadCloser
}

func (s *zipSource) glob(pattern string) ([]string, error) {
	var matches []string

	for _, f := range s.zr.File {
		dir, base := path.Split(f.Name)
		if path.Clean(dir) != s.prefix {
			continue
		}

		ok, err := path.Match(pattern, base)
		if err != nil {
			return nil, err
		}

		if ok {
			matches = append(matches, base)
		}
	}

	sort.Strings(matches)

	return matches, nil
}

func (s *zipSource) read(name string) ([]byte, error) {
	want := path.Join(s.prefix, name)

	for _, f := range s.zr.File {
		if f.Name != want {
			continue
		}

		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		defer rc.Close()

		return io.ReadAll(rc)
	}

	return nil, fmt.Errorf("%s: %s: %w", s.archive, want, fs.ErrNotExist)
}

func (s *zipSource) String() string {
	return s.archive + ":" + s.prefix
}

func (s *zipSource) Close() error {
	return s.zr.Close()
}
