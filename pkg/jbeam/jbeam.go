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

// Package jbeam parses the JBeam files BeamNG vehicles are described with.
//
// JBeam looks like JSON but allows // comments, optional commas and
// containers spread over any number of lines. Maps decode to *tree.Map,
// lists to []any, numbers to float64.
package jbeam

import (
	"bufio"
	"io"
	"log/slog"
	"strings"

	"github.com/mys721tx/srtools-go/pkg/tree"
)

const maxLine = 16 << 20

// Option configures a parse.
type Option func(*options)

type options struct {
	permissiveClose bool
	log             *slog.Logger
}

// WithPermissiveClose accepts any closing bracket for any open container.
// Files written by hand sometimes close a list with '}' or a map with ']'.
func WithPermissiveClose() Option {
	return func(o *options) {
		o.permissiveClose = true
	}
}

// WithLogger sets the logger stripped comments are reported to.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// Parse parses lines and returns the root container, a *tree.Map or an []any.
// Line terminators at the end of each line are ignored.
func Parse(lines []string, opts ...Option) (any, error) {
	p := newParser(opts)

	for i, l := range lines {
		if i == 0 {
			l = strings.TrimPrefix(l, "\ufeff")
		}

		if err := p.line(l, i+1); err != nil {
			return nil, err
		}
	}

	return p.finish()
}

// ParseMap parses lines and returns the root container, which must be a map.
func ParseMap(lines []string, opts ...Option) (*tree.Map, error) {
	v, err := Parse(lines, opts...)
	if err != nil {
		return nil, err
	}

	m, ok := v.(*tree.Map)
	if !ok {
		return nil, ErrNotMap
	}

	return m, nil
}

// ParseReader reads r to the end and parses its lines.
func ParseReader(r io.Reader, opts ...Option) (any, error) {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 64*1024), maxLine)

	var lines []string
	for s.Scan() {
		lines = append(lines, s.Text())
	}

	if err := s.Err(); err != nil {
		return nil, err
	}

	return Parse(lines, opts...)
}
