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

package jbeam

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/mys721tx/srtools-go/pkg/tree"
)

type state int

const (
	// seekValue expects a value: the top container is a list, a map key has
	// just been read, or the root has not been opened yet.
	seekValue state = iota
	// seekName expects a key or the end of the map on top of the stack.
	seekName
)

// frame is an open container.
type frame struct {
	m     *tree.Map
	items []any
	close byte
	line  int
	col   int

	// Where the container sits in its parent.
	key   string
	index int
}

func (f *frame) isMap() bool {
	return f.m != nil
}

func (f *frame) value() any {
	if f.isMap() {
		return f.m
	}

	if f.items == nil {
		return []any{}
	}

	return f.items
}

type parser struct {
	opts  options
	stack []*frame
	state state

	// name holds the key read in a map until its value arrives.
	name    string
	hasName bool
	colon   bool

	root any
	done bool
}

func newParser(opts []Option) *parser {
	o := options{log: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(&o)
	}

	return &parser{opts: o, state: seekValue}
}

func (p *parser) syntax(line, i int, format string, args ...any) error {
	return &SyntaxError{Line: line, Column: i + 1, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) top() *frame {
	if len(p.stack) == 0 {
		return nil
	}

	return p.stack[len(p.stack)-1]
}

// line scans one line. Containers left open carry over to the next line.
func (p *parser) line(s string, n int) error {
	for i := 0; i < len(s); {
		c := s[i]

		if isSpace(c) || c == ',' {
			i++
			continue
		}

		if c == '/' && i+1 < len(s) && s[i+1] == '/' {
			p.opts.log.Debug("stripped comment", "line", n, "comment", s[i:])
			return nil
		}

		if p.done {
			return p.syntax(n, i, "unexpected %q after the root container", c)
		}

		if p.colon {
			if c != ':' {
				return p.syntax(n, i, "expected ':' after %q, found %q", p.name, c)
			}

			p.colon = false
			i++

			continue
		}

		next, err := p.token(s, i, n)
		if err != nil {
			return err
		}

		i = next
	}

	return nil
}

// token consumes the token starting at s[i] and returns the index after it.
func (p *parser) token(s string, i, n int) (int, error) {
	c := s[i]

	if p.state == seekName {
		switch c {
		case '}', ']':
			return i + 1, p.pop(c, n, i)
		case '"':
			str, next, err := p.str(s, i, n)
			if err != nil {
				return 0, err
			}

			p.name, p.hasName, p.colon = str, true, true
			p.state = seekValue

			return next, nil
		default:
			return 0, p.syntax(n, i, "expected a quoted name, found %q", c)
		}
	}

	switch {
	case c == '{' || c == '[':
		p.push(c, n, i)
		return i + 1, nil
	case c == '}' || c == ']':
		return i + 1, p.pop(c, n, i)
	case p.top() == nil:
		return 0, p.syntax(n, i, "expected '{' or '[', found %q", c)
	case c == '"':
		str, next, err := p.str(s, i, n)
		if err != nil {
			return 0, err
		}

		p.add(str)

		return next, nil
	case c == '-' || isDigit(c):
		f, next, err := p.number(s, i, n)
		if err != nil {
			return 0, err
		}

		p.add(f)

		return next, nil
	case c == 't' || c == 'T' || c == 'f' || c == 'F':
		b, next, err := p.boolean(s, i, n)
		if err != nil {
			return 0, err
		}

		p.add(b)

		return next, nil
	default:
		return 0, p.syntax(n, i, "unexpected %q", c)
	}
}

func (p *parser) str(s string, i, n int) (string, int, error) {
	end := strings.IndexByte(s[i+1:], '"')
	if end < 0 {
		return "", 0, p.syntax(n, i, "unterminated string")
	}

	return s[i+1 : i+1+end], i + end + 2, nil
}

func (p *parser) number(s string, i, n int) (float64, int, error) {
	j := i
	if s[j] == '-' {
		j++
	}

	dot := false

	for ; j < len(s); j++ {
		c := s[j]
		if c == '.' {
			if dot {
				return 0, 0, p.syntax(n, j, "number has more than one decimal point")
			}

			dot = true

			continue
		}

		if !isDigit(c) {
			break
		}
	}

	f, err := strconv.ParseFloat(s[i:j], 64)
	if err != nil {
		return 0, 0, p.syntax(n, i, "malformed number %q", s[i:j])
	}

	return f, j, nil
}

// boolean matches true or false in any case. The literal must end at a
// delimiter so that names like "trueRPM" are not read as booleans.
func (p *parser) boolean(s string, i, n int) (bool, int, error) {
	for _, lit := range []string{"true", "false"} {
		end := i + len(lit)
		if end > len(s) || !strings.EqualFold(s[i:end], lit) {
			continue
		}

		if end < len(s) && !isDelim(s[end]) {
			continue
		}

		return lit == "true", end, nil
	}

	return false, 0, p.syntax(n, i, "unexpected %q", s[i])
}

// add stores a scalar in the container on top of the stack.
func (p *parser) add(v any) {
	top := p.top()

	if top.isMap() {
		top.m.Set(p.name, v)
		p.name, p.hasName = "", false
		p.state = seekName

		return
	}

	top.items = append(top.items, v)
}

func (p *parser) push(c byte, n, i int) {
	f := &frame{close: '}', line: n, col: i + 1}
	if c == '{' {
		f.m = tree.NewMap()
	} else {
		f.close = ']'
	}

	if top := p.top(); top != nil {
		if top.isMap() {
			f.key = p.name
			top.m.Set(f.key, f.value())
			p.name, p.hasName = "", false
		} else {
			f.index = len(top.items)
			top.items = append(top.items, f.value())
		}
	}

	p.stack = append(p.stack, f)
	p.setState()
}

func (p *parser) pop(c byte, n, i int) error {
	f := p.top()
	if f == nil {
		return p.syntax(n, i, "unmatched %q", c)
	}

	if f.isMap() && p.hasName {
		return p.syntax(n, i, "missing value for %q", p.name)
	}

	if c != f.close && !p.opts.permissiveClose {
		return p.syntax(n, i, "%q does not close the container opened at line %d, column %d",
			c, f.line, f.col)
	}

	p.stack = p.stack[:len(p.stack)-1]

	parent := p.top()

	switch {
	case parent == nil:
		p.root = f.value()
		p.done = true
	case parent.isMap():
		parent.m.Set(f.key, f.value())
	default:
		parent.items[f.index] = f.value()
	}

	p.setState()

	return nil
}

func (p *parser) setState() {
	if top := p.top(); top != nil && top.isMap() {
		p.state = seekName
	} else {
		p.state = seekValue
	}
}

func (p *parser) finish() (any, error) {
	if f := p.top(); f != nil {
		return nil, &UnterminatedError{Line: f.line, Column: f.col, Depth: len(p.stack)}
	}

	if !p.done {
		return nil, ErrEmpty
	}

	return p.root, nil
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n' || c == '\v' || c == '\f'
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isDelim(c byte) bool {
	return isSpace(c) || c == ',' || c == '}' || c == ']' || c == '/'
}
