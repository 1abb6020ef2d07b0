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
	"errors"
	"fmt"
)

var (
	// ErrSyntax is wrapped by every SyntaxError.
	ErrSyntax = errors.New("jbeam: syntax error")
	// ErrUnterminated is wrapped by UnterminatedError.
	ErrUnterminated = errors.New("jbeam: unterminated container")
	// ErrEmpty is returned for input that holds no container.
	ErrEmpty = errors.New("jbeam: no container in input")
	// ErrNotMap is returned by ParseMap when the root container is a list.
	ErrNotMap = errors.New("jbeam: root container is not a map")
)

// SyntaxError reports input the grammar does not accept. Line and Column are
// 1-based; Column counts bytes.
type SyntaxError struct {
	Line   int
	Column int
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("jbeam: line %d, column %d: %s", e.Line, e.Column, e.Msg)
}

func (e *SyntaxError) Unwrap() error {
	return ErrSyntax
}

// UnterminatedError reports containers still open at the end of the input.
// Line and Column locate the innermost open bracket.
type UnterminatedError struct {
	Line   int
	Column int
	Depth  int
}

func (e *UnterminatedError) Error() string {
	return fmt.Sprintf("jbeam: %d container(s) left open, innermost opened at line %d, column %d",
		e.Depth, e.Line, e.Column)
}

func (e *UnterminatedError) Unwrap() error {
	return ErrUnterminated
}
