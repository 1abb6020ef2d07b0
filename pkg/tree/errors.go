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

package tree

import (
	"fmt"
	"strings"
)

// MissingError is returned when a path does not resolve to a value.
type MissingError struct {
	Path []string
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("tree: no value at %q", strings.Join(e.Path, "."))
}

// TypeError is returned when the value at a path has an unexpected type.
type TypeError struct {
	Path []string
	Want string
	Got  any
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("tree: value at %q is %T, want %s", strings.Join(e.Path, "."), e.Got, e.Want)
}
