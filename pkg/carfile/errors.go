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

package carfile

import (
	"errors"
	"fmt"
)

var (
	// ErrFormat is returned when the input does not open with BlobMark.
	ErrFormat = errors.New("carfile: input does not open with a blob mark")
	// ErrTruncated is returned when a read would run past the end of the
	// input or a section is still open when the input ends.
	ErrTruncated = errors.New("carfile: unexpected end of input")
	// ErrUnknownTag is returned for a tag byte the format does not define.
	ErrUnknownTag = errors.New("carfile: unknown tag")
)

// DecodeError records where in the input a decode failed.
type DecodeError struct {
	Offset int
	Err    error
	Detail string
}

func (e *DecodeError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s at offset %d", e.Err, e.Offset)
	}

	return fmt.Sprintf("%s at offset %d: %s", e.Err, e.Offset, e.Detail)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
