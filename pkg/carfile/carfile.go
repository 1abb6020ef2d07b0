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

// Package carfile decodes the binary .car files exported by Automation.
//
// A car file is a single blob holding a tree of attribute sections. Every
// section header declares how many children it holds and there is no end
// marker, so a section is closed once that many attributes and subsections
// have been attached to it.
package carfile

import (
	"log/slog"

	"github.com/mys721tx/srtools-go/pkg/tree"
)

// Tag bytes used by the car file format.
const (
	// BlobMark opens a blob, including the file itself.
	BlobMark byte = 0x01
	// TagFalse and TagTrue are zero length boolean values.
	TagFalse byte = 0x30
	TagTrue  byte = 0x31
	// TagNumber precedes an 8 byte double. Integers are stored the same way.
	TagNumber byte = 0x4E
	// TagText precedes a length prefixed string or a nested blob.
	TagText byte = 0x53
	// TagSection precedes an 8 byte section header.
	TagSection byte = 0x54
)

// RootName is the name of the section opened by the file's blob mark.
const RootName = "Car"

// PathKey is the key File.Data stores the file name under.
const PathKey = "car-file-path"

// Option configures a decode.
type Option func(*options)

type options struct {
	lenient bool
	log     *slog.Logger
}

// WithLenient makes the decoder skip unknown tags in name position, read
// unknown value tags as text and return sections left open at the end of the
// input instead of failing.
func WithLenient() Option {
	return func(o *options) {
		o.lenient = true
	}
}

// WithLogger sets the logger skipped blobs are reported to.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

func newOptions(opts []Option) options {
	o := options{log: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(&o)
	}

	return o
}

// File is a decoded car file.
type File struct {
	// Name is the file name the data was read from.
	Name string
	// Root holds the attributes of the root section.
	Root *tree.Map
	// Trailing holds entries found after the root section was complete.
	Trailing *tree.Map
}

// Data returns the whole file as one map: the file name under PathKey, the
// root section under RootName, then any trailing entries.
func (f *File) Data() *tree.Map {
	m := tree.NewMap()
	m.Set(PathKey, f.Name)
	m.Set(RootName, f.Root)

	for k, v := range f.Trailing.All() {
		m.Set(k, v)
	}

	return m
}

// Decode decodes b and returns the attributes of its root section.
func Decode(b []byte, opts ...Option) (*tree.Map, error) {
	f, err := DecodeFile("", b, opts...)
	if err != nil {
		return nil, err
	}

	return f.Root, nil
}

// DecodeFile decodes b, read from the file called name.
func DecodeFile(name string, b []byte, opts ...Option) (*File, error) {
	d := &decoder{
		buf:      b,
		opts:     newOptions(opts),
		trailing: tree.NewMap(),
	}

	root, err := d.open()
	if err != nil {
		return nil, err
	}

	if err := d.run(); err != nil {
		return nil, err
	}

	return &File{Name: name, Root: root, Trailing: d.trailing}, nil
}
