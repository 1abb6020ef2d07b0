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

package jbeam_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mys721tx/srtools-go/pkg/jbeam"
	"github.com/mys721tx/srtools-go/pkg/tree"
)

func TestParseSingleLine(t *testing.T) {
	got, err := jbeam.ParseMap([]string{`{"a": 1, "b": [1,2,3]} // trailing comment`})
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b"}, got.Keys())

	a, err := got.Float("a")
	require.NoError(t, err)
	assert.Equal(t, 1.0, a)

	b, ok := got.Get("b")
	require.True(t, ok)
	assert.Equal(t, []any{1.0, 2.0, 3.0}, b)
}

func TestParseMultiLine(t *testing.T) {
	single, err := jbeam.Parse([]string{`{"a": 1, "b": [1,2,3]}`})
	require.NoError(t, err)

	multi, err := jbeam.Parse([]string{
		`{"a": 1,`,
		`  // the list follows`,
		`  "b": [1,2,`,
		`3]}`,
	})
	require.NoError(t, err)

	assert.True(t, tree.Equal(single, multi))
}

const engine = `{
"Camso_Engine": {
    "information":{
        "authors":"Automation",
        "name":"Camso Engine", // shown in the part menu
    },
    "slotType" : "Camso_Engine",
    "mainEngine": {
        "torque":[
            ["rpm", "torque"],
            [0, 0],
            [1000, 152.5],
        ],
        "idleRPM":850,
        "inertia":0.18,
        "friction":11.2,
        "dynamicFriction":0.0231,
        "hasRevLimiter":TRUE,
        "requiredEnergyType":"gasoline",
        "burnEfficiency":[
            [0, 0.15]
            [1, 0.34]
        ],
        "instantAfterFireSound":false
        "reversed":-1.5
    },
}
}`

func TestParseEngine(t *testing.T) {
	got, err := jbeam.ParseReader(strings.NewReader(engine))
	require.NoError(t, err)

	root, ok := got.(*tree.Map)
	require.True(t, ok)

	main, err := root.Sub("Camso_Engine", "mainEngine")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"torque", "idleRPM", "inertia", "friction", "dynamicFriction", "hasRevLimiter",
		"requiredEnergyType", "burnEfficiency", "instantAfterFireSound", "reversed",
	}, main.Keys())

	inertia, err := main.Float("inertia")
	require.NoError(t, err)
	assert.Equal(t, 0.18, inertia)

	limiter, err := main.Bool("hasRevLimiter")
	require.NoError(t, err)
	assert.True(t, limiter)

	afterFire, err := main.Bool("instantAfterFireSound")
	require.NoError(t, err)
	assert.False(t, afterFire)

	reversed, err := main.Float("reversed")
	require.NoError(t, err)
	assert.Equal(t, -1.5, reversed)

	torque, ok := main.Get("torque")
	require.True(t, ok)
	assert.Equal(t, []any{
		[]any{"rpm", "torque"},
		[]any{0.0, 0.0},
		[]any{1000.0, 152.5},
	}, torque)

	name, err := root.String("Camso_Engine", "information", "name")
	require.NoError(t, err)
	assert.Equal(t, "Camso Engine", name)
}

func TestParseCommentInsideString(t *testing.T) {
	got, err := jbeam.ParseMap([]string{`{"url": "http://example.com", "n": 2} // end`})
	require.NoError(t, err)

	url, err := got.String("url")
	require.NoError(t, err)
	assert.Equal(t, "http://example.com", url)
}

func TestParseColonOnNextLine(t *testing.T) {
	got, err := jbeam.ParseMap([]string{`{"a"`, `: 3}`})
	require.NoError(t, err)

	a, err := got.Float("a")
	require.NoError(t, err)
	assert.Equal(t, 3.0, a)
}

func TestParseListRoot(t *testing.T) {
	got, err := jbeam.Parse([]string{`[{"a": []}, [], "x", true]`})
	require.NoError(t, err)

	l, ok := got.([]any)
	require.True(t, ok)
	require.Len(t, l, 4)

	first, ok := l[0].(*tree.Map)
	require.True(t, ok)

	a, ok := first.Get("a")
	require.True(t, ok)
	assert.Equal(t, []any{}, a)
	assert.Equal(t, []any{}, l[1])
	assert.Equal(t, "x", l[2])
	assert.Equal(t, true, l[3])

	_, err = jbeam.ParseMap([]string{`[1]`})
	assert.True(t, errors.Is(err, jbeam.ErrNotMap))
}

func TestParseBooleans(t *testing.T) {
	got, err := jbeam.Parse([]string{`[true, True, TRUE, false, False, fAlSe]`})
	require.NoError(t, err)
	assert.Equal(t, []any{true, true, true, false, false, false}, got)
}

func TestParseDuplicateKeys(t *testing.T) {
	got, err := jbeam.ParseMap([]string{`{"a": 1, "b": 2, "a": {"c": 3}}`})
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b"}, got.Keys())

	c, err := got.Float("a", "c")
	require.NoError(t, err)
	assert.Equal(t, 3.0, c)
}

func TestParseIdempotent(t *testing.T) {
	lines := strings.Split(engine, "\n")

	first, err := jbeam.Parse(lines)
	require.NoError(t, err)

	second, err := jbeam.Parse(lines)
	require.NoError(t, err)

	assert.True(t, tree.Equal(first, second))
}

func TestParseByteOrderMark(t *testing.T) {
	got, err := jbeam.ParseMap([]string{"\ufeff{\"a\": 1}"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, got.Keys())
}

func TestParseSyntaxErrors(t *testing.T) {
	tests := []struct {
		name   string
		lines  []string
		line   int
		column int
	}{
		{
			name:   "unquoted name",
			lines:  []string{`{a: 1}`},
			line:   1,
			column: 2,
		},
		{
			name:   "missing colon",
			lines:  []string{`{"a" 1}`},
			line:   1,
			column: 6,
		},
		{
			name:   "unexpected character",
			lines:  []string{`{`, `  "a": @}`},
			line:   2,
			column: 8,
		},
		{
			name:   "two decimal points",
			lines:  []string{`[1.2.3]`},
			line:   1,
			column: 5,
		},
		{
			name:   "lone minus",
			lines:  []string{`[-]`},
			line:   1,
			column: 2,
		},
		{
			name:   "boolean prefix",
			lines:  []string{`[trueish]`},
			line:   1,
			column: 2,
		},
		{
			name:   "unterminated string",
			lines:  []string{`{"a": "abc}`},
			line:   1,
			column: 7,
		},
		{
			name:   "mismatched close",
			lines:  []string{`{"a": [1, 2}}`},
			line:   1,
			column: 12,
		},
		{
			name:   "missing value",
			lines:  []string{`{"a": }`},
			line:   1,
			column: 7,
		},
		{
			name:   "unmatched close",
			lines:  []string{`]`},
			line:   1,
			column: 1,
		},
		{
			name:   "scalar at top level",
			lines:  []string{`"a"`},
			line:   1,
			column: 1,
		},
		{
			name:   "content after root",
			lines:  []string{`{}`, `{}`},
			line:   2,
			column: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := jbeam.Parse(tt.lines)
			assert.Nil(t, got)
			require.Error(t, err)
			assert.True(t, errors.Is(err, jbeam.ErrSyntax), "got %v", err)

			var se *jbeam.SyntaxError
			require.True(t, errors.As(err, &se))
			assert.Equal(t, tt.line, se.Line)
			assert.Equal(t, tt.column, se.Column)
		})
	}
}

func TestParsePermissiveClose(t *testing.T) {
	got, err := jbeam.ParseMap([]string{`{"a": [1, 2}, "b": {"c": 1]]`}, jbeam.WithPermissiveClose())
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b"}, got.Keys())

	a, ok := got.Get("a")
	require.True(t, ok)
	assert.Equal(t, []any{1.0, 2.0}, a)
}

func TestParseUnterminated(t *testing.T) {
	_, err := jbeam.Parse([]string{`{"a": {`, `"b": [1,`, `2]`})
	require.Error(t, err)
	assert.True(t, errors.Is(err, jbeam.ErrUnterminated))

	var ue *jbeam.UnterminatedError
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, 2, ue.Depth)
	assert.Equal(t, 1, ue.Line)
	assert.Equal(t, 7, ue.Column)
}

func TestParseEmpty(t *testing.T) {
	for _, lines := range [][]string{nil, {""}, {"  // nothing here", "\t"}} {
		_, err := jbeam.Parse(lines)
		assert.True(t, errors.Is(err, jbeam.ErrEmpty))
	}
}
