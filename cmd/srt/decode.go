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

package main

import (
	"bytes"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mys721tx/srtools-go/pkg/capture"
	"github.com/mys721tx/srtools-go/pkg/carfile"
	"github.com/mys721tx/srtools-go/pkg/jbeam"
)

func init() {
	rootCmd.AddCommand(carCmd)
	rootCmd.AddCommand(jbeamCmd)
}

var carCmd = &cobra.Command{
	Use:   "car FILE",
	Short: "Decode a .car file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := capture.ReadFile(args[0])
		if err != nil {
			return err
		}

		opts := []carfile.Option{carfile.WithLogger(logger)}
		if lenient {
			opts = append(opts, carfile.WithLenient())
		}

		f, err := carfile.DecodeFile(filepath.Base(args[0]), b, opts...)
		if err != nil {
			return err
		}

		return render(f.Data())
	},
}

var jbeamCmd = &cobra.Command{
	Use:   "jbeam FILE",
	Short: "Parse a JBeam file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := capture.ReadFile(args[0])
		if err != nil {
			return err
		}

		opts := []jbeam.Option{jbeam.WithLogger(logger)}
		if lenient {
			opts = append(opts, jbeam.WithPermissiveClose())
		}

		v, err := jbeam.ParseReader(bytes.NewReader(b), opts...)
		if err != nil {
			return err
		}

		return render(v)
	},
}
