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
	"errors"

	"github.com/spf13/cobra"

	"github.com/mys721tx/srtools-go/pkg/automation"
	"github.com/mys721tx/srtools-go/pkg/carfile"
	"github.com/mys721tx/srtools-go/pkg/jbeam"
	"github.com/mys721tx/srtools-go/pkg/sandbox"
)

var (
	familyFlag  string
	variantFlag string
	dbFlag      string
)

func init() {
	curvesCmd.Flags().StringVar(&familyFlag, "family", "", "Engine family name")
	curvesCmd.Flags().StringVar(&variantFlag, "variant", "", "Engine variant name")
	curvesCmd.Flags().StringVar(&dbFlag, "db", "", "Sandbox database (default from config)")

	rootCmd.AddCommand(curvesCmd)
	rootCmd.AddCommand(engineCmd)
}

var curvesCmd = &cobra.Command{
	Use:   "curves [UID]",
	Short: "Print the engine curves of a sandbox variant",
	Long:  "Print the engine curves of the variant UID, or of the variant named by --family and --variant.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 && (familyFlag == "" || variantFlag == "") {
			return errors.New("either a UID or both --family and --variant are required")
		}

		path := dbFlag
		if path == "" {
			path = cfg.SandboxPath()
		}

		db, err := sandbox.Open(path, sandbox.WithLogger(logger))
		if err != nil {
			return err
		}
		defer db.Close()

		var uid string
		if len(args) == 1 {
			uid = args[0]
		} else if uid, err = db.EngineUID(cmd.Context(), familyFlag, variantFlag); err != nil {
			return err
		}

		c, err := db.EngineCurves(cmd.Context(), uid)
		if err != nil {
			return err
		}

		return render(c.Map())
	},
}

var engineCmd = &cobra.Command{
	Use:   "engine NAME",
	Short: "Gather the car file, engine JBeam and sandbox data of an export",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := []automation.Option{automation.WithLogger(logger)}
		if lenient {
			opts = append(opts,
				automation.WithCarOptions(carfile.WithLenient()),
				automation.WithJBeamOptions(jbeam.WithPermissiveClose()),
			)
		}

		e, err := automation.LoadExport(cmd.Context(), cfg, args[0], opts...)
		if err != nil {
			return err
		}

		return render(e.Data())
	},
}
