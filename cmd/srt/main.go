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
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	prettyjson "github.com/hokaccha/go-prettyjson"
	"github.com/mattn/go-colorable"
	"github.com/spf13/cobra"
	yaml "gopkg.in/yaml.v2"

	"github.com/mys721tx/srtools-go/pkg/config"
)

var (
	outWriter io.Writer = os.Stdout
	errWriter io.Writer = os.Stderr

	colorableOut io.Writer = colorable.NewColorableStdout()
)

var (
	cfgFile      string
	verbose      bool
	outputFormat string
	colorOutput  bool
	lenient      bool
)

var (
	cfg    *config.Config
	logger = slog.New(slog.DiscardHandler)
)

var rootCmd = &cobra.Command{
	Use:           "srt",
	Short:         "Sim racing data conversion tools for Automation exports",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		outWriter = cmd.OutOrStdout()
		errWriter = cmd.ErrOrStderr()

		if outWriter != os.Stdout {
			colorableOut = outWriter
		}

		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}

		logger = slog.New(slog.NewTextHandler(errWriter, &slog.HandlerOptions{Level: level}))

		if outputFormat != "json" && outputFormat != "yaml" {
			return fmt.Errorf("unknown output format %q, want json or yaml", outputFormat)
		}

		var err error
		if cfg, err = config.Load(cfgFile); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.srt/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log decoder details to stderr")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "output", "json", "Output format: json or yaml")
	rootCmd.PersistentFlags().BoolVar(&colorOutput, "color", false, "Colorize JSON output (keys are sorted)")
	rootCmd.PersistentFlags().BoolVar(&lenient, "lenient", false, "Skip unknown car file tags and accept any closing bracket in JBeam")
}

// render writes v to the output in the selected format.
func render(v any) error {
	if outputFormat == "yaml" {
		b, err := yaml.Marshal(v)
		if err != nil {
			return err
		}

		_, err = outWriter.Write(b)

		return err
	}

	if colorOutput {
		b, err := prettyjson.Marshal(v)
		if err != nil {
			return err
		}

		_, err = fmt.Fprintln(colorableOut, string(b))

		return err
	}

	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(outWriter, string(b))

	return err
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(errWriter, err)
		os.Exit(1)
	}
}
