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
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mys721tx/srtools-go/pkg/capture"
)

// ext is the extension of capture files.
const ext = ".srtc"

var (
	outFile   string
	codecFlag string
)

func init() {
	captureCmd.PersistentFlags().StringVarP(&outFile, "out", "o", "", "Output file")
	packCmd.Flags().StringVar(&codecFlag, "codec", capture.CodecLZ4.String(), "Codec: lz4, zstd, s2 or none")

	captureCmd.AddCommand(packCmd)
	captureCmd.AddCommand(unpackCmd)
	rootCmd.AddCommand(captureCmd)
}

var captureCmd = &cobra.Command{
	Use:   "capture",
	Short: "Pack and unpack captured game files",
}

// split strips the capture extension from fn. A name without it gets ".raw"
// appended so that unpacking never overwrites its input.
func split(fn string) string {
	if b, ok := strings.CutSuffix(fn, ext); ok && b != "" {
		return b
	}

	return fn + ".raw"
}

var packCmd = &cobra.Command{
	Use:   "pack IN",
	Short: "Compress a file into a capture",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := capture.ParseCodec(codecFlag)
		if err != nil {
			return err
		}

		raw, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}

		out := outFile
		if out == "" {
			out = args[0] + ext
		}

		return create(out, func(w io.Writer) error {
			return capture.Pack(w, raw, c)
		})
	},
}

var unpackCmd = &cobra.Command{
	Use:   "unpack IN",
	Short: "Restore the file held in a capture",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		raw, err := capture.Unpack(f)
		if err != nil {
			return fmt.Errorf("%s: %w", args[0], err)
		}

		out := outFile
		if out == "" {
			out = split(args[0])
		}

		return create(out, func(w io.Writer) error {
			_, err := w.Write(raw)
			return err
		})
	},
}

// create writes the file called name with write and logs where it went.
func create(name string, write func(io.Writer) error) (err error) {
	f, err := os.Create(name)
	if err != nil {
		return err
	}

	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	if err = write(f); err != nil {
		return err
	}

	logger.Info("wrote file", "path", name)

	return nil
}
