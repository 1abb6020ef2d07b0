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

/*
srt converts the data Automation exports for BeamNG.drive into plain JSON or
YAML trees.

The car and jbeam commands decode a single .car or .jbeam file. The curves
command reads the engine curves of a variant from the sandbox database, by
UID or by family and variant name. The engine command gathers the car file,
the engine JBeam and the sandbox data of an exported car.

The capture commands pack a file into a compressed and checksummed capture
and restore it. Every command that reads a file accepts captures as well.

Usage:

	srt car FILE
	srt jbeam FILE
	srt curves UID | --family F --variant V
	srt engine NAME
	srt capture pack IN [-o OUT] [--codec lz4|zstd|s2|none]
	srt capture unpack IN [-o OUT]

Global flags select the config file (--config), the output format
(--output json|yaml), colorized JSON (--color), lenient decoding (--lenient)
and debug logging (--verbose).
*/
package main
