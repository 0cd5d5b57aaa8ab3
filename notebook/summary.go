/*
 * summary.go, part of goabinit.
 *
 *
 * Copyright 2024 Raul Mera <rmeraatusachdotcl>
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

package notebook

import (
	"fmt"
	"os"
	"strings"

	abinit "github.com/rmera/goabinit"
	"github.com/rmera/goabinit/abio"
	"github.com/rmera/goabinit/ddb"
	"github.com/rmera/goabinit/fatbands"
)

//Summary returns a short description of the ABINIT file in path. Files that can't be
//opened get a line with the error.
func Summary(path string) string {
	kind := abinit.FileKindOf(path)
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Sprintf("%s: %v", path, err)
	}
	head := fmt.Sprintf("%s (%s, %d bytes)\n", path, kind, info.Size())
	var body string
	switch kind {
	case abinit.AbinitOutputFile, abinit.LogFile:
		body, err = outputSummary(path)
	case abinit.DDBFile:
		var d *ddb.DDB
		if d, err = ddb.Read(path); err == nil {
			body = d.String() + "\n" + d.Description()
		}
	case abinit.FatbandsFile:
		var f *fatbands.File
		if f, err = fatbands.Open(path); err == nil {
			body = f.String()
			f.Close()
		}
	case abinit.AbinitInputFile:
		var data []byte
		if data, err = os.ReadFile(path); err == nil {
			body = fmt.Sprintf("%d lines", strings.Count(string(data), "\n"))
		}
	default:
		body = "no summary for this kind of file"
	}
	if err != nil {
		body = "error: " + err.Error()
	}
	return head + strings.TrimRight(body, "\n") + "\n"
}

func outputSummary(path string) (string, error) {
	abo, err := abio.Open(path)
	if err != nil {
		return "", err
	}
	defer abo.Close()
	var b strings.Builder
	for _, k := range []abio.ScfKind{abio.GroundState, abio.DFPT} {
		cycles, err := abo.ScfCycles(k)
		if err != nil {
			return "", err
		}
		if len(cycles) > 0 {
			fmt.Fprintf(&b, "%d %s SCF cycles, last energy %.10f\n", len(cycles), k, cycles[len(cycles)-1].Last())
		}
	}
	R, err := abo.Events()
	if err != nil {
		return "", err
	}
	b.WriteString(R.String() + "\n")
	if T, err := abo.Timer(); err == nil {
		fmt.Fprintf(&b, "cpu time %.1f s, wall time %.1f s\n", T.CPUTime, T.WallTime)
	}
	return b.String(), nil
}
