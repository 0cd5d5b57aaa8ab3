/*
 * merge.go, part of goabinit.
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

package ddb

import (
	"fmt"

	abinit "github.com/rmera/goabinit"
)

//MergeDDBs returns a DDB with the header of the first one and the blocks of all, without repetitions
//(the first copy of a block wins). All the DDBs must have the same number of atoms.
func MergeDDBs(description string, ddbs ...*DDB) (*DDB, error) {
	if len(ddbs) == 0 {
		return nil, fmt.Errorf("goAbinit/ddb: nothing to merge")
	}
	first := ddbs[0]
	ret := &DDB{Header: append([]string(nil), first.Header...), Natom: first.Natom}
	seen := make(map[string]bool)
	for _, d := range ddbs {
		if d.Natom != first.Natom {
			return nil, fmt.Errorf("%w: %s has %d, %s has %d", ErrNatomMismatch, first.Name, first.Natom, d.Name, d.Natom)
		}
		for _, b := range d.Blocks {
			k := b.Key()
			if seen[k] {
				continue
			}
			seen[k] = true
			ret.Blocks = append(ret.Blocks, b)
		}
	}
	if description != "" {
		ret.SetDescription(description)
	}
	return ret, nil
}

//Merge merges the DDB files in paths into the file out, and returns out. The format of each
//file (and of the output) is taken from its extension. A single input is just copied.
func Merge(out, description string, paths ...string) (string, error) {
	if len(paths) == 0 {
		return "", fmt.Errorf("goAbinit/ddb: no DDB files to merge into %s", out)
	}
	ddbs := make([]*DDB, 0, len(paths))
	for _, p := range paths {
		d, err := Read(p)
		if err != nil {
			return "", abinit.ErrDecorate(err, "ddb.Merge")
		}
		ddbs = append(ddbs, d)
	}
	merged, err := MergeDDBs(description, ddbs...)
	if err != nil {
		return "", err
	}
	merged.Name = out
	if err := merged.WriteFile(out); err != nil {
		return "", abinit.ErrDecorate(err, "ddb.Merge")
	}
	return out, nil
}
