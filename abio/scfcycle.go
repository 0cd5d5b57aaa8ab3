/*
 * scfcycle.go, part of goabinit.
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

package abio

import (
	"fmt"
	"math"
	"strings"

	abinit "github.com/rmera/goabinit"
)

//ScfKind tells whether a cycle belongs to a ground-state or to a DFPT calculation.
type ScfKind int

const (
	GroundState ScfKind = iota
	DFPT
)

//The header lines that start each kind of cycle.
const (
	gsMagic   = "iter   Etot(hartree)"
	d2deMagic = "iter   2DEtotal(Ha)"
)

func (K ScfKind) magic() string {
	if K == DFPT {
		return d2deMagic
	}
	return gsMagic
}

func (K ScfKind) String() string {
	if K == DFPT {
		return "DFPT"
	}
	return "GS"
}

//ScfCycle contains the values printed by ABINIT at each iteration of
//a self-consistent cycle. Fields are the names in the header (e.g. iter, Etot(hartree),
//deltaE(h), residm, vres2) and Values has one column (slice) per field.
type ScfCycle struct {
	Kind   ScfKind
	Fields []string
	Values [][]float64
}

//Len returns the number of iterations in the cycle
func (S *ScfCycle) Len() int {
	if len(S.Values) == 0 {
		return 0
	}
	return len(S.Values[0])
}

//Column returns the values of the field name for all iterations.
func (S *ScfCycle) Column(name string) ([]float64, error) {
	for i, v := range S.Fields {
		if v == name {
			return S.Values[i], nil
		}
	}
	return nil, fmt.Errorf("abio: field %s not in SCF cycle (fields: %v)", name, S.Fields)
}

//Last returns the value of the second field (the energy) at the last iteration,
//or NaN if the cycle is empty.
func (S *ScfCycle) Last() float64 {
	if S.Len() == 0 || len(S.Fields) < 2 {
		return math.NaN()
	}
	return S.Values[1][S.Len()-1]
}

func (S *ScfCycle) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s SCF cycle, %d iterations\n", S.Kind, S.Len())
	for _, v := range S.Fields {
		fmt.Fprintf(&b, "%16s", v)
	}
	b.WriteString("\n")
	for i := 0; i < S.Len(); i++ {
		for j := range S.Fields {
			fmt.Fprintf(&b, "%16.8g", S.Values[j][i])
		}
		b.WriteString("\n")
	}
	return b.String()
}

//readScfCycle reads the next cycle of the given kind from L. Returns nil, nil
//if there are no more cycles.
func readScfCycle(L *lineReader, kind ScfKind) (*ScfCycle, error) {
	magic := kind.magic()
	var S *ScfCycle
	for L.Scan() {
		line := strings.TrimSpace(L.Text())
		if S == nil {
			if strings.HasPrefix(line, magic) {
				S = &ScfCycle{Kind: kind, Fields: strings.Fields(line)}
				S.Values = make([][]float64, len(S.Fields))
			}
			continue
		}
		//the section ends with an empty line, or anything that is not an iteration.
		fields := strings.Fields(line)
		if len(fields) == 0 || !strings.HasSuffix(fields[0], "ETOT") {
			break
		}
		tokens := fields[1:]
		if len(tokens) != len(S.Fields) {
			return nil, Error{fmt.Sprintf("%s: expected %d, got %d", WrongColumns, len(S.Fields), len(tokens)), L.filename, L.lineno, []string{"readScfCycle"}, true}
		}
		for i, v := range tokens {
			f, err := abinit.ParseFortranFloat(v)
			if err != nil {
				return nil, Error{fmt.Sprintf("%s %q", UnparsableData, v), L.filename, L.lineno, []string{"readScfCycle"}, true}
			}
			S.Values[i] = append(S.Values[i], f)
		}
	}
	if err := L.Err(); err != nil {
		return nil, Error{err.Error(), L.filename, L.lineno, []string{"readScfCycle"}, true}
	}
	return S, nil
}
