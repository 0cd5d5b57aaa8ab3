/*
 * ucells.go, part of goabinit.
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

package abinit

import (
	"fmt"
	"math"
	"sort"
)

type ucell struct {
	lattice func() [3][3]float64
	sites   []*Site
	path    KPath
}

func fcc(a float64) func() [3][3]float64 {
	return func() [3][3]float64 {
		h := a / 2
		return [3][3]float64{{0, h, h}, {h, 0, h}, {h, h, 0}}
	}
}

func hexagonal(a, c float64) func() [3][3]float64 {
	return func() [3][3]float64 {
		return [3][3]float64{{a, 0, 0}, {-a / 2, a * math.Sqrt(3) / 2, 0}, {0, 0, c}}
	}
}

//The unit cells of the ABINIT tutorials and of the reference files. Lattice parameters in Bohr.
var ucells = map[string]ucell{
	"AlAs": {fcc(10.61), []*Site{{Symbol: "Al"}, {Symbol: "As", Xred: [3]float64{0.25, 0.25, 0.25}}}, FCCPath},
	"GaAs": {fcc(10.68), []*Site{{Symbol: "Ga"}, {Symbol: "As", Xred: [3]float64{0.25, 0.25, 0.25}}}, FCCPath},
	"Si":   {fcc(10.217), []*Site{{Symbol: "Si"}, {Symbol: "Si", Xred: [3]float64{0.25, 0.25, 0.25}}}, FCCPath},
	"Al":   {fcc(7.60), []*Site{{Symbol: "Al"}}, FCCPath},
	"MgB2": {hexagonal(3.086*A2Bohr, 3.524*A2Bohr), []*Site{
		{Symbol: "Mg"},
		{Symbol: "B", Xred: [3]float64{1.0 / 3, 2.0 / 3, 0.5}},
		{Symbol: "B", Xred: [3]float64{2.0 / 3, 1.0 / 3, 0.5}},
	}, HexPath},
}

//Ucells returns the names of the unit cells known to StructureFromUcell
func Ucells() []string {
	ret := make([]string, 0, len(ucells))
	for k := range ucells {
		ret = append(ret, k)
	}
	sort.Strings(ret)
	return ret
}

//StructureFromUcell returns one of the structures used in the ABINIT tutorials, with
//its suggested k-path.
func StructureFromUcell(name string) (*Structure, error) {
	u, ok := ucells[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s, choose among %v", ErrUnknownUcell, name, Ucells())
	}
	S, err := NewStructure(name, u.lattice(), u.sites)
	if err != nil {
		return nil, err
	}
	S.Path = append(KPath(nil), u.path...)
	return S, nil
}
