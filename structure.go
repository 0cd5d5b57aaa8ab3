/*
 * structure.go, part of goabinit.
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
	"strings"

	"gonum.org/v1/gonum/mat"
)

//Site is an atom in a periodic structure. Only the element and the
//reduced coordinates are kept, everything else is derived from those.
type Site struct {
	Symbol string
	Z      int
	Xred   [3]float64
}

//Copy returns a copy of the Site.
func (S *Site) Copy() *Site {
	r := *S
	return &r
}

//Structure is a crystal structure: lattice vectors plus sites.
//The lattice is a 3x3 matrix in Bohr, each row is one lattice vector.
type Structure struct {
	Name    string
	Lattice *mat.Dense
	Sites   []*Site
	//Path is the high-symmetry k-path suggested for this lattice, it can be nil.
	Path KPath
}

//NewStructure returns a Structure with the given lattice vectors (rows, in Bohr)
//and sites. It fills the atomic numbers of the sites and checks that the lattice
//is not singular.
func NewStructure(name string, lattice [3][3]float64, sites []*Site) (*Structure, error) {
	data := make([]float64, 0, 9)
	for _, v := range lattice {
		data = append(data, v[:]...)
	}
	L := mat.NewDense(3, 3, data)
	if math.Abs(mat.Det(L)) < 1e-10 {
		return nil, ErrBadLattice
	}
	S := &Structure{Name: name, Lattice: L, Sites: make([]*Site, 0, len(sites))}
	for _, v := range sites {
		s := v.Copy()
		z, err := AtomicNumber(s.Symbol)
		if err != nil {
			return nil, err
		}
		s.Symbol = normSymbol(s.Symbol)
		s.Z = z
		S.Sites = append(S.Sites, s)
	}
	return S, nil
}

//Len returns the number of sites, same as Natom.
func (S *Structure) Len() int {
	return len(S.Sites)
}

//Natom returns the number of atoms in the unit cell.
func (S *Structure) Natom() int {
	return len(S.Sites)
}

//Species returns the element symbols of the structure, in order of first appearance.
//This is the order used for ABINIT's typat and znucl.
func (S *Structure) Species() []string {
	ret := make([]string, 0, 2)
	for _, v := range S.Sites {
		if !isInString(ret, v.Symbol) {
			ret = append(ret, v.Symbol)
		}
	}
	return ret
}

//Ntypat returns the number of different species.
func (S *Structure) Ntypat() int {
	return len(S.Species())
}

//Typat returns the (1-based) type of each atom.
func (S *Structure) Typat() []int {
	sp := S.Species()
	ret := make([]int, len(S.Sites))
	for i, v := range S.Sites {
		for j, w := range sp {
			if v.Symbol == w {
				ret[i] = j + 1
				break
			}
		}
	}
	return ret
}

//Znucl returns the atomic number of each species.
func (S *Structure) Znucl() []int {
	sp := S.Species()
	ret := make([]int, len(sp))
	for i, v := range sp {
		ret[i] = symbolZ[v]
	}
	return ret
}

//Volume returns the volume of the unit cell in Bohr^3
func (S *Structure) Volume() float64 {
	return math.Abs(mat.Det(S.Lattice))
}

//Reciprocal returns the reciprocal lattice (with the 2pi factor), one vector per row, in Bohr^-1.
func (S *Structure) Reciprocal() *mat.Dense {
	inv := mat.NewDense(3, 3, nil)
	if err := inv.Inverse(S.Lattice); err != nil {
		panic("goAbinit: singular lattice in a Structure") //NewStructure checks for this.
	}
	ret := mat.NewDense(3, 3, nil)
	ret.Scale(2*math.Pi, inv.T())
	return ret
}

//CartCoords returns the cartesian coordinates of the sites, in Bohr, one atom per row.
func (S *Structure) CartCoords() *mat.Dense {
	xred := mat.NewDense(len(S.Sites), 3, nil)
	for i, v := range S.Sites {
		xred.SetRow(i, v.Xred[:])
	}
	ret := mat.NewDense(len(S.Sites), 3, nil)
	ret.Mul(xred, S.Lattice)
	return ret
}

//KCart converts a k-point in reduced coordinates to cartesian coordinates (Bohr^-1).
func (S *Structure) KCart(kred [3]float64) [3]float64 {
	G := S.Reciprocal()
	var ret [3]float64
	for j := 0; j < 3; j++ {
		for i := 0; i < 3; i++ {
			ret[j] += kred[i] * G.At(i, j)
		}
	}
	return ret
}

//Abivars returns the variables that define the structure in an ABINIT input.
//acell is set to 1 so rprim carries the lattice vectors in Bohr.
func (S *Structure) Abivars() map[string]any {
	rprim := make([][]float64, 3)
	for i := range rprim {
		rprim[i] = mat.Row(nil, i, S.Lattice)
	}
	xred := make([][]float64, len(S.Sites))
	for i, v := range S.Sites {
		xred[i] = []float64{v.Xred[0], v.Xred[1], v.Xred[2]}
	}
	return map[string]any{
		"acell":  []float64{1, 1, 1},
		"rprim":  rprim,
		"natom":  S.Natom(),
		"ntypat": S.Ntypat(),
		"typat":  S.Typat(),
		"znucl":  S.Znucl(),
		"xred":   xred,
	}
}

func (S *Structure) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Structure %s (%d atoms, volume %.4f Bohr^3)\n", S.Name, S.Natom(), S.Volume())
	for i := 0; i < 3; i++ {
		fmt.Fprintf(&b, "  a%d: %12.6f %12.6f %12.6f\n", i+1, S.Lattice.At(i, 0), S.Lattice.At(i, 1), S.Lattice.At(i, 2))
	}
	for _, v := range S.Sites {
		fmt.Fprintf(&b, "  %-2s %10.6f %10.6f %10.6f\n", v.Symbol, v.Xred[0], v.Xred[1], v.Xred[2])
	}
	return b.String()
}

//isInString returns true if test is in container, false otherwise.
func isInString(container []string, test string) bool {
	for _, i := range container {
		if test == i {
			return true
		}
	}
	return false
}
