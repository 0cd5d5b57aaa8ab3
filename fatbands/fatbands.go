/*
 * fatbands.go, part of goabinit.
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

package fatbands

import (
	"errors"
	"fmt"
	"math"
	"strings"

	abinit "github.com/rmera/goabinit"
	"gonum.org/v1/gonum/floats"
)

var (
	//ErrNotKmesh is returned when a DOS is requested from a file computed on a k-path.
	ErrNotKmesh = errors.New("goAbinit/fatbands: the k-points are not a mesh, DOS can't be computed")
	//ErrNoProjections is returned when the file has no L projections (prtdos != 3).
	ErrNoProjections = errors.New("goAbinit/fatbands: no L projections in file (prtdos must be 3)")
	ErrClosed        = errors.New("goAbinit/fatbands: file is closed")
)

//LNames are the labels of the angular momenta.
var LNames = []string{"s", "p", "d", "f", "g"}

//File contains the data in a FATBANDS.nc file. Energies are in eV.
type File struct {
	Path      string
	Structure *abinit.Structure
	Prtdos    int
	//Kptopt is the option used to generate the k-points. Negative for a path. 0 if
	//the file doesn't say.
	Kptopt    int
	Nsppol    int
	Nkpt      int
	Mband     int
	Mbesslang int //number of angular momenta in the projections.
	Fermi     float64
	//Eigens[spin][k][band]
	Eigens  [][][]float64
	Kpoints [][3]float64
	Weights []float64
	//WAL[atom][l][spin][band][k] is the weight of the state band, k, spin in the sphere of
	//atom, for angular momentum l. Nil if the file has no projections.
	WAL [][][][][]float64

	r      Reader
	closed bool
}

//Open reads the FATBANDS.nc file in path.
func Open(path string) (*File, error) {
	r, err := NewNCReader(path)
	if err != nil {
		return nil, abinit.NewFileError("can't open FATBANDS file", path, "fatbands.Open", true, err)
	}
	F, err := Read(r, path)
	if err != nil {
		r.Close()
		return nil, abinit.ErrDecorate(err, "fatbands.Open")
	}
	return F, nil
}

func need(r Reader, name string, path string, shape ...int) ([]float64, []int, error) {
	v, s, err := r.Floats(name)
	if err != nil {
		return nil, nil, abinit.NewFileError("missing variable "+name, path, "fatbands.Read", true, err)
	}
	if len(shape) > 0 {
		if len(s) != len(shape) {
			return nil, nil, abinit.NewFileError(fmt.Sprintf("variable %s has %d dimensions, expected %d", name, len(s), len(shape)), path, "fatbands.Read", true, nil)
		}
		for i, n := range shape {
			if n >= 0 && s[i] != n {
				return nil, nil, abinit.NewFileError(fmt.Sprintf("variable %s has shape %v", name, s), path, "fatbands.Read", true, nil)
			}
		}
	}
	return v, s, nil
}

//Read builds a File from the data in r. path is only used as the name of the file.
//The File keeps r and closes it in File.Close.
func Read(r Reader, path string) (*File, error) {
	F := &File{Path: path, r: r}
	eig, shape, err := need(r, "eigenvalues", path, -1, -1, -1)
	if err != nil {
		return nil, err
	}
	F.Nsppol, F.Nkpt, F.Mband = shape[0], shape[1], shape[2]
	F.Eigens = make([][][]float64, F.Nsppol)
	for s := range F.Eigens {
		F.Eigens[s] = make([][]float64, F.Nkpt)
		for k := range F.Eigens[s] {
			F.Eigens[s][k] = make([]float64, F.Mband)
			for b := range F.Eigens[s][k] {
				F.Eigens[s][k][b] = eig[(s*F.Nkpt+k)*F.Mband+b] * abinit.Ha2eV
			}
		}
	}
	fermi, _, err := need(r, "fermi_energy", path)
	if err != nil {
		return nil, err
	}
	F.Fermi = fermi[0] * abinit.Ha2eV
	kpts, _, err := need(r, "reduced_coordinates_of_kpoints", path, F.Nkpt, 3)
	if err != nil {
		return nil, err
	}
	F.Kpoints = make([][3]float64, F.Nkpt)
	for i := range F.Kpoints {
		copy(F.Kpoints[i][:], kpts[3*i:3*i+3])
	}
	if F.Weights, _, err = need(r, "kpoint_weights", path, F.Nkpt); err != nil {
		return nil, err
	}
	if F.Structure, err = readStructure(r, path); err != nil {
		return nil, err
	}
	if p, _, err := r.Floats("prtdos"); err == nil && len(p) > 0 {
		F.Prtdos = int(p[0])
	}
	if k, _, err := r.Floats("kptopt"); err == nil && len(k) > 0 {
		F.Kptopt = int(k[0])
	}
	if F.Prtdos == 3 {
		if err := F.readWAL(); err != nil {
			return nil, err
		}
	}
	return F, nil
}

func readStructure(r Reader, path string) (*abinit.Structure, error) {
	rprim, _, err := need(r, "primitive_vectors", path, 3, 3)
	if err != nil {
		return nil, err
	}
	xred, shape, err := need(r, "reduced_atom_positions", path, -1, 3)
	if err != nil {
		return nil, err
	}
	natom := shape[0]
	species, _, err := need(r, "atom_species", path, natom)
	if err != nil {
		return nil, err
	}
	znucl, _, err := need(r, "atomic_numbers", path, -1)
	if err != nil {
		return nil, err
	}
	var lattice [3][3]float64
	for i := 0; i < 3; i++ {
		copy(lattice[i][:], rprim[3*i:3*i+3])
	}
	sites := make([]*abinit.Site, natom)
	for i := range sites {
		t := int(species[i]) - 1
		if t < 0 || t >= len(znucl) {
			return nil, abinit.NewFileError(fmt.Sprintf("atom %d has species %d, only %d species", i, t+1, len(znucl)), path, "fatbands.readStructure", true, nil)
		}
		sym, err := abinit.Symbol(int(math.Round(znucl[t])))
		if err != nil {
			return nil, abinit.NewFileError("bad atomic number", path, "fatbands.readStructure", true, err)
		}
		sites[i] = &abinit.Site{Symbol: sym}
		copy(sites[i].Xred[:], xred[3*i:3*i+3])
	}
	name := strings.TrimSuffix(path, "_FATBANDS.nc")
	S, err := abinit.NewStructure(name, lattice, sites)
	if err != nil {
		return nil, abinit.NewFileError("bad structure", path, "fatbands.readStructure", true, err)
	}
	return S, nil
}

//readWAL reads the L projections. ABINIT writes either dos_fractions, with one entry
//per atom and l, or dos_fractions_m, with one entry per atom, l and m.
func (F *File) readWAL() error {
	natom := F.Structure.Natom()
	//atoms in the projection spheres, 1-based. All atoms by default.
	iatsph := make([]int, natom)
	for i := range iatsph {
		iatsph[i] = i + 1
	}
	if v, _, err := F.r.Floats("iatsph"); err == nil {
		iatsph = iatsph[:0]
		for _, w := range v {
			iatsph = append(iatsph, int(w))
		}
	}
	natsph := len(iatsph)
	withM := false
	frac, shape, err := F.r.Floats("dos_fractions")
	if err != nil {
		if frac, shape, err = F.r.Floats("dos_fractions_m"); err != nil {
			return ErrNoProjections
		}
		withM = true
	}
	if len(shape) != 4 || shape[1] != F.Nsppol || shape[2] != F.Mband || shape[3] != F.Nkpt {
		return abinit.NewFileError(fmt.Sprintf("dos_fractions with shape %v", shape), F.Path, "fatbands.readWAL", true, nil)
	}
	perAtom := shape[0] / natsph
	F.Mbesslang = perAtom
	if withM {
		F.Mbesslang = int(math.Round(math.Sqrt(float64(perAtom))))
	}
	if d, err := F.r.Dim("mbesslang"); err == nil {
		F.Mbesslang = d
	}
	F.WAL = make([][][][][]float64, natom)
	for a := range F.WAL {
		F.WAL[a] = make([][][][]float64, F.Mbesslang)
		for l := range F.WAL[a] {
			F.WAL[a][l] = make([][][]float64, F.Nsppol)
			for s := range F.WAL[a][l] {
				F.WAL[a][l][s] = make([][]float64, F.Mband)
				for b := range F.WAL[a][l][s] {
					F.WAL[a][l][s][b] = make([]float64, F.Nkpt)
				}
			}
		}
	}
	idx := func(frac, s, b, k int) int {
		return ((frac*F.Nsppol+s)*F.Mband+b)*F.Nkpt + k
	}
	for i, at := range iatsph {
		a := at - 1
		if a < 0 || a >= natom {
			return abinit.NewFileError(fmt.Sprintf("iatsph contains atom %d", at), F.Path, "fatbands.readWAL", true, nil)
		}
		for l := 0; l < F.Mbesslang; l++ {
			//the fractions for this atom and l
			first, last := i*perAtom+l, i*perAtom+l+1
			if withM {
				first, last = i*perAtom+l*l, i*perAtom+(l+1)*(l+1)
			}
			for s := 0; s < F.Nsppol; s++ {
				for b := 0; b < F.Mband; b++ {
					for k := 0; k < F.Nkpt; k++ {
						for f := first; f < last; f++ {
							F.WAL[a][l][s][b][k] += frac[idx(f, s, b, k)]
						}
					}
				}
			}
		}
	}
	return nil
}

//HasProjections returns true if the file contains the L projections.
func (F *File) HasProjections() bool {
	return F.WAL != nil
}

//IsKmesh returns true if the k-points sample the Brillouin zone, false if they are a path.
//ABINIT normalizes the weights of a path too, so kptopt decides when the file has it.
//Otherwise the k-points are a mesh if all the weights are positive and add up to 1.
func (F *File) IsKmesh() bool {
	switch {
	case F.Kptopt < 0:
		return false
	case F.Kptopt > 0:
		return true
	}
	if len(F.Weights) == 0 || floats.Min(F.Weights) <= 0 {
		return false
	}
	return math.Abs(floats.Sum(F.Weights)-1) < 1e-6
}

//TypeAtoms returns, for each species (in order of first appearance), the indexes of its atoms.
func (F *File) TypeAtoms() map[string][]int {
	ret := make(map[string][]int)
	for i, v := range F.Structure.Sites {
		ret[v.Symbol] = append(ret[v.Symbol], i)
	}
	return ret
}

//WL returns the weights of the angular momentum l for all the atoms of species sym,
//[spin][band][k].
func (F *File) WL(sym string, l int) ([][][]float64, error) {
	if !F.HasProjections() {
		return nil, ErrNoProjections
	}
	if l < 0 || l >= F.Mbesslang {
		return nil, fmt.Errorf("goAbinit/fatbands: l=%d out of range (mbesslang=%d)", l, F.Mbesslang)
	}
	atoms, ok := F.TypeAtoms()[sym]
	if !ok {
		return nil, fmt.Errorf("goAbinit/fatbands: no %s atoms in %s", sym, F.Path)
	}
	ret := make([][][]float64, F.Nsppol)
	for s := range ret {
		ret[s] = make([][]float64, F.Mband)
		for b := range ret[s] {
			ret[s][b] = make([]float64, F.Nkpt)
			for _, a := range atoms {
				for k, w := range F.WAL[a][l][s][b] {
					ret[s][b][k] += w
				}
			}
		}
	}
	return ret, nil
}

//Close closes the underlying reader. It can be called more than once.
func (F *File) Close() error {
	if F.closed {
		return nil
	}
	F.closed = true
	if F.r == nil {
		return nil
	}
	return F.r.Close()
}

func (F *File) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "FATBANDS file %s\n", F.Path)
	fmt.Fprintf(&b, "nsppol: %d, nkpt: %d, mband: %d, prtdos: %d, mbesslang: %d\n", F.Nsppol, F.Nkpt, F.Mband, F.Prtdos, F.Mbesslang)
	kind := "path"
	if F.IsKmesh() {
		kind = "mesh"
	}
	fmt.Fprintf(&b, "k-points: %s, Fermi energy: %.4f eV\n", kind, F.Fermi)
	b.WriteString(F.Structure.String())
	if F.r != nil && !F.closed {
		fmt.Fprintf(&b, "Variables: %s\n", strings.Join(F.r.Variables(), ", "))
	}
	return b.String()
}
