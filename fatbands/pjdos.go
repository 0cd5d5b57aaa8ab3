/*
 * pjdos.go, part of goabinit.
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
	"fmt"
	"math"

	"github.com/rmera/goabinit/edos"
)

//PJDOS contains the L-projected densities of states, per atom species. Energies in eV.
type PJDOS struct {
	Mesh   edos.Mesh
	Fermi  float64
	Types  []string
	Width  float64
	Nsppol int
	//Data[type][l][spin]
	Data [][][]*edos.Data
	//Total[spin] is the total DOS.
	Total []*edos.Data
}

//PJDOS computes the L-projected DOS of each atom species, broadening each state with a gaussian of
//the given width (standard deviation), on a mesh with the given step. Both in eV.
//The file must have been computed on a k-mesh, and with prtdos 3.
func (F *File) PJDOS(width, step float64) (*PJDOS, error) {
	if F.closed {
		return nil, ErrClosed
	}
	if !F.HasProjections() {
		return nil, ErrNoProjections
	}
	if !F.IsKmesh() {
		return nil, fmt.Errorf("%w: %s", ErrNotKmesh, F.Path)
	}
	emin, emax := math.Inf(1), math.Inf(-1)
	for _, s := range F.Eigens {
		for _, k := range s {
			for _, e := range k {
				emin = math.Min(emin, e)
				emax = math.Max(emax, e)
			}
		}
	}
	mesh, err := edos.NewMesh(emin-6*width, emax+6*width, step)
	if err != nil {
		return nil, err
	}
	P := &PJDOS{Mesh: mesh, Fermi: F.Fermi, Types: F.Structure.Species(), Width: width, Nsppol: F.Nsppol}
	nstates := F.Nkpt * F.Mband
	energies := make([][]float64, F.Nsppol) //[spin][band*nkpt+k]
	for s := range energies {
		energies[s] = make([]float64, 0, nstates)
		for b := 0; b < F.Mband; b++ {
			for k := 0; k < F.Nkpt; k++ {
				energies[s] = append(energies[s], F.Eigens[s][k][b])
			}
		}
	}
	weights := make([]float64, nstates)
	P.Total = make([]*edos.Data, F.Nsppol)
	for s := range P.Total {
		for b := 0; b < F.Mband; b++ {
			copy(weights[b*F.Nkpt:], F.Weights)
		}
		if P.Total[s], err = edos.Gaussian(mesh, energies[s], weights, width); err != nil {
			return nil, err
		}
	}
	P.Data = make([][][]*edos.Data, len(P.Types))
	for t, sym := range P.Types {
		P.Data[t] = make([][]*edos.Data, F.Mbesslang)
		for l := range P.Data[t] {
			wl, err := F.WL(sym, l)
			if err != nil {
				return nil, err
			}
			P.Data[t][l] = make([]*edos.Data, F.Nsppol)
			for s := range P.Data[t][l] {
				for b := 0; b < F.Mband; b++ {
					for k := 0; k < F.Nkpt; k++ {
						weights[b*F.Nkpt+k] = wl[s][b][k] * F.Weights[k]
					}
				}
				if P.Data[t][l][s], err = edos.Gaussian(mesh, energies[s], weights, width); err != nil {
					return nil, err
				}
			}
		}
	}
	return P, nil
}

//TypeSum returns the DOS projected on species t, summed over all angular momenta, for spin s.
func (P *PJDOS) TypeSum(t, s int) *edos.Data {
	ret := edos.NewData(P.Mesh, nil)
	for _, l := range P.Data[t] {
		ret.Add(ret, l[s])
	}
	return ret
}

//LSum returns the DOS projected on angular momentum l, summed over all species, for spin s.
func (P *PJDOS) LSum(l, s int) *edos.Data {
	ret := edos.NewData(P.Mesh, nil)
	for _, t := range P.Data {
		ret.Add(ret, t[l][s])
	}
	return ret
}
