/*
 * fatbands_test.go, part of goabinit.
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
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	abinit "github.com/rmera/goabinit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeVar struct {
	vals  []float64
	shape []int
}

//fakeReader is a Reader that keeps its variables in memory.
type fakeReader struct {
	vars   map[string]fakeVar
	dims   map[string]int
	closed int
}

func (R *fakeReader) Floats(name string) ([]float64, []int, error) {
	v, ok := R.vars[name]
	if !ok {
		return nil, nil, ErrNoVariable
	}
	return v.vals, v.shape, nil
}

func (R *fakeReader) Dim(name string) (int, error) {
	d, ok := R.dims[name]
	if !ok {
		return 0, ErrNoVariable
	}
	return d, nil
}

func (R *fakeReader) Variables() []string {
	ret := make([]string, 0, len(R.vars))
	for k := range R.vars {
		ret = append(ret, k)
	}
	return ret
}

func (R *fakeReader) Close() error {
	R.closed++
	return nil
}

const (
	nkpt  = 4
	mband = 2
)

//Per-atom, per-l weights of the fake AlAs file.
var fakeWAL = [2][2]float64{{0.3, 0.1}, {0.2, 0.3}}

//newFake returns the data for AlAs with 4 k-points and 2 bands. If kmesh is false, the
//k-points are a path, with zero weights. withM writes the projections per m.
func newFake(kmesh bool, prtdos int, withM bool) *fakeReader {
	S, err := abinit.StructureFromUcell("AlAs")
	if err != nil {
		panic(err)
	}
	R := &fakeReader{vars: map[string]fakeVar{}, dims: map[string]int{"mbesslang": 2}}
	eig := make([]float64, 0, nkpt*mband)
	kpts := make([]float64, 0, 3*nkpt)
	weights := make([]float64, nkpt)
	for k := 0; k < nkpt; k++ {
		eig = append(eig, -0.2+0.01*float64(k), 0.1+0.02*float64(k))
		kpts = append(kpts, 0.5*float64(k)/nkpt, 0, 0.5*float64(k)/nkpt)
		if kmesh {
			weights[k] = 1.0 / nkpt
		}
	}
	R.vars["eigenvalues"] = fakeVar{eig, []int{1, nkpt, mband}}
	R.vars["fermi_energy"] = fakeVar{[]float64{0.05}, nil}
	R.vars["reduced_coordinates_of_kpoints"] = fakeVar{kpts, []int{nkpt, 3}}
	R.vars["kpoint_weights"] = fakeVar{weights, []int{nkpt}}
	var rprim []float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			rprim = append(rprim, S.Lattice.At(i, j))
		}
	}
	R.vars["primitive_vectors"] = fakeVar{rprim, []int{3, 3}}
	R.vars["reduced_atom_positions"] = fakeVar{[]float64{0, 0, 0, 0.25, 0.25, 0.25}, []int{2, 3}}
	R.vars["atom_species"] = fakeVar{[]float64{1, 2}, []int{2}}
	R.vars["atomic_numbers"] = fakeVar{[]float64{13, 33}, []int{2}}
	R.vars["prtdos"] = fakeVar{[]float64{float64(prtdos)}, nil}
	if prtdos != 3 {
		return R
	}
	//one fraction per atom and l, or per atom, l and m.
	var fracs [][]float64
	for a := 0; a < 2; a++ {
		for l := 0; l < 2; l++ {
			n := 1
			if withM {
				n = 2*l + 1
			}
			for m := 0; m < n; m++ {
				f := make([]float64, mband*nkpt)
				for i := range f {
					f[i] = fakeWAL[a][l] / float64(n)
				}
				fracs = append(fracs, f)
			}
		}
	}
	var flat []float64
	for _, f := range fracs {
		flat = append(flat, f...)
	}
	name := "dos_fractions"
	if withM {
		name = "dos_fractions_m"
	}
	R.vars[name] = fakeVar{flat, []int{len(fracs), 1, mband, nkpt}}
	return R
}

func TestRead(t *testing.T) {
	for _, withM := range []bool{false, true} {
		R := newFake(true, 3, withM)
		F, err := Read(R, "AlAs_FATBANDS.nc")
		require.NoError(t, err)
		assert.Equal(t, 1, F.Nsppol)
		assert.Equal(t, nkpt, F.Nkpt)
		assert.Equal(t, mband, F.Mband)
		assert.Equal(t, 2, F.Mbesslang)
		assert.Equal(t, []string{"Al", "As"}, F.Structure.Species())
		assert.InDelta(t, 0.05*abinit.Ha2eV, F.Fermi, 1e-9)
		assert.InDelta(t, -0.2*abinit.Ha2eV, F.Eigens[0][0][0], 1e-9)
		assert.True(t, F.IsKmesh())
		require.True(t, F.HasProjections())
		assert.InDelta(t, 0.3, F.WAL[1][1][0][1][3], 1e-12, "withM: %t", withM)
		wl, err := F.WL("Al", 0)
		require.NoError(t, err)
		assert.InDelta(t, 0.3, wl[0][0][0], 1e-12)
		_, err = F.WL("Ga", 0)
		assert.Error(t, err)
		assert.Contains(t, F.String(), "prtdos: 3")
		require.NoError(t, F.Close())
		require.NoError(t, F.Close())
		assert.Equal(t, 1, R.closed, "Close should close the reader only once")
	}
}

func TestMissingVariable(t *testing.T) {
	R := newFake(true, 3, false)
	delete(R.vars, "kpoint_weights")
	_, err := Read(R, "broken_FATBANDS.nc")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoVariable)
	assert.Contains(t, err.Error(), "kpoint_weights")
}

func TestPJDOSSumRule(t *testing.T) {
	F, err := Read(newFake(true, 3, false), "AlAs_FATBANDS.nc")
	require.NoError(t, err)
	P, err := F.PJDOS(0.1, 0.005)
	require.NoError(t, err)
	assert.Equal(t, []string{"Al", "As"}, P.Types)
	//the total DOS integrates to the number of bands.
	assert.InDelta(t, float64(mband), P.Total[0].Integral(), 1e-4)
	for ti := range P.Types {
		for l := 0; l < 2; l++ {
			assert.InDelta(t, mband*fakeWAL[ti][l], P.Data[ti][l][0].Integral(), 1e-4, "type %d l %d", ti, l)
		}
	}
	assert.InDelta(t, mband*(fakeWAL[0][0]+fakeWAL[0][1]), P.TypeSum(0, 0).Integral(), 1e-4)
	assert.InDelta(t, mband*(fakeWAL[0][1]+fakeWAL[1][1]), P.LSum(1, 0).Integral(), 1e-4)
}

func TestPJDOSErrors(t *testing.T) {
	path, err := Read(newFake(false, 3, false), "path_FATBANDS.nc")
	require.NoError(t, err)
	assert.False(t, path.IsKmesh())
	_, err = path.PJDOS(0.1, 0.01)
	assert.ErrorIs(t, err, ErrNotKmesh)

	//ABINIT also normalizes the weights of a path, kptopt tells them apart.
	R := newFake(true, 3, false)
	R.vars["kptopt"] = fakeVar{[]float64{-2}, nil}
	normalized, err := Read(R, "mgb2_kpath_FATBANDS.nc")
	require.NoError(t, err)
	assert.Equal(t, -2, normalized.Kptopt)
	assert.False(t, normalized.IsKmesh())
	_, err = normalized.PJDOS(0.1, 0.01)
	assert.ErrorIs(t, err, ErrNotKmesh)
	R = newFake(true, 3, false)
	R.vars["kptopt"] = fakeVar{[]float64{1}, nil}
	mesh, err := Read(R, "mesh_FATBANDS.nc")
	require.NoError(t, err)
	assert.True(t, mesh.IsKmesh())

	noproj, err := Read(newFake(true, 2, false), "dos_FATBANDS.nc")
	require.NoError(t, err)
	_, err = noproj.PJDOS(0.1, 0.01)
	assert.ErrorIs(t, err, ErrNoProjections)
	assert.ErrorIs(t, noproj.PlotFatbandsLView(filepath.Join(t.TempDir(), "x.png"), DefaultOptions()), ErrNoProjections)
}

func TestPlots(t *testing.T) {
	kpath, err := Read(newFake(false, 3, false), "path_FATBANDS.nc")
	require.NoError(t, err)
	kmesh, err := Read(newFake(true, 3, true), "mesh_FATBANDS.nc")
	require.NoError(t, err)
	dir := t.TempDir()
	O := DefaultOptions()
	O.Title = "AlAs"
	files := map[string]func(string) error{
		"type.png":  func(p string) error { return kpath.PlotFatbandsTypeView(p, O) },
		"l.png":     func(p string) error { return kpath.PlotFatbandsLView(p, O) },
		"pjdos.png": func(p string) error { return kmesh.PlotPJDOSTypeView(p, O) },
		"pjl.svg":   func(p string) error { return kmesh.PlotPJDOSLView(p, O) },
		"both.png":  func(p string) error { return kpath.PlotFatbandsWithPJDOS(kmesh, "lview", p, O) },
		"kpts.png":  func(p string) error { return kpath.PlotKpoints(p) },
	}
	for name, f := range files {
		out := filepath.Join(dir, name)
		require.NoError(t, f(out), name)
		st, err := os.Stat(out)
		require.NoError(t, err)
		assert.NotZero(t, st.Size(), name)
	}
	err = kpath.PlotFatbandsWithPJDOS(kmesh, "pie", filepath.Join(dir, "x.png"), O)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "lview"))
	//the path can't be used for the DOS.
	assert.ErrorIs(t, kmesh.PlotFatbandsWithPJDOS(kpath, "type", filepath.Join(dir, "y.png"), O), ErrNotKmesh)
}

func TestFlatten(t *testing.T) {
	v, err := flatten(reflect.ValueOf([][]float32{{1, 2}, {3, 4}}), nil)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3, 4}, v)
	v, err = flatten(reflect.ValueOf(int32(3)), nil)
	require.NoError(t, err)
	assert.Equal(t, []float64{3}, v)
	_, err = flatten(reflect.ValueOf("abc"), nil)
	assert.Error(t, err)
}
