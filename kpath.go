/*
 * kpath.go, part of goabinit.
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
)

//KPoint is a named point in reciprocal space, in reduced coordinates.
type KPoint struct {
	Name string
	Frac [3]float64
}

//KPath is a list of high-symmetry points. Consecutive points define the segments
//of the path.
type KPath []KPoint

//Names returns the labels of the points in the path.
func (P KPath) Names() []string {
	ret := make([]string, len(P))
	for i, v := range P {
		ret[i] = v.Name
	}
	return ret
}

//Divide samples the path with the same convention as ABINIT's ndivsm: the smallest
//segment is divided in ndivsm intervals and the rest get a number of intervals
//proportional to their cartesian length. It returns the reduced coordinates of all
//the points, and the index of each vertex of the path in that slice.
func (P KPath) Divide(S *Structure, ndivsm int) ([][3]float64, []int, error) {
	if len(P) < 2 {
		return nil, nil, ErrShortPath
	}
	if ndivsm < 1 {
		return nil, nil, fmt.Errorf("goAbinit: ndivsm must be positive, got %d", ndivsm)
	}
	lengths := make([]float64, len(P)-1)
	minlen := math.Inf(1)
	for i := range lengths {
		a := S.KCart(P[i].Frac)
		b := S.KCart(P[i+1].Frac)
		lengths[i] = math.Sqrt((a[0]-b[0])*(a[0]-b[0]) + (a[1]-b[1])*(a[1]-b[1]) + (a[2]-b[2])*(a[2]-b[2]))
		if lengths[i] < 1e-8 {
			return nil, nil, fmt.Errorf("goAbinit: k-path segment %s-%s has zero length", P[i].Name, P[i+1].Name)
		}
		minlen = math.Min(minlen, lengths[i])
	}
	points := make([][3]float64, 0, ndivsm*len(lengths)+1)
	vertices := make([]int, 0, len(P))
	for i, l := range lengths {
		ndiv := int(math.Round(float64(ndivsm) * l / minlen))
		vertices = append(vertices, len(points))
		start, end := P[i].Frac, P[i+1].Frac
		for j := 0; j < ndiv; j++ {
			t := float64(j) / float64(ndiv)
			var k [3]float64
			for c := 0; c < 3; c++ {
				k[c] = start[c] + t*(end[c]-start[c])
			}
			points = append(points, k)
		}
	}
	vertices = append(vertices, len(points))
	points = append(points, P[len(P)-1].Frac)
	return points, vertices, nil
}

//Some standard paths.
var (
	FCCPath = KPath{
		{"G", [3]float64{0, 0, 0}},
		{"X", [3]float64{0.5, 0, 0.5}},
		{"W", [3]float64{0.5, 0.25, 0.75}},
		{"L", [3]float64{0.5, 0.5, 0.5}},
		{"G", [3]float64{0, 0, 0}},
		{"K", [3]float64{0.375, 0.375, 0.75}},
	}
	HexPath = KPath{
		{"G", [3]float64{0, 0, 0}},
		{"M", [3]float64{0.5, 0, 0}},
		{"K", [3]float64{1.0 / 3, 1.0 / 3, 0}},
		{"G", [3]float64{0, 0, 0}},
		{"A", [3]float64{0, 0, 0.5}},
		{"L", [3]float64{0.5, 0, 0.5}},
		{"H", [3]float64{1.0 / 3, 1.0 / 3, 0.5}},
	}
	CubicPath = KPath{
		{"G", [3]float64{0, 0, 0}},
		{"X", [3]float64{0, 0.5, 0}},
		{"M", [3]float64{0.5, 0.5, 0}},
		{"G", [3]float64{0, 0, 0}},
		{"R", [3]float64{0.5, 0.5, 0.5}},
	}
)

//HighSymmetryPath returns the k-path of S: its Path if set, otherwise the standard
//path of its lattice, which is recognized only for fcc, hexagonal and simple cubic cells.
func HighSymmetryPath(S *Structure) (KPath, error) {
	if len(S.Path) > 0 {
		return S.Path, nil
	}
	var vecs [3][3]float64
	var lens [3]float64
	for i := range vecs {
		for j := range vecs[i] {
			vecs[i][j] = S.Lattice.At(i, j)
		}
		lens[i] = math.Sqrt(dot(vecs[i], vecs[i]))
	}
	//cosines of the angles between the vectors: alpha (b,c), beta (a,c), gamma (a,b).
	cos := [3]float64{
		dot(vecs[1], vecs[2]) / (lens[1] * lens[2]),
		dot(vecs[0], vecs[2]) / (lens[0] * lens[2]),
		dot(vecs[0], vecs[1]) / (lens[0] * lens[1]),
	}
	const tol = 1e-4
	eq := func(a, b float64) bool { return math.Abs(a-b) < tol*math.Max(1, math.Abs(b)) }
	sameLen := eq(lens[0], lens[1]) && eq(lens[1], lens[2])
	switch {
	case sameLen && eq(cos[0], 0.5) && eq(cos[1], 0.5) && eq(cos[2], 0.5):
		return FCCPath, nil
	case sameLen && eq(cos[0], 0) && eq(cos[1], 0) && eq(cos[2], 0):
		return CubicPath, nil
	case eq(lens[0], lens[1]) && eq(cos[0], 0) && eq(cos[1], 0) && (eq(cos[2], -0.5) || eq(cos[2], 0.5)):
		return HexPath, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrNoKPath, S.Name)
}

func dot(a, b [3]float64) float64 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
}
