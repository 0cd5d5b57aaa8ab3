/*
 * edos.go, part of goabinit.
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

//Package edos builds densities of states on regular energy meshes, by gaussian broadening
//or by histogramming a set of eigenvalues.
package edos

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

//Mesh is a regular mesh of N points starting at Min with spacing Step.
type Mesh struct {
	Min  float64 `json:"min"`
	Step float64 `json:"step"`
	N    int     `json:"n"`
}

//NewMesh returns a mesh covering [min, max] with spacing step. The last point can go
//slightly beyond max, as the number of points is rounded up.
func NewMesh(min, max, step float64) (Mesh, error) {
	if step <= 0 || max <= min {
		return Mesh{}, fmt.Errorf("goAbinit/edos: invalid mesh min: %f max: %f step: %f", min, max, step)
	}
	n := int(math.Ceil((max-min)/step-1e-9)) + 1
	return Mesh{Min: min, Step: step, N: n}, nil
}

//Max returns the last point of the mesh.
func (M Mesh) Max() float64 {
	return M.Min + M.Step*float64(M.N-1)
}

//Points returns the points of the mesh. If dest is given and large enough, it is used
//to store the result.
func (M Mesh) Points(dest ...[]float64) []float64 {
	d := getCopySlice(M.N, dest...)
	if M.N == 1 {
		d[0] = M.Min
		return d
	}
	return floats.Span(d, M.Min, M.Max())
}

//Dividers returns the N+1 limits of the bins centered on the mesh points.
func (M Mesh) Dividers() []float64 {
	return floats.Span(make([]float64, M.N+1), M.Min-M.Step/2, M.Max()+M.Step/2)
}

//Data is a function sampled on a Mesh.
type Data struct {
	Mesh   Mesh
	values []float64
}

//NewData returns a Data on the mesh M, with the given values, which are copied.
//values can be nil, in which case Data is filled with zeros.
func NewData(M Mesh, values []float64) *Data {
	d := &Data{Mesh: M, values: make([]float64, M.N)}
	if values != nil {
		if len(values) != M.N {
			panic(fmt.Sprintf("goAbinit/edos.NewData: %d values for a mesh of %d points", len(values), M.N))
		}
		copy(d.values, values)
	}
	return d
}

func (D *Data) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Mesh   Mesh      `json:"mesh"`
		Values []float64 `json:"values"`
	}{D.Mesh, D.values})
}

func (D *Data) UnmarshalJSON(b []byte) error {
	var a struct {
		Mesh   Mesh      `json:"mesh"`
		Values []float64 `json:"values"`
	}
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	if len(a.Values) != a.Mesh.N {
		return fmt.Errorf("goAbinit/edos: %d values for a mesh of %d points", len(a.Values), a.Mesh.N)
	}
	D.Mesh = a.Mesh
	D.values = a.Values
	return nil
}

//View returns the values. Changing them changes the Data.
func (D *Data) View() []float64 {
	return D.values
}

//Copy returns a copy of the values, in dest if given and large enough.
func (D *Data) Copy(dest ...[]float64) []float64 {
	d := getCopySlice(len(D.values), dest...)
	return floats.ScaleTo(d, 1, D.values)
}

//Add adds a and b, putting the result in the receiver. The meshes must match.
func (D *Data) Add(a, b *Data) {
	if a.Mesh != b.Mesh {
		panic("goAbinit/edos.Data.Add: meshes must match in added data")
	}
	D.Mesh = a.Mesh
	if len(D.values) != a.Mesh.N {
		D.values = make([]float64, a.Mesh.N)
	}
	floats.AddTo(D.values, a.values, b.values)
}

//Scale multiplies all the values by f.
func (D *Data) Scale(f float64) {
	floats.Scale(f, D.values)
}

//Sum returns the sum of the values.
func (D *Data) Sum() float64 {
	return floats.Sum(D.values)
}

//Integral returns the integral of the function over the mesh (trapezoidal rule).
func (D *Data) Integral() float64 {
	if len(D.values) < 2 {
		return 0
	}
	return D.Mesh.Step * (D.Sum() - (D.values[0]+D.values[len(D.values)-1])/2)
}

//Integrate returns the cumulative integral of the function, with the trapezoidal rule.
//The first value is always 0.
func (D *Data) Integrate() *Data {
	ret := NewData(D.Mesh, nil)
	for i := 1; i < len(D.values); i++ {
		ret.values[i] = ret.values[i-1] + D.Mesh.Step*(D.values[i]+D.values[i-1])/2
	}
	return ret
}

//ValueAt returns the value at the mesh point closest to x, and false if x is outside the mesh.
func (D *Data) ValueAt(x float64) (float64, bool) {
	i := int(math.Round((x - D.Mesh.Min) / D.Mesh.Step))
	if i < 0 || i >= len(D.values) {
		return 0, false
	}
	return D.values[i], true
}

func (D *Data) String() string {
	pts := D.Mesh.Points()
	lines := make([]string, 0, len(pts))
	for i, v := range pts {
		lines = append(lines, fmt.Sprintf("%12.6f %14.8f", v, D.values[i]))
	}
	return strings.Join(lines, "\n")
}

//Gaussian returns the sum of normalized gaussians of the given width (standard deviation) centered
//on energies, each multiplied by the corresponding weight. weights can be nil, meaning all weights are 1.
func Gaussian(M Mesh, energies, weights []float64, width float64) (*Data, error) {
	if width <= 0 {
		return nil, fmt.Errorf("goAbinit/edos: gaussian width must be positive, got %f", width)
	}
	if weights != nil && len(weights) != len(energies) {
		return nil, fmt.Errorf("goAbinit/edos: %d weights for %d energies", len(weights), len(energies))
	}
	ret := NewData(M, nil)
	x := M.Points()
	norm := 1 / (width * math.Sqrt(2*math.Pi))
	cutoff := 6 * width
	for i, e := range energies {
		w := 1.0
		if weights != nil {
			w = weights[i]
		}
		if w == 0 {
			continue
		}
		for j, v := range x {
			d := v - e
			if math.Abs(d) > cutoff {
				continue
			}
			ret.values[j] += w * norm * math.Exp(-d*d/(2*width*width))
		}
	}
	return ret, nil
}

//Histogram returns the weighted histogram of the energies, with bins centered on the mesh points,
//divided by the step so it integrates to the total weight. Energies out of the mesh are omitted.
func Histogram(M Mesh, energies, weights []float64) (*Data, error) {
	if weights != nil && len(weights) != len(energies) {
		return nil, fmt.Errorf("goAbinit/edos: %d weights for %d energies", len(weights), len(energies))
	}
	div := M.Dividers()
	//stat.Histogram wants sorted data inside the dividers.
	type ew struct{ e, w float64 }
	data := make([]ew, 0, len(energies))
	for i, e := range energies {
		if e < div[0] || e >= div[len(div)-1] {
			continue
		}
		w := 1.0
		if weights != nil {
			w = weights[i]
		}
		data = append(data, ew{e, w})
	}
	sort.Slice(data, func(i, j int) bool { return data[i].e < data[j].e })
	x := make([]float64, len(data))
	w := make([]float64, len(data))
	for i, v := range data {
		x[i] = v.e
		w[i] = v.w
	}
	ret := NewData(M, stat.Histogram(nil, div, x, w))
	ret.Scale(1 / M.Step)
	return ret, nil
}

func getCopySlice(N int, dest ...[]float64) []float64 {
	var d []float64
	if len(dest) > 0 && len(dest[0]) >= N {
		d = dest[0]
		if len(dest[0]) > N {
			d = dest[0][:N] //floats.ScaleTo wants both slices to _match_
		}
	} else {
		d = make([]float64, N)
	}
	return d
}
