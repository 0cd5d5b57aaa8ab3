/*
 * plot.go, part of goabinit.
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
	"image/color"
	"math"

	"github.com/rmera/goabinit/abiplot"
	"github.com/rmera/goabinit/edos"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

//Options control the fatbands and PJDOS figures.
type Options struct {
	Title string
	//Energy window, in eV relative to the Fermi level. If both are 0, the whole range is shown.
	Emin, Emax float64
	//FatScale is the half-width, in eV, of a fatband with weight 1.
	FatScale float64
	Spin     int
	//Gaussian width and mesh step for the DOS, in eV.
	DOSWidth, DOSStep float64
	//Size of each tile, in inches.
	Width, Height float64
}

//DefaultOptions returns the options used when none are given.
func DefaultOptions() Options {
	return Options{Emin: -10, Emax: 10, FatScale: 0.5, DOSWidth: 0.1, DOSStep: 0.02, Width: 3, Height: 4}
}

func (O Options) window(energyAxis *plot.Axis) {
	if O.Emin == 0 && O.Emax == 0 {
		return
	}
	energyAxis.Min = O.Emin
	energyAxis.Max = O.Emax
}

//Distances returns the cumulative cartesian distance along the k-points, used as
//x axis in band structures.
func (F *File) Distances() []float64 {
	ret := make([]float64, F.Nkpt)
	for i := 1; i < F.Nkpt; i++ {
		a := F.Structure.KCart(F.Kpoints[i-1])
		b := F.Structure.KCart(F.Kpoints[i])
		ret[i] = ret[i-1] + math.Sqrt((a[0]-b[0])*(a[0]-b[0])+(a[1]-b[1])*(a[1]-b[1])+(a[2]-b[2])*(a[2]-b[2]))
	}
	return ret
}

func (F *File) checkPlot(O Options) error {
	if F.closed {
		return ErrClosed
	}
	if !F.HasProjections() {
		return ErrNoProjections
	}
	if O.Spin < 0 || O.Spin >= F.Nsppol {
		return fmt.Errorf("goAbinit/fatbands: spin %d requested, nsppol is %d", O.Spin, F.Nsppol)
	}
	return nil
}

//bandsPlot returns a plot with the band structure as thin lines.
func (F *File) bandsPlot(title string, O Options) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "k-path"
	p.Y.Label.Text = "E - Ef (eV)"
	p.X.Tick.Marker = plot.ConstantTicks([]plot.Tick{})
	x := F.Distances()
	for b := 0; b < F.Mband; b++ {
		pts := make(plotter.XYs, F.Nkpt)
		for k := range pts {
			pts[k].X = x[k]
			pts[k].Y = F.Eigens[O.Spin][k][b] - F.Fermi
		}
		l, err := plotter.NewLine(pts)
		if err != nil {
			return nil, err
		}
		l.Color = color.Gray{Y: 60}
		l.Width = vg.Points(0.5)
		p.Add(l)
	}
	O.window(&p.Y)
	return p, nil
}

//addFat adds to p the fatbands given by the contributions in weights ([contribution][band][k]), stacked
//around each band, one color per contribution.
func (F *File) addFat(p *plot.Plot, weights [][][]float64, labels []string, O Options) error {
	x := F.Distances()
	pal := abiplot.Palette(len(weights))
	for b := 0; b < F.Mband; b++ {
		inner := make([]float64, F.Nkpt)
		for c, w := range weights {
			outer := make([]float64, F.Nkpt)
			for k := range outer {
				outer[k] = inner[k] + w[b][k]*O.FatScale
			}
			for _, sign := range []float64{1, -1} {
				pts := make(plotter.XYs, 0, 2*F.Nkpt)
				for k := 0; k < F.Nkpt; k++ {
					pts = append(pts, plotter.XY{X: x[k], Y: F.Eigens[O.Spin][k][b] - F.Fermi + sign*outer[k]})
				}
				for k := F.Nkpt - 1; k >= 0; k-- {
					pts = append(pts, plotter.XY{X: x[k], Y: F.Eigens[O.Spin][k][b] - F.Fermi + sign*inner[k]})
				}
				poly, err := plotter.NewPolygon(pts)
				if err != nil {
					return err
				}
				poly.Color = pal[c]
				poly.LineStyle.Width = 0
				p.Add(poly)
				if b == 0 && sign == 1 {
					p.Legend.Add(labels[c], poly)
				}
			}
			inner = outer
		}
	}
	return nil
}

//FatbandsTypeView returns one plot per atom species, with the contributions of each
//angular momentum stacked on the bands.
func (F *File) FatbandsTypeView(O Options) ([][]*plot.Plot, error) {
	if err := F.checkPlot(O); err != nil {
		return nil, err
	}
	var row []*plot.Plot
	labels := LNames[:min(F.Mbesslang, len(LNames))]
	for _, sym := range F.Structure.Species() {
		p, err := F.bandsPlot(fmt.Sprintf("%s %s", O.Title, sym), O)
		if err != nil {
			return nil, err
		}
		weights := make([][][]float64, len(labels))
		for l := range labels {
			wl, err := F.WL(sym, l)
			if err != nil {
				return nil, err
			}
			weights[l] = wl[O.Spin]
		}
		if err := F.addFat(p, weights, labels, O); err != nil {
			return nil, err
		}
		row = append(row, p)
	}
	return [][]*plot.Plot{row}, nil
}

//FatbandsLView returns one plot per angular momentum, with the contributions of each
//species stacked on the bands.
func (F *File) FatbandsLView(O Options) ([][]*plot.Plot, error) {
	if err := F.checkPlot(O); err != nil {
		return nil, err
	}
	species := F.Structure.Species()
	var row []*plot.Plot
	for l := 0; l < min(F.Mbesslang, len(LNames)); l++ {
		p, err := F.bandsPlot(fmt.Sprintf("%s l=%s", O.Title, LNames[l]), O)
		if err != nil {
			return nil, err
		}
		weights := make([][][]float64, len(species))
		for t, sym := range species {
			wl, err := F.WL(sym, l)
			if err != nil {
				return nil, err
			}
			weights[t] = wl[O.Spin]
		}
		if err := F.addFat(p, weights, species, O); err != nil {
			return nil, err
		}
		row = append(row, p)
	}
	return [][]*plot.Plot{row}, nil
}

//dosLines adds the data to p as stacked lines. If rotated, the energy goes in the y axis.
func dosLines(p *plot.Plot, data []*edos.Data, labels []string, fermi float64, rotated bool) error {
	pal := abiplot.Palette(len(data))
	var cum []float64
	for i, d := range data {
		e := d.Mesh.Points()
		if cum == nil {
			cum = make([]float64, len(e))
		}
		pts := make(plotter.XYs, len(e))
		for j, v := range d.View() {
			cum[j] += v
			pts[j] = plotter.XY{X: e[j] - fermi, Y: cum[j]}
			if rotated {
				pts[j] = plotter.XY{X: cum[j], Y: e[j] - fermi}
			}
		}
		l, err := plotter.NewLine(pts)
		if err != nil {
			return err
		}
		l.Color = pal[i]
		l.Width = vg.Points(1)
		p.Add(l)
		p.Legend.Add(labels[i], l)
	}
	return nil
}

func (P *PJDOS) newPlot(title string, rotated bool) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "E - Ef (eV)"
	p.Y.Label.Text = "DOS (states/eV)"
	if rotated {
		p.X.Label.Text, p.Y.Label.Text = p.Y.Label.Text, p.X.Label.Text
	}
	return p
}

//TypeView returns one plot per species, with the contributions of each angular momentum stacked.
func (P *PJDOS) TypeView(O Options, rotated bool) ([][]*plot.Plot, error) {
	var row []*plot.Plot
	labels := LNames[:min(len(P.Data[0]), len(LNames))]
	for t, sym := range P.Types {
		p := P.newPlot(fmt.Sprintf("%s %s", O.Title, sym), rotated)
		data := make([]*edos.Data, len(labels))
		for l := range labels {
			data[l] = P.Data[t][l][O.Spin]
		}
		if err := dosLines(p, data, labels, P.Fermi, rotated); err != nil {
			return nil, err
		}
		O.window(P.energyAxis(p, rotated))
		row = append(row, p)
	}
	return [][]*plot.Plot{row}, nil
}

//LView returns one plot per angular momentum, with the contributions of each species stacked.
func (P *PJDOS) LView(O Options, rotated bool) ([][]*plot.Plot, error) {
	var row []*plot.Plot
	for l := 0; l < min(len(P.Data[0]), len(LNames)); l++ {
		p := P.newPlot(fmt.Sprintf("%s l=%s", O.Title, LNames[l]), rotated)
		data := make([]*edos.Data, len(P.Types))
		for t := range P.Types {
			data[t] = P.Data[t][l][O.Spin]
		}
		if err := dosLines(p, data, P.Types, P.Fermi, rotated); err != nil {
			return nil, err
		}
		O.window(P.energyAxis(p, rotated))
		row = append(row, p)
	}
	return [][]*plot.Plot{row}, nil
}

func (P *PJDOS) energyAxis(p *plot.Plot, rotated bool) *plot.Axis {
	if rotated {
		return &p.Y
	}
	return &p.X
}

func save(plots [][]*plot.Plot, O Options, path string) error {
	cols := 0
	for _, v := range plots {
		cols = max(cols, len(v))
	}
	return abiplot.SaveTiles(plots, O.Width*float64(cols), O.Height*float64(len(plots)), path)
}

//PlotFatbandsTypeView saves the figure produced by FatbandsTypeView.
func (F *File) PlotFatbandsTypeView(path string, O Options) error {
	plots, err := F.FatbandsTypeView(O)
	if err != nil {
		return err
	}
	return save(plots, O, path)
}

//PlotFatbandsLView saves the figure produced by FatbandsLView.
func (F *File) PlotFatbandsLView(path string, O Options) error {
	plots, err := F.FatbandsLView(O)
	if err != nil {
		return err
	}
	return save(plots, O, path)
}

//PlotPJDOSTypeView computes the PJDOS and saves its type view.
func (F *File) PlotPJDOSTypeView(path string, O Options) error {
	P, err := F.PJDOS(O.DOSWidth, O.DOSStep)
	if err != nil {
		return err
	}
	plots, err := P.TypeView(O, false)
	if err != nil {
		return err
	}
	return save(plots, O, path)
}

//PlotPJDOSLView computes the PJDOS and saves its L view.
func (F *File) PlotPJDOSLView(path string, O Options) error {
	P, err := F.PJDOS(O.DOSWidth, O.DOSStep)
	if err != nil {
		return err
	}
	plots, err := P.LView(O, false)
	if err != nil {
		return err
	}
	return save(plots, O, path)
}

//PlotFatbandsWithPJDOS saves the fatbands of F (usually computed on a k-path) next to
//the PJDOS computed from pjdosFile (which must be on a k-mesh). view is "type" or "lview".
func (F *File) PlotFatbandsWithPJDOS(pjdosFile *File, view, path string, O Options) error {
	P, err := pjdosFile.PJDOS(O.DOSWidth, O.DOSStep)
	if err != nil {
		return err
	}
	//The DOS energies must be relative to the same Fermi level as the bands.
	P.Fermi = F.Fermi
	var bands, dos [][]*plot.Plot
	switch view {
	case "type":
		if bands, err = F.FatbandsTypeView(O); err == nil {
			dos, err = P.TypeView(O, true)
		}
	case "lview":
		if bands, err = F.FatbandsLView(O); err == nil {
			dos, err = P.LView(O, true)
		}
	default:
		return fmt.Errorf("goAbinit/fatbands: unknown view %q, use type or lview", view)
	}
	if err != nil {
		return err
	}
	//each fatbands plot gets the corresponding DOS below.
	return save([][]*plot.Plot{bands[0], dos[0]}, O, path)
}

//PlotKpoints saves a figure with the kx, ky cartesian coordinates of the k-points, connected
//in order, as they would be for a path.
func (F *File) PlotKpoints(path string) error {
	p := plot.New()
	p.Title.Text = "k-points"
	p.X.Label.Text = "kx (1/Bohr)"
	p.Y.Label.Text = "ky (1/Bohr)"
	pts := make(plotter.XYs, F.Nkpt)
	for i, k := range F.Kpoints {
		c := F.Structure.KCart(k)
		pts[i] = plotter.XY{X: c[0], Y: c[1]}
	}
	l, s, err := plotter.NewLinePoints(pts)
	if err != nil {
		return err
	}
	l.Color = color.Gray{Y: 120}
	s.GlyphStyle.Color = abiplot.Palette(1)[0]
	p.Add(plotter.NewGrid(), l, s)
	return abiplot.Save(p, abiplot.Height, abiplot.Height, path)
}
