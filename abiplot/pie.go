/*
 * pie.go, part of goabinit.
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

package abiplot

import (
	"fmt"
	"image/color"
	"math"

	"github.com/rmera/goabinit/abio"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

//Pie is a pie chart. It implements plot.Plotter and plot.DataRanger.
//The pie has radius 1 and is centered at the origin, in data coordinates.
type Pie struct {
	Values []float64
	Colors []color.Color
	//LineStyle is used to draw the border of the wedges.
	draw.LineStyle
	//Steps is the number of segments used to draw a full circle.
	Steps int
}

//NewPie returns a pie chart for values, which must all be non-negative
//and not all zero.
func NewPie(values []float64) (*Pie, error) {
	total := 0.0
	for _, v := range values {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("abiplot: invalid value for a pie chart: %f", v)
		}
		total += v
	}
	if total == 0 {
		return nil, fmt.Errorf("abiplot: pie chart with no data")
	}
	return &Pie{
		Values:    append([]float64(nil), values...),
		Colors:    Palette(len(values)),
		LineStyle: draw.LineStyle{Color: color.White, Width: vg.Points(1)},
		Steps:     180,
	}, nil
}

//Fractions returns the fraction of the total that each value represents.
func (P *Pie) Fractions() []float64 {
	total := 0.0
	for _, v := range P.Values {
		total += v
	}
	ret := make([]float64, len(P.Values))
	for i, v := range P.Values {
		ret[i] = v / total
	}
	return ret
}

//Plot implements the plot.Plotter interface.
func (P *Pie) Plot(c draw.Canvas, plt *plot.Plot) {
	trX, trY := plt.Transforms(&c)
	start := math.Pi / 2 //12 o'clock, going clockwise.
	for i, f := range P.Fractions() {
		if f == 0 {
			continue
		}
		end := start - 2*math.Pi*f
		n := max(2, int(float64(P.Steps)*f))
		pts := make([]vg.Point, 0, n+2)
		pts = append(pts, vg.Point{X: trX(0), Y: trY(0)})
		for j := 0; j <= n; j++ {
			a := start + (end-start)*float64(j)/float64(n)
			pts = append(pts, vg.Point{X: trX(math.Cos(a)), Y: trY(math.Sin(a))})
		}
		c.FillPolygon(P.Colors[i%len(P.Colors)], pts)
		if P.LineStyle.Width > 0 {
			c.StrokeLines(P.LineStyle, append(pts, pts[0]))
		}
		start = end
	}
}

//DataRange implements the plot.DataRanger interface. Some room is left at the right for the legend.
func (P *Pie) DataRange() (xmin, xmax, ymin, ymax float64) {
	return -1.05, 2.8, -1.05, 1.05
}

type wedgeThumb struct {
	color color.Color
}

//Thumbnail implements the plot.Thumbnailer interface.
func (W wedgeThumb) Thumbnail(c *draw.Canvas) {
	pts := []vg.Point{
		{X: c.Min.X, Y: c.Min.Y},
		{X: c.Min.X, Y: c.Max.Y},
		{X: c.Max.X, Y: c.Max.Y},
		{X: c.Max.X, Y: c.Min.Y},
	}
	c.FillPolygon(W.color, c.ClipPolygonY(pts))
}

//PieChart returns a plot with the pie chart for the given values, with a legend showing
//labels and percentages.
func PieChart(title string, labels []string, values []float64) (*plot.Plot, error) {
	if len(labels) != len(values) {
		return nil, fmt.Errorf("abiplot: %d labels for %d values", len(labels), len(values))
	}
	pie, err := NewPie(values)
	if err != nil {
		return nil, err
	}
	p := plot.New()
	p.Title.Text = title
	p.HideAxes()
	p.Add(pie)
	for i, f := range pie.Fractions() {
		p.Legend.Add(fmt.Sprintf("%s (%.1f%%)", labels[i], 100*f), wedgeThumb{pie.Colors[i]})
	}
	p.Legend.Top = true
	return p, nil
}

//TimerPie returns a pie chart with the cpu or wall time (depending on key) spent in
//each section of the timer. Sections taking less than minFract of the total are grouped.
func TimerPie(T *abio.Timer, key string, minFract float64) (*plot.Plot, error) {
	slices, err := T.Slices(key, minFract)
	if err != nil {
		return nil, err
	}
	labels := make([]string, len(slices))
	values := make([]float64, len(slices))
	for i, v := range slices {
		labels[i] = v.Label
		values[i] = v.Value
	}
	total, _ := T.Total(key)
	return PieChart(fmt.Sprintf("%s time: %.1f s", key, total), labels, values)
}

//PlotTimerPie saves to path the pie chart produced by TimerPie.
func PlotTimerPie(T *abio.Timer, key string, minFract float64, path string) error {
	p, err := TimerPie(T, key, minFract)
	if err != nil {
		return err
	}
	return Save(p, Width, Width*0.6, path)
}
