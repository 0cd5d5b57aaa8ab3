/*
 * scf.go, part of goabinit.
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
	"math"
	"strings"

	"github.com/rmera/goabinit/abio"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

//logField returns true for the fields that span several orders of magnitude
//(energy differences and residuals), which are plotted in a log scale.
func logField(name string) bool {
	for _, v := range []string{"delta", "res", "vres", "nres"} {
		if strings.HasPrefix(name, v) {
			return true
		}
	}
	return false
}

//ScfCyclePlots returns one plot per field of the cycle, except the iteration number,
//which goes in the x axis. The plots are arranged in rows of 2.
func ScfCyclePlots(cycle *abio.ScfCycle) ([][]*plot.Plot, error) {
	if cycle.Len() == 0 {
		return nil, fmt.Errorf("abiplot: empty %s SCF cycle", cycle.Kind)
	}
	iter := make([]float64, cycle.Len())
	for i := range iter {
		iter[i] = float64(i + 1)
	}
	var ret [][]*plot.Plot
	var row []*plot.Plot
	pal := Palette(len(cycle.Fields))
	for i, name := range cycle.Fields {
		if name == "iter" {
			continue
		}
		p := plot.New()
		p.X.Label.Text = "Iteration"
		p.Y.Label.Text = name
		p.Add(plotter.NewGrid())
		islog := logField(name)
		pts := make(plotter.XYs, 0, cycle.Len())
		for j, v := range cycle.Values[i] {
			if islog {
				v = math.Abs(v)
				if v == 0 {
					continue //can't go in a log axis.
				}
			}
			pts = append(pts, plotter.XY{X: iter[j], Y: v})
		}
		if islog && len(pts) > 0 {
			p.Y.Scale = plot.LogScale{}
			p.Y.Tick.Marker = plot.LogTicks{Prec: -1}
			p.Y.Label.Text = "|" + name + "|"
		}
		if len(pts) > 0 {
			l, s, err := plotter.NewLinePoints(pts)
			if err != nil {
				return nil, err
			}
			l.Color = pal[i]
			l.Width = vg.Points(1.5)
			s.GlyphStyle.Color = pal[i]
			p.Add(l, s)
		}
		row = append(row, p)
		if len(row) == 2 {
			ret = append(ret, row)
			row = nil
		}
	}
	if len(row) > 0 {
		ret = append(ret, row)
	}
	if len(ret) > 0 && len(ret[0]) > 0 {
		ret[0][0].Title.Text = fmt.Sprintf("%s SCF cycle", cycle.Kind)
	}
	return ret, nil
}

//PlotScfCycle saves the evolution of all the quantities in the cycle to path.
func PlotScfCycle(cycle *abio.ScfCycle, path string) error {
	plots, err := ScfCyclePlots(cycle)
	if err != nil {
		return err
	}
	return SaveTiles(plots, Width, Height/2*float64(len(plots)+1), path)
}
