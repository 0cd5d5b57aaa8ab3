/*
 * save.go, part of goabinit.
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
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

//Default size for the figures, in inches.
const (
	Width  = 6
	Height = 4.5
)

func format(path string) (string, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	switch ext {
	case "png", "svg", "pdf", "eps", "jpg", "jpeg", "tif", "tiff":
		return ext, nil
	}
	return "", fmt.Errorf("abiplot: unsupported figure format %q in %s", ext, path)
}

//Save writes p to path, with width w and height h in inches. The format
//is taken from the extension of path.
func Save(p *plot.Plot, w, h float64, path string) error {
	if _, err := format(path); err != nil {
		return err
	}
	return p.Save(vg.Length(w)*vg.Inch, vg.Length(h)*vg.Inch, path)
}

//Tiles returns the layout used by SaveTiles for a rows x cols grid.
func Tiles(rows, cols int) draw.Tiles {
	return draw.Tiles{
		Rows:      rows,
		Cols:      cols,
		PadX:      vg.Millimeter,
		PadY:      vg.Millimeter,
		PadTop:    vg.Points(2),
		PadBottom: vg.Points(2),
		PadLeft:   vg.Points(2),
		PadRight:  vg.Points(2),
	}
}

//SaveTiles writes the plots in a grid with one row per element of plots, and as many columns as the
//longest row. nil plots, and missing ones in short rows, leave an empty tile. w and h are the size of the whole figure, in inches.
func SaveTiles(plots [][]*plot.Plot, w, h float64, path string) error {
	ext, err := format(path)
	if err != nil {
		return err
	}
	if len(plots) == 0 {
		return fmt.Errorf("abiplot: no plots to save in %s", path)
	}
	cols := 0
	for _, v := range plots {
		cols = max(cols, len(v))
	}
	//Align wants a rectangular grid, the holes get an empty plot.
	grid := make([][]*plot.Plot, len(plots))
	for i, v := range plots {
		grid[i] = make([]*plot.Plot, cols)
		copy(grid[i], v)
		for j, p := range grid[i] {
			if p == nil {
				grid[i][j] = plot.New()
				grid[i][j].HideAxes()
			}
		}
	}
	t := Tiles(len(grid), cols)
	img, err := draw.NewFormattedCanvas(vg.Length(w)*vg.Inch, vg.Length(h)*vg.Inch, ext)
	if err != nil {
		return err
	}
	canvases := plot.Align(grid, t, draw.New(img))
	for i := range grid {
		for j, p := range grid[i] {
			p.Draw(canvases[i][j])
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err = img.WriteTo(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
