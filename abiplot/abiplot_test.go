package abiplot

import (
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/rmera/goabinit/abio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/plot"
)

func checkFile(t *testing.T, path string) {
	t.Helper()
	st, err := os.Stat(path)
	require.NoError(t, err)
	assert.NotZero(t, st.Size(), "empty figure %s", path)
}

func TestPalette(t *testing.T) {
	p := Palette(6)
	require.Len(t, p, 6)
	seen := make(map[color.RGBA]bool)
	for _, v := range p {
		c := v.(color.RGBA)
		assert.False(t, seen[c], "repeated color %v", c)
		seen[c] = true
	}
	r, g, b := iHVS2RGB(0, 1, 1)
	assert.EqualValues(t, []int{255, 0, 0}, []int{int(r), int(g), int(b)}, "hue 0 is red")
}

func TestPlotScfCycle(t *testing.T) {
	abo, err := abio.Open("../abio/testdata/run.abo")
	require.NoError(t, err)
	cycle, err := abo.NextGSScfCycle()
	require.NoError(t, err)
	plots, err := ScfCyclePlots(cycle)
	require.NoError(t, err)
	//4 fields besides iter, in rows of 2.
	require.Len(t, plots, 2)
	assert.Len(t, plots[0], 2)
	assert.Len(t, plots[1], 2)
	assert.IsType(t, plot.LogScale{}, plots[0][1].Y.Scale, "deltaE goes in a log scale")
	out := filepath.Join(t.TempDir(), "scf.png")
	require.NoError(t, PlotScfCycle(cycle, out))
	checkFile(t, out)
	assert.Error(t, PlotScfCycle(cycle, filepath.Join(t.TempDir(), "scf.xyz")), "xyz is not a figure format")
	_, err = ScfCyclePlots(&abio.ScfCycle{})
	assert.Error(t, err, "an empty cycle can't be plotted")
}

func TestPie(t *testing.T) {
	pie, err := NewPie([]float64{1, 3})
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0.25, 0.75}, pie.Fractions(), 1e-12)
	_, err = NewPie([]float64{0, 0})
	assert.Error(t, err, "no data")
	_, err = NewPie([]float64{1, -1})
	assert.Error(t, err, "negative values")
}

func TestPlotTimerPie(t *testing.T) {
	abo, err := abio.Open("../abio/testdata/run.abo")
	require.NoError(t, err)
	T, err := abo.Timer()
	require.NoError(t, err)
	dir := t.TempDir()
	for _, name := range []string{"pie.png", "pie.svg"} {
		out := filepath.Join(dir, name)
		require.NoError(t, PlotTimerPie(T, "wall", 0.05, out))
		checkFile(t, out)
	}
	err = PlotTimerPie(T, "gpu", 0.05, filepath.Join(dir, "x.png"))
	assert.ErrorIs(t, err, abio.ErrUnknownTimerKey)
}

func TestTiles(t *testing.T) {
	tl := Tiles(2, 3)
	assert.Equal(t, 2, tl.Rows)
	assert.Equal(t, 3, tl.Cols)
	assert.Error(t, SaveTiles(nil, 3, 3, filepath.Join(t.TempDir(), "none.png")), "no plots")
	assert.Error(t, Save(nil, 3, 3, "figure.bmp"), "bmp is not a supported format")
}
