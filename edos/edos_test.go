package edos

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMesh(t *testing.T) {
	M, err := NewMesh(-1, 1, 0.1)
	require.NoError(t, err)
	assert.Equal(t, 21, M.N)
	assert.InDelta(t, 1, M.Max(), 1e-12)
	p := M.Points()
	require.Len(t, p, 21)
	assert.InDelta(t, 0, p[10], 1e-12)
	_, err = NewMesh(1, 0, 0.1)
	assert.Error(t, err, "max < min")
}

func TestGaussianSumRule(t *testing.T) {
	M, err := NewMesh(-10, 10, 0.01)
	require.NoError(t, err)
	energies := []float64{-2, 0.5, 3}
	weights := []float64{1, 2, 0.5}
	dos, err := Gaussian(M, energies, weights, 0.1)
	require.NoError(t, err)
	assert.InDelta(t, 3.5, dos.Integral(), 1e-6, "the DOS integrates to the total weight")
	idos := dos.Integrate()
	assert.InDelta(t, dos.Integral(), idos.View()[M.N-1], 1e-9)
	//half of the first peak is left of its center.
	v, ok := idos.ValueAt(-2)
	require.True(t, ok)
	assert.InDelta(t, 0.5, v, 0.01)
	_, err = Gaussian(M, energies, weights[:2], 0.1)
	assert.Error(t, err, "mismatched weights")
	_, err = Gaussian(M, energies, nil, 0)
	assert.Error(t, err, "zero width")
}

func TestAddScale(t *testing.T) {
	M, err := NewMesh(0, 1, 0.5)
	require.NoError(t, err)
	a := NewData(M, []float64{1, 2, 3})
	b := NewData(M, []float64{1, 1, 1})
	c := NewData(M, nil)
	c.Add(a, b)
	c.Scale(2)
	assert.Equal(t, 18.0, c.Sum())
	assert.Equal(t, 6.0, a.Sum(), "Add doesn't change its arguments")
	j, err := json.Marshal(c)
	require.NoError(t, err)
	d := new(Data)
	require.NoError(t, json.Unmarshal(j, d))
	assert.Equal(t, M, d.Mesh)
	assert.Equal(t, 18.0, d.Sum())
}

func TestHistogram(t *testing.T) {
	M, err := NewMesh(0, 4, 1)
	require.NoError(t, err)
	h, err := Histogram(M, []float64{0.1, 1.2, 0.9, 3.9, 10}, nil)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 0, 0, 1}, h.View())
}
