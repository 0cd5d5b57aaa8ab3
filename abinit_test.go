package abinit

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUcell(t *testing.T) {
	S, err := StructureFromUcell("AlAs")
	require.NoError(t, err)
	assert.Equal(t, 2, S.Natom())
	assert.Equal(t, 2, S.Ntypat())
	z := S.Znucl()
	assert.Equal(t, 13, z[0])
	assert.Equal(t, 33, z[1])
	//fcc volume is a^3/4
	assert.InDelta(t, math.Pow(10.61, 3)/4, S.Volume(), 1e-8)
	//a_i.b_j = 2pi delta_ij
	G := S.Reciprocal()
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			dot := 0.0
			for c := 0; c < 3; c++ {
				dot += S.Lattice.At(i, c) * G.At(j, c)
			}
			want := 0.0
			if i == j {
				want = 2 * math.Pi
			}
			assert.InDelta(t, want, dot, 1e-10, "a%d.b%d", i, j)
		}
	}
	_, err = StructureFromUcell("Unobtainium")
	assert.ErrorIs(t, err, ErrUnknownUcell)
}

func TestTypat(t *testing.T) {
	S, err := StructureFromUcell("MgB2")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 2}, S.Typat())
	assert.Equal(t, 3, S.Abivars()["natom"])
}

func TestKPathDivide(t *testing.T) {
	S, err := StructureFromUcell("Si")
	require.NoError(t, err)
	pts, vertices, err := S.Path.Divide(S, 5)
	require.NoError(t, err)
	require.Len(t, vertices, len(S.Path))
	assert.Equal(t, len(pts)-1, vertices[len(vertices)-1], "the last vertex is the last point")
	//the shortest segment (W-L, or X-W) gets ndivsm intervals, so no segment has fewer.
	for i := 1; i < len(vertices); i++ {
		assert.GreaterOrEqual(t, vertices[i]-vertices[i-1], 5, "segment %d", i)
	}
	_, _, err = (KPath{{"G", [3]float64{}}}).Divide(S, 5)
	assert.ErrorIs(t, err, ErrShortPath)
	bad := KPath{{"G", [3]float64{}}, {"G", [3]float64{}}}
	_, _, err = bad.Divide(S, 5)
	assert.Error(t, err, "a zero-length segment")
}

func TestFortranFloat(t *testing.T) {
	cases := map[string]float64{
		"1.0D+01":    10,
		"-2.5d-1":    -0.25,
		" 3.14 ":     3.14,
		"1.0-100":    1e-100,
		"-8.861E+00": -8.861,
	}
	for k, v := range cases {
		f, err := ParseFortranFloat(k)
		if assert.NoError(t, err, k) {
			assert.InDelta(t, v, f, 1e-12*math.Max(1, math.Abs(v)), k)
		}
	}
	_, err := ParseFortranFloat("ETOT")
	assert.Error(t, err)
}

func TestDir2AbiFiles(t *testing.T) {
	top := t.TempDir()
	files := []string{"run.abo", "out_DDB", "notes.txt", filepath.Join("w0", "t0", "run.abi"), filepath.Join("w0", "t0", "outdata", "out_FATBANDS.nc")}
	for _, f := range files {
		p := filepath.Join(top, f)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, nil, 0o644))
	}
	d, err := Dir2AbiFiles(top, true)
	require.NoError(t, err)
	require.Len(t, d, 3)
	assert.Equal(t, top, d[0].Dir)
	assert.Len(t, d[0].Files, 2)
	d, err = Dir2AbiFiles(top, false)
	require.NoError(t, err)
	assert.Len(t, d, 1, "without recursion only the top directory is listed")
	assert.Equal(t, DDBFile, FileKindOf("flow/w1/outdata/out_DDB"))
	assert.Equal(t, GSRFile, FileKindOf("x_GSR.nc"))
}

func TestElements(t *testing.T) {
	z, err := AtomicNumber("as")
	require.NoError(t, err)
	assert.Equal(t, 33, z)
	s, err := Symbol(12)
	require.NoError(t, err)
	assert.Equal(t, "Mg", s)
	_, err = Symbol(200)
	assert.ErrorIs(t, err, ErrUnknownElement)
}

func TestHighSymmetryPath(t *testing.T) {
	cases := map[string]KPath{"Si": FCCPath, "MgB2": HexPath}
	for name, want := range cases {
		S, err := StructureFromUcell(name)
		require.NoError(t, err)
		S.Path = nil
		P, err := HighSymmetryPath(S)
		require.NoError(t, err)
		assert.Equal(t, want.Names(), P.Names(), name)
	}
	cubic, err := NewStructure("sc", [3][3]float64{{6.3, 0, 0}, {0, 6.3, 0}, {0, 0, 6.3}}, []*Site{{Symbol: "Si"}})
	require.NoError(t, err)
	P, err := HighSymmetryPath(cubic)
	require.NoError(t, err)
	assert.Equal(t, "M", P.Names()[2])
	ortho, err := NewStructure("ortho", [3][3]float64{{5, 0, 0}, {0, 6, 0}, {0, 0, 7}}, []*Site{{Symbol: "Si"}})
	require.NoError(t, err)
	_, err = HighSymmetryPath(ortho)
	assert.ErrorIs(t, err, ErrNoKPath)
}
