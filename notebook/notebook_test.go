/*
 * notebook_test.go, part of goabinit.
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

package notebook

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSource(t *testing.T) {
	src, err := Source("../flow", "Status.IsTerminal")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(src, "//IsTerminal returns true"), src)
	assert.Contains(t, src, "func (s Status) IsTerminal() bool {")
	assert.True(t, strings.HasSuffix(src, "}"))

	src, err = Source("../abio", "Section")
	require.NoError(t, err)
	assert.Contains(t, src, "type Section struct")

	src, err = Source("../flow", "Task.StartAndWait")
	require.NoError(t, err)
	assert.Contains(t, src, "func (T *Task) StartAndWait(ctx context.Context) error")

	_, err = Source("../flow", "NoSuchThing")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = Source(t.TempDir(), "Anything")
	assert.Error(t, err)
}

func TestPrintSource(t *testing.T) {
	page, err := PrintSource("../flow", "ParseStatus")
	require.NoError(t, err)
	assert.Contains(t, page, "<html")
	assert.Contains(t, page, "ParseStatus")

	page2, err := PrintSourceInModule("ParseStatus", "github.com/rmera/goabinit/flow")
	require.NoError(t, err)
	assert.Equal(t, page, page2)
	_, err = PrintSourceInModule("ParseStatus", "abio")
	assert.ErrorIs(t, err, ErrNotFound)

	var b bytes.Buffer
	require.NoError(t, Highlight(&b, "ecut 10\n", "run.abi", "text"))
	assert.Equal(t, "ecut 10\n", b.String())
	b.Reset()
	require.NoError(t, Highlight(&b, "package main\n", "go", "terminal"))
	assert.Contains(t, b.String(), "\x1b[")
	b.Reset()
	require.NoError(t, Highlight(&b, "package main\n", "go", "html-inline"))
	assert.NotContains(t, b.String(), "<html")
	assert.Error(t, Highlight(&b, "x", "go", "pdf"))
}

//abiTree creates a directory with two ABINIT files, a file that is not, and
//a subdirectory with a DDB.
func abiTree(t *testing.T) string {
	top := t.TempDir()
	copyFile := func(src, dst string) {
		data, err := os.ReadFile(src)
		require.NoError(t, err)
		require.NoError(t, os.MkdirAll(filepath.Dir(dst), 0o755))
		require.NoError(t, os.WriteFile(dst, data, 0o644))
	}
	copyFile("../abio/testdata/run.abo", filepath.Join(top, "run.abo"))
	require.NoError(t, os.WriteFile(filepath.Join(top, "run.abi"), []byte("ecut 10\nnband 4\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(top, "notes.txt"), []byte("nothing"), 0o644))
	copyFile("../ddb/testdata/gamma_DDB", filepath.Join(top, "w0", "t0", "outdata", "out_DDB"))
	return top
}

func TestListdir(t *testing.T) {
	top := abiTree(t)
	W, err := Listdir(top, false, Dropdown)
	require.NoError(t, err)
	require.Len(t, W.Groups, 1)
	assert.Equal(t, []string{filepath.Join(top, "run.abi"), filepath.Join(top, "run.abo")}, W.Paths())

	W, err = Listdir(top, true, Dropdown)
	require.NoError(t, err)
	assert.Len(t, W.Groups, 2)
	assert.Equal(t, 3, W.Len())
	html, err := W.HTML()
	require.NoError(t, err)
	assert.Contains(t, html, "<select")
	assert.Contains(t, html, ">out_DDB</option>")
	assert.Contains(t, html, `title="abinit output"`)

	W, err = Listdir(top, true, RadioButtons)
	require.NoError(t, err)
	html, err = W.HTML()
	require.NoError(t, err)
	assert.Equal(t, 3, strings.Count(html, `type="radio"`))

	W, err = Listdir(top, true, ToogleButtons)
	require.NoError(t, err)
	html, err = W.HTML()
	require.NoError(t, err)
	assert.Equal(t, 3, strings.Count(html, "abigo-toggle"))

	_, err = Listdir(top, true, "checkboxes")
	var wte *WidgetTypeError
	require.True(t, errors.As(err, &wte))
	assert.Equal(t, "checkboxes", wte.Type)
	assert.Contains(t, err.Error(), "tooglebuttons, dropdown, radiobuttons")

	_, err = Listdir(filepath.Join(top, "nothere"), true, Dropdown)
	assert.Error(t, err)
}

func TestSummary(t *testing.T) {
	top := abiTree(t)
	s := Summary(filepath.Join(top, "run.abo"))
	assert.Contains(t, s, "2 GS SCF cycles")
	assert.Contains(t, s, "1 DFPT SCF cycles")
	assert.Contains(t, s, "cpu time 2.9 s")
	assert.Contains(t, s, "Completed: true")

	s = Summary(filepath.Join(top, "w0", "t0", "outdata", "out_DDB"))
	assert.Contains(t, s, "Phonons of AlAs at Gamma")
	assert.Contains(t, s, "2 blocks")

	assert.Contains(t, Summary(filepath.Join(top, "run.abi")), "2 lines")
	assert.Contains(t, Summary(filepath.Join(top, "missing.abo")), "no such file")
}

func keys(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestBrowser(t *testing.T) {
	top := abiTree(t)
	W, err := Listdir(top, true, Dropdown)
	require.NoError(t, err)
	B := NewBrowser(W)
	B.Summarize = func(path string) string { return "summary of " + filepath.Base(path) }
	assert.Nil(t, B.Init())
	require.Equal(t, 3, B.Len())
	assert.Equal(t, "run.abi", B.Selected().Label)

	B.Update(tea.KeyMsg{Type: tea.KeyDown})
	B.Update(tea.KeyMsg{Type: tea.KeyDown})
	B.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, "out_DDB", B.Selected().Label, "the cursor stops at the last file")
	B.Update(tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, "run.abo", B.Selected().Label)

	_, cmd := B.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	msg := cmd()
	sm, ok := msg.(SummaryMsg)
	require.True(t, ok)
	assert.Equal(t, filepath.Join(top, "run.abo"), sm.Path)
	B.Update(msg)
	assert.Equal(t, "summary of run.abo", B.SummaryText())
	assert.Contains(t, B.View(), "summary of run.abo")

	B.Update(keys("/"))
	B.Update(keys("ddb"))
	assert.Equal(t, 1, B.Len())
	assert.Equal(t, "out_DDB", B.Selected().Label)
	B.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, 3, B.Len())

	B.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	view := B.View()
	assert.Contains(t, view, "run.abi")
	assert.Contains(t, view, filepath.Join(top, "w0", "t0", "outdata"))

	_, cmd = B.Update(keys("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}
