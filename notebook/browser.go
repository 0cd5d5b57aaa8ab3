/*
 * browser.go, part of goabinit.
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
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

//SummaryMsg carries the summary of the file selected in a Browser.
type SummaryMsg struct {
	Path    string
	Summary string
}

//Browser is a terminal model (for bubbletea) that lists the files of a Widget. Pressing
//enter on a file shows its Summary, "/" filters the list by name.
type Browser struct {
	widget    *Widget
	items     []Option
	dirs      []string //the directory of each item
	cursor    int
	filter    textinput.Model
	filtering bool
	summary   string
	width     int
	height    int
	Summarize func(path string) string

	dirStyle      lipgloss.Style
	rowStyle      lipgloss.Style
	selectedStyle lipgloss.Style
	summaryStyle  lipgloss.Style
	helpStyle     lipgloss.Style
}

//NewBrowser returns a browser over the files in W.
func NewBrowser(W *Widget) *Browser {
	ti := textinput.New()
	ti.Placeholder = "filter"
	ti.CharLimit = 100
	ti.Width = 40
	B := &Browser{
		widget:    W,
		filter:    ti,
		width:     80,
		height:    24,
		Summarize: Summary,

		dirStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")),

		rowStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")),

		selectedStyle: lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("15")).
			Bold(true),

		summaryStyle: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1),

		helpStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("244")),
	}
	B.refilter()
	return B
}

func (B *Browser) refilter() {
	text := strings.ToLower(strings.TrimSpace(B.filter.Value()))
	B.items = B.items[:0]
	B.dirs = B.dirs[:0]
	for _, g := range B.widget.Groups {
		for _, o := range g.Options {
			if text != "" && !strings.Contains(strings.ToLower(o.Path), text) {
				continue
			}
			B.items = append(B.items, o)
			B.dirs = append(B.dirs, g.Dir)
		}
	}
	if B.cursor >= len(B.items) {
		B.cursor = max(0, len(B.items)-1)
	}
}

//Selected returns the option under the cursor, or nil if the list is empty.
func (B *Browser) Selected() *Option {
	if len(B.items) == 0 {
		return nil
	}
	return &B.items[B.cursor]
}

//Len returns the number of files shown.
func (B *Browser) Len() int { return len(B.items) }

//SummaryText returns the last summary shown.
func (B *Browser) SummaryText() string { return B.summary }

func (B *Browser) Init() tea.Cmd { return nil }

func (B *Browser) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		B.width = msg.Width
		B.height = msg.Height
		return B, nil
	case SummaryMsg:
		B.summary = msg.Summary
		return B, nil
	case tea.KeyMsg:
		if B.filtering {
			switch msg.String() {
			case "esc":
				B.filtering = false
				B.filter.Reset()
				B.filter.Blur()
				B.refilter()
				return B, nil
			case "enter":
				B.filtering = false
				B.filter.Blur()
				return B, nil
			}
			var cmd tea.Cmd
			B.filter, cmd = B.filter.Update(msg)
			B.refilter()
			return B, cmd
		}
		switch msg.String() {
		case "ctrl+c", "q":
			return B, tea.Quit
		case "up", "k":
			if B.cursor > 0 {
				B.cursor--
			}
		case "down", "j":
			if B.cursor < len(B.items)-1 {
				B.cursor++
			}
		case "/":
			B.filtering = true
			return B, B.filter.Focus()
		case "enter":
			if o := B.Selected(); o != nil {
				path, summarize := o.Path, B.Summarize
				return B, func() tea.Msg {
					return SummaryMsg{Path: path, Summary: summarize(path)}
				}
			}
		}
	}
	return B, nil
}

func (B *Browser) View() string {
	var b strings.Builder
	if len(B.items) == 0 {
		b.WriteString(B.rowStyle.Render("No ABINIT files in "+B.widget.Top) + "\n")
	}
	//only the rows around the cursor fit on the screen.
	rows := max(5, B.height/2)
	start := max(0, B.cursor-rows/2)
	end := min(len(B.items), start+rows)
	lastDir := ""
	for i := start; i < end; i++ {
		if B.dirs[i] != lastDir {
			lastDir = B.dirs[i]
			b.WriteString(B.dirStyle.Render(lastDir) + "\n")
		}
		line := fmt.Sprintf("  %-40s %s", B.items[i].Label, B.items[i].Kind)
		if i == B.cursor {
			b.WriteString(B.selectedStyle.Render(line) + "\n")
		} else {
			b.WriteString(B.rowStyle.Render(line) + "\n")
		}
	}
	if B.filtering || B.filter.Value() != "" {
		b.WriteString(B.filter.View() + "\n")
	}
	if B.summary != "" {
		b.WriteString(B.summaryStyle.Width(max(20, B.width-2)).Render(strings.TrimRight(B.summary, "\n")) + "\n")
	}
	b.WriteString(B.helpStyle.Render("↑/↓ move • enter summary • / filter • q quit"))
	return b.String()
}

//RunBrowser shows the browser in the terminal until the user quits.
func RunBrowser(W *Widget) error {
	_, err := tea.NewProgram(NewBrowser(W), tea.WithAltScreen()).Run()
	return err
}
