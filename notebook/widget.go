/*
 * widget.go, part of goabinit.
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
	"fmt"
	"html/template"
	"path/filepath"
	"strings"

	abinit "github.com/rmera/goabinit"
)

//The kinds of widget Listdir can build.
const (
	ToogleButtons = "tooglebuttons"
	Dropdown      = "dropdown"
	RadioButtons  = "radiobuttons"
)

var widgetTypes = []string{ToogleButtons, Dropdown, RadioButtons}

//WidgetTypeError is returned by Listdir for an unknown type of widget.
type WidgetTypeError struct {
	Type string
}

func (E *WidgetTypeError) Error() string {
	return fmt.Sprintf("notebook: invalid widget type %q, choose among: %s", E.Type, strings.Join(widgetTypes, ", "))
}

//Option is a file that can be selected in a widget.
type Option struct {
	Label string //the base name of the file
	Path  string
	Kind  abinit.FileKind
}

//Group is the list of files of one directory.
type Group struct {
	Dir     string
	Options []Option
}

//Widget lets the user pick one ABINIT file among those found in a directory tree.
type Widget struct {
	Type   string
	Top    string
	Groups []Group
}

//Listdir returns a widget of the given type (tooglebuttons, dropdown or radiobuttons) with
//the ABINIT files in top and, if recurse is true, in its subdirectories. There is one group
//of options per directory. An unknown type gives a *WidgetTypeError.
func Listdir(top string, recurse bool, widgetType string) (*Widget, error) {
	valid := false
	for _, v := range widgetTypes {
		if v == widgetType {
			valid = true
		}
	}
	if !valid {
		return nil, &WidgetTypeError{widgetType}
	}
	dirs, err := abinit.Dir2AbiFiles(top, recurse)
	if err != nil {
		return nil, err
	}
	W := &Widget{Type: widgetType, Top: top}
	for _, d := range dirs {
		g := Group{Dir: d.Dir}
		for _, f := range d.Files {
			g.Options = append(g.Options, Option{Label: filepath.Base(f), Path: f, Kind: abinit.FileKindOf(f)})
		}
		W.Groups = append(W.Groups, g)
	}
	return W, nil
}

//Paths returns the paths of all the options, group by group.
func (W *Widget) Paths() []string {
	var ret []string
	for _, g := range W.Groups {
		for _, o := range g.Options {
			ret = append(ret, o.Path)
		}
	}
	return ret
}

//Len returns the number of options.
func (W *Widget) Len() int {
	n := 0
	for _, g := range W.Groups {
		n += len(g.Options)
	}
	return n
}

var widgetTemplate = template.Must(template.New("widget").Parse(`<div class="abigo-listdir abigo-{{.Type}}">
{{- $type := .Type}}
{{- range $i, $g := .Groups}}
<fieldset>
<legend>{{$g.Dir}}</legend>
{{- if eq $type "dropdown"}}
<select name="group{{$i}}">
{{- range $g.Options}}
<option value="{{.Path}}" title="{{.Kind}}">{{.Label}}</option>
{{- end}}
</select>
{{- else if eq $type "radiobuttons"}}
{{- range $g.Options}}
<label><input type="radio" name="group{{$i}}" value="{{.Path}}"> {{.Label}}</label><br>
{{- end}}
{{- else}}
{{- range $g.Options}}
<button type="button" class="abigo-toggle" value="{{.Path}}" title="{{.Kind}}">{{.Label}}</button>
{{- end}}
{{- end}}
</fieldset>
{{- end}}
</div>
`))

//HTML renders the widget.
func (W *Widget) HTML() (string, error) {
	var b bytes.Buffer
	if err := widgetTemplate.Execute(&b, W); err != nil {
		return "", err
	}
	return b.String(), nil
}
