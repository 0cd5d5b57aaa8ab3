/*
 * vars.go, part of goabinit.
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

package flow

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

//variable is a name-value pair of an ABINIT or anaddb input.
type variable struct {
	name  string
	value any
}

//vars is a list of variables that keeps the order in which they were set.
type vars []variable

func (V vars) index(name string) int {
	for i, v := range V {
		if v.name == name {
			return i
		}
	}
	return -1
}

//set adds the variable, or replaces its value keeping its position.
func (V *vars) set(name string, value any) {
	if i := V.index(name); i >= 0 {
		(*V)[i].value = value
		return
	}
	*V = append(*V, variable{name, value})
}

func (V vars) get(name string) (any, bool) {
	if i := V.index(name); i >= 0 {
		return V[i].value, true
	}
	return nil, false
}

func (V *vars) remove(name string) {
	if i := V.index(name); i >= 0 {
		*V = append((*V)[:i], (*V)[i+1:]...)
	}
}

func (V vars) names() []string {
	ret := make([]string, len(V))
	for i, v := range V {
		ret[i] = v.name
	}
	return ret
}

func (V vars) copy() vars {
	return append(vars(nil), V...)
}

//setMap sets all the variables in m, in alphabetical order so the result is reproducible.
func (V *vars) setMap(m map[string]any) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		V.set(k, m[k])
	}
}

//variables with a path or a list of paths as value, which go between quotes.
var quotedVars = map[string]bool{
	"pseudos":        true,
	"pp_dirpath":     true,
	"indata_prefix":  true,
	"outdata_prefix": true,
	"tmpdata_prefix": true,
	"output_file":    true,
	"ddb_filepath":   true,
}

//write writes the variables to b, one per line, appending suffix to each name
//(used for the dataset index in multi-dataset inputs).
func (V vars) write(b *strings.Builder, suffix string) {
	for _, v := range V {
		val := formatValue(v.value)
		if s, ok := v.value.(string); ok && quotedVars[v.name] {
			val = strconv.Quote(s)
		}
		if strings.Contains(val, "\n") {
			fmt.Fprintf(b, "%s%s\n%s\n", v.name, suffix, val)
			continue
		}
		fmt.Fprintf(b, "%s%s %s\n", v.name, suffix, val)
	}
}

//formatValue writes numbers, strings, booleans (as 1 and 0) and slices or arrays of those.
//Slices of slices are written one row per line.
func formatValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		if v {
			return "1"
		}
		return "0"
	case float64:
		return formatFloat(v)
	case float32:
		return formatFloat(float64(v))
	case fmt.Stringer:
		return v.String()
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if rv.Len() == 0 {
			return ""
		}
		k := rv.Index(0).Kind()
		if k == reflect.Slice || k == reflect.Array {
			rows := make([]string, rv.Len())
			for i := range rows {
				rows[i] = "    " + formatValue(rv.Index(i).Interface())
			}
			return strings.Join(rows, "\n")
		}
		items := make([]string, rv.Len())
		for i := range items {
			items[i] = formatValue(rv.Index(i).Interface())
		}
		return strings.Join(items, " ")
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10)
	case reflect.Float32, reflect.Float64:
		return formatFloat(rv.Float())
	}
	return fmt.Sprint(value)
}

//formatFloat writes floats in the shortest form that keeps the value. Integral values
//get a ".0" so ABINIT doesn't take them for integers.
func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eEn") {
		s += ".0"
	}
	return s
}
