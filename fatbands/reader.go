/*
 * reader.go, part of goabinit.
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

package fatbands

import (
	"errors"
	"fmt"
	"reflect"
	"sort"

	"github.com/batchatco/go-native-netcdf/netcdf"
	"github.com/batchatco/go-native-netcdf/netcdf/api"
)

//ErrNoVariable is returned by a Reader when the requested variable or dimension is not in the file.
var ErrNoVariable = errors.New("goAbinit/fatbands: variable not in file")

//Reader gives access to the variables of a NetCDF-like file.
type Reader interface {
	//Floats returns the values of the variable flattened in row-major order, and its shape.
	//Scalars have an empty shape.
	Floats(name string) ([]float64, []int, error)
	//Dim returns the length of a dimension.
	Dim(name string) (int, error)
	Variables() []string
	Close() error
}

//ncReader is a Reader for NetCDF (both classic and HDF5-based) files.
type ncReader struct {
	path string
	g    api.Group
}

//NewNCReader opens the NetCDF file in path.
func NewNCReader(path string) (Reader, error) {
	g, err := netcdf.Open(path)
	if err != nil {
		return nil, err
	}
	return &ncReader{path: path, g: g}, nil
}

func (R *ncReader) Floats(name string) ([]float64, []int, error) {
	v, err := R.g.GetVariable(name)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s in %s", ErrNoVariable, name, R.path)
	}
	shape := make([]int, 0, len(v.Dimensions))
	for _, d := range v.Dimensions {
		n, err := R.Dim(d)
		if err != nil {
			return nil, nil, err
		}
		shape = append(shape, n)
	}
	vals, err := flatten(reflect.ValueOf(v.Values), nil)
	if err != nil {
		return nil, nil, fmt.Errorf("goAbinit/fatbands: variable %s in %s: %w", name, R.path, err)
	}
	return vals, shape, nil
}

func (R *ncReader) Dim(name string) (int, error) {
	n, ok := R.g.GetDimension(name)
	if !ok {
		return 0, fmt.Errorf("%w: dimension %s in %s", ErrNoVariable, name, R.path)
	}
	return int(n), nil
}

func (R *ncReader) Variables() []string {
	ret := R.g.ListVariables()
	sort.Strings(ret)
	return ret
}

func (R *ncReader) Close() error {
	R.g.Close()
	return nil
}

//flatten appends to dest all the numbers in v, which can be a number or
//a (possibly nested) slice or array of numbers.
func flatten(v reflect.Value, dest []float64) ([]float64, error) {
	switch v.Kind() {
	case reflect.Slice, reflect.Array:
		var err error
		for i := 0; i < v.Len(); i++ {
			if dest, err = flatten(v.Index(i), dest); err != nil {
				return nil, err
			}
		}
		return dest, nil
	case reflect.Float32, reflect.Float64:
		return append(dest, v.Float()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return append(dest, float64(v.Int())), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return append(dest, float64(v.Uint())), nil
	case reflect.Interface:
		return flatten(v.Elem(), dest)
	}
	return nil, fmt.Errorf("non-numeric data of kind %s", v.Kind())
}
