/*
 * handy.go, part of goabinit.
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

package abinit

import (
	"strconv"
	"strings"
)

//ParseFortranFloat parses a float that can use the Fortran D exponent (1.0D+01).
//ABINIT also writes numbers like 1.0-100 when the exponent has 3 digits, these
//are understood too.
func ParseFortranFloat(s string) (float64, error) {
	s = strings.TrimSpace(s)
	s = strings.Map(func(r rune) rune {
		if r == 'D' || r == 'd' {
			return 'E'
		}
		return r
	}, s)
	f, err := strconv.ParseFloat(s, 64)
	if err == nil {
		return f, nil
	}
	//the 1.0-100 case
	if i := strings.LastIndexAny(s, "+-"); i > 0 && !strings.ContainsAny(s, "eE") {
		return strconv.ParseFloat(s[:i]+"E"+s[i:], 64)
	}
	return f, err
}

//ParseFortranFloats parses all the fields as floats.
func ParseFortranFloats(fields []string) ([]float64, error) {
	ret := make([]float64, len(fields))
	var err error
	for i, v := range fields {
		if ret[i], err = ParseFortranFloat(v); err != nil {
			return nil, err
		}
	}
	return ret, nil
}
