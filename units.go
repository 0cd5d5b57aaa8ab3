/*
 * units.go, part of goabinit.
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

//This provides useful conversion factors and other constants

//Conversions (CODATA 2018)
const (
	Ha2eV   = 27.211386245988
	EV2Ha   = 1 / Ha2eV
	Ha2meV  = Ha2eV * 1000
	Bohr2A  = 0.529177210903
	A2Bohr  = 1 / Bohr2A
	Ha2Cmm1 = 219474.6313632 //Hartree to cm^-1
	Deg2Rad = 0.0174533
)
