/*
 * doc.go, part of goabinit.
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

/*Package abinit is the main package of the goAbinit library. It provides crystal structures,
atomic data, unit conversions and the discovery of files produced by the ABINIT package.
The sub-packages read those files, plot what they contain, and drive calculations.



	**goAbinit Capabilities**


    Reads the main ABINIT output (.abo) and log files: ground-state and DFPT SCF cycles,
	timer sections (timopt -1), and the YAML event documents ABINIT writes (abio).

    Reads FATBANDS.nc files and computes L-projected densities of states by atom type
	with gaussian broadening (fatbands, edos).

    Reads, writes, and merges derivative databases (DDB), plain or compressed, and drives
	the mrgddb program when one is available (ddb).

    Plots SCF cycles, timer pie charts, fatbands and PJDOS (uses the gonum/plot library).

    Builds and runs flows of ABINIT and Anaddb tasks: a Flow contains Works, a Work contains
	Tasks, and each Task is one run of an external program. The phonon flow computes the
	ground state, then one Work per q-point, and merges the resulting DDB files (flow).

    Lists the files in a directory tree that can be opened, and produces HTML with the
	highlighted source of Go functions (notebook).

    ABINIT, anaddb and mrgddb must be obtained independently from the ABINIT project
	(https://www.abinit.org).

*/
package abinit
