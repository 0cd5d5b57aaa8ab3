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

//Package flow runs ABINIT calculations that need more than one invocation of
//ABINIT or its auxiliary programs.
//
//A Flow is an ordered list of Works, and a Work an ordered list of Tasks. Each
//Task runs one program (abinit or anaddb) in its own directory, with its input
//files in indata, its output files in outdata and its scratch files in tmpdata.
//Tasks can depend on the output files of other tasks (or on existing files),
//which are linked into the indata directory before the task starts.
//
//Tasks can be run one by one with StartAndWait, or by a Scheduler, which polls
//the flow and launches the tasks as they become ready.
package flow
