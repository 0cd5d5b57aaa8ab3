/*
 * timer.go, part of goabinit.
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

package abio

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	abinit "github.com/rmera/goabinit"
)

const (
	timerBegin    = "-<BEGIN_TIMER"
	timerEnd      = "-<END_TIMER>"
	completedMark = "Calculation completed."
)

//Section is one line of the timer: the time spent by ABINIT in a routine.
//Times are in seconds, fractions in percent. Speedup and Efficacy are -1 when
//ABINIT didn't print them.
type Section struct {
	Name      string
	CPUTime   float64
	CPUFract  float64
	WallTime  float64
	WallFract float64
	NCalls    int
	Gflops    float64
	Speedup   float64
	Efficacy  float64
}

//Timer is the timing analysis ABINIT prints at the end of a run with timopt -1.
type Timer struct {
	Info     map[string]int //mpi_nprocs, omp_nthreads, mpi_rank
	CPUTime  float64
	WallTime float64
	Sections []*Section
}

//Total returns the total cpu or wall time, depending on key.
func (T *Timer) Total(key string) (float64, error) {
	switch key {
	case "cpu":
		return T.CPUTime, nil
	case "wall":
		return T.WallTime, nil
	}
	return 0, fmt.Errorf("%w: %q (use cpu or wall)", ErrUnknownTimerKey, key)
}

//Section returns the section with the given name, or nil.
func (T *Timer) Section(name string) *Section {
	for _, v := range T.Sections {
		if v.Name == name {
			return v
		}
	}
	return nil
}

//Slice is one piece of a pie chart.
type Slice struct {
	Label string
	Value float64
}

//Slices returns the sections sorted by decreasing cpu or wall time (depending on key).
//Sections that take less than minFract of the total time (0<=minFract<1) are
//grouped in a slice named "others", together with the time the timer doesn't
//assign to any section.
func (T *Timer) Slices(key string, minFract float64) ([]Slice, error) {
	total, err := T.Total(key)
	if err != nil {
		return nil, err
	}
	val := func(s *Section) float64 {
		if key == "cpu" {
			return s.CPUTime
		}
		return s.WallTime
	}
	sorted := append([]*Section(nil), T.Sections...)
	sort.SliceStable(sorted, func(i, j int) bool { return val(sorted[i]) > val(sorted[j]) })
	var ret []Slice
	others := total
	for _, v := range sorted {
		t := val(v)
		if total > 0 && t/total < minFract {
			continue
		}
		ret = append(ret, Slice{v.Name, t})
		others -= t
	}
	if others > 1e-6*total && others > 0 {
		ret = append(ret, Slice{"others", others})
	}
	return ret, nil
}

func (T *Timer) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Timer mpi_nprocs=%d omp_nthreads=%d mpi_rank=%d cpu_time=%.1f wall_time=%.1f\n",
		T.Info["mpi_nprocs"], T.Info["omp_nthreads"], T.Info["mpi_rank"], T.CPUTime, T.WallTime)
	for _, v := range T.Sections {
		fmt.Fprintf(&b, "%-28s %10.3f %5.1f %10.3f %5.1f %8d\n", v.Name, v.CPUTime, v.CPUFract, v.WallTime, v.WallFract, v.NCalls)
	}
	return b.String()
}

//parseTimerInfo parses the key = value pairs in the BEGIN_TIMER line.
func parseTimerInfo(line string) map[string]int {
	info := make(map[string]int)
	line = strings.TrimPrefix(strings.TrimSpace(line), timerBegin)
	line = strings.TrimSuffix(line, ">")
	for _, kv := range strings.Split(line, ",") {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			continue
		}
		info[strings.TrimSpace(k)] = n
	}
	return info
}

//readTimer reads the next timer section from L, or returns nil, nil if there are no more.
func readTimer(L *lineReader) (*Timer, error) {
	var T *Timer
	for L.Scan() {
		line := strings.TrimSpace(L.Text())
		if T == nil {
			if strings.HasPrefix(line, timerBegin) {
				T = &Timer{Info: parseTimerInfo(line)}
			}
			continue
		}
		if strings.HasPrefix(line, timerEnd) {
			return T, nil
		}
		line = strings.TrimSpace(strings.TrimPrefix(line, "-"))
		switch {
		case line == "", strings.HasPrefix(line, "routine"), strings.HasPrefix(line, "(-1=no count)"):
			continue
		case strings.HasPrefix(line, "cpu_time"):
			//cpu_time =           2.9, wall_time =           3.0
			for _, kv := range strings.Split(line, ",") {
				k, v, ok := strings.Cut(kv, "=")
				if !ok {
					continue
				}
				f, err := abinit.ParseFortranFloat(v)
				if err != nil {
					return nil, Error{fmt.Sprintf("%s %q", UnparsableData, v), L.filename, L.lineno, []string{"readTimer"}, true}
				}
				switch strings.TrimSpace(k) {
				case "cpu_time":
					T.CPUTime = f
				case "wall_time":
					T.WallTime = f
				}
			}
		default:
			s, err := parseSection(line)
			if err != nil {
				return nil, Error{err.Error(), L.filename, L.lineno, []string{"readTimer"}, true}
			}
			T.Sections = append(T.Sections, s)
		}
	}
	if T != nil {
		return nil, Error{UnclosedTimer, L.filename, L.lineno, []string{"readTimer"}, true}
	}
	return nil, nil
}

//parseSection parses a timer row. The name can contain spaces, so the numbers
//are taken from the right: 8 of them in recent versions, 6 in older ones.
func parseSection(line string) (*Section, error) {
	fields := strings.Fields(line)
	nums := 0
	for i := len(fields) - 1; i > 0; i-- {
		if _, err := abinit.ParseFortranFloat(fields[i]); err != nil {
			break
		}
		nums++
	}
	switch {
	case nums >= 8:
		nums = 8
	case nums >= 6:
		nums = 6
	default:
		return nil, fmt.Errorf("%s: timer row %q", UnparsableData, line)
	}
	name := strings.Join(fields[:len(fields)-nums], " ")
	vals, _ := abinit.ParseFortranFloats(fields[len(fields)-nums:])
	s := &Section{
		Name:      name,
		CPUTime:   vals[0],
		CPUFract:  vals[1],
		WallTime:  vals[2],
		WallFract: vals[3],
		NCalls:    int(vals[4]),
		Gflops:    vals[5],
		Speedup:   -1,
		Efficacy:  -1,
	}
	if nums == 8 {
		s.Speedup = vals[6]
		s.Efficacy = vals[7]
	}
	return s, nil
}
