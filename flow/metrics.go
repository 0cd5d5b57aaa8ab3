/*
 * metrics.go, part of goabinit.
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
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

//Metrics holds the Prometheus counters, histograms and gauges of a Scheduler.
type Metrics struct {
	TasksLaunched prometheus.Counter
	TasksFinished *prometheus.CounterVec //labels: status={OK,Unconverged,AbiCritical,Error}
	TasksRunning  prometheus.Gauge
	TaskDuration  *prometheus.HistogramVec //labels: program={abinit,anaddb}
	FlowsRunning  prometheus.Gauge
}

//durations of ABINIT runs go from seconds to days.
var durationBuckets = []float64{1, 10, 60, 300, 900, 3600, 4 * 3600, 12 * 3600, 24 * 3600, 72 * 3600}

func newMetrics() *Metrics {
	return &Metrics{
		TasksLaunched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "abigo",
			Name:      "tasks_launched_total",
			Help:      "Total tasks handed to the launcher.",
		}),
		TasksFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "abigo",
			Name:      "tasks_finished_total",
			Help:      "Tasks that reached a final status, by status.",
		}, []string{"status"}),
		TasksRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "abigo",
			Name:      "tasks_running",
			Help:      "Tasks being run at the moment.",
		}),
		TaskDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "abigo",
			Name:      "task_duration_seconds",
			Help:      "Wall time of each task, by program.",
			Buckets:   durationBuckets,
		}, []string{"program"}),
		FlowsRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "abigo",
			Name:      "flows_running",
			Help:      "Flows being scheduled at the moment.",
		}),
	}
}

//register registers c with reg. If an equal collector was already registered, it returns
//that one instead, so the same metrics can be asked for more than once.
func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	err := reg.Register(c)
	if err == nil {
		return c, nil
	}
	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		if old, ok := are.ExistingCollector.(T); ok {
			return old, nil
		}
	}
	return c, err
}

//RegisterMetrics creates the scheduler metrics and registers them with reg. If they were
//already registered, the registered collectors are returned.
func RegisterMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := newMetrics()
	var err error
	if m.TasksLaunched, err = register(reg, m.TasksLaunched); err != nil {
		return nil, err
	}
	if m.TasksFinished, err = register(reg, m.TasksFinished); err != nil {
		return nil, err
	}
	if m.TasksRunning, err = register(reg, m.TasksRunning); err != nil {
		return nil, err
	}
	if m.TaskDuration, err = register(reg, m.TaskDuration); err != nil {
		return nil, err
	}
	if m.FlowsRunning, err = register(reg, m.FlowsRunning); err != nil {
		return nil, err
	}
	return m, nil
}

//NewMetrics returns the scheduler metrics, registered with the default Prometheus registry.
//It panics only if other collectors with the same names but different help or labels are there.
func NewMetrics() *Metrics {
	m, err := RegisterMetrics(prometheus.DefaultRegisterer)
	if err != nil {
		panic(err)
	}
	return m
}

//NewMetricsForTesting creates Metrics that are not registered anywhere, so it can be
//called from several tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}
