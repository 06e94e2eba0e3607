package app

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Profiler keeps the CPU time of the last run of each named scope and a
// frame counter for the current reporting window.
type Profiler struct {
	Scopes     map[string]time.Duration
	StartTimes map[string]time.Time
	Counts     map[string]int
	Order      []string

	Frames      int
	windowStart time.Time
	now         func() time.Time
}

func NewProfiler() *Profiler {
	return newProfiler(time.Now)
}

func newProfiler(now func() time.Time) *Profiler {
	return &Profiler{
		Scopes:      make(map[string]time.Duration),
		StartTimes:  make(map[string]time.Time),
		Counts:      make(map[string]int),
		Order:       make([]string, 0),
		windowStart: now(),
		now:         now,
	}
}

func (p *Profiler) BeginScope(name string) {
	p.StartTimes[name] = p.now()
	found := false
	for _, n := range p.Order {
		if n == name {
			found = true
			break
		}
	}
	if !found {
		p.Order = append(p.Order, name)
	}
}

func (p *Profiler) EndScope(name string) {
	if start, ok := p.StartTimes[name]; ok {
		p.Scopes[name] = p.now().Sub(start)
	}
}

func (p *Profiler) SetCount(name string, count int) {
	p.Counts[name] = count
}

// FrameDone counts a presented frame. Once per interval it returns the
// frame rate over the elapsed window and starts a new one.
func (p *Profiler) FrameDone(interval time.Duration) (fps float64, report bool) {
	p.Frames++
	elapsed := p.now().Sub(p.windowStart)
	if elapsed < interval {
		return 0, false
	}
	fps = float64(p.Frames) / elapsed.Seconds()
	p.Frames = 0
	p.windowStart = p.now()
	return fps, true
}

func (p *Profiler) Reset() {
	for k := range p.Scopes {
		p.Scopes[k] = 0
	}
}

func (p *Profiler) GetStatsString() string {
	var sb strings.Builder

	sb.WriteString("Timings (CPU):\n")
	for _, name := range p.Order {
		dur := p.Scopes[name]
		ms := float64(dur.Microseconds()) / 1000.0
		sb.WriteString(fmt.Sprintf("  %-15s: %.2f ms\n", name, ms))
	}

	sb.WriteString("\nStats:\n")
	keys := make([]string, 0, len(p.Counts))
	for k := range p.Counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		sb.WriteString(fmt.Sprintf("  %-15s: %d\n", k, p.Counts[k]))
	}

	return sb.String()
}
