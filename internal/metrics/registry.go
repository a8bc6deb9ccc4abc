// Package metrics provides the counters and timers exposed by the relay
package metrics

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// Timing aggregates the durations recorded under one name
type Timing struct {
	Name      string
	Last      time.Duration
	Count     int64
	TotalTime time.Duration
}

// Registry tracks counters and timings. It is built once per process and
// passed to the components that record into it.
type Registry struct {
	mu       sync.RWMutex
	timings  map[string]*Timing
	counters map[string]*int64
	started  time.Time
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		timings:  make(map[string]*Timing),
		counters: make(map[string]*int64),
		started:  time.Now(),
	}
}

// Key builds a series key in exposition form: name{k="v",...}.
// Labels are given as alternating key/value pairs.
func Key(name string, labels ...string) string {
	if len(labels) < 2 {
		return name
	}
	pairs := make([]string, 0, len(labels)/2)
	for i := 0; i+1 < len(labels); i += 2 {
		value := strings.ReplaceAll(labels[i+1], `"`, `\"`)
		pairs = append(pairs, fmt.Sprintf(`%s="%s"`, labels[i], value))
	}
	return name + "{" + strings.Join(pairs, ",") + "}"
}

// Inc increments a counter. Safe on a nil registry.
func (r *Registry) Inc(name string, labels ...string) {
	if r == nil {
		return
	}
	key := Key(name, labels...)

	r.mu.Lock()
	counter, exists := r.counters[key]
	if !exists {
		var c int64
		counter = &c
		r.counters[key] = counter
	}
	r.mu.Unlock()

	atomic.AddInt64(counter, 1)
}

// Counter returns the current value of a counter
func (r *Registry) Counter(name string, labels ...string) int64 {
	if r == nil {
		return 0
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	counter, exists := r.counters[Key(name, labels...)]
	if !exists {
		return 0
	}
	return atomic.LoadInt64(counter)
}

// Observe records a duration under name
func (r *Registry) Observe(name string, d time.Duration) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	timing, exists := r.timings[name]
	if !exists {
		timing = &Timing{Name: name}
		r.timings[name] = timing
	}
	timing.Count++
	timing.TotalTime += d
	timing.Last = d
}

// Since records the time elapsed from start
func (r *Registry) Since(name string, start time.Time) {
	r.Observe(name, time.Since(start))
}

// Timings returns a copy of all timings
func (r *Registry) Timings() map[string]Timing {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make(map[string]Timing, len(r.timings))
	for k, v := range r.timings {
		result[k] = *v
	}
	return result
}

// Uptime returns the time since the registry was created
func (r *Registry) Uptime() time.Duration {
	return time.Since(r.started)
}

// WriteText writes all series in the Prometheus text exposition format
func (r *Registry) WriteText(w io.Writer) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var b strings.Builder

	counterKeys := make([]string, 0, len(r.counters))
	for k := range r.counters {
		counterKeys = append(counterKeys, k)
	}
	sort.Strings(counterKeys)

	typed := make(map[string]bool)
	for _, key := range counterKeys {
		name := key
		if idx := strings.IndexByte(key, '{'); idx >= 0 {
			name = key[:idx]
		}
		if !typed[name] {
			fmt.Fprintf(&b, "# TYPE %s counter\n", name)
			typed[name] = true
		}
		fmt.Fprintf(&b, "%s %d\n", key, atomic.LoadInt64(r.counters[key]))
	}

	timingKeys := make([]string, 0, len(r.timings))
	for k := range r.timings {
		timingKeys = append(timingKeys, k)
	}
	sort.Strings(timingKeys)

	for _, name := range timingKeys {
		t := r.timings[name]
		fmt.Fprintf(&b, "# TYPE %s_seconds summary\n", name)
		fmt.Fprintf(&b, "%s_seconds_sum %g\n", name, t.TotalTime.Seconds())
		fmt.Fprintf(&b, "%s_seconds_count %d\n", name, t.Count)
	}

	fmt.Fprintf(&b, "# TYPE process_uptime_seconds gauge\nprocess_uptime_seconds %g\n", r.Uptime().Seconds())

	_, err := io.WriteString(w, b.String())
	return err
}

var (
	reportTitleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#FF6B6B")).
				Bold(true).
				PaddingBottom(1)

	reportHeaderStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#4ECDC4")).
				Bold(true)

	reportMetricStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#95E1D3"))

	reportValueStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#FFE66D"))

	reportSlowStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B")).
			Bold(true)

	reportSeparatorStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#636E72"))
)

// Report renders a human readable summary, slowest operations first
func (r *Registry) Report() string {
	timings := r.Timings()

	var report strings.Builder
	report.WriteString(reportSeparatorStyle.Render(strings.Repeat("═", 72)))
	report.WriteString("\n")
	report.WriteString(reportTitleStyle.Render("RESOLUTION REPORT"))
	report.WriteString("\n")
	report.WriteString(fmt.Sprintf("Uptime: %s\n\n", reportValueStyle.Render(r.Uptime().Round(time.Millisecond).String())))

	entries := make([]Timing, 0, len(timings))
	for _, t := range timings {
		entries = append(entries, t)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].TotalTime > entries[j].TotalTime
	})

	if len(entries) > 0 {
		report.WriteString(reportHeaderStyle.Render("Timings"))
		report.WriteString("\n")
		for _, t := range entries {
			avg := time.Duration(0)
			if t.Count > 0 {
				avg = t.TotalTime / time.Duration(t.Count)
			}
			avgStr := avg.Round(time.Millisecond).String()
			if avg > 5*time.Second {
				avgStr = reportSlowStyle.Render(avgStr)
			} else {
				avgStr = reportValueStyle.Render(avgStr)
			}
			report.WriteString(fmt.Sprintf("   %-36s %6d  avg %s\n", reportMetricStyle.Render(t.Name), t.Count, avgStr))
		}
		report.WriteString("\n")
	}

	r.mu.RLock()
	keys := make([]string, 0, len(r.counters))
	for k := range r.counters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if len(keys) > 0 {
		report.WriteString(reportHeaderStyle.Render("Counters"))
		report.WriteString("\n")
		for _, k := range keys {
			report.WriteString(fmt.Sprintf("   %-52s %s\n",
				reportMetricStyle.Render(k),
				reportValueStyle.Render(fmt.Sprintf("%d", atomic.LoadInt64(r.counters[k])))))
		}
	}
	r.mu.RUnlock()

	report.WriteString(reportSeparatorStyle.Render(strings.Repeat("═", 72)))
	report.WriteString("\n")
	return report.String()
}
