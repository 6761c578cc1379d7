// Writer implementations printing the run trace to STDOUT
package sim

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"text/tabwriter"
	"time"

	"golang.org/x/term"

	"lnops-sim/internal/incident"
)

const (
	colorReset   = "\x1b[0m"
	colorRed     = "\x1b[31m"
	colorGreen   = "\x1b[32m"
	colorYellow  = "\x1b[33m"
	colorBlue    = "\x1b[34m"
	colorMagenta = "\x1b[35m"
	colorCyan    = "\x1b[36m"
	colorGray    = "\x1b[90m"
)

// StdoutWriter prints trace rows either colourised for a terminal or as JSON lines.
type StdoutWriter struct {
	mu       sync.Mutex
	out      io.Writer
	colorize bool
	track    string
	rules    Rules
	once     sync.Once
}

// NewStdoutWriter writes to os.Stdout, colourising when it is a terminal and
// forceJSON is false.
func NewStdoutWriter(track string, rules Rules, forceJSON bool) *StdoutWriter {
	color := !forceJSON && term.IsTerminal(int(os.Stdout.Fd()))
	return &StdoutWriter{out: os.Stdout, colorize: color, track: track, rules: rules}
}

func (w *StdoutWriter) printOverview() {
	if !w.colorize {
		return
	}
	fmt.Fprintln(w.out, "Stress Test Configuration:")
	tw := tabwriter.NewWriter(w.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Track:\t%s\n", w.track)
	fmt.Fprintf(tw, "Duration (s):\t%d\n", w.rules.Duration)
	fmt.Fprintf(tw, "Max Active:\t%d\n", w.rules.MaxActive)
	fmt.Fprintf(tw, "Success Probability:\t%.2f\n", w.rules.SuccessProbability)
	tw.Flush()
	fmt.Fprintln(w.out)
}

func (w *StdoutWriter) emit(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal row: %w", err)
	}
	_, err = fmt.Fprintln(w.out, string(data))
	return err
}

// uptimeColor picks the gauge colour for an uptime value.
func uptimeColor(v float64) string {
	switch {
	case v > 60:
		return colorGreen
	case v > 30:
		return colorYellow
	}
	return colorRed
}

// WriteTick outputs a single tick row.
func (w *StdoutWriter) WriteTick(row incident.TickRow) error {
	w.once.Do(w.printOverview)
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.colorize {
		return w.emit(row)
	}
	fmt.Fprintf(w.out, "%s[%s]%s ", colorGray, row.Timestamp.Format(time.RFC3339), colorReset)
	fmt.Fprintf(w.out, "%stick=%d%s ", colorBlue, row.Tick, colorReset)
	fmt.Fprintf(w.out, "%suptime=%.1f%%%s ", uptimeColor(row.Uptime), row.Uptime, colorReset)
	fmt.Fprintf(w.out, "%st-%ds%s ", colorCyan, row.TimeRemaining, colorReset)
	fmt.Fprintf(w.out, "%sopen=%d%s resolved=%d decay=%.2f", colorYellow, row.Unresolved, colorReset, row.Resolved, row.Decay)
	if row.SpawnedID != "" {
		fmt.Fprintf(w.out, " %sspawn=%s%s", colorMagenta, row.SpawnedID, colorReset)
	}
	fmt.Fprintln(w.out)
	return nil
}

// WriteTicks outputs multiple tick rows.
func (w *StdoutWriter) WriteTicks(rows []incident.TickRow) error {
	for _, r := range rows {
		_ = w.WriteTick(r)
	}
	return nil
}

// WriteAction prints a mitigation attempt.
func (w *StdoutWriter) WriteAction(row incident.ActionRow) error {
	w.once.Do(w.printOverview)
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.colorize {
		return w.emit(row)
	}
	status, col := "FAILED", colorRed
	if row.Success {
		status, col = "OK", colorGreen
	}
	fmt.Fprintf(w.out, "%s[%s]%s %sACTION%s %s on %s (%s) %s%s%s delta=%+.1f\n",
		colorGray, row.Timestamp.Format(time.RFC3339), colorReset,
		colorCyan, colorReset, row.Action, row.EventType, row.Severity,
		col, status, colorReset, row.Delta)
	return nil
}

// WriteOutcome prints the end-of-run report.
func (w *StdoutWriter) WriteOutcome(row incident.OutcomeRow) error {
	w.once.Do(w.printOverview)
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.colorize {
		return w.emit(row)
	}
	col := colorRed
	if row.Success() {
		col = colorGreen
	}
	fmt.Fprintf(w.out, "%s[%s]%s %s%s%s score=%.1f resolved=%d ticks=%d\n",
		colorGray, row.Timestamp.Format(time.RFC3339), colorReset,
		col, row.Result, colorReset, row.Score, row.Resolved, row.Ticks)
	for _, u := range row.Unresolved {
		fmt.Fprintf(w.out, "  %s[FATAL]%s Unresolved: %s (%s)\n", colorRed, colorReset, u.Title, u.RootCause)
	}
	return nil
}
