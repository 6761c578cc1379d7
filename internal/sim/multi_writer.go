package sim

import (
	"errors"

	"lnops-sim/internal/incident"
)

// MultiWriter fans trace rows out to several writers. Every writer sees
// every row; errors are joined.
type MultiWriter struct {
	writers []TraceWriter
}

// NewMultiWriter creates a new MultiWriter. Nil writers are skipped.
func NewMultiWriter(ws ...TraceWriter) *MultiWriter {
	mw := &MultiWriter{}
	for _, w := range ws {
		if w != nil {
			mw.writers = append(mw.writers, w)
		}
	}
	return mw
}

// WriteTick sends a tick row to all writers.
func (mw *MultiWriter) WriteTick(row incident.TickRow) error {
	var errs []error
	for _, w := range mw.writers {
		if err := w.WriteTick(row); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// WriteTicks sends multiple tick rows to all writers, using batch if supported.
func (mw *MultiWriter) WriteTicks(rows []incident.TickRow) error {
	var errs []error
	for _, w := range mw.writers {
		if bw, ok := w.(batchTickWriter); ok {
			if err := bw.WriteTicks(rows); err != nil {
				errs = append(errs, err)
			}
			continue
		}
		for _, r := range rows {
			if err := w.WriteTick(r); err != nil {
				errs = append(errs, err)
				break
			}
		}
	}
	return errors.Join(errs...)
}

// WriteAction sends an action row to all writers.
func (mw *MultiWriter) WriteAction(row incident.ActionRow) error {
	var errs []error
	for _, w := range mw.writers {
		if err := w.WriteAction(row); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// WriteOutcome sends the outcome row to all writers.
func (mw *MultiWriter) WriteOutcome(row incident.OutcomeRow) error {
	var errs []error
	for _, w := range mw.writers {
		if err := w.WriteOutcome(row); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
