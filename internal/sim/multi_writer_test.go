package sim

import (
	"errors"
	"testing"

	"lnops-sim/internal/incident"
)

type recordWriter struct {
	ticks    []incident.TickRow
	actions  []incident.ActionRow
	outcomes []incident.OutcomeRow
	err      error
}

func (r *recordWriter) WriteTick(row incident.TickRow) error {
	r.ticks = append(r.ticks, row)
	return r.err
}

func (r *recordWriter) WriteAction(row incident.ActionRow) error {
	r.actions = append(r.actions, row)
	return r.err
}

func (r *recordWriter) WriteOutcome(row incident.OutcomeRow) error {
	r.outcomes = append(r.outcomes, row)
	return r.err
}

type batchRecordWriter struct {
	recordWriter
	batches int
}

func (b *batchRecordWriter) WriteTicks(rows []incident.TickRow) error {
	b.batches++
	b.ticks = append(b.ticks, rows...)
	return nil
}

func TestMultiWriterFanOut(t *testing.T) {
	a, b := &recordWriter{}, &recordWriter{}
	mw := NewMultiWriter(a, nil, b)
	_ = mw.WriteTick(incident.TickRow{Tick: 1})
	_ = mw.WriteAction(incident.ActionRow{Action: "WAIT"})
	_ = mw.WriteOutcome(incident.OutcomeRow{Result: incident.ResultSuccess})
	for i, w := range []*recordWriter{a, b} {
		if len(w.ticks) != 1 || len(w.actions) != 1 || len(w.outcomes) != 1 {
			t.Fatalf("writer %d missed rows: %+v", i, w)
		}
	}
}

func TestMultiWriterContinuesAfterError(t *testing.T) {
	boom := errors.New("boom")
	bad, good := &recordWriter{err: boom}, &recordWriter{}
	mw := NewMultiWriter(bad, good)
	err := mw.WriteTick(incident.TickRow{Tick: 1})
	if !errors.Is(err, boom) {
		t.Fatalf("expected joined error, got %v", err)
	}
	if len(good.ticks) != 1 {
		t.Fatal("second writer should still receive the row")
	}
}

func TestMultiWriterBatch(t *testing.T) {
	batch, plain := &batchRecordWriter{}, &recordWriter{}
	mw := NewMultiWriter(batch, plain)
	rows := []incident.TickRow{{Tick: 1}, {Tick: 2}, {Tick: 3}}
	if err := mw.WriteTicks(rows); err != nil {
		t.Fatalf("WriteTicks: %v", err)
	}
	if batch.batches != 1 || len(batch.ticks) != 3 {
		t.Fatalf("batch writer not used: %+v", batch)
	}
	if len(plain.ticks) != 3 {
		t.Fatalf("plain writer got %d rows", len(plain.ticks))
	}
}
