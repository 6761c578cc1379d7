package main

import (
	"log/slog"

	"lnops-sim/internal/config"
	"lnops-sim/internal/incident"
	"lnops-sim/internal/report"
	"lnops-sim/internal/sim"
)

// newTraceWriter sets up the run trace sinks: STDOUT unless quiet, plus JSONL
// files when traceFile is set. It returns the writer and a cleanup function
// to close any resources. A nil writer means the trace is discarded.
func newTraceWriter(track string, rules config.Rules, jsonOut, quiet bool, traceFile string) (sim.TraceWriter, func(), error) {
	cleanup := func() {}
	var writers []sim.TraceWriter
	if !quiet {
		writers = append(writers, sim.NewStdoutWriter(track, sim.RulesFrom(rules), jsonOut))
	}
	if traceFile != "" {
		fw, err := sim.NewFileWriter(traceFile, traceFile+".actions", traceFile+".outcome")
		if err != nil {
			return nil, nil, err
		}
		writers = append(writers, fw)
		cleanup = func() { fw.Close() }
	}
	switch len(writers) {
	case 0:
		return nil, cleanup, nil
	case 1:
		return writers[0], cleanup, nil
	}
	return sim.NewMultiWriter(writers...), cleanup, nil
}

// reportOutcome returns the completion callback that writes a Markdown report
// into dir. An empty dir disables reports.
func reportOutcome(dir string, log *slog.Logger) func(incident.OutcomeRow) {
	if dir == "" {
		return nil
	}
	return func(o incident.OutcomeRow) {
		path, err := report.WriteFile(dir, o)
		if err != nil {
			log.Error("report write failed", "run_id", o.RunID, "err", err)
			return
		}
		log.Info("report written", "run_id", o.RunID, "path", path)
	}
}
