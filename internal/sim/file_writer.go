package sim

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"lnops-sim/internal/incident"
)

// FileWriter writes tick, action and outcome rows to JSONL files.
type FileWriter struct {
	mu          sync.Mutex
	tickFile    *os.File
	actionFile  *os.File
	outcomeFile *os.File
	tickEnc     *json.Encoder
	actionEnc   *json.Encoder
	outcomeEnc  *json.Encoder
}

// NewFileWriter creates a FileWriter. actionPath or outcomePath may be empty to skip those logs.
func NewFileWriter(tickPath, actionPath, outcomePath string) (*FileWriter, error) {
	tf, err := os.Create(tickPath)
	if err != nil {
		return nil, fmt.Errorf("create tick log: %w", err)
	}
	fw := &FileWriter{tickFile: tf, tickEnc: json.NewEncoder(tf)}
	if actionPath != "" {
		af, err := os.Create(actionPath)
		if err != nil {
			fw.Close()
			return nil, fmt.Errorf("create action log: %w", err)
		}
		fw.actionFile = af
		fw.actionEnc = json.NewEncoder(af)
	}
	if outcomePath != "" {
		of, err := os.Create(outcomePath)
		if err != nil {
			fw.Close()
			return nil, fmt.Errorf("create outcome log: %w", err)
		}
		fw.outcomeFile = of
		fw.outcomeEnc = json.NewEncoder(of)
	}
	return fw, nil
}

// WriteTick logs a single tick row.
func (f *FileWriter) WriteTick(row incident.TickRow) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tickEnc.Encode(row)
}

// WriteTicks logs multiple tick rows.
func (f *FileWriter) WriteTicks(rows []incident.TickRow) error {
	for _, r := range rows {
		if err := f.WriteTick(r); err != nil {
			return err
		}
	}
	return nil
}

// WriteAction logs a mitigation row, if enabled.
func (f *FileWriter) WriteAction(row incident.ActionRow) error {
	if f.actionEnc == nil {
		return nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.actionEnc.Encode(row)
}

// WriteOutcome logs an end-of-run report, if enabled.
func (f *FileWriter) WriteOutcome(row incident.OutcomeRow) error {
	if f.outcomeEnc == nil {
		return nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.outcomeEnc.Encode(row)
}

// Close closes any underlying files.
func (f *FileWriter) Close() error {
	var err error
	for _, file := range []*os.File{f.tickFile, f.actionFile, f.outcomeFile} {
		if file == nil {
			continue
		}
		if e := file.Close(); e != nil && err == nil {
			err = e
		}
	}
	return err
}
