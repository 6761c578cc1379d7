package sim

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"lnops-sim/internal/incident"
)

// ReplayLog replays tick rows from r to writer. A speed >0 accelerates playback.
// If speed <= 0, no artificial delay is inserted.
func ReplayLog(r io.Reader, writer TickWriter, speed float64) (int, error) {
	dec := json.NewDecoder(r)
	var prev time.Time
	n := 0
	for {
		var row incident.TickRow
		if err := dec.Decode(&row); err != nil {
			if err == io.EOF {
				return n, nil
			}
			return n, fmt.Errorf("decode tick %d: %w", n+1, err)
		}
		if !prev.IsZero() && speed > 0 {
			diff := row.Timestamp.Sub(prev)
			if speed != 1 {
				diff = time.Duration(float64(diff) / speed)
			}
			if diff > 0 {
				time.Sleep(diff)
			}
		}
		if err := writer.WriteTick(row); err != nil {
			return n, err
		}
		n++
		prev = row.Timestamp
	}
}

// ReplayLogFile opens a file and replays its tick rows.
func ReplayLogFile(path string, writer TickWriter, speed float64) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open trace: %w", err)
	}
	defer f.Close()
	return ReplayLog(f, writer, speed)
}
