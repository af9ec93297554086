package runtime

import (
	"encoding/json"

	"github.com/aaasjp/travel-bill-agent/pkg/domain"
)

const (
	// loopWindow bounds how far back the repeated-action guard looks.
	loopWindow = 10
	// loopThreshold is the identical-triple count that trips the guard.
	loopThreshold = 3
)

// detectLoop scans the recent execution log for repeated identical
// (stage, tool, arguments) triples. Returns a LoopDetectedError when a
// triple occurs loopThreshold times or more within the window.
func detectLoop(log []domain.LogEntry, window, threshold int) *domain.LoopDetectedError {
	start := len(log) - window
	if start < 0 {
		start = 0
	}

	counts := make(map[string]int)
	tools := make(map[string]string)
	for _, entry := range log[start:] {
		if entry.Tool == "" {
			continue
		}
		// encoding/json sorts map keys, so the signature is stable.
		args, err := json.Marshal(entry.Arguments)
		if err != nil {
			continue
		}
		key := string(entry.Stage) + "|" + entry.Tool + "|" + string(args)
		counts[key]++
		tools[key] = entry.Tool
		if counts[key] >= threshold {
			return &domain.LoopDetectedError{Tool: tools[key], Count: counts[key]}
		}
	}
	return nil
}
