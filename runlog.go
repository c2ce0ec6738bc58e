package platescan

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// RunLogger receives one record per pipeline call, including suspended and failed ones.
type RunLogger interface {
	LogRun(run RunLog) error
}

// NewRunLogFilePath returns a log file path tagged with the provider name so runs against different backends are easy to tell apart.
func NewRunLogFilePath(provider string) string {
	return fmt.Sprintf(
		"./logs/%d.%s.json",
		time.Now().Unix(),
		strings.ReplaceAll(strings.ToLower(provider), ":", "_"),
	)
}

// RunLog is the audit record of a single Run or Resume call.
type RunLog struct {
	RunID     string        `json:"run_id"`
	Timestamp time.Time     `json:"timestamp"`
	Status    string        `json:"status"`
	Food      *ResolvedFood `json:"food,omitempty"`
	Trace     []TraceEntry  `json:"trace"`
	Error     string        `json:"error,omitempty"`
}

// FileRunLogger accumulates runs and writes them as one document on Flush.
type FileRunLogger struct {
	mu     sync.Mutex
	runs   []RunLog
	writer io.Writer
}

func NewFileRunLogger(writer io.Writer) *FileRunLogger {
	return &FileRunLogger{
		runs:   make([]RunLog, 0),
		writer: writer,
	}
}

func (l *FileRunLogger) LogRun(run RunLog) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.runs = append(l.runs, run)
	return nil
}

// Flush writes all buffered runs and clears the buffer.
func (l *FileRunLogger) Flush() error {
	if l.writer == nil {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	data, err := json.MarshalIndent(map[string]any{
		"session": map[string]any{
			"timestamp": time.Now(),
			"runs":      l.runs,
		},
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal run log: %w", err)
	}

	if _, err := l.writer.Write(data); err != nil {
		return fmt.Errorf("failed to write run log: %w", err)
	}

	l.runs = l.runs[:0]
	return nil
}

type NoOpRunLogger struct{}

func NewNoOpRunLogger() *NoOpRunLogger {
	return &NoOpRunLogger{}
}

func (NoOpRunLogger) LogRun(RunLog) error {
	return nil
}

// StdoutRunLogger writes each run as a JSON line (for Lambda/CloudWatch).
type StdoutRunLogger struct {
	out io.Writer
}

func NewStdoutRunLogger() *StdoutRunLogger {
	return &StdoutRunLogger{out: os.Stdout}
}

func (l *StdoutRunLogger) LogRun(run RunLog) error {
	data, err := json.Marshal(run)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(l.out, string(data))
	return err
}

// FormatTrace renders a trace as numbered lines for people to read.
func FormatTrace(trace []TraceEntry) string {
	var b strings.Builder
	for _, e := range trace {
		fmt.Fprintf(&b, "[%d] %s %s: %s\n", e.TimestampOrdinal, e.Stage, e.Outcome, e.Detail)
	}
	return b.String()
}
