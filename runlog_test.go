package platescan

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("disk full")
}

func sampleRun(id string) RunLog {
	return RunLog{
		RunID:     id,
		Timestamp: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
		Status:    "DONE",
		Food:      &ResolvedFood{Label: "apple", Source: FoodSourceAuto},
		Trace: []TraceEntry{
			{Stage: "classify", Outcome: OutcomeSuccess, Detail: "top candidate apple", TimestampOrdinal: 1},
		},
	}
}

func TestFileRunLogger(t *testing.T) {
	t.Run("flush writes buffered runs and clears them", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewFileRunLogger(&buf)

		require.NoError(t, logger.LogRun(sampleRun("a")))
		require.NoError(t, logger.LogRun(sampleRun("b")))
		require.NoError(t, logger.Flush())

		var doc struct {
			Session struct {
				Runs []RunLog `json:"runs"`
			} `json:"session"`
		}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
		require.Len(t, doc.Session.Runs, 2)
		assert.Equal(t, "a", doc.Session.Runs[0].RunID)
		assert.Equal(t, "apple", doc.Session.Runs[1].Food.Label)
		assert.Empty(t, logger.runs)
	})

	t.Run("nil writer is a no-op", func(t *testing.T) {
		logger := NewFileRunLogger(nil)
		require.NoError(t, logger.LogRun(sampleRun("a")))
		assert.NoError(t, logger.Flush())
	})

	t.Run("write failure is reported", func(t *testing.T) {
		logger := NewFileRunLogger(failingWriter{})
		require.NoError(t, logger.LogRun(sampleRun("a")))
		err := logger.Flush()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to write run log")
	})
}

func TestStdoutRunLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := &StdoutRunLogger{out: &buf}

	require.NoError(t, logger.LogRun(sampleRun("xyz")))

	var got RunLog
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &got))
	assert.Equal(t, "xyz", got.RunID)
	assert.Len(t, got.Trace, 1)
}

func TestNewRunLogFilePath(t *testing.T) {
	path := NewRunLogFilePath("Ollama:Llama3")
	assert.Contains(t, path, "./logs/")
	assert.Contains(t, path, ".ollama_llama3.json")
}

func TestFormatTrace(t *testing.T) {
	got := FormatTrace([]TraceEntry{
		{Stage: "classify", Outcome: OutcomeSuccess, Detail: "apple (92.0%)", TimestampOrdinal: 1},
		{Stage: "recipe.web_lookup", Outcome: OutcomeFailure, Detail: "timed out after 15s", TimestampOrdinal: 2},
	})
	assert.Equal(t, "[1] classify SUCCESS: apple (92.0%)\n[2] recipe.web_lookup FAILURE: timed out after 15s\n", got)
}
