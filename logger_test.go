package fitcoach

import (
	"bytes"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fitcoach/actions"
)

func TestFileConsultationLogger(t *testing.T) {
	var buf bytes.Buffer
	l := NewFileConsultationLogger(&buf)

	var wg sync.WaitGroup
	for i := range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = l.LogIteration(IterationLog{Agent: actions.AgentRecovery, Iteration: i, Timestamp: time.Now()})
		}()
	}
	wg.Wait()

	require.NoError(t, l.Flush())

	var doc struct {
		Session struct {
			Iterations []IterationLog `json:"iterations"`
		} `json:"consultation_session"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Len(t, doc.Session.Iterations, 10)
	assert.Equal(t, actions.AgentRecovery, doc.Session.Iterations[0].Agent)

	t.Run("flush clears the buffer", func(t *testing.T) {
		buf.Reset()
		require.NoError(t, l.Flush())
		assert.Contains(t, buf.String(), `"iterations": []`)
	})

	t.Run("nil writer", func(t *testing.T) {
		assert.NoError(t, NewFileConsultationLogger(nil).Flush())
	})
}

func TestStreamConsultationLogger(t *testing.T) {
	var buf bytes.Buffer
	l := NewStreamConsultationLogger(&buf)

	require.NoError(t, l.LogIteration(IterationLog{Agent: actions.AgentGoal, Iteration: 1, LLMOutput: "done"}))
	require.NoError(t, l.LogIteration(IterationLog{Agent: actions.AgentGoal, Iteration: 2, Error: "boom"}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var got IterationLog
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &got))
	assert.Equal(t, 2, got.Iteration)
	assert.Equal(t, "boom", got.Error)
}

func TestNoOpConsultationLogger(t *testing.T) {
	assert.NoError(t, NewNoOpConsultationLogger().LogIteration(IterationLog{}))
}

func TestNewConsultationLogFilePath(t *testing.T) {
	p := NewConsultationLogFilePath("./logs/", "us.anthropic.claude-3-7-sonnet-20250219-v1:0")
	assert.True(t, strings.HasPrefix(p, "./logs/"))
	assert.True(t, strings.HasSuffix(p, ".us.anthropic.claude-3-7-sonnet-20250219-v1_0.json"))

	p = NewConsultationLogFilePath("logs", "")
	assert.True(t, strings.HasSuffix(p, ".default.json"))
}
