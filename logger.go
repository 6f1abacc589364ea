package fitcoach

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"fitcoach/actions"
)

// ConsultationLogger records every iteration of every specialist's tool loop.
// Specialists run concurrently, so implementations must be safe for
// concurrent use.
type ConsultationLogger interface {
	LogIteration(iteration IterationLog) error
}

// NewConsultationLogFilePath names a log file after the time and a cleaned
// up model id, so runs against different models are easy to tell apart.
func NewConsultationLogFilePath(dir, model string) string {
	if model == "" {
		model = "default"
	}
	name := strings.NewReplacer(":", "_", "/", "_").Replace(strings.ToLower(model))
	return fmt.Sprintf("%s/%d.%s.json", strings.TrimRight(dir, "/"), time.Now().Unix(), name)
}

type IterationLog struct {
	Agent     actions.AgentType `json:"agent"`
	Iteration int               `json:"iteration"`
	Timestamp time.Time         `json:"timestamp"`
	LLMInput  string            `json:"llm_input,omitempty"`
	LLMOutput any               `json:"llm_output"`
	ToolCalls []ToolCallLog     `json:"tool_calls,omitempty"`
	Error     string            `json:"error,omitempty"`
}

type ToolCallLog struct {
	Name   string         `json:"name"`
	Input  map[string]any `json:"input"`
	Output map[string]any `json:"output"`
	Error  string         `json:"error,omitempty"`
}

// FileConsultationLogger buffers iterations and writes them as one JSON
// document on Flush.
type FileConsultationLogger struct {
	mu         sync.Mutex
	iterations []IterationLog
	writer     io.Writer
}

func NewFileConsultationLogger(writer io.Writer) *FileConsultationLogger {
	return &FileConsultationLogger{
		iterations: make([]IterationLog, 0),
		writer:     writer,
	}
}

func (l *FileConsultationLogger) LogIteration(iteration IterationLog) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.iterations = append(l.iterations, iteration)
	return nil
}

func (l *FileConsultationLogger) Flush() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.writer == nil {
		return nil
	}

	data, err := json.MarshalIndent(map[string]any{
		"consultation_session": map[string]any{
			"timestamp":  time.Now(),
			"iterations": l.iterations,
		},
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal consultation log: %w", err)
	}

	if _, err := l.writer.Write(data); err != nil {
		return fmt.Errorf("failed to write consultation log: %w", err)
	}

	l.iterations = l.iterations[:0]
	return nil
}

type NoOpConsultationLogger struct{}

func NewNoOpConsultationLogger() *NoOpConsultationLogger {
	return &NoOpConsultationLogger{}
}

func (NoOpConsultationLogger) LogIteration(IterationLog) error {
	return nil
}

// StreamConsultationLogger writes each iteration as a JSON line, which is
// what CloudWatch wants from a Lambda.
type StreamConsultationLogger struct {
	mu sync.Mutex
	w  io.Writer
}

func NewStdoutConsultationLogger() *StreamConsultationLogger {
	return NewStreamConsultationLogger(os.Stdout)
}

func NewStreamConsultationLogger(w io.Writer) *StreamConsultationLogger {
	return &StreamConsultationLogger{w: w}
}

func (l *StreamConsultationLogger) LogIteration(iteration IterationLog) error {
	data, err := json.Marshal(iteration)
	if err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	_, err = fmt.Fprintln(l.w, string(data))
	return err
}
