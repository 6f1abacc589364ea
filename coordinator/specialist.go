package coordinator

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"fitcoach"
	"fitcoach/actions"
	"fitcoach/chat"
	"fitcoach/llm"
)

// maxToolRepeats is how many times a specialist may call one tool before it
// is told to answer with what it has.
const maxToolRepeats = 2

func hint(kind string, fields map[string]any) llm.Message {
	msg := map[string]any{"error": kind}
	for k, v := range fields {
		msg[k] = v
	}
	b, _ := json.Marshal(msg)
	return llm.TextMessage(llm.RoleUser, string(b))
}

// consult runs one specialist's tool loop until it gives a final reply or
// runs out of iterations.
func (c *Coordinator) consult(ctx context.Context, agent actions.AgentType, message string, history []chat.Exchange) (actions.AgentResponse, error) {
	ctx, span := c.tracer.Start(ctx, "Coordinator.consult", trace.WithAttributes(attribute.String("agent", string(agent))))
	defer span.End()

	start := time.Now()
	attrs := metric.WithAttributes(attribute.String("agent", string(agent)))
	c.ins.consultations.Add(ctx, 1, attrs)
	defer func() { c.ins.consultTime.Record(ctx, time.Since(start).Seconds(), attrs) }()

	resp, err := c.runLoop(ctx, agent, message, history)
	if err != nil {
		c.ins.failures.Add(ctx, 1, attrs)
		span.SetStatus(codes.Error, "consultation failed")
		span.RecordError(err)
		return actions.AgentResponse{}, fmt.Errorf("%s: %w", agent, err)
	}
	span.SetAttributes(attribute.Float64("confidence", resp.Confidence))
	return resp, nil
}

func (c *Coordinator) runLoop(ctx context.Context, agent actions.AgentType, message string, history []chat.Exchange) (actions.AgentResponse, error) {
	system, err := SystemPrompt(agent)
	if err != nil {
		return actions.AgentResponse{}, err
	}
	tp := toolset{tp: c.toolProvider, allowed: specialists[agent].tools}

	prompt := llm.NewPrompt(system, tp)
	for _, ex := range history {
		prompt.Messages = append(prompt.Messages,
			llm.TextMessage(llm.RoleUser, ex.UserMessage),
			llm.TextMessage(llm.RoleAssistant, ex.Reply))
	}
	prompt.Messages = append(prompt.Messages, llm.TextMessage(llm.RoleUser, message))

	toolsAlreadyCalled := make(map[string]int)

	for iter := 0; iter < c.maxIterations; iter++ {
		iterLog := fitcoach.IterationLog{Agent: agent, Iteration: iter + 1, Timestamp: c.now()}

		if b, merr := json.Marshal(prompt); merr == nil {
			iterLog.LLMInput = string(b)
			slog.Info("COORDINATOR: Sending prompt to LLM",
				"agent", agent,
				"iteration", iter+1,
				"messages_count", len(prompt.Messages),
				"tools_count", len(prompt.Tools),
				"prompt_size_bytes", len(b),
				"last_message_preview", prompt.LastText(100),
			)
		}

		res, err := c.llm.Invoke(ctx, prompt)
		if err != nil {
			iterLog.Error = err.Error()
			c.logIteration(iterLog)
			return actions.AgentResponse{}, fmt.Errorf("invoke failed: %w", err)
		}
		iterLog.LLMOutput = res

		slog.Info("COORDINATOR: LLM response received",
			"agent", agent,
			"iteration", iter+1,
			"content_length", len(res.Content),
			"tool_calls", len(res.ToolCalls),
		)

		if len(res.ToolCalls) == 0 {
			msg, confidence, perr := parseReply(res.Content)
			if perr != nil {
				slog.Info("COORDINATOR: Reply rejected, asking for a correction", "agent", agent, "iteration", iter+1, "error", perr)
				if res.Content != "" {
					prompt.Messages = append(prompt.Messages, llm.TextMessage(llm.RoleAssistant, res.Content))
				}
				prompt.Messages = append(prompt.Messages, hint("invalid_reply", map[string]any{
					"reason": perr.Error(),
					"hint":   `Answer with only {"message": string, "confidence": number} and a non-empty message.`,
				}))
				iterLog.Error = perr.Error()
				c.logIteration(iterLog)
				continue
			}

			c.logIteration(iterLog)
			return actions.AgentResponse{AgentType: agent, Message: msg, Confidence: confidence}, nil
		}

		var repeated string
		for _, call := range res.ToolCalls {
			toolsAlreadyCalled[call.Name]++
			if toolsAlreadyCalled[call.Name] > maxToolRepeats {
				repeated = call.Name
				break
			}
		}

		if repeated != "" {
			slog.Warn("COORDINATOR: Excessive tool repetition detected", "agent", agent, "tool", repeated, "count", toolsAlreadyCalled[repeated], "iteration", iter+1)
			c.ins.repetitions.Add(ctx, 1, metric.WithAttributes(attribute.String("tool", repeated)))
			if res.Content != "" {
				prompt.Messages = append(prompt.Messages, llm.TextMessage(llm.RoleAssistant, res.Content))
			}
			prompt.Messages = append(prompt.Messages, hint("excessive_tool_repetition", map[string]any{
				"tool": repeated,
				"hint": "You already have this data. Use it and give your final JSON reply now.",
			}))
			iterLog.Error = "excessive tool repetition"
			c.logIteration(iterLog)
			continue
		}

		assistantMsg := llm.Message{Role: llm.RoleAssistant, Content: llm.MessageParts{}}
		if res.Content != "" {
			assistantMsg.Content = append(assistantMsg.Content, llm.MessagePart{Type: llm.PartText, Text: res.Content})
		}
		for _, call := range res.ToolCalls {
			assistantMsg.Content = append(assistantMsg.Content, llm.MessagePart{
				Type:      llm.PartToolUse,
				ToolUseID: call.ToolUseID,
				ToolName:  call.Name,
				Data:      call.Input,
			})
		}
		prompt.Messages = append(prompt.Messages, assistantMsg)

		var toolCallLogs []fitcoach.ToolCallLog
		var toolResults []llm.ToolResult

		for _, call := range res.ToolCalls {
			slog.Info("COORDINATOR: Handling tool call", "agent", agent, "name", call.Name, "iteration", iter+1)
			c.ins.toolCalls.Add(ctx, 1, metric.WithAttributes(attribute.String("tool", call.Name)))

			tlog := fitcoach.ToolCallLog{Name: call.Name, Input: call.Input}
			if call.InputErr != "" {
				msg := fmt.Sprintf("could not decode arguments for tool %q: %s", call.Name, call.InputErr)
				tlog.Error = msg
				toolCallLogs = append(toolCallLogs, tlog)
				toolResults = append(toolResults, llm.ToolResult{
					ToolUseID: call.ToolUseID,
					ToolName:  call.Name,
					Data:      map[string]any{"error": msg, "hint": "Send the arguments again as a JSON object."},
				})
				continue
			}

			tool, gerr := tp.GetTool(call.Name)
			if gerr != nil {
				tlog.Error = gerr.Error()
				toolCallLogs = append(toolCallLogs, tlog)
				toolResults = append(toolResults, llm.ToolResult{
					ToolUseID: call.ToolUseID,
					ToolName:  call.Name,
					Data:      map[string]any{"error": gerr.Error()},
				})
				continue
			}

			result, rerr := tool.Run(ctx, call.Input)
			if rerr != nil {
				tlog.Error = rerr.Error()
				toolCallLogs = append(toolCallLogs, tlog)
				toolResults = append(toolResults, llm.ToolResult{
					ToolUseID: call.ToolUseID,
					ToolName:  tool.Name(),
					Data:      map[string]any{"error": fmt.Sprintf("tool %q failed: %v", call.Name, rerr)},
				})
				continue
			}

			tlog.Output = result
			toolCallLogs = append(toolCallLogs, tlog)
			toolResults = append(toolResults, llm.ToolResult{
				ToolUseID: call.ToolUseID,
				ToolName:  tool.Name(),
				Data:      result,
			})
		}

		prompt.Messages = append(prompt.Messages, llm.NewToolResultMessage(toolResults))
		iterLog.ToolCalls = toolCallLogs
		c.logIteration(iterLog)
	}

	return actions.AgentResponse{}, ErrMaxIterations
}

func (c *Coordinator) logIteration(iter fitcoach.IterationLog) {
	if err := c.logger.LogIteration(iter); err != nil {
		slog.Error("COORDINATOR: Failed to log consultation iteration", "error", err, "agent", iter.Agent, "iteration", iter.Iteration)
	}
}
