// Package runtime drives runs end-to-end: it prepares the engine
// conversation, pumps the engine's event stream through the translator,
// detects the tool-call pause condition and resumes paused runs when results
// arrive out-of-band.
package runtime

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/agentwire/agentwire/pkg/agui"
	"github.com/agentwire/agentwire/pkg/engine"
	"github.com/agentwire/agentwire/pkg/runstate"
	"github.com/agentwire/agentwire/pkg/translator"
)

// Error codes carried by terminal RUN_ERROR events.
const (
	CodeAgentError        = "AGENT_ERROR"
	CodeStateError        = "STATE_ERROR"
	CodeContinuationError = "CONTINUATION_ERROR"
)

// Runtime orchestrates runs against one engine. Each run is processed by a
// single goroutine that owns its Run State exclusively; the store is the
// only shared resource.
type Runtime struct {
	eng    engine.Engine
	store  *runstate.Store
	tracer trace.Tracer
}

// New creates a runtime backed by the given engine and state store.
func New(eng engine.Engine, store *runstate.Store) *Runtime {
	return &Runtime{
		eng:    eng,
		store:  store,
		tracer: otel.Tracer("agentwire/runtime"),
	}
}

// RunStream starts a run and returns its downstream event stream. Events are
// delivered as they are produced; the channel closes after the run's single
// terminal event, or without one if ctx is cancelled first.
func (rt *Runtime) RunStream(ctx context.Context, input agui.RunAgentInput) <-chan agui.Event {
	ch := make(chan agui.Event)
	go func() {
		defer close(ch)
		rt.run(ctx, input, ch)
	}()
	return ch
}

func (rt *Runtime) run(ctx context.Context, input agui.RunAgentInput, ch chan<- agui.Event) {
	ctx, span := rt.tracer.Start(ctx, "run",
		trace.WithAttributes(
			attribute.String("thread_id", input.ThreadID),
			attribute.String("run_id", input.RunID),
		))
	defer span.End()

	st := runstate.New(input.ThreadID, input.RunID)
	rt.store.Put(st)

	if !send(ctx, ch, agui.RunStarted(input.ThreadID, input.RunID)) {
		rt.store.Delete(st.ThreadID, st.RunID)
		return
	}

	tools, err := ConvertTools(input.Tools)
	if err != nil {
		rt.fail(ctx, ch, st, err, CodeAgentError)
		return
	}
	history, err := BuildHistory(input.Messages, input.Tools)
	if err != nil {
		rt.fail(ctx, ch, st, err, CodeAgentError)
		return
	}
	st.History = history
	st.Tools = tools

	slog.Debug("Starting run",
		"thread_id", st.ThreadID, "run_id", st.RunID,
		"message_count", len(history), "tool_count", len(tools))

	stream, err := rt.eng.Stream(ctx, st.History, st.Tools)
	if err != nil {
		rt.fail(ctx, ch, st, err, CodeAgentError)
		return
	}

	rt.pump(ctx, ch, st, stream, true, CodeAgentError)
}

// ResumeStream continues a paused run with externally produced tool results
// and returns the continuation's downstream event stream.
func (rt *Runtime) ResumeStream(ctx context.Context, threadID, runID string, results map[string]string) <-chan agui.Event {
	ch := make(chan agui.Event)
	go func() {
		defer close(ch)
		rt.resume(ctx, threadID, runID, results, ch)
	}()
	return ch
}

func (rt *Runtime) resume(ctx context.Context, threadID, runID string, results map[string]string, ch chan<- agui.Event) {
	ctx, span := rt.tracer.Start(ctx, "resume",
		trace.WithAttributes(
			attribute.String("thread_id", threadID),
			attribute.String("run_id", runID),
		))
	defer span.End()

	st, ok := rt.store.Get(threadID, runID)
	if !ok {
		send(ctx, ch, agui.RunError("no active run for thread "+threadID+" run "+runID, CodeStateError))
		return
	}
	if !st.WaitingForTools {
		slog.Warn("Resuming a run that was not waiting for tools",
			"thread_id", threadID, "run_id", runID)
	}

	// Deterministic application order; map iteration would reorder the
	// synthesized turns between identical calls.
	ids := make([]string, 0, len(results))
	for id := range results {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		st.ApplyResult(id, results[id])
		st.History = append(st.History, engine.ToolResultMessage(engine.ToolResult{
			ToolUseID: id,
			Content:   results[id],
			Status:    engine.ToolResultSuccess,
		}))
	}
	st.WaitingForTools = false
	rt.store.Put(st)

	st.CurrentMessageID = uuid.NewString()
	if !send(ctx, ch, agui.TextMessageStart(st.CurrentMessageID)) {
		return
	}

	slog.Debug("Resuming run",
		"thread_id", threadID, "run_id", runID, "result_count", len(results))

	stream, err := rt.eng.Stream(ctx, st.History, st.Tools)
	if err != nil {
		rt.fail(ctx, ch, st, err, CodeContinuationError)
		return
	}

	rt.pump(ctx, ch, st, stream, false, CodeContinuationError)
}

// pump forwards each translated event as it is produced, never buffering the
// run. It emits exactly one terminal event unless cancellation is observed
// first, and decides between completion and the tool-call pause.
func (rt *Runtime) pump(ctx context.Context, ch chan<- agui.Event, st *runstate.State, stream engine.EventStream, allowPause bool, errCode string) {
	defer stream.Close()

	for {
		ev, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			rt.fail(ctx, ch, st, err, errCode)
			return
		}

		for _, out := range translator.Translate(ev, st) {
			if !send(ctx, ch, out) {
				return
			}
		}

		snapshot, ok := ev.(*engine.MessageComplete)
		if !ok {
			continue
		}
		if allowPause && snapshot.StopReason == engine.StopReasonToolUse && len(st.PendingTools) > 0 {
			rt.pause(ctx, ch, st, snapshot)
			return
		}
	}

	if !rt.closeMessage(ctx, ch, st) {
		return
	}
	send(ctx, ch, agui.RunFinished(st.ThreadID, st.RunID, agui.RunResult{Status: agui.RunStatusCompleted}))
	rt.store.Delete(st.ThreadID, st.RunID)
}

// pause halts the run awaiting out-of-band tool results. The assistant turn
// is appended to the retained history so the continuation replays a valid
// conversation.
func (rt *Runtime) pause(ctx context.Context, ch chan<- agui.Event, st *runstate.State, snapshot *engine.MessageComplete) {
	st.History = append(st.History, engine.Message{
		Role:    engine.RoleAssistant,
		Content: snapshot.Content,
	})
	if !rt.closeMessage(ctx, ch, st) {
		return
	}
	st.WaitingForTools = true
	rt.store.Put(st)

	var calls []agui.ToolCallSummary
	for _, id := range st.PendingIDs() {
		calls = append(calls, agui.ToolCallSummary{ID: id, Name: st.Tool(id).Name})
	}
	slog.Debug("Run paused for tools",
		"thread_id", st.ThreadID, "run_id", st.RunID, "pending", len(calls))

	send(ctx, ch, agui.RunFinished(st.ThreadID, st.RunID, agui.RunResult{
		Status:    agui.RunStatusWaitingForTools,
		ToolCalls: calls,
	}))
}

func (rt *Runtime) fail(ctx context.Context, ch chan<- agui.Event, st *runstate.State, err error, code string) {
	slog.Error("Run failed",
		"thread_id", st.ThreadID, "run_id", st.RunID, "code", code, "error", err)
	rt.store.Delete(st.ThreadID, st.RunID)
	send(ctx, ch, agui.RunError(err.Error(), code))
}

// closeMessage ends an open text-message lifecycle. It reports false when
// cancellation was observed while sending.
func (rt *Runtime) closeMessage(ctx context.Context, ch chan<- agui.Event, st *runstate.State) bool {
	if st.CurrentMessageID == "" {
		return true
	}
	id := st.CurrentMessageID
	st.CurrentMessageID = ""
	return send(ctx, ch, agui.TextMessageEnd(id))
}

// send delivers one event unless cancellation is observed first. After a
// false return no further events may be generated for this run.
func send(ctx context.Context, ch chan<- agui.Event, ev agui.Event) bool {
	select {
	case ch <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
