// Package runstate holds the mutable per-run record shared between the
// translator, the orchestrator and the continuation path.
package runstate

import "github.com/agentwire/agentwire/pkg/engine"

// PendingTool tracks one tool call the engine has announced but whose result
// has not yet been applied.
type PendingTool struct {
	Name  string
	Input string

	// ArgsEmitted and Ended guard the once-per-id downstream bracket: the
	// same tool call can be described by up to three upstream shapes.
	ArgsEmitted bool
	Ended       bool
}

// State is the record for one in-flight run. A single logical task owns a
// State for the run's duration; only the Store may be shared.
type State struct {
	ThreadID string
	RunID    string

	PendingTools map[string]*PendingTool
	ToolResults  map[string]string

	// CurrentMessageID is non-empty only while a text-message lifecycle is
	// open downstream.
	CurrentMessageID string

	WaitingForTools bool

	// History and Tools are retained so a paused run can be resumed against
	// the same engine conversation.
	History []engine.Message
	Tools   []engine.Tool

	// pendingOrder preserves announcement order for deterministic
	// summaries.
	pendingOrder []string
}

// New creates the Run State for a (thread, run) pair.
func New(threadID, runID string) *State {
	return &State{
		ThreadID:     threadID,
		RunID:        runID,
		PendingTools: make(map[string]*PendingTool),
		ToolResults:  make(map[string]string),
	}
}

// Tool returns the pending entry for id, or nil if the id is unseen.
func (s *State) Tool(id string) *PendingTool {
	return s.PendingTools[id]
}

// TrackTool registers a newly observed tool call. It reports false when the
// id was already tracked, in which case nothing changes.
func (s *State) TrackTool(id, name, input string) bool {
	if _, ok := s.PendingTools[id]; ok {
		return false
	}
	s.PendingTools[id] = &PendingTool{Name: name, Input: input}
	s.pendingOrder = append(s.pendingOrder, id)
	return true
}

// ApplyResult stores an externally produced result and retires the matching
// pending entry.
func (s *State) ApplyResult(id, result string) {
	s.ToolResults[id] = result
	if _, ok := s.PendingTools[id]; !ok {
		return
	}
	delete(s.PendingTools, id)
	for i, pid := range s.pendingOrder {
		if pid == id {
			s.pendingOrder = append(s.pendingOrder[:i], s.pendingOrder[i+1:]...)
			break
		}
	}
}

// PendingIDs returns the tracked tool-call ids in announcement order.
func (s *State) PendingIDs() []string {
	ids := make([]string, len(s.pendingOrder))
	copy(ids, s.pendingOrder)
	return ids
}

// Status is an immutable view of a run's externally observable state. The
// Store captures one whenever the owning goroutine publishes the run, so
// readers on other goroutines never touch the live maps.
type Status struct {
	ThreadID        string
	RunID           string
	WaitingForTools bool
	PendingTools    []PendingToolStatus
	ToolResultCount int
}

// PendingToolStatus identifies one tool call awaiting an external result.
type PendingToolStatus struct {
	ID   string
	Name string
}

// capture snapshots the run's observable state. Only the goroutine owning
// the State may call it.
func (s *State) capture() Status {
	pending := make([]PendingToolStatus, 0, len(s.pendingOrder))
	for _, id := range s.pendingOrder {
		pending = append(pending, PendingToolStatus{ID: id, Name: s.PendingTools[id].Name})
	}
	return Status{
		ThreadID:        s.ThreadID,
		RunID:           s.RunID,
		WaitingForTools: s.WaitingForTools,
		PendingTools:    pending,
		ToolResultCount: len(s.ToolResults),
	}
}
