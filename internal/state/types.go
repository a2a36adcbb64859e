// Package state provides the durable, file-locked registry of agent
// sessions shared by every drover invocation on a machine.
//
// The registry is a single JSON document. Multiple independent CLI
// processes read and mutate it concurrently; cross-process safety comes
// from an advisory lock file around every load and save, and from atomic
// write-temp-rename saves so no reader ever observes a partial document.
package state

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// AgentStatus is the lifecycle status of one tracked agent.
type AgentStatus string

const (
	StatusRunning             AgentStatus = "running"
	StatusPendingVerification AgentStatus = "pending_verification"
	StatusFeedbackRequested   AgentStatus = "feedback_requested"
	StatusApproved            AgentStatus = "approved"
	StatusCompleted           AgentStatus = "completed"
	StatusFailed              AgentStatus = "failed"
	StatusTimeout             AgentStatus = "timeout"
)

// AgentState is one tracked unit of work driving the target application.
// Timestamps serialize as RFC3339 strings so that a malformed value in one
// field degrades to that field alone instead of failing the whole document.
type AgentState struct {
	ID            string      `json:"id"`
	Prompt        string      `json:"prompt"`
	Status        AgentStatus `json:"status"`
	StartedAt     string      `json:"startedAt"`
	CompletedAt   string      `json:"completedAt,omitempty"`
	Repository    string      `json:"repository,omitempty"`
	SubmittedAt   string      `json:"submittedAt,omitempty"`
	VerifiedAt    string      `json:"verifiedAt,omitempty"`
	Feedback      string      `json:"feedback,omitempty"`
	FeedbackCount *int        `json:"feedbackCount,omitempty"`
	ReturnMessage string      `json:"returnMessage,omitempty"`
	Error         string      `json:"error,omitempty"`
}

// Session is a group of agents spawned together.
type Session struct {
	Agents      []AgentState `json:"agents"`
	CreatedAt   string       `json:"createdAt"`
	CompletedAt string       `json:"completedAt,omitempty"`
}

// Registry is the entire persisted state: one per machine.
type Registry struct {
	Sessions map[string]*Session `json:"sessions"`
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{Sessions: make(map[string]*Session)}
}

// FindAgent locates an agent by id across all sessions.
// Returns the agent, its session id, and whether it was found.
func (r *Registry) FindAgent(agentID string) (*AgentState, string, bool) {
	for sessionID, session := range r.Sessions {
		for i := range session.Agents {
			if session.Agents[i].ID == agentID {
				return &session.Agents[i], sessionID, true
			}
		}
	}
	return nil, "", false
}

// Session returns the session with the given id, or nil.
func (r *Registry) Session(sessionID string) *Session {
	if r.Sessions == nil {
		return nil
	}
	return r.Sessions[sessionID]
}

// Now returns the current time in the registry's timestamp format.
func Now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// ParseTime parses a registry timestamp.
func ParseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}

// NewAgentID generates a short random hex id, unique enough within a session.
// Falls back to a timestamp-based id if random generation fails.
func NewAgentID() string {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("%08x", time.Now().UnixNano()&0xFFFFFFFF)
	}
	return hex.EncodeToString(b)
}
