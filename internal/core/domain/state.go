package domain

import "strings"

// NodeState represents the lifecycle state of a node during a run.
type NodeState string

const (
	// NodeStatePending indicates the node has not been looked at yet.
	NodeStatePending NodeState = "pending"
	// NodeStateSatisfied indicates the output already existed and nothing ran.
	NodeStateSatisfied NodeState = "satisfied"
	// NodeStateExecuting indicates the node's action is running.
	NodeStateExecuting NodeState = "executing"
	// NodeStateSucceeded indicates the node's action finished successfully.
	NodeStateSucceeded NodeState = "succeeded"
	// NodeStateFailed indicates the node failed.
	NodeStateFailed NodeState = "failed"
	// NodeStateVerified indicates a prerequisite was found to exist.
	NodeStateVerified NodeState = "verified"
)

// IsTerminal reports whether no further transition can happen from s.
func (s NodeState) IsTerminal() bool {
	switch s {
	case NodeStateSatisfied, NodeStateSucceeded, NodeStateFailed, NodeStateVerified:
		return true
	default:
		return false
	}
}

// IsSuccess reports whether s is a terminal success.
func (s NodeState) IsSuccess() bool {
	return s.IsTerminal() && s != NodeStateFailed
}

// NormalizeNodeState converts a string to a NodeState, defaulting to pending if unknown.
func NormalizeNodeState(s string) NodeState {
	switch NodeState(strings.ToLower(s)) {
	case NodeStateSatisfied:
		return NodeStateSatisfied
	case NodeStateExecuting:
		return NodeStateExecuting
	case NodeStateSucceeded:
		return NodeStateSucceeded
	case NodeStateFailed:
		return NodeStateFailed
	case NodeStateVerified:
		return NodeStateVerified
	default:
		return NodeStatePending
	}
}

// ExecutionOptions are passed uniformly to every node of a run.
type ExecutionOptions struct {
	Verbose bool
	DryRun  bool
}

// Traces reports whether trace events should be emitted.
func (o ExecutionOptions) Traces() bool {
	return o.Verbose || o.DryRun
}

// ArtifactStatus reports whether a node's output has been produced.
type ArtifactStatus struct {
	ID       string `json:"id"`
	Complete bool   `json:"complete"`
}
