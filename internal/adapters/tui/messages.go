package tui

import "go.trai.ch/kiln/internal/core/domain"

// MsgInitTasks announces the artifacts of a run in execution order.
type MsgInitTasks struct {
	Tasks []string
}

// MsgTaskStart is sent when a node starts.
type MsgTaskStart struct {
	Name string
}

// MsgTaskLog carries output written while a node is running.
type MsgTaskLog struct {
	Data []byte
}

// MsgTaskComplete is sent when a node finishes.
type MsgTaskComplete struct {
	Name  string
	State domain.NodeState
	Err   error
}
