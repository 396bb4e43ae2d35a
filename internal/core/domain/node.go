// Package domain contains the core domain models of the task dependency graph.
package domain

import (
	"context"
	"slices"

	"go.trai.ch/zerr"
)

// Kind identifies the variant of a Node.
type Kind uint8

const (
	// KindTask is an ordinary task that produces its output with an action.
	KindTask Kind = iota + 1
	// KindNull stands in for "no prerequisites" and always exists.
	KindNull
	// KindPrerequisite verifies an externally produced artifact and never writes.
	KindPrerequisite
)

// String returns the string representation of the Kind.
func (k Kind) String() string {
	switch k {
	case KindTask:
		return "task"
	case KindNull:
		return "null"
	case KindPrerequisite:
		return "prerequisite"
	default:
		return "unknown"
	}
}

// ActionFunc produces output from inputs. It must return a non-nil Completion.
type ActionFunc func(ctx context.Context, output Artifact, inputs []Artifact) Completion

// Node is a vertex of the dependency graph.
// Nodes are immutable once constructed.
type Node struct {
	kind     Kind
	output   Artifact
	requires []*Node
	action   ActionFunc
}

// Requires is the set of requirements accepted by NewTask: either a single
// *Node or an ordered Nodes sequence.
type Requires interface {
	requirements() ([]*Node, error)
}

// Nodes is an ordered sequence of requirements.
type Nodes []*Node

func (ns Nodes) requirements() ([]*Node, error) {
	out := make([]*Node, 0, len(ns))
	for i, n := range ns {
		if n == nil {
			return nil, zerr.With(zerr.Wrap(ErrInvalidRequirement, "nil entry in requires"), "index", i)
		}
		out = append(out, n)
	}
	return out, nil
}

func (n *Node) requirements() ([]*Node, error) {
	if n == nil {
		return nil, zerr.Wrap(ErrInvalidRequirement, "nil requirement")
	}
	return []*Node{n}, nil
}

// TaskSpec describes a task to construct.
type TaskSpec struct {
	Output   Artifact
	Requires Requires
	Run      ActionFunc
}

// NewTask validates spec and returns an immutable task node.
func NewTask(spec TaskSpec) (*Node, error) {
	if spec.Output == nil {
		return nil, ErrMissingOutput
	}
	if spec.Run == nil {
		return nil, zerr.With(zerr.Wrap(ErrMissingAction, "invalid task"), "artifact", spec.Output.ID())
	}

	var requires []*Node
	if spec.Requires != nil {
		var err error
		requires, err = spec.Requires.requirements()
		if err != nil {
			return nil, zerr.With(err, "artifact", spec.Output.ID())
		}
	}

	return &Node{
		kind:     KindTask,
		output:   spec.Output,
		requires: requires,
		action:   spec.Run,
	}, nil
}

// NewPrerequisite returns a node that only verifies output exists.
func NewPrerequisite(output Artifact) (*Node, error) {
	if output == nil {
		return nil, ErrMissingOutput
	}
	return &Node{
		kind:   KindPrerequisite,
		output: output,
	}, nil
}

var null = &Node{kind: KindNull, output: nullArtifact{}}

// Null returns the shared Null node.
func Null() *Node {
	return null
}

// Kind returns the variant of the node.
func (n *Node) Kind() Kind {
	return n.kind
}

// Output returns the artifact the node produces or verifies.
func (n *Node) Output() Artifact {
	return n.output
}

// ID returns the identity of the node's output.
func (n *Node) ID() string {
	return n.output.ID()
}

// Requires returns a copy of the node's ordered requirements.
func (n *Node) Requires() []*Node {
	return slices.Clone(n.requires)
}

// Action returns the node's action. It is nil for Null and Prerequisite nodes.
func (n *Node) Action() ActionFunc {
	return n.action
}

// Inputs returns the outputs of the node's requirements, in order.
func (n *Node) Inputs() []Artifact {
	inputs := make([]Artifact, len(n.requires))
	for i, r := range n.requires {
		inputs[i] = r.output
	}
	return inputs
}
