package tui_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/kiln/internal/adapters/tui"
	"go.trai.ch/kiln/internal/core/domain"
)

func TestView_Initialization(t *testing.T) {
	m := tui.NewModel()
	assert.Contains(t, m.View(), "Initializing...")
}

func TestView_TaskList(t *testing.T) {
	m := newSizedModel(t, "task1", "task2", "task3", "task4", "task5")
	m.Update(tui.MsgTaskStart{Name: "task2"})
	m.Update(tui.MsgTaskComplete{Name: "task2", State: domain.NodeStateSucceeded})
	m.Update(tui.MsgTaskStart{Name: "task3"})
	m.Update(tui.MsgTaskComplete{Name: "task3", State: domain.NodeStateFailed})
	m.Update(tui.MsgTaskStart{Name: "task5"})
	m.Update(tui.MsgTaskComplete{Name: "task5", State: domain.NodeStateSatisfied})
	m.Update(tui.MsgTaskStart{Name: "task1"})

	output := m.View()

	for _, name := range []string{"task1", "task2", "task3", "task4", "task5"} {
		assert.Contains(t, output, name)
	}
	assert.Contains(t, output, "●")
	assert.Contains(t, output, "✓")
	assert.Contains(t, output, "✗")
	assert.Contains(t, output, "○")
	assert.Contains(t, output, "⚡")
	assert.Contains(t, output, ">")
}

func TestView_LogPane(t *testing.T) {
	m := newSizedModel(t, "task1")
	assert.Contains(t, m.View(), "LOGS (Waiting...)")

	m.Update(tui.MsgTaskStart{Name: "task1"})
	m.Update(tui.MsgTaskLog{Data: []byte("hello from task1\n")})
	output := m.View()
	assert.Contains(t, output, "LOGS: task1 (Following)")
	assert.Contains(t, output, "hello from task1")

	m.FollowMode = false
	assert.Contains(t, m.View(), "LOGS: task1 (Manual)")
}
