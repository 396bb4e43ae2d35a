package tui

import (
	"bytes"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.trai.ch/kiln/internal/core/domain"
)

const (
	taskListWidthRatio = 0.3
	logPaneBorderWidth = 4
)

// TaskStatus represents the current state of a task.
type TaskStatus string

const (
	// StatusPending indicates the task is waiting to start.
	StatusPending TaskStatus = "Pending"
	// StatusRunning indicates the task is currently executing.
	StatusRunning TaskStatus = "Running"
	// StatusDone indicates the task completed successfully.
	StatusDone TaskStatus = "Done"
	// StatusSkipped indicates the output already existed.
	StatusSkipped TaskStatus = "Skipped"
	// StatusError indicates the task failed.
	StatusError TaskStatus = "Error"
)

// TaskNode represents a single task in the UI list.
type TaskNode struct {
	Name   string
	Status TaskStatus
	Logs   bytes.Buffer
}

// Model represents the main TUI state.
type Model struct {
	Tasks          []*TaskNode
	TaskMap        map[string]*TaskNode
	Viewport       viewport.Model
	AutoScroll     bool
	ActiveTaskName string
	RunningTask    string
	SelectedIdx    int
	ListOffset     int
	ListHeight     int
	FollowMode     bool
}

// Init initializes the model.
func (m *Model) Init() tea.Cmd {
	return nil
}

func (m *Model) ensureVisible() {
	if m.ListHeight <= 0 {
		return
	}
	if m.SelectedIdx < m.ListOffset {
		m.ListOffset = m.SelectedIdx
	} else if m.SelectedIdx >= m.ListOffset+m.ListHeight {
		m.ListOffset = m.SelectedIdx - m.ListHeight + 1
	}
}

func (m *Model) getSelectedTask() *TaskNode {
	if m.SelectedIdx >= 0 && m.SelectedIdx < len(m.Tasks) {
		return m.Tasks[m.SelectedIdx]
	}
	return nil
}

func (m *Model) updateActiveView() {
	node := m.getSelectedTask()
	if node == nil {
		return
	}
	m.ActiveTaskName = node.Name
	m.Viewport.SetContent(node.Logs.String())
	if m.FollowMode && m.AutoScroll {
		m.Viewport.GotoBottom()
	}
}

func (m *Model) indexOf(name string) int {
	for i, t := range m.Tasks {
		if t.Name == name {
			return i
		}
	}
	return -1
}

// Update handles incoming messages and updates the model state.
//
//nolint:cyclop // one case per message type
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "k", "up":
			if m.SelectedIdx > 0 {
				m.SelectedIdx--
				m.FollowMode = false
				m.ensureVisible()
				m.updateActiveView()
			}
		case "j", "down":
			if m.SelectedIdx < len(m.Tasks)-1 {
				m.SelectedIdx++
				m.FollowMode = false
				m.ensureVisible()
				m.updateActiveView()
			}
		case "esc":
			m.FollowMode = true
			if i := m.indexOf(m.RunningTask); i >= 0 {
				m.SelectedIdx = i
			}
			m.ensureVisible()
			m.updateActiveView()
		default:
			m.Viewport, cmd = m.Viewport.Update(msg)
		}

	case tea.WindowSizeMsg:
		// Split screen: 30% for task list, 70% for logs
		listWidth := int(float64(msg.Width) * taskListWidthRatio)
		headerHeight := lipgloss.Height(titleStyle.Render("LOGS"))

		m.Viewport.Width = msg.Width - listWidth - logPaneBorderWidth
		m.Viewport.Height = msg.Height - headerHeight

		listInfoHeight := lipgloss.Height(titleStyle.Render("TASKS") + "\n\n")
		m.ListHeight = msg.Height - listInfoHeight
		m.ensureVisible()

	case MsgInitTasks:
		m.Tasks = make([]*TaskNode, len(msg.Tasks))
		m.TaskMap = make(map[string]*TaskNode, len(msg.Tasks))
		for i, name := range msg.Tasks {
			m.Tasks[i] = &TaskNode{Name: name, Status: StatusPending}
			m.TaskMap[name] = m.Tasks[i]
		}
		m.SelectedIdx = 0
		m.ListOffset = 0

	case MsgTaskStart:
		node, ok := m.TaskMap[msg.Name]
		if !ok {
			node = &TaskNode{Name: msg.Name}
			m.Tasks = append(m.Tasks, node)
			m.TaskMap[msg.Name] = node
		}
		node.Status = StatusRunning
		m.RunningTask = msg.Name

		// Focus follows activity only in follow mode.
		if m.FollowMode {
			m.SelectedIdx = m.indexOf(msg.Name)
			m.ensureVisible()
			m.updateActiveView()
		}

	case MsgTaskLog:
		node, ok := m.TaskMap[m.RunningTask]
		if !ok {
			break
		}
		node.Logs.Write(msg.Data)
		if node.Name == m.ActiveTaskName {
			m.Viewport.SetContent(node.Logs.String())
			if m.AutoScroll && m.FollowMode {
				m.Viewport.GotoBottom()
			}
		}

	case MsgTaskComplete:
		if node, ok := m.TaskMap[msg.Name]; ok {
			node.Status = statusFor(msg.State, msg.Err)
		}
		if m.RunningTask == msg.Name {
			m.RunningTask = ""
		}
	}

	return m, cmd
}

func statusFor(state domain.NodeState, err error) TaskStatus {
	if err != nil || (state.IsTerminal() && !state.IsSuccess()) {
		return StatusError
	}
	switch state {
	case domain.NodeStateSucceeded:
		return StatusDone
	case domain.NodeStateSatisfied, domain.NodeStateVerified:
		return StatusSkipped
	default:
		return StatusPending
	}
}
