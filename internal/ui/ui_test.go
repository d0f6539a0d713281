package ui

import (
	"bytes"
	"strings"
	"testing"
)

func TestConsoleUI_AddMessage(t *testing.T) {
	buf := &bytes.Buffer{}
	ui := NewConsole(buf)

	ui.AddMessage("you", "hi there")
	ui.AddMessage("copilot", "hello")

	out := buf.String()
	if !strings.Contains(out, "you: hi there") {
		t.Errorf("expected user line, got %q", out)
	}
	if !strings.Contains(out, "copilot: hello") {
		t.Errorf("expected assistant line, got %q", out)
	}
}

func TestConsoleUI_SetStatus(t *testing.T) {
	buf := &bytes.Buffer{}
	ui := NewConsole(buf)

	ui.SetStatus("thinking")
	if got := buf.String(); got != "(thinking)\n" {
		t.Errorf("expected status line, got %q", got)
	}

	buf.Reset()
	ui.SetStatus("")
	if buf.Len() != 0 {
		t.Errorf("expected empty status to print nothing, got %q", buf.String())
	}
}

func TestConsoleUI_Log(t *testing.T) {
	buf := &bytes.Buffer{}
	ui := NewConsole(buf)

	ui.Log("Error: boom")
	if got := buf.String(); got != "Error: boom\n" {
		t.Errorf("expected log line, got %q", got)
	}
}

func TestConsoleUI_ImplementsInterface(t *testing.T) {
	var _ UI = &ConsoleUI{}
}

func TestSilentUI_SetStatus(t *testing.T) {
	ui := SilentUI{}
	// Should not panic
	ui.SetStatus("thinking")
}

func TestSilentUI_AddMessage(t *testing.T) {
	ui := SilentUI{}
	// Should not panic
	ui.AddMessage("user", "hello")
	ui.AddMessage("assistant", "")
}

func TestSilentUI_Log(t *testing.T) {
	ui := SilentUI{}
	// Should not panic
	ui.Log("test message")
	ui.Log("")
}

func TestSilentUI_ImplementsInterface(t *testing.T) {
	// Verify SilentUI implements UI interface
	var _ UI = SilentUI{}
	var _ UI = &SilentUI{}
}

// MockUI implements UI interface for testing
type MockUI struct {
	StatusUpdates []string
	Messages      []string
	LogMessages   []string
}

func (m *MockUI) SetStatus(status string) {
	m.StatusUpdates = append(m.StatusUpdates, status)
}

func (m *MockUI) AddMessage(role, text string) {
	m.Messages = append(m.Messages, role+": "+text)
}

func (m *MockUI) Log(msg string) {
	m.LogMessages = append(m.LogMessages, msg)
}

func TestMockUI_SetStatus(t *testing.T) {
	ui := &MockUI{}

	ui.SetStatus("idle")
	ui.SetStatus("thinking")

	if len(ui.StatusUpdates) != 2 {
		t.Errorf("expected 2 status updates, got %d", len(ui.StatusUpdates))
	}
	if ui.StatusUpdates[0] != "idle" {
		t.Errorf("expected 'idle', got %q", ui.StatusUpdates[0])
	}
	if ui.StatusUpdates[1] != "thinking" {
		t.Errorf("expected 'thinking', got %q", ui.StatusUpdates[1])
	}
}

func TestMockUI_AddMessage(t *testing.T) {
	ui := &MockUI{}

	ui.AddMessage("user", "hi")
	ui.AddMessage("assistant", "hello")

	if len(ui.Messages) != 2 {
		t.Errorf("expected 2 messages, got %d", len(ui.Messages))
	}
	if ui.Messages[0] != "user: hi" {
		t.Errorf("expected 'user: hi', got %q", ui.Messages[0])
	}
}

func TestMockUI_ImplementsInterface(t *testing.T) {
	// Verify MockUI implements UI interface
	var _ UI = &MockUI{}
}

func TestUI_InterfaceMethods(t *testing.T) {
	// Test that the UI interface can be used polymorphically
	uis := []UI{
		SilentUI{},
		&MockUI{},
	}

	for _, ui := range uis {
		// These should all work without panic
		ui.SetStatus("test")
		ui.AddMessage("user", "test")
		ui.Log("test")
	}
}
