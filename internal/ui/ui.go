package ui

import (
	"fmt"
	"io"
)

// UI receives conversation output from whichever front end is driving a
// chat session, console or TUI.
type UI interface {
	SetStatus(status string)
	AddMessage(role, text string)
	Log(msg string)
}

type SilentUI struct{}

func (s SilentUI) SetStatus(status string)      {}
func (s SilentUI) AddMessage(role, text string) {}
func (s SilentUI) Log(msg string)               {}

// ConsoleUI writes the conversation to a writer, one line per event.
// It backs the plain REPL.
type ConsoleUI struct {
	out io.Writer
}

func NewConsole(out io.Writer) *ConsoleUI {
	return &ConsoleUI{out: out}
}

func (c *ConsoleUI) SetStatus(status string) {
	if status != "" {
		fmt.Fprintf(c.out, "(%s)\n", status)
	}
}

func (c *ConsoleUI) AddMessage(role, text string) {
	fmt.Fprintf(c.out, "%s: %s\n", role, text)
}

func (c *ConsoleUI) Log(msg string) {
	fmt.Fprintln(c.out, msg)
}
