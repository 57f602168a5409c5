// Package ui provides terminal UI components for the canfix CLI.
//
// MonitorModel is a Bubble Tea model that shows live bus traffic: the latest
// value of every parameter in a table, per-category frame counts and the most
// recent raw frames. Frames arrive as FrameMsg values, either through
// WaitForFrame on a channel or pushed with tea.Program.Send.
//
// Printer renders one-shot report and error boxes with Lipgloss for the
// non-interactive commands.
package ui
