// Package ui provides colored console progress output for the CLI.
package ui

import (
	"strings"

	"github.com/fatih/color"
)

const headerWidth = 60

// center pads text on the left so it sits in the middle of width columns.
func center(text string, width int) string {
	if len(text) >= width {
		return text
	}
	pad := (width - len(text)) / 2
	return strings.Repeat(" ", pad) + text
}

// Header prints a banner for the start of a run.
func Header(text string) {
	c := color.New(color.FgCyan, color.Bold)
	c.Println(strings.Repeat("=", headerWidth))
	c.Println(center(text, headerWidth))
	c.Println(strings.Repeat("=", headerWidth))
}

// Step prints a numbered pipeline stage.
func Step(current, total int, message string) {
	color.New(color.FgBlue, color.Bold).Printf("[%d/%d] ", current, total)
	color.New(color.FgWhite).Println(message)
}

// Success prints a green checkmark line.
func Success(message string) {
	color.New(color.FgGreen).Printf("✓ %s\n", message)
}

// Info prints a neutral informational line.
func Info(message string) {
	color.New(color.FgCyan).Printf("• %s\n", message)
}

// Warning prints a yellow warning line.
func Warning(message string) {
	color.New(color.FgYellow).Printf("⚠ %s\n", message)
}

// Error prints a red error line.
func Error(message string) {
	color.New(color.FgRed).Printf("✗ %s\n", message)
}

// BlueText prints plain blue text.
func BlueText(message string) {
	color.New(color.FgBlue).Println(message)
}

// YellowText prints plain yellow text.
func YellowText(message string) {
	color.New(color.FgYellow).Println(message)
}
