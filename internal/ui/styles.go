// Package ui provides consistent styling for the fbvnc CLI output
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// Color palette - consistent across the application
var (
	ColorPrimary = lipgloss.Color("39")  // Bright blue
	ColorSuccess = lipgloss.Color("82")  // Green
	ColorWarning = lipgloss.Color("214") // Orange
	ColorError   = lipgloss.Color("196") // Red
	ColorInfo    = lipgloss.Color("86")  // Cyan

	ColorText   = lipgloss.Color("252") // Light gray
	ColorSubtle = lipgloss.Color("241") // Medium gray
)

var (
	HeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary)

	SectionStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorInfo)

	KeyStyle = lipgloss.NewStyle().Foreground(ColorSubtle)

	ValueStyle = lipgloss.NewStyle().Foreground(ColorText)

	SuccessStyle = lipgloss.NewStyle().Foreground(ColorSuccess)

	WarningStyle = lipgloss.NewStyle().Foreground(ColorWarning)

	ErrorStyle = lipgloss.NewStyle().Foreground(ColorError)
)

// Status icons
const (
	IconSuccess = "✓"
	IconError   = "✗"
	IconWarning = "!"
)

// FormatHeader renders a title followed by a separator line
func FormatHeader(title string) string {
	return HeaderStyle.Render(title) + "\n" + CreateSeparator(len([]rune(title)), "━")
}

// FormatSection renders a config section name such as "[server]"
func FormatSection(name string) string {
	return SectionStyle.Render("[" + name + "]")
}

// FormatKeyValue renders an indented "key: value" line
func FormatKeyValue(key string, value any) string {
	return "  " + KeyStyle.Render(key+":") + " " + ValueStyle.Render(toString(value))
}

// FormatStatus prefixes a message with a success or failure icon
func FormatStatus(ok bool, message string) string {
	if ok {
		return SuccessStyle.Render(IconSuccess) + " " + message
	}
	return ErrorStyle.Render(IconError) + " " + message
}

// FormatWarning prefixes a message with the warning icon
func FormatWarning(message string) string {
	return WarningStyle.Render(IconWarning) + " " + message
}

// Table renders rows under a bold header row with a normal border
func Table(headers []string, rows [][]string) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(ColorSubtle)).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return HeaderStyle.Padding(0, 1)
			}
			return ValueStyle.Padding(0, 1)
		}).
		Headers(headers...).
		Rows(rows...)
	return t.String()
}

// CreateSeparator creates a horizontal line separator
func CreateSeparator(width int, char string) string {
	if width <= 0 {
		width = 50
	}
	if char == "" {
		char = "─"
	}

	return lipgloss.NewStyle().
		Foreground(ColorSubtle).
		Render(strings.Repeat(char, width))
}

func toString(value any) string {
	switch v := value.(type) {
	case string:
		if v == "" {
			return "(not set)"
		}
		return v
	case bool:
		if v {
			return "yes"
		}
		return "no"
	default:
		return fmt.Sprint(v)
	}
}
