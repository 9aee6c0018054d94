package ui

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatKeyValue(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value any
		want  string
	}{
		{"string", "Device", "/dev/graphics/fb0", "/dev/graphics/fb0"},
		{"empty string", "Log Level", "", "(not set)"},
		{"true", "Always Shared", true, "yes"},
		{"false", "Virtual Devices", false, "no"},
		{"int", "Port", 5901, "5901"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatKeyValue(tt.key, tt.value)
			assert.Contains(t, got, tt.key+":")
			assert.Contains(t, got, tt.want)
			assert.True(t, strings.HasPrefix(got, "  "))
		})
	}
}

func TestFormatStatus(t *testing.T) {
	assert.Contains(t, FormatStatus(true, "validated"), IconSuccess)
	assert.Contains(t, FormatStatus(false, "missing"), IconError)
	assert.Contains(t, FormatStatus(false, "missing"), "missing")
	assert.Contains(t, FormatWarning("limited"), IconWarning)
}

func TestFormatHeaderAndSection(t *testing.T) {
	header := FormatHeader("Input Devices")
	assert.Contains(t, header, "Input Devices")
	assert.Contains(t, header, strings.Repeat("━", len("Input Devices")))

	assert.Contains(t, FormatSection("server"), "[server]")
}

func TestTable(t *testing.T) {
	out := Table([]string{"Type", "Path"}, [][]string{
		{"touch", "/dev/input/event1"},
		{"keyboard", "/dev/input/event0"},
	})

	for _, s := range []string{"Type", "Path", "touch", "/dev/input/event1", "keyboard"} {
		assert.Contains(t, out, s)
	}
	// Header plus two rows, with borders
	assert.GreaterOrEqual(t, len(strings.Split(out, "\n")), 5)
}

func TestCreateSeparator(t *testing.T) {
	assert.Contains(t, CreateSeparator(10, "="), strings.Repeat("=", 10))
	assert.Contains(t, CreateSeparator(0, ""), strings.Repeat("─", 50))
}
