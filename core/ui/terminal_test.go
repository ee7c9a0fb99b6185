package ui

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTableAlignsUnicode(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, true)

	table := w.NewTable("From", "To")
	table.AddRow("0", "∞")
	table.AddRow("100000", "200000")
	table.Render()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 4)
	assert.Equal(t, "From   │ To", lines[0])
	assert.Equal(t, "0      │ ∞", lines[2])
	assert.Equal(t, 2, table.Len())
}

func TestStyledRowNoColor(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, true)

	table := w.NewTable("A")
	table.AddStyledRow(Red, "x")
	table.Render()

	assert.NotContains(t, buf.String(), Red)
}

func TestStyledRowColor(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, false)

	table := w.NewTable("A")
	table.AddStyledRow(Red, "x")
	table.Render()

	assert.Contains(t, buf.String(), Red+"x"+Reset)
}

func TestSummaryBox(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, true)

	box := w.NewSummaryBox("Totals")
	box.Add("Tax", "100.00")
	box.Add("Net income", "900.00")
	box.Render()

	out := buf.String()
	assert.Contains(t, out, "Tax:         100.00")
	assert.Contains(t, out, "Net income:  900.00")
	assert.Contains(t, out, "╭")
	assert.Contains(t, out, "╯")
}

func TestBar(t *testing.T) {
	w := NewWriter(nil, true)
	assert.Equal(t, "█████░░░░░", w.Bar(50, 10))
	assert.Equal(t, "░░░░░░░░░░", w.Bar(-5, 10))
	assert.Equal(t, "██████████", w.Bar(150, 10))
}

func TestVerbosity(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, true)

	w.Debug("hidden")
	assert.Empty(t, buf.String())

	w.SetVerbosity(2)
	w.Debug("shown")
	assert.Contains(t, buf.String(), "shown")

	buf.Reset()
	w.SetVerbosity(0)
	w.Info("quiet")
	assert.Empty(t, buf.String())
}

func TestSpinnerStopTwice(t *testing.T) {
	var buf bytes.Buffer
	s := NewWriter(&buf, true).NewSpinner("working")
	s.Start()
	s.Stop(true)
	s.Stop(false)

	assert.Equal(t, 1, strings.Count(buf.String(), "✓ working"))
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "< 1ms", FormatDuration(10*time.Microsecond))
	assert.Equal(t, "250ms", FormatDuration(250*time.Millisecond))
	assert.Equal(t, "1.5s", FormatDuration(1500*time.Millisecond))
	assert.Equal(t, "2m 5s", FormatDuration(125*time.Second))
}
