package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/teemow/calchat/internal/tools"
)

func TestGenerateToolsMarkdown(t *testing.T) {
	md := generateToolsMarkdown(tools.NewRegistry(nil).Tools())

	assert.Contains(t, md, "# Tools Reference")
	assert.Contains(t, md, "- [schedule_calendar_event](#schedule_calendar_event)")
	assert.Contains(t, md, "## list_calendar_events")
	assert.Contains(t, md, "- `title` (string, required): Event title")
	assert.Contains(t, md, "- `attendees` (array, optional)")
	assert.Contains(t, md, "One of: `current_month`.")
}

func TestDisplayAddr(t *testing.T) {
	assert.Equal(t, "localhost:5000", displayAddr(":5000"))
	assert.Equal(t, "0.0.0.0:8080", displayAddr("0.0.0.0:8080"))
}
