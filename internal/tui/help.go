package tui

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

const helpMarkdown = `# focusflow

Work in focused blocks, take short breaks, and take a long break after
every few sessions. Completed focus sessions count towards today's
statistics and the task you are focusing on.

## Timer

| Key | Action |
|-----|--------|
| space | start, pause or resume |
| r | reset the current phase |
| s | skip to the next phase |
| m | switch phase while stopped |

## Tasks

| Key | Action |
|-----|--------|
| n | add a task |
| a / enter | focus the selected task |
| x | mark done or undo |
| d | delete |

## Everywhere

| Key | Action |
|-----|--------|
| 1-5, tab | switch view |
| e | export history as CSV or JSON |
| R | reset all data |
| ? | toggle key help |
| q | quit |

Skipping a focus session still counts it as completed.
`

type helpModel struct {
	width    int
	height   int
	rendered string
}

func newHelpModel() helpModel {
	return helpModel{rendered: renderMarkdown(helpMarkdown)}
}

func (h *helpModel) setSize(w, ht int) {
	h.width = w
	h.height = ht
}

func (h helpModel) view() string {
	return panelStyle.Width(h.width - 4).Render(h.rendered)
}

// renderMarkdown renders md for a dark terminal, falling back to the
// raw text if rendering fails.
func renderMarkdown(md string) string {
	if strings.TrimSpace(md) == "" {
		return ""
	}
	out, err := glamour.Render(md, "dark")
	if err != nil {
		return md
	}
	return strings.TrimSpace(out)
}
