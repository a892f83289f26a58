package components

import (
	"fmt"
	"strings"
)

// Status is what the status line shows.
type Status struct {
	Loading bool
	Pending int
	Spinner string
	Message string
	IsError bool
	Route   string
}

// StatusLine renders the loading indicator, the route name and the last
// message.
func StatusLine(s Status) string {
	var parts []string
	if s.Loading {
		parts = append(parts, warningStyle.Render(fmt.Sprintf("%s Loading (%d)", s.Spinner, s.Pending)))
	} else {
		parts = append(parts, successStyle.Render("● Idle"))
	}
	if s.Route != "" {
		parts = append(parts, mutedStyle.Render(s.Route))
	}
	if s.Message != "" {
		style := valueStyle
		if s.IsError {
			style = failureStyle
		}
		parts = append(parts, style.Render(s.Message))
	}
	return strings.Join(parts, "  │  ")
}
