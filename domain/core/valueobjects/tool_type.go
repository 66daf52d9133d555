package valueobjects

import "errors"

// ToolType identifies the productivity tool an activity was pulled from.
// The enumeration is closed: connectors for new tools must add a value here
// so that the identity and narrative heuristics know how to treat them.
type ToolType string

const (
	ToolJira           ToolType = "jira"
	ToolGitHub         ToolType = "github"
	ToolConfluence     ToolType = "confluence"
	ToolSlack          ToolType = "slack"
	ToolGoogleCalendar ToolType = "google_calendar"
	ToolGmail          ToolType = "gmail"
	ToolFigma          ToolType = "figma"
	ToolGeneric        ToolType = "generic"
)

// AllToolTypes lists every known tool type in a stable order
var AllToolTypes = []ToolType{
	ToolJira,
	ToolGitHub,
	ToolConfluence,
	ToolSlack,
	ToolGoogleCalendar,
	ToolGmail,
	ToolFigma,
	ToolGeneric,
}

// NewToolType validates a raw string against the closed enumeration
func NewToolType(s string) (ToolType, error) {
	for _, t := range AllToolTypes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", errors.New("unknown tool type: " + s)
}

// String returns the string representation
func (t ToolType) String() string {
	return string(t)
}

// IsValid checks membership in the closed enumeration
func (t ToolType) IsValid() bool {
	_, err := NewToolType(string(t))
	return err == nil
}
