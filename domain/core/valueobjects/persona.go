package valueobjects

import "strings"

// ToolIdentity holds the identity fields a user is known by inside a single
// tool (e.g. a GitHub login, a Jira account id, a Slack display name).
type ToolIdentity struct {
	AccountID   string `json:"account_id,omitempty"`
	Login       string `json:"login,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
}

// Fields returns the non-empty identity strings for matching
func (ti ToolIdentity) Fields() []string {
	var out []string
	for _, f := range []string{ti.AccountID, ti.Login, ti.DisplayName} {
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

// CareerPersona is the acting user's known identities across connected tools.
// It is supplied by the caller (derived from OAuth identities) and never
// mutated by the pipeline.
type CareerPersona struct {
	DisplayName string                    `json:"display_name"`
	Emails      []string                  `json:"emails"`
	Identities  map[ToolType]ToolIdentity `json:"identities"`
}

// MatchesEmail reports whether the value equals one of the persona's emails,
// case-insensitively.
func (p CareerPersona) MatchesEmail(value string) bool {
	for _, email := range p.Emails {
		if strings.EqualFold(strings.TrimSpace(value), email) {
			return true
		}
	}
	return false
}

// MatchesIdentity reports whether the value equals any identity field the
// persona carries for the given tool, case-insensitively.
func (p CareerPersona) MatchesIdentity(tool ToolType, value string) bool {
	identity, ok := p.Identities[tool]
	if !ok {
		return false
	}
	trimmed := strings.TrimSpace(value)
	for _, field := range identity.Fields() {
		if strings.EqualFold(trimmed, field) {
			return true
		}
	}
	return false
}

// Matches reports whether the value matches the persona by email or by any
// identity field for the given tool.
func (p CareerPersona) Matches(tool ToolType, value string) bool {
	if value == "" {
		return false
	}
	return p.MatchesEmail(value) || p.MatchesIdentity(tool, value)
}
