package extraction

import (
	"sync"

	"careerlens/domain/core/valueobjects"
)

var (
	defaultRegistry     *Registry
	defaultRegistryOnce sync.Once
)

// DefaultRegistry returns the registry populated with the built-in pattern
// set. The patterns self-validate on first use; a broken built-in pattern
// panics immediately instead of shipping bad extraction behavior.
func DefaultRegistry() *Registry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = NewRegistry()
		registerDefaults(defaultRegistry)
	})
	return defaultRegistry
}

func registerDefaults(r *Registry) {
	// Jira issue keys. Project keys are at least two characters, so a
	// single capital letter before a dash ("X-123") is not a ticket.
	r.MustRegister(Pattern{
		ID:         "jira-ticket",
		ToolType:   valueobjects.ToolJira,
		Confidence: ConfidenceHigh,
		Expr:       `\b[A-Z][A-Z0-9]+-\d+\b`,
		Positive: []Example{
			{Text: "Fixed AUTH-123 in the login flow", Want: "AUTH-123"},
			{Text: "AB-1 is the oldest ticket in the project", Want: "AB-1"},
			{Text: "relates to PLAT2-4567 and PLAT2-4568", Want: "PLAT2-4568"},
		},
		Negative: []string{
			"X-123 is not a ticket",
			"the x-axis offset was wrong",
			"auth-123 is lowercase",
		},
	})

	// Older URL-only GitHub pull request pattern, kept registered for
	// provenance but replaced by the combined pattern below.
	r.MustRegister(Pattern{
		ID:         "github-pr-url-v1",
		ToolType:   valueobjects.ToolGitHub,
		Confidence: ConfidenceHigh,
		Expr:       `https?://github\.com/([A-Za-z0-9_.-]+)/([A-Za-z0-9_.-]+)/pull/(\d+)`,
		Normalize: func(m []string) string {
			return m[1] + "/" + m[2] + "#" + m[3]
		},
		Positive: []Example{
			{Text: "merged https://github.com/acme/backend/pull/42", Want: "acme/backend#42"},
		},
		Negative: []string{
			"https://github.com/acme/backend/issues",
		},
	})

	// GitHub pull requests, both the shorthand coordinate and the full URL,
	// normalized to the owner/repo#number form.
	r.MustRegister(Pattern{
		ID:         "github-pr",
		ToolType:   valueobjects.ToolGitHub,
		Confidence: ConfidenceHigh,
		Supersedes: "github-pr-url-v1",
		Expr:       `https?://github\.com/([A-Za-z0-9_.-]+)/([A-Za-z0-9_.-]+)/pull/(\d+)|\b([A-Za-z0-9][A-Za-z0-9_.-]*)/([A-Za-z0-9][A-Za-z0-9_.-]*)#(\d+)`,
		Normalize: func(m []string) string {
			if m[1] != "" {
				return m[1] + "/" + m[2] + "#" + m[3]
			}
			return m[4] + "/" + m[5] + "#" + m[6]
		},
		Positive: []Example{
			{Text: "reviewed acme/backend#42 this morning", Want: "acme/backend#42"},
			{Text: "merged https://github.com/acme/backend/pull/42", Want: "acme/backend#42"},
		},
		Negative: []string{
			"see #42 for details",
			"ratio was 3/4",
		},
	})

	// Confluence pages, by wiki URL or pageId query parameter
	r.MustRegister(Pattern{
		ID:         "confluence-page",
		ToolType:   valueobjects.ToolConfluence,
		Confidence: ConfidenceMedium,
		Expr:       `/wiki/spaces/[A-Za-z0-9~]+/pages/(\d+)|[?&]pageId=(\d+)`,
		Normalize: func(m []string) string {
			if m[1] != "" {
				return "confluence:" + m[1]
			}
			return "confluence:" + m[2]
		},
		Positive: []Example{
			{Text: "doc at https://acme.atlassian.net/wiki/spaces/ENG/pages/123456/Design", Want: "confluence:123456"},
			{Text: "https://acme.example.com/pages/viewpage.action?pageId=98765", Want: "confluence:98765"},
		},
		Negative: []string{
			"https://acme.atlassian.net/wiki/spaces/ENG/overview",
		},
	})

	// Slack message permalinks
	r.MustRegister(Pattern{
		ID:         "slack-thread",
		ToolType:   valueobjects.ToolSlack,
		Confidence: ConfidenceMedium,
		Expr:       `https?://[A-Za-z0-9-]+\.slack\.com/archives/([A-Z0-9]+)/p(\d+)`,
		Normalize: func(m []string) string {
			return "slack:" + m[1] + "/p" + m[2]
		},
		Positive: []Example{
			{Text: "thread: https://acme.slack.com/archives/C024BE91L/p1628712345000200", Want: "slack:C024BE91L/p1628712345000200"},
		},
		Negative: []string{
			"https://acme.slack.com/archives/C024BE91L",
		},
	})

	// Google Meet room links, the usual anchor for recurring meetings
	r.MustRegister(Pattern{
		ID:         "google-meet",
		ToolType:   valueobjects.ToolGoogleCalendar,
		Confidence: ConfidenceLow,
		Expr:       `https?://meet\.google\.com/([a-z]{3}-[a-z]{4,}-[a-z]{3})`,
		Normalize: func(m []string) string {
			return "meet:" + m[1]
		},
		Positive: []Example{
			{Text: "join at https://meet.google.com/abc-defg-hij", Want: "meet:abc-defg-hij"},
		},
		Negative: []string{
			"https://meet.google.com/landing",
		},
	})

	// Google Docs / Sheets / Slides document ids
	r.MustRegister(Pattern{
		ID:         "google-doc",
		ToolType:   valueobjects.ToolGeneric,
		Confidence: ConfidenceMedium,
		Expr:       `https?://docs\.google\.com/(?:document|spreadsheets|presentation)/d/([A-Za-z0-9_-]{20,})`,
		Normalize: func(m []string) string {
			return "gdoc:" + m[1]
		},
		Positive: []Example{
			{Text: "notes: https://docs.google.com/document/d/1aBcDeFgHiJkLmNoPqRsTuVwXyZ012345/edit", Want: "gdoc:1aBcDeFgHiJkLmNoPqRsTuVwXyZ012345"},
		},
		Negative: []string{
			"https://docs.google.com/forms",
		},
	})

	// Figma files and design links
	r.MustRegister(Pattern{
		ID:         "figma-file",
		ToolType:   valueobjects.ToolFigma,
		Confidence: ConfidenceMedium,
		Expr:       `https?://(?:www\.)?figma\.com/(?:file|design)/([A-Za-z0-9]+)`,
		Normalize: func(m []string) string {
			return "figma:" + m[1]
		},
		Positive: []Example{
			{Text: "mockup https://www.figma.com/file/Ab1Cd2Ef3Gh4/checkout-flow", Want: "figma:Ab1Cd2Ef3Gh4"},
		},
		Negative: []string{
			"https://www.figma.com/community",
		},
	})
}
