// Package identity classifies how strongly the acting user participated in
// each activity, by matching their known tool identities against the
// activity's raw payload.
package identity

import "careerlens/domain/core/valueobjects"

// Signal is one participation clue to look for in an activity's raw data.
// When several signals match the same activity, the heaviest one decides
// the participation level; all matched names are kept for traceability.
type Signal struct {
	// Name identifies the signal in results and logs
	Name string

	// Weight orders competing signals; heavier wins
	Weight int

	// Level is the participation level this signal implies
	Level valueobjects.ParticipationLevel

	// Keys are the raw-data fields the signal reads. Each key is looked up
	// at the top level and under a "fields" sub-object, which is where Jira
	// payloads keep issue fields.
	Keys []string

	// Tools restricts the signal to specific sources; empty means all
	Tools []valueobjects.ToolType
}

// AppliesTo reports whether the signal is read for the given source
func (s Signal) AppliesTo(tool valueobjects.ToolType) bool {
	if len(s.Tools) == 0 {
		return true
	}
	for _, t := range s.Tools {
		if t == tool {
			return true
		}
	}
	return false
}

// DefaultSignals returns the built-in signal table, heaviest first
func DefaultSignals() []Signal {
	return []Signal{
		{
			Name:   "assignee",
			Weight: 10,
			Level:  valueobjects.ParticipationInitiator,
			Keys:   []string{"assignee"},
			Tools:  []valueobjects.ToolType{valueobjects.ToolJira},
		},
		{
			Name:   "author",
			Weight: 10,
			Level:  valueobjects.ParticipationInitiator,
			Keys:   []string{"author", "user", "userId"},
		},
		{
			Name:   "reporter",
			Weight: 9,
			Level:  valueobjects.ParticipationInitiator,
			Keys:   []string{"reporter"},
			Tools:  []valueobjects.ToolType{valueobjects.ToolJira},
		},
		{
			Name:   "organizer",
			Weight: 9,
			Level:  valueobjects.ParticipationInitiator,
			Keys:   []string{"organizer"},
			Tools:  []valueobjects.ToolType{valueobjects.ToolGoogleCalendar},
		},
		{
			Name:   "creator",
			Weight: 8,
			Level:  valueobjects.ParticipationInitiator,
			Keys:   []string{"creator", "createdBy"},
		},
		{
			Name:   "owner",
			Weight: 8,
			Level:  valueobjects.ParticipationInitiator,
			Keys:   []string{"owner"},
			Tools: []valueobjects.ToolType{
				valueobjects.ToolGoogleCalendar,
				valueobjects.ToolGmail,
				valueobjects.ToolFigma,
			},
		},
		{
			Name:   "reviewer",
			Weight: 7,
			Level:  valueobjects.ParticipationContributor,
			Keys:   []string{"reviewers", "requested_reviewers"},
			Tools:  []valueobjects.ToolType{valueobjects.ToolGitHub},
		},
		{
			Name:   "editor",
			Weight: 6,
			Level:  valueobjects.ParticipationContributor,
			Keys:   []string{"editors", "lastModifiedBy"},
			Tools: []valueobjects.ToolType{
				valueobjects.ToolConfluence,
				valueobjects.ToolFigma,
			},
		},
		{
			Name:   "commenter",
			Weight: 5,
			Level:  valueobjects.ParticipationContributor,
			Keys:   []string{"commenters", "comments_by"},
		},
		{
			Name:   "mention",
			Weight: 4,
			Level:  valueobjects.ParticipationMentioned,
			Keys:   []string{"mentions", "mentioned"},
		},
		{
			Name:   "attendee",
			Weight: 3,
			Level:  valueobjects.ParticipationContributor,
			Keys:   []string{"attendees"},
			Tools:  []valueobjects.ToolType{valueobjects.ToolGoogleCalendar},
		},
		{
			Name:   "watcher",
			Weight: 2,
			Level:  valueobjects.ParticipationObserver,
			Keys:   []string{"watchers", "cc", "subscribers"},
		},
	}
}
