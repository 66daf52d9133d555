package entities

import (
	"time"

	"careerlens/domain/core/valueobjects"
	pkgerrors "careerlens/pkg/errors"
)

// Activity is one unit of work evidence pulled from a third-party tool
// (a ticket, pull request, page, message, meeting or design comment).
// Activities are produced and owned by the sync layer; the pipeline treats
// them as read-only.
type Activity struct {
	// Private fields ensure encapsulation
	id          string
	userID      string
	source      valueobjects.ToolType
	sourceID    string
	sourceURL   string
	title       string
	description string
	timestamp   time.Time
	rawData     map[string]interface{}
}

// NewActivity creates an activity with basic validation
func NewActivity(
	id string,
	userID string,
	source valueobjects.ToolType,
	sourceID string,
	title string,
	timestamp time.Time,
) (*Activity, error) {
	if id == "" {
		return nil, pkgerrors.NewValidationError("activity id cannot be empty")
	}
	if userID == "" {
		return nil, pkgerrors.NewValidationError("userID cannot be empty")
	}
	if !source.IsValid() {
		return nil, pkgerrors.NewValidationError("unknown tool type: " + source.String())
	}
	if title == "" {
		return nil, pkgerrors.NewValidationError("title cannot be empty")
	}

	return &Activity{
		id:        id,
		userID:    userID,
		source:    source,
		sourceID:  sourceID,
		title:     title,
		timestamp: timestamp,
	}, nil
}

// ReconstructActivity rebuilds an activity from repository data, including
// the optional fields NewActivity does not take.
func ReconstructActivity(
	id string,
	userID string,
	source valueobjects.ToolType,
	sourceID string,
	sourceURL string,
	title string,
	description string,
	timestamp time.Time,
	rawData map[string]interface{},
) (*Activity, error) {
	a, err := NewActivity(id, userID, source, sourceID, title, timestamp)
	if err != nil {
		return nil, err
	}
	a.sourceURL = sourceURL
	a.description = description
	a.rawData = rawData
	return a, nil
}

// ID returns the activity's stable identifier
func (a *Activity) ID() string {
	return a.id
}

// UserID returns the owner's ID
func (a *Activity) UserID() string {
	return a.userID
}

// Source returns the tool the activity came from
func (a *Activity) Source() valueobjects.ToolType {
	return a.source
}

// SourceID returns the tool-specific identifier
func (a *Activity) SourceID() string {
	return a.sourceID
}

// SourceURL returns the optional link back to the tool
func (a *Activity) SourceURL() string {
	return a.sourceURL
}

// Title returns the activity title
func (a *Activity) Title() string {
	return a.title
}

// Description returns the optional activity description
func (a *Activity) Description() string {
	return a.description
}

// Timestamp returns when the activity happened
func (a *Activity) Timestamp() time.Time {
	return a.timestamp
}

// RawData returns the tool-specific payload, which may be nil
func (a *Activity) RawData() map[string]interface{} {
	return a.rawData
}

// SetSourceURL attaches the link back to the tool
func (a *Activity) SetSourceURL(url string) {
	a.sourceURL = url
}

// SetDescription attaches the optional description
func (a *Activity) SetDescription(description string) {
	a.description = description
}

// SetRawData attaches the tool-specific payload
func (a *Activity) SetRawData(rawData map[string]interface{}) {
	a.rawData = rawData
}

// HydratedActivity is an activity together with the pipeline outputs that
// accumulate as it flows downstream: extracted references and, once the
// identity matcher has run, the user's participation classification.
type HydratedActivity struct {
	Activity      *Activity
	Refs          []string
	Participation *valueobjects.ParticipationResult
}
