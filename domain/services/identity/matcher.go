package identity

import (
	"sort"

	"go.uber.org/zap"

	"careerlens/domain/core/entities"
	"careerlens/domain/core/valueobjects"
)

// identityFieldKeys are the sub-fields read when a signal value is an
// object rather than a bare string
var identityFieldKeys = []string{
	"email", "emailAddress", "accountId", "login", "name", "displayName",
}

// Matcher classifies the acting user's participation in activities by
// matching their persona against the signal table.
type Matcher struct {
	signals []Signal
	logger  *zap.Logger
}

// NewMatcher creates an identity matcher. A nil signal slice uses the
// built-in table.
func NewMatcher(signals []Signal, logger *zap.Logger) *Matcher {
	if signals == nil {
		signals = DefaultSignals()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	sorted := make([]Signal, len(signals))
	copy(sorted, signals)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Weight > sorted[j].Weight
	})
	return &Matcher{
		signals: sorted,
		logger:  logger,
	}
}

// Match classifies one activity. Activities with no raw payload, or whose
// payload matches no signal, classify as observer: absence of evidence is
// not treated as authorship.
func (m *Matcher) Match(activity *entities.Activity, persona valueobjects.CareerPersona) *valueobjects.ParticipationResult {
	result := &valueobjects.ParticipationResult{
		ActivityID: activity.ID(),
		Level:      valueobjects.ParticipationObserver,
		Signals:    []string{},
	}

	raw := activity.RawData()
	if raw == nil {
		return result
	}

	matched := false
	for _, sig := range m.signals {
		if !sig.AppliesTo(activity.Source()) {
			continue
		}
		if !m.signalMatches(sig, raw, activity.Source(), persona) {
			continue
		}
		result.Signals = append(result.Signals, activity.Source().String()+"-"+sig.Name)
		// Signals are ordered heaviest first, so the first hit sets the level
		if !matched {
			result.Level = sig.Level
			matched = true
		}
	}

	return result
}

// MatchAll classifies a batch of hydrated activities in place, attaching
// each result to its activity.
func (m *Matcher) MatchAll(activities []*entities.HydratedActivity, persona valueobjects.CareerPersona) {
	for _, ha := range activities {
		ha.Participation = m.Match(ha.Activity, persona)
	}
}

func (m *Matcher) signalMatches(sig Signal, raw map[string]interface{}, tool valueobjects.ToolType, persona valueobjects.CareerPersona) bool {
	for _, key := range sig.Keys {
		for _, value := range lookup(raw, key) {
			for _, candidate := range candidateStrings(value) {
				if persona.Matches(tool, candidate) {
					return true
				}
			}
		}
	}
	return false
}

// lookup reads a key at the payload's top level and under the "fields"
// sub-object where Jira keeps issue fields
func lookup(raw map[string]interface{}, key string) []interface{} {
	var out []interface{}
	if v, ok := raw[key]; ok {
		out = append(out, v)
	}
	if fields, ok := raw["fields"].(map[string]interface{}); ok {
		if v, ok := fields[key]; ok {
			out = append(out, v)
		}
	}
	return out
}

// candidateStrings flattens a signal value into the strings worth matching:
// bare strings as-is, objects by their identity fields, lists element-wise.
func candidateStrings(value interface{}) []string {
	switch v := value.(type) {
	case string:
		if v == "" {
			return nil
		}
		return []string{v}
	case map[string]interface{}:
		var out []string
		for _, key := range identityFieldKeys {
			if s, ok := v[key].(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	case []interface{}:
		var out []string
		for _, item := range v {
			out = append(out, candidateStrings(item)...)
		}
		return out
	default:
		return nil
	}
}
