package narrative

import (
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"careerlens/domain/config"
	"careerlens/domain/core/aggregates"
	"careerlens/domain/core/entities"
	"careerlens/domain/core/valueobjects"
	"careerlens/domain/services/identity"
	pkgerrors "careerlens/pkg/errors"
)

// Validation gate names reported on failure
const (
	GateMinActivities    = "MIN_ACTIVITIES"
	GateMinToolTypes     = "MIN_TOOL_TYPES"
	GateMaxObserverRatio = "MAX_OBSERVER_RATIO"
)

// Outcome is the tagged result of one generation attempt. Participation is
// populated even when the gates fail, so callers can show why a cluster
// did not qualify.
type Outcome struct {
	Narrative     *entities.Narrative
	Participation []*valueobjects.ParticipationResult
	FailedGates   []string
	FailureCode   string

	// Alternatives suggests frameworks whose extra slots the cluster's
	// text would fill, capped by configuration.
	Alternatives []string
}

// Rejected reports whether the attempt failed validation
func (o *Outcome) Rejected() bool {
	return o.Narrative == nil
}

// Extractor turns hydrated clusters into narratives. All extraction is
// deterministic for identical inputs.
type Extractor struct {
	matcher *identity.Matcher
	cfg     *config.PipelineConfig
	logger  *zap.Logger
}

// NewExtractor creates a narrative extractor
func NewExtractor(matcher *identity.Matcher, cfg *config.PipelineConfig, logger *zap.Logger) *Extractor {
	if matcher == nil {
		matcher = identity.NewMatcher(nil, nil)
	}
	if cfg == nil {
		cfg = config.DefaultPipelineConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{
		matcher: matcher,
		cfg:     cfg,
		logger:  logger,
	}
}

// Generate produces a narrative for the cluster under the named framework,
// or an Outcome recording which gates failed. An unknown framework name is
// the only input that errors outright.
func (e *Extractor) Generate(hc *aggregates.HydratedCluster, persona valueobjects.CareerPersona, frameworkName string) (*Outcome, error) {
	framework, err := GetFramework(frameworkName)
	if err != nil {
		return nil, err
	}

	e.matcher.MatchAll(hc.Activities, persona)
	participation := make([]*valueobjects.ParticipationResult, len(hc.Activities))
	for i, ha := range hc.Activities {
		participation[i] = ha.Participation
	}

	outcome := &Outcome{Participation: participation}

	if failed := e.evaluateGates(hc, participation); len(failed) > 0 {
		outcome.FailedGates = failed
		outcome.FailureCode = pkgerrors.CodeValidationFailed
		e.logger.Info("narrative rejected by validation gates",
			zap.String("clusterId", hc.Cluster.ID().String()),
			zap.String("framework", frameworkName),
			zap.Strings("failedGates", failed))
		return outcome, nil
	}

	components := make([]entities.NarrativeComponent, 0, len(framework.Slots))
	for _, slot := range framework.Slots {
		components = append(components, e.extractComponent(slot, hc.Activities))
	}

	summary := summarize(participation)
	suggestions := e.suggestEdits(components, summary)
	score, passed := e.scoreNarrative(components)
	outcome.Alternatives = e.suggestAlternatives(framework, hc.Activities)

	userID := ""
	if len(hc.Activities) > 0 {
		userID = hc.Activities[0].Activity.UserID()
	}

	narrative, err := entities.NewNarrative(
		uuid.New().String(),
		userID,
		hc.Cluster.ID().String(),
		framework.Name,
		components,
		meanConfidence(components),
		summary,
		suggestions,
		score,
		passed,
	)
	if err != nil {
		return nil, err
	}

	outcome.Narrative = narrative
	return outcome, nil
}

// GenerateStrict behaves like Generate but converts a gate rejection into
// an error carrying the failed gate names.
func (e *Extractor) GenerateStrict(hc *aggregates.HydratedCluster, persona valueobjects.CareerPersona, frameworkName string) (*entities.Narrative, error) {
	outcome, err := e.Generate(hc, persona, frameworkName)
	if err != nil {
		return nil, err
	}
	if outcome.Rejected() {
		return nil, pkgerrors.NewValidationError(
			"cluster failed validation gates: "+strings.Join(outcome.FailedGates, ", ")).
			WithCode(outcome.FailureCode).
			WithDetails(map[string]interface{}{
				"failed_gates": outcome.FailedGates,
			})
	}
	return outcome.Narrative, nil
}

// evaluateGates returns the names of every failing gate, in a fixed order
func (e *Extractor) evaluateGates(hc *aggregates.HydratedCluster, participation []*valueobjects.ParticipationResult) []string {
	var failed []string

	if len(hc.Activities) < e.cfg.MinActivities {
		failed = append(failed, GateMinActivities)
	}
	if hc.ToolTypeCount() < e.cfg.MinToolTypes {
		failed = append(failed, GateMinToolTypes)
	}
	if len(participation) > 0 {
		observers := 0
		for _, p := range participation {
			if p.Level == valueobjects.ParticipationObserver {
				observers++
			}
		}
		ratio := float64(observers) / float64(len(participation))
		if ratio > e.cfg.MaxObserverRatio {
			failed = append(failed, GateMaxObserverRatio)
		}
	}

	return failed
}

// extractComponent fills one framework slot. Candidates are activities
// whose text matches the role's cue; when none match, selection falls back
// to the role's preferred tools, then to chronology.
func (e *Extractor) extractComponent(slot Slot, activities []*entities.HydratedActivity) entities.NarrativeComponent {
	cue := roleCues[slot.Role]

	var candidates []*entities.HydratedActivity
	for _, ha := range activities {
		if cue != nil && cue.MatchString(activityText(ha)) {
			candidates = append(candidates, ha)
		}
	}

	chosen, text, cueMatched := e.selectForSlot(slot, candidates, activities)
	if chosen == nil {
		return entities.NarrativeComponent{
			Name:              slot.Name,
			SourceActivityIDs: []string{},
			Confidence:        0,
		}
	}

	confidence := e.componentConfidence(slot, len(candidates), len(activities), cueMatched)

	return entities.NarrativeComponent{
		Name:              slot.Name,
		Text:              text,
		SourceActivityIDs: []string{chosen.Activity.ID()},
		Confidence:        confidence,
	}
}

// selectForSlot picks the source activity for a slot and renders its text
func (e *Extractor) selectForSlot(slot Slot, candidates, all []*entities.HydratedActivity) (*entities.HydratedActivity, string, bool) {
	if len(all) == 0 {
		return nil, "", false
	}

	// Activities arrive sorted ascending, so first is earliest, last latest
	if len(candidates) > 0 {
		var chosen *entities.HydratedActivity
		switch slot.Role {
		case RoleResult:
			chosen = candidates[len(candidates)-1]
		case RoleAction:
			chosen = preferTool(candidates, rolePreferredTools[slot.Role])
		default:
			chosen = preferTool(candidates, rolePreferredTools[slot.Role])
		}
		return chosen, renderText(slot, chosen), true
	}

	// Numeric fallback for results: a quantified metric in text or raw
	// payload still evidences an outcome even without result language.
	if slot.Role == RoleResult {
		for i := len(all) - 1; i >= 0; i-- {
			if text, ok := numericOutcome(all[i]); ok {
				return all[i], text, true
			}
		}
	}

	if chosen := preferToolOnly(all, rolePreferredTools[slot.Role]); chosen != nil {
		return chosen, renderText(slot, chosen), false
	}

	switch slot.Role {
	case RoleResult:
		last := all[len(all)-1]
		return last, renderText(slot, last), false
	default:
		first := all[0]
		return first, renderText(slot, first), false
	}
}

// componentConfidence maps the candidate fraction, weighted by the slot's
// importance, onto the three configured tiers. Fallback-only selection is
// always low confidence.
func (e *Extractor) componentConfidence(slot Slot, matched, total int, cueMatched bool) float64 {
	if !cueMatched || total == 0 {
		return e.cfg.LowConfidence
	}
	adjusted := float64(matched) / float64(total) * slot.Importance
	switch {
	case adjusted >= 0.5:
		return e.cfg.HighConfidence
	case adjusted >= 0.25:
		return e.cfg.MediumConfidence
	default:
		return e.cfg.LowConfidence
	}
}

// scoreNarrative derives the 0-100 score from mean confidence and slot
// coverage. Passing requires at least half the slots to be non-empty; the
// gates have already passed by the time this runs.
func (e *Extractor) scoreNarrative(components []entities.NarrativeComponent) (int, bool) {
	if len(components) == 0 {
		return 0, false
	}
	nonEmpty := 0
	for _, c := range components {
		if c.Text != "" {
			nonEmpty++
		}
	}
	coverage := float64(nonEmpty) / float64(len(components))
	score := int(math.Round(meanConfidence(components)*70 + coverage*30))
	if score > 100 {
		score = 100
	}
	passed := nonEmpty*2 >= len(components)
	return score, passed
}

// suggestEdits produces one suggestion per weak component, plus a note
// when observers outnumber initiators
func (e *Extractor) suggestEdits(components []entities.NarrativeComponent, summary entities.ParticipationSummary) []string {
	suggestions := []string{}
	for _, c := range components {
		if c.Confidence < e.cfg.MediumConfidence {
			suggestions = append(suggestions, fmt.Sprintf(
				"The %q section was inferred with low confidence; consider rewriting it in your own words.", c.Name))
		}
	}
	if summary[valueobjects.ParticipationObserver] > summary[valueobjects.ParticipationInitiator] {
		suggestions = append(suggestions,
			"Most linked activities show you as an observer; highlight the work you drove directly.")
	}
	return suggestions
}

// suggestAlternatives proposes frameworks whose extra slots this cluster
// could fill, up to the configured cap
func (e *Extractor) suggestAlternatives(framework Framework, activities []*entities.HydratedActivity) []string {
	alternatives := []string{}

	cueHits := func(role Role) int {
		cue := roleCues[role]
		n := 0
		for _, ha := range activities {
			if cue.MatchString(activityText(ha)) {
				n++
			}
		}
		return n
	}

	if !framework.HasRole(RoleLearning) && cueHits(RoleLearning) > 0 {
		alternatives = append(alternatives, "STARL")
	}
	if !framework.HasRole(RoleObjective) && cueHits(RoleObjective) > 0 {
		alternatives = append(alternatives, "SOAR")
	}

	if len(alternatives) > e.cfg.MaxAlternativeFrameworks {
		alternatives = alternatives[:e.cfg.MaxAlternativeFrameworks]
	}
	return alternatives
}

// renderText turns the chosen activity into the component sentence
func renderText(slot Slot, ha *entities.HydratedActivity) string {
	title := strings.TrimSpace(ha.Activity.Title())
	if desc := strings.TrimSpace(ha.Activity.Description()); desc != "" {
		if sentence := firstSentence(desc); cueFor(slot.Role, sentence) {
			return sentence
		}
	}
	return title
}

// cueFor reports whether the text matches the role's cue
func cueFor(role Role, text string) bool {
	cue := roleCues[role]
	return cue != nil && cue.MatchString(text)
}

// firstSentence returns the text up to the first sentence break
func firstSentence(text string) string {
	for i, r := range text {
		if r == '.' || r == '!' || r == '?' || r == '\n' {
			return strings.TrimSpace(text[:i+1])
		}
	}
	return strings.TrimSpace(text)
}

// numericOutcome builds result text from structured metrics in the raw
// payload or a quantified figure in the text
func numericOutcome(ha *entities.HydratedActivity) (string, bool) {
	if raw := ha.Activity.RawData(); raw != nil {
		for _, key := range rawMetricKeys {
			if v, ok := raw[key]; ok {
				if n, ok := asNumber(v); ok && n > 0 {
					return fmt.Sprintf("%s (%s: %d)", ha.Activity.Title(), key, n), true
				}
			}
		}
	}
	text := activityText(ha)
	if m := numericResult.FindString(text); m != "" {
		return ha.Activity.Title(), true
	}
	return "", false
}

// asNumber coerces a JSON-decoded value to an int
func asNumber(v interface{}) (int, bool) {
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	default:
		return 0, false
	}
}

// activityText is the searchable surface of one activity
func activityText(ha *entities.HydratedActivity) string {
	return ha.Activity.Title() + "\n" + ha.Activity.Description()
}

// preferTool picks the first candidate from the preferred tools, in
// preference order, falling back to the first candidate
func preferTool(candidates []*entities.HydratedActivity, tools []valueobjects.ToolType) *entities.HydratedActivity {
	if chosen := preferToolOnly(candidates, tools); chosen != nil {
		return chosen
	}
	return candidates[0]
}

// preferToolOnly picks the first activity from the preferred tools, or nil
func preferToolOnly(activities []*entities.HydratedActivity, tools []valueobjects.ToolType) *entities.HydratedActivity {
	for _, tool := range tools {
		for _, ha := range activities {
			if ha.Activity.Source() == tool {
				return ha
			}
		}
	}
	return nil
}

// summarize counts participation results per level
func summarize(participation []*valueobjects.ParticipationResult) entities.ParticipationSummary {
	summary := entities.ParticipationSummary{}
	for _, level := range valueobjects.AllParticipationLevels {
		summary[level] = 0
	}
	for _, p := range participation {
		summary[p.Level]++
	}
	return summary
}

// meanConfidence averages component confidences
func meanConfidence(components []entities.NarrativeComponent) float64 {
	if len(components) == 0 {
		return 0
	}
	sum := 0.0
	for _, c := range components {
		sum += c.Confidence
	}
	return sum / float64(len(components))
}
