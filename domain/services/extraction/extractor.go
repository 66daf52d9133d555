package extraction

import (
	"encoding/json"
	"regexp"
	"sort"
	"strings"

	"go.uber.org/zap"

	"careerlens/domain/core/entities"
	"careerlens/domain/core/valueobjects"
	pkgerrors "careerlens/pkg/errors"
)

// Options narrows an extraction run. Zero value means every active pattern.
type Options struct {
	// PatternIDs restricts the run to specific patterns
	PatternIDs []string

	// ToolTypes restricts the run to patterns of specific tools
	ToolTypes []valueobjects.ToolType

	// MinConfidence drops patterns below a confidence tier
	MinConfidence Confidence

	// Debug collects near-miss candidates alongside real matches
	Debug bool
}

// Match records one reference occurrence with its provenance
type Match struct {
	Ref        string     `json:"ref"`
	PatternID  string     `json:"pattern_id"`
	Confidence Confidence `json:"confidence"`
	Offset     int        `json:"offset"`
	Snippet    string     `json:"snippet"`
}

// Result is the output of one extraction run
type Result struct {
	// Refs holds canonical references, deduplicated, in first-seen order
	Refs []string `json:"refs"`

	// Matches holds every occurrence with provenance, duplicates included
	Matches []Match `json:"matches"`

	// PatternCounts maps pattern id to number of occurrences
	PatternCounts map[string]int `json:"pattern_counts"`

	// NearMisses holds almost-reference tokens, populated only in debug runs
	NearMisses []string `json:"near_misses,omitempty"`
}

// Extractor applies registry patterns to activity text
type Extractor struct {
	registry *Registry
	logger   *zap.Logger
}

// NewExtractor creates an extractor over a pattern registry
func NewExtractor(registry *Registry, logger *zap.Logger) *Extractor {
	if registry == nil {
		registry = DefaultRegistry()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{
		registry: registry,
		logger:   logger,
	}
}

// Extract runs the selected patterns over the given text fragments. Every
// occurrence of every pattern is reported; refs are deduplicated in
// first-seen order across fragments and patterns.
func (e *Extractor) Extract(fragments []string, opts Options) *Result {
	patterns := e.selectPatterns(opts)

	result := &Result{
		Refs:          []string{},
		Matches:       []Match{},
		PatternCounts: make(map[string]int),
	}
	seen := make(map[string]bool)

	base := 0
	for _, text := range fragments {
		for _, p := range patterns {
			locs := p.re.FindAllStringSubmatchIndex(text, -1)
			for _, loc := range locs {
				m := submatchStrings(text, loc)
				ref := p.normalize(m)
				if ref == "" {
					continue
				}

				result.Matches = append(result.Matches, Match{
					Ref:        ref,
					PatternID:  p.ID,
					Confidence: p.Confidence,
					Offset:     base + loc[0],
					Snippet:    snippet(text, loc[0], loc[1]),
				})
				result.PatternCounts[p.ID]++

				if !seen[ref] {
					seen[ref] = true
					result.Refs = append(result.Refs, ref)
				}
			}
		}
		base += len(text) + 1
	}

	// Matches from different patterns interleave per fragment; restore
	// document order so provenance reads the way the text does.
	sort.SliceStable(result.Matches, func(i, j int) bool {
		return result.Matches[i].Offset < result.Matches[j].Offset
	})

	if opts.Debug {
		result.NearMisses = findNearMisses(fragments, seen)
	}

	return result
}

// ExtractFromActivity runs extraction over an activity's textual surface:
// title, description, source URL and the serialized raw payload.
func (e *Extractor) ExtractFromActivity(activity *entities.Activity, opts Options) *Result {
	fragments := []string{activity.Title()}
	if d := activity.Description(); d != "" {
		fragments = append(fragments, d)
	}
	if u := activity.SourceURL(); u != "" {
		fragments = append(fragments, u)
	}
	if raw := activity.RawData(); raw != nil {
		if data, err := json.Marshal(raw); err == nil {
			fragments = append(fragments, string(data))
		} else {
			e.logger.Warn("failed to serialize activity raw data",
				zap.String("activityId", activity.ID()),
				zap.Error(err))
		}
	}
	return e.Extract(fragments, opts)
}

// ExtractStrict behaves like Extract but fails when nothing is found,
// for callers that treat an empty result as a pipeline fault.
func (e *Extractor) ExtractStrict(fragments []string, opts Options) (*Result, error) {
	result := e.Extract(fragments, opts)
	if len(result.Refs) == 0 {
		return nil, pkgerrors.NewValidationError("no references found in input").
			WithCode(pkgerrors.CodeExtractionFailed)
	}
	return result, nil
}

// selectPatterns filters active patterns by the run options
func (e *Extractor) selectPatterns(opts Options) []*Pattern {
	active := e.registry.ActivePatterns()
	if len(opts.PatternIDs) == 0 && len(opts.ToolTypes) == 0 && opts.MinConfidence == "" {
		return active
	}

	wantID := make(map[string]bool, len(opts.PatternIDs))
	for _, id := range opts.PatternIDs {
		wantID[id] = true
	}
	wantTool := make(map[valueobjects.ToolType]bool, len(opts.ToolTypes))
	for _, t := range opts.ToolTypes {
		wantTool[t] = true
	}

	selected := make([]*Pattern, 0, len(active))
	for _, p := range active {
		if len(wantID) > 0 && !wantID[p.ID] {
			continue
		}
		if len(wantTool) > 0 && !wantTool[p.ToolType] {
			continue
		}
		if opts.MinConfidence != "" && !p.Confidence.AtLeast(opts.MinConfidence) {
			continue
		}
		selected = append(selected, p)
	}
	return selected
}

// submatchStrings converts a FindAllStringSubmatchIndex entry into the
// []string shape NormalizeFunc expects
func submatchStrings(text string, loc []int) []string {
	out := make([]string, len(loc)/2)
	for i := 0; i < len(loc); i += 2 {
		if loc[i] >= 0 {
			out[i/2] = text[loc[i]:loc[i+1]]
		}
	}
	return out
}

const snippetContext = 20

// snippet returns the matched text with a little surrounding context
func snippet(text string, start, end int) string {
	from := start - snippetContext
	if from < 0 {
		from = 0
	}
	to := end + snippetContext
	if to > len(text) {
		to = len(text)
	}
	return text[from:to]
}

// ticket-shaped but lowercase, the most common reason a real reference
// slips past the jira pattern
var nearMissTicket = regexp.MustCompile(`\b[a-z][a-z0-9]{1,9}-\d+\b`)

// findNearMisses scans for tokens that look like references but did not
// match any pattern. Debug aid for tuning patterns against real data.
func findNearMisses(fragments []string, seen map[string]bool) []string {
	var misses []string
	found := make(map[string]bool)
	for _, text := range fragments {
		for _, tok := range nearMissTicket.FindAllString(text, -1) {
			upper := strings.ToUpper(tok)
			if seen[upper] || found[tok] {
				continue
			}
			found[tok] = true
			misses = append(misses, tok)
		}
	}
	return misses
}
