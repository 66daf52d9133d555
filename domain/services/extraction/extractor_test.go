package extraction

import (
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"careerlens/domain/core/entities"
	"careerlens/domain/core/valueobjects"
	pkgerrors "careerlens/pkg/errors"
)

func newTestExtractor(t *testing.T) *Extractor {
	t.Helper()
	return NewExtractor(DefaultRegistry(), nil)
}

func TestExtractJiraTickets(t *testing.T) {
	e := newTestExtractor(t)

	result := e.Extract([]string{"Fixed AUTH-123, follow-up in AB-1"}, Options{})
	assert.Equal(t, []string{"AUTH-123", "AB-1"}, result.Refs)
	assert.Equal(t, 2, result.PatternCounts["jira-ticket"])
}

func TestExtractRejectsTicketLookalikes(t *testing.T) {
	e := newTestExtractor(t)

	for _, text := range []string{
		"X-123 is a header, not a ticket",
		"auth-123 is lowercase",
		"the x-axis offset was wrong",
	} {
		result := e.Extract([]string{text}, Options{})
		assert.Empty(t, result.Refs, "text %q should yield no refs", text)
	}
}

func TestExtractNormalizesGitHubPullRequests(t *testing.T) {
	e := newTestExtractor(t)

	shorthand := e.Extract([]string{"reviewed acme/backend#42 this morning"}, Options{})
	url := e.Extract([]string{"merged https://github.com/acme/backend/pull/42"}, Options{})

	require.Equal(t, []string{"acme/backend#42"}, shorthand.Refs)
	require.Equal(t, []string{"acme/backend#42"}, url.Refs)

	// Both forms come from the combined pattern, not the superseded one
	require.Len(t, url.Matches, 1)
	assert.Equal(t, "github-pr", url.Matches[0].PatternID)
	assert.Zero(t, url.PatternCounts["github-pr-url-v1"])
}

func TestExtractDeduplicatesInFirstSeenOrder(t *testing.T) {
	e := newTestExtractor(t)

	result := e.Extract([]string{
		"AUTH-123 blocked on PLAT-9",
		"PLAT-9 merged, closing AUTH-123",
	}, Options{})

	assert.Equal(t, []string{"AUTH-123", "PLAT-9"}, result.Refs)
	assert.Len(t, result.Matches, 4)
	assert.Equal(t, 4, result.PatternCounts["jira-ticket"])
}

func TestExtractMatchOffsetsAscending(t *testing.T) {
	e := newTestExtractor(t)

	result := e.Extract([]string{
		"acme/backend#42 fixes AUTH-123",
		"retro in https://acme.slack.com/archives/C024BE91L/p1628712345000200",
	}, Options{})

	require.Len(t, result.Matches, 3)
	offsets := make([]int, len(result.Matches))
	for i, m := range result.Matches {
		offsets[i] = m.Offset
	}
	assert.True(t, sort.IntsAreSorted(offsets))
	assert.Contains(t, result.Matches[0].Snippet, "acme/backend#42")
}

func TestExtractFiltersByToolType(t *testing.T) {
	e := newTestExtractor(t)

	result := e.Extract(
		[]string{"AUTH-123 and acme/backend#42"},
		Options{ToolTypes: []valueobjects.ToolType{valueobjects.ToolJira}})

	assert.Equal(t, []string{"AUTH-123"}, result.Refs)
}

func TestExtractFiltersByMinConfidence(t *testing.T) {
	e := newTestExtractor(t)

	text := "AUTH-123 discussed in https://acme.slack.com/archives/C024BE91L/p1628712345000200"

	all := e.Extract([]string{text}, Options{})
	assert.Len(t, all.Refs, 2)

	high := e.Extract([]string{text}, Options{MinConfidence: ConfidenceHigh})
	assert.Equal(t, []string{"AUTH-123"}, high.Refs)
}

func TestExtractDebugReportsNearMisses(t *testing.T) {
	e := newTestExtractor(t)

	result := e.Extract([]string{"auth-999 is still pending"}, Options{Debug: true})
	assert.Empty(t, result.Refs)
	assert.Equal(t, []string{"auth-999"}, result.NearMisses)

	// A lowercase token is not a near miss once its uppercase form matched
	matched := e.Extract([]string{"AUTH-123 aka auth-123"}, Options{Debug: true})
	assert.Equal(t, []string{"AUTH-123"}, matched.Refs)
	assert.Empty(t, matched.NearMisses)
}

func TestExtractLargeInputUnderOneSecond(t *testing.T) {
	e := newTestExtractor(t)

	// ~10,000 repeated reference tokens in a single fragment
	text := strings.Repeat("AUTH-123 merged via acme/backend#42. ", 5000)

	start := time.Now()
	result := e.Extract([]string{text}, Options{})
	elapsed := time.Since(start)

	require.Len(t, result.Matches, 10000)
	assert.Equal(t, []string{"AUTH-123", "acme/backend#42"}, result.Refs)
	assert.Less(t, elapsed, time.Second)
}

func TestExtractStrictFailsOnEmptyResult(t *testing.T) {
	e := newTestExtractor(t)

	_, err := e.ExtractStrict([]string{"nothing to see here"}, Options{})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeExtractionFailed, pkgerrors.GetAppError(err).Code)
}

func TestExtractFromActivityCoversRawData(t *testing.T) {
	e := newTestExtractor(t)

	a, err := entities.ReconstructActivity(
		"act-1", "user-1", valueobjects.ToolGitHub, "pr-42",
		"https://github.com/acme/backend/pull/42",
		"Harden login flow", "",
		time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC),
		map[string]interface{}{"body": "closes AUTH-123"})
	require.NoError(t, err)

	result := e.ExtractFromActivity(a, Options{})
	assert.ElementsMatch(t, []string{"acme/backend#42", "AUTH-123"}, result.Refs)
}

func TestConfidenceRanking(t *testing.T) {
	assert.True(t, ConfidenceHigh.AtLeast(ConfidenceMedium))
	assert.True(t, ConfidenceMedium.AtLeast(ConfidenceMedium))
	assert.False(t, ConfidenceLow.AtLeast(ConfidenceMedium))
	assert.Zero(t, Confidence("bogus").Rank())
}
