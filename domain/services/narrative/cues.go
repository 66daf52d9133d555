package narrative

import (
	"regexp"

	"careerlens/domain/core/valueobjects"
)

// Semantic cue expressions, one per role. A component's candidate
// activities are the cluster members whose text matches the cue for the
// component's role.
var roleCues = map[Role]*regexp.Regexp{
	RoleSituation: regexp.MustCompile(`(?i)\b(problem|issue|bug|broken|failing|flaky|outage|incident|degraded|slow|blocked|bottleneck|legacy|tech debt|risk)\b`),
	RoleTask:      regexp.MustCompile(`(?i)\b(need(s|ed)? to|should|must|task|implement|deliver|build out|plan|scope|milestone|requirement)\b`),
	RoleAction:    regexp.MustCompile(`(?i)\b(fix(ed)?|implement(ed)?|buil[dt]|add(ed)?|refactor(ed)?|migrat(e|ed)|creat(e|ed)|wrote|design(ed)?|deploy(ed)?|merg(e|ed)|review(ed)?|optimiz(e|ed)|automat(e|ed))\b`),
	RoleResult:    regexp.MustCompile(`(?i)\b(reduc(e|ed)|improv(e|ed)|increas(e|ed)|decreas(e|ed)|sav(e|ed)|shipp(ed)?|launch(ed)?|complet(e|ed)|resolv(e|ed)|cut|eliminat(e|ed)|deliver(ed)?)\b|\d+(\.\d+)?\s*%`),
	RoleLearning:  regexp.MustCompile(`(?i)\b(learn(ed|ing)?|insight|retro(spective)?|takeaway|postmortem|post-mortem|lesson|in hindsight|next time)\b`),
	RoleObjective: regexp.MustCompile(`(?i)\b(objective|obstacle|goal|target|aim(ed)?|blocker|blocked by|depends on|dependency)\b`),
}

// numericResult picks up structured outcome figures in free text when no
// result-language cue matched
var numericResult = regexp.MustCompile(`\b\d+(\.\d+)?\s*(%|ms\b|s\b|percent|points?|lines?|users?|requests?)`)

// rawMetricKeys are rawData fields that carry quantified outcomes
var rawMetricKeys = []string{"additions", "deletions", "story_points", "storyPoints", "changed_files"}

// rolePreferredTools orders fallback tool types per role. When no cue
// matches, the earliest activity from the first populated tool wins.
var rolePreferredTools = map[Role][]valueobjects.ToolType{
	RoleSituation: {valueobjects.ToolJira, valueobjects.ToolSlack},
	RoleTask:      {valueobjects.ToolJira},
	RoleAction:    {valueobjects.ToolGitHub, valueobjects.ToolJira},
	RoleResult:    {valueobjects.ToolGitHub, valueobjects.ToolJira},
	RoleLearning:  {valueobjects.ToolConfluence, valueobjects.ToolSlack},
	RoleObjective: {valueobjects.ToolJira, valueobjects.ToolGoogleCalendar},
}
