package domain

import (
	"fmt"
	"slices"
)

// Tool identifies an entry in the registry.
type Tool string

const (
	ToolMetaTags           Tool = "META_TAGS"
	ToolSERPPreview        Tool = "SERP_PREVIEW"
	ToolKeywordDensity     Tool = "KEYWORD_DENSITY"
	ToolFileGenerator      Tool = "FILE_GENERATOR"
	ToolCompetitorResearch Tool = "COMPETITOR_RESEARCH"
	ToolBacklinkChecker    Tool = "BACKLINK_CHECKER"
	ToolOnPageAnalyzer     Tool = "ON_PAGE_ANALYZER"
	ToolLighthouseReport   Tool = "LIGHTHOUSE_REPORT"
	ToolContentGap         Tool = "CONTENT_GAP"
	ToolPAAExtractor       Tool = "PAA_EXTRACTOR"
	ToolSearchIntent       Tool = "SEARCH_INTENT"
	ToolContentBrief       Tool = "CONTENT_BRIEF"

	// ToolAdminPanel is only ever rendered for admins.
	ToolAdminPanel Tool = "ADMIN_PANEL"
)

type ToolInfo struct {
	ID    Tool
	Label string
}

// registry is ordered for navigation.
var registry = []ToolInfo{
	{ToolMetaTags, "Meta Tag Generator"},
	{ToolSERPPreview, "SERP Snippet Preview"},
	{ToolKeywordDensity, "Keyword Density Checker"},
	{ToolFileGenerator, "File Generator"},
	{ToolCompetitorResearch, "Competitor Research"},
	{ToolBacklinkChecker, "Backlink Checker"},
	{ToolOnPageAnalyzer, "On-Page SEO Analyzer"},
	{ToolLighthouseReport, "Lighthouse SEO Report"},
	{ToolContentGap, "Content Gap Analysis"},
	{ToolPAAExtractor, "People Also Ask Extractor"},
	{ToolSearchIntent, "Search Intent Classifier"},
	{ToolContentBrief, "AI Content Brief Builder"},
	{ToolAdminPanel, "Admin Panel"},
}

// Tools returns the registry in navigation order.
func Tools() []ToolInfo { return slices.Clone(registry) }

// DefaultTool is selected for anonymous sessions and non-admin sign-ins.
func DefaultTool() Tool { return ToolMetaTags }

func LookupTool(id Tool) (ToolInfo, bool) {
	i := slices.IndexFunc(registry, func(t ToolInfo) bool { return t.ID == id })
	if i < 0 {
		return ToolInfo{}, false
	}
	return registry[i], true
}

func (t Tool) Valid() bool {
	_, ok := LookupTool(t)
	return ok
}

// UnknownToolError names the first id that is not in the registry.
type UnknownToolError struct {
	ID string
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("unknown tool %q", e.ID)
}

// ParseTools converts raw ids into a de-duplicated tool set, preserving the
// first occurrence order.
func ParseTools(ids []string) ([]Tool, error) {
	out := make([]Tool, 0, len(ids))
	for _, id := range ids {
		t := Tool(id)
		if !t.Valid() {
			return nil, &UnknownToolError{ID: id}
		}
		if !slices.Contains(out, t) {
			out = append(out, t)
		}
	}
	return out, nil
}

// ToolStrings is the inverse of ParseTools for storage and the wire.
func ToolStrings(tools []Tool) []string {
	out := make([]string, len(tools))
	for i, t := range tools {
		out[i] = string(t)
	}
	return out
}
