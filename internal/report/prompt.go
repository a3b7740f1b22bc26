package report

import (
	"errors"
	"strings"
)

// Placeholder is replaced with the formatted context.
const Placeholder = "{context}"

// SystemPrompt frames every synthesis request.
const SystemPrompt = "You are a thorough research assistant that synthesizes information into comprehensive reports with accurate citations."

// DefaultPromptTemplate asks for a structured report citing sources by
// their context number.
const DefaultPromptTemplate = `Based on the following information sources, generate a comprehensive research report.
Synthesize the information to provide an in-depth analysis of the topic.

Focus on:
1. Presenting a cohesive narrative that integrates information from multiple sources
2. Providing accurate analysis with supporting evidence
3. Identifying connections, patterns, and insights across sources
4. Including proper citations by referencing the source number [X] when using information from a specific source

INFORMATION SOURCES:
{context}

Generate a well-structured report in Markdown with:
- Introduction explaining the topic and its significance
- Main body with thorough analysis of the information
- Conclusion summarizing key findings and implications
- Properly cited sources throughout using the source numbers provided
`

// ErrPlaceholder is returned for templates without a {context} slot.
var ErrPlaceholder = errors.New("prompt template must contain " + Placeholder)

// BuildPrompt substitutes context into tmpl. An empty tmpl uses
// DefaultPromptTemplate.
func BuildPrompt(tmpl, context string) (string, error) {
	if strings.TrimSpace(tmpl) == "" {
		tmpl = DefaultPromptTemplate
	}
	if !strings.Contains(tmpl, Placeholder) {
		return "", ErrPlaceholder
	}
	return strings.ReplaceAll(tmpl, Placeholder, context), nil
}
