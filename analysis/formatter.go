// Package analysis turns the freeform sentiment analysis produced by the
// model into a fixed-layout summary.
//
// The model is prompted to follow a semi-structured template, but its prose
// is not guaranteed to conform. Each field is therefore extracted by an
// independently-failable named rule: a rule that does not match reports
// "N/A" for its field and never disturbs the others.
package analysis

import (
	"fmt"
	"regexp"
	"strings"
)

// NotAvailable marks a field whose extraction rule did not match.
const NotAvailable = "N/A"

// Fields holds the eight extracted values. Unmatched fields carry
// NotAvailable, never the empty string.
type Fields struct {
	Score           string
	Tone            string
	Urgency         string
	Intent          string
	Emotions        string
	RecommendedTone string
	PhrasesInclude  string
	PhrasesAvoid    string
}

// extractor is one named rule over the raw analysis text. The first capture
// group is the field value.
type extractor struct {
	name    string
	pattern *regexp.Regexp
	// transform optionally post-processes the captured value.
	transform func(string) string
}

// Patterns mirror the phrasing requested by the analysis prompt template.
// Compiled once at package init.
var extractors = []extractor{
	{name: "score", pattern: regexp.MustCompile(`(?i)sentiment score[^+\-\d]*([+-]?\d+)`)},
	{name: "tone", pattern: regexp.MustCompile(`(?i)predominant tone is ([^,.\n]+)`)},
	{name: "urgency", pattern: regexp.MustCompile(`(?i)urgency level[^a-z]*(low|medium|high)`), transform: strings.ToUpper},
	{name: "intent", pattern: regexp.MustCompile(`(?i)sender's intent is ([^,.\n]+)`)},
	{name: "emotions", pattern: regexp.MustCompile(`(?i)primary emotions[^.]*?include ([^.\n]+)`)},
	{name: "recommended_tone", pattern: regexp.MustCompile(`(?i)suggested tone is ([^,.\n]+)`)},
	{name: "phrases_include", pattern: regexp.MustCompile(`(?i)key phrases to include are ([^.\n]+)`)},
	{name: "phrases_avoid", pattern: regexp.MustCompile(`(?i)phrases to avoid are ([^.\n]+)`)},
}

// Extract runs every rule against raw and returns the composed Fields.
// A missing field never aborts extraction of the others.
func Extract(raw string) Fields {
	values := make(map[string]string, len(extractors))
	for _, rule := range extractors {
		values[rule.name] = NotAvailable
		match := rule.pattern.FindStringSubmatch(raw)
		if len(match) < 2 {
			continue
		}
		value := strings.TrimSpace(match[1])
		if value == "" {
			continue
		}
		if rule.transform != nil {
			value = rule.transform(value)
		}
		values[rule.name] = value
	}

	return Fields{
		Score:           values["score"],
		Tone:            values["tone"],
		Urgency:         values["urgency"],
		Intent:          values["intent"],
		Emotions:        values["emotions"],
		RecommendedTone: values["recommended_tone"],
		PhrasesInclude:  values["phrases_include"],
		PhrasesAvoid:    values["phrases_avoid"],
	}
}

// Format parses raw analysis text into the fixed three-section display
// block. It never fails: on any internal error the original text is
// returned unchanged so the user still sees what the model produced.
//
// Example output:
//
//	📊 **Sentiment Overview**
//	• Score: +50
//	• Tone: professional
//	• Urgency: MEDIUM
//	...
func Format(raw string) (formatted string) {
	defer func() {
		if r := recover(); r != nil {
			formatted = raw
		}
	}()

	fields := Extract(raw)

	var b strings.Builder
	b.WriteString("📊 **Sentiment Overview**\n")
	fmt.Fprintf(&b, "• Score: %s\n", fields.Score)
	fmt.Fprintf(&b, "• Tone: %s\n", fields.Tone)
	fmt.Fprintf(&b, "• Urgency: %s\n", fields.Urgency)
	b.WriteString("\n🎯 **Key Points**\n")
	fmt.Fprintf(&b, "• Intent: %s\n", fields.Intent)
	fmt.Fprintf(&b, "• Emotions: %s\n", fields.Emotions)
	b.WriteString("\n💡 **Recommendations**\n")
	fmt.Fprintf(&b, "• Reply Tone: %s\n", fields.RecommendedTone)
	fmt.Fprintf(&b, "• Include: %s\n", fields.PhrasesInclude)
	fmt.Fprintf(&b, "• Avoid: %s", fields.PhrasesAvoid)
	return b.String()
}
