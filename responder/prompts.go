package responder

import (
	"fmt"
	"strings"
)

// sentimentSkipped stands in for the sentiment block when generation runs
// without a prior analysis pass, which keeps the prompt under budget.
const sentimentSkipped = "Sentiment analysis skipped to optimize token usage"

// generationSystemMessage instructs the model for reply generation.
const generationSystemMessage = `You are an expert email response assistant. Your task is to craft a reply to the provided email thread, written in the requested tone and incorporating the user's suggestion. Respond with the email body only, without subject lines, signatures, or commentary about the response itself.`

// adjustSystemMessage is the generic instruction used for length rewrites.
const adjustSystemMessage = "You are a helpful email response generator."

// buildGeneratePrompt assembles the user prompt for reply generation.
// The sentiment block carries either an analysis summary or the skipped
// placeholder.
func buildGeneratePrompt(tone, suggestion, thread, sentiment string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Generate an email response in a %s tone.\n\n", tone)
	if suggestion != "" {
		fmt.Fprintf(&b, "Incorporate this suggestion: %s\n\n", suggestion)
	}
	fmt.Fprintf(&b, "Sentiment context: %s\n\n", sentiment)
	fmt.Fprintf(&b, "Email thread:\n%s", thread)
	return b.String()
}

// buildAdjustPrompt assembles the rewrite instruction for length
// adjustment. direction is already validated.
func buildAdjustPrompt(direction Direction, response string) string {
	var instruction string
	switch direction {
	case Shorten:
		instruction = "Rewrite the following email response to be more concise while preserving its meaning, tone, and all key points."
	case Lengthen:
		instruction = "Rewrite the following email response to be more detailed and thorough while preserving its meaning and tone."
	}
	return fmt.Sprintf("%s\n\n%s", instruction, response)
}
