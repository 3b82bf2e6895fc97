package analysis

import "strings"

// threadPlaceholder is replaced with the sanitized email thread when the
// analysis prompt is assembled.
const threadPlaceholder = "[Insert Email Thread Here]"

// SystemMessage is the system instruction for the analyze operation.
const SystemMessage = "You are an advanced communication intelligence assistant specializing in email sentiment analysis."

// promptTemplate asks the model for exactly the phrasing the extractors in
// formatter.go look for. Changing one side requires changing the other.
const promptTemplate = `You are a communication analysis assistant. Analyze the following email thread and then produce a concise analysis in the following exact format:

sentiment score: [number between -100 and +100]
predominant tone is [short tone description]
urgency level [low/medium/high]
sender's intent is [short description of intent]
Primary emotions include [comma-separated primary emotions]
suggested tone is [short recommended tone]
Key phrases to include are [comma-separated short phrases]
Phrases to avoid are [comma-separated short phrases]

Do not include any additional commentary outside this format.

` + threadPlaceholder

// Prompt returns the analysis prompt with the thread inserted.
func Prompt(thread string) string {
	return strings.Replace(promptTemplate, threadPlaceholder, thread, 1)
}

// PromptTemplate exposes the raw template for token budgeting: the budget is
// computed over what will actually be sent, and the template dominates the
// fixed cost.
func PromptTemplate() string {
	return promptTemplate
}
