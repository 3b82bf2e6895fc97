// Package tokens approximates provider token costs for budget admission.
//
// The estimate does not need to agree with the provider's tokenizer; it only
// needs to be deterministic and monotonic in text size so the same budget
// policy is applied consistently on every request.
package tokens

// Fixed buffers added on top of per-fragment estimates. These absorb the
// system message framing, the expected completion, and estimation slack.
const (
	SystemMessageBuffer = 500
	ResponseBuffer      = 800
	SafetyMarginBuffer  = 200
)

// Estimate returns the approximate token cost of text.
// Uses a conservative ratio of one token per three characters, rounded up.
//
// This is a pure atom function.
//
// Example:
//
//	tokens.Estimate("hello world") // 4
func Estimate(text string) int {
	if text == "" {
		return 0
	}
	return (len(text) + 2) / 3
}

// Budget sums the estimates of every outbound fragment plus the given
// buffers. Operations pass the fragments they will actually send.
//
// Example:
//
//	total := tokens.Budget(
//	    []string{systemMsg, userPrompt, thread},
//	    tokens.SystemMessageBuffer, tokens.ResponseBuffer,
//	)
func Budget(fragments []string, buffers ...int) int {
	total := 0
	for _, fragment := range fragments {
		total += Estimate(fragment)
	}
	for _, buffer := range buffers {
		total += buffer
	}
	return total
}
