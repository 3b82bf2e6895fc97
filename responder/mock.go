package responder

import "fmt"

// mockOpenings keys tone names to canned opening lines for the offline
// fallback response.
var mockOpenings = map[string]string{
	"professional": "Thank you for your email. I appreciate you reaching out.",
	"friendly":     "Thanks so much for getting in touch!",
	"formal":       "Dear Sender,\n\nI acknowledge receipt of your correspondence.",
	"casual":       "Hey, thanks for the note!",
	"empathetic":   "I understand this situation must be challenging, and I appreciate you sharing it with me.",
	"direct":       "Thanks for your message. Here is my response.",
	"apologetic":   "I sincerely apologize for any inconvenience this may have caused.",
}

// mockResponse produces a placeholder reply when the completion provider is
// unavailable. Callers mark the result degraded so the UI can surface it.
func mockResponse(tone, suggestion string) string {
	opening, ok := mockOpenings[tone]
	if !ok {
		opening = mockOpenings["professional"]
	}

	body := "I have reviewed the thread and will follow up with a full response shortly."
	if suggestion != "" {
		body = fmt.Sprintf("Regarding your point: %s. I will follow up with more detail shortly.", suggestion)
	}

	return fmt.Sprintf("%s\n\n%s\n\nBest regards", opening, body)
}
