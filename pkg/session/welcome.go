package session

import (
	"strconv"

	"github.com/costwise/costwise/pkg/transcript"
)

const (
	welcomeText = "Hi! I'm your AWS cost assistant. Ask me about spend by service, " +
		"budget deviations, or where your bill is growing."

	cleanWelcomeText = "Hi! Ask me anything about your AWS costs."
)

// WelcomeMessage returns the greeting that opens a new conversation. Clean
// mode uses a shorter greeting.
func WelcomeMessage(clean bool) transcript.Message {
	if clean {
		return transcript.NewMessage(transcript.RoleAssistant, cleanWelcomeText)
	}
	return transcript.NewMessage(transcript.RoleAssistant, welcomeText)
}

func historyID(i int) string {
	return "history-" + strconv.Itoa(i)
}
