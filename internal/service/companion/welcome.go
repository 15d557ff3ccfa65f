package companion

import (
	"fmt"
	"strings"

	"github.com/zhouzirui/mindful/backend/internal/analysis/sentiment"
	"github.com/zhouzirui/mindful/backend/internal/model/chat"
	"github.com/zhouzirui/mindful/backend/internal/model/persona"
)

// Welcome builds the opening assistant message of a new session.
func Welcome(p persona.Persona, sessionID, userName string) chat.Message {
	greeting := "Hello!"
	if name := strings.TrimSpace(userName); name != "" {
		greeting = fmt.Sprintf("Hello %s!", name)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s I'm %s, your compassionate mental health companion. ", greeting, p.Name)
	b.WriteString("I'm here to listen, support, and help you explore your thoughts and feelings in a safe, judgment-free space.")

	if len(p.Capabilities) > 0 {
		b.WriteString("\n\n🤖 **I can help you with:**\n")
		for _, capability := range p.Capabilities {
			b.WriteString("• ")
			b.WriteString(capability)
			b.WriteString("\n")
		}
	}

	if p.Disclaimer != "" {
		b.WriteString("\n**Important:** ")
		b.WriteString(p.Disclaimer)
	}
	b.WriteString("\n\nHow are you feeling today? What would you like to talk about?")

	return chat.Message{
		ID:        chat.NewMessageID(),
		SessionID: sessionID,
		Sender:    chat.SenderAssistant,
		Content:   b.String(),
		Sentiment: sentiment.Positive,
		Kind:      chat.KindText,
	}
}
