package ai

import (
	"fmt"
	"strings"

	"github.com/zhouzirui/mindful/backend/internal/analysis/sentiment"
	"github.com/zhouzirui/mindful/backend/internal/model/chat"
	"github.com/zhouzirui/mindful/backend/internal/model/persona"
)

// TurnContext carries the per-turn facts rendered into the prompt body.
// History must already be bounded by the caller.
type TurnContext struct {
	UserName  string
	Sentiment sentiment.Label
	History   []chat.Message
	Message   string
}

// BuildPrompt renders the system instructions and the turn body for p.
func BuildPrompt(p *persona.Persona, turn TurnContext) Prompt {
	return Prompt{
		System: BuildSystemPrompt(p),
		Body:   buildTurnBody(p, turn),
	}
}

// BuildSystemPrompt 根据角色设定生成系统提示词。
func BuildSystemPrompt(p *persona.Persona) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are %s, a %s.", p.Name, p.Title)

	if len(p.Roles) > 0 {
		b.WriteString(" Your role is to:\n\n")
		for i, role := range p.Roles {
			fmt.Fprintf(&b, "%d. %s\n", i+1, role)
		}
	}

	if len(p.Guidelines) > 0 {
		b.WriteString("\nGuidelines:\n")
		for _, rule := range p.Guidelines {
			b.WriteString("- ")
			b.WriteString(rule)
			b.WriteString("\n")
		}
	}

	if p.Tone != "" {
		fmt.Fprintf(&b, "\nKeep your tone %s.", p.Tone)
	}
	return strings.TrimRight(b.String(), "\n")
}

func buildTurnBody(p *persona.Persona, turn TurnContext) string {
	var b strings.Builder

	if name := strings.TrimSpace(turn.UserName); name != "" {
		fmt.Fprintf(&b, "The user's name is %s.", name)
	} else {
		b.WriteString("The user prefers to remain anonymous.")
	}

	fmt.Fprintf(&b, "\n\nCurrent conversation sentiment: %s", turn.Sentiment)

	b.WriteString("\n\nPrevious conversation context:\n")
	b.WriteString(FormatHistory(turn.History))

	fmt.Fprintf(&b, "\n\nUser's current message: %s", turn.Message)
	fmt.Fprintf(&b, "\n\nPlease respond as %s with empathy and helpful guidance:", p.Name)
	return b.String()
}

// FormatHistory renders messages as "sender: content" lines in order.
func FormatHistory(messages []chat.Message) string {
	lines := make([]string, 0, len(messages))
	for _, msg := range messages {
		lines = append(lines, fmt.Sprintf("%s: %s", msg.Sender, msg.Content))
	}
	return strings.Join(lines, "\n")
}
