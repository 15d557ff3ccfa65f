package companion

import (
	"fmt"

	"github.com/zhouzirui/mindful/backend/internal/analysis/sentiment"
)

const crisisResponse = "🚨 **I'm very concerned about what you're sharing.** Your safety is the most important thing right now.\n\n" +
	"**Please reach out for immediate help:**\n\n" +
	"🆘 **Crisis Resources:**\n" +
	"• **988 Suicide & Crisis Lifeline**: Call or text 988\n" +
	"• **Crisis Text Line**: Text HOME to 741741\n" +
	"• **Emergency Services**: Call 911\n\n" +
	"**You are not alone.** Professional counselors are available 24/7 to help you through this difficult time.\n\n" +
	"Would you like me to provide more crisis support resources or help you find local emergency services?"

// %[1]s is ", <name>" or empty.
var fallbackTemplates = map[sentiment.Label]string{
	sentiment.Crisis: "I'm very concerned about what you're sharing%[1]s. Please reach out to crisis support immediately:\n\n" +
		"🆘 **Call 988** (Suicide & Crisis Lifeline)\n" +
		"🆘 **Text HOME to 741741** (Crisis Text Line)\n" +
		"🆘 **Call 911** for emergencies\n\n" +
		"Your safety matters most. Professional help is available 24/7.",

	sentiment.Negative: "I hear that you're going through a difficult time%[1]s. It takes courage to reach out and share these feelings. " +
		"While I'm having trouble connecting to my full AI capabilities right now, I want you to know that what you're experiencing is valid.\n\n" +
		"Would you like to try some breathing exercises, or would it help to talk more about what's weighing on your mind?",

	sentiment.Positive: "It's wonderful to hear some positivity from you%[1]s! Even though I'm having some technical difficulties right now, " +
		"I can sense the good energy in your message. What's been contributing to these positive feelings?\n\n" +
		"I'd love to hear more about what's going well for you today.",

	sentiment.Neutral: "Thank you for reaching out%[1]s. I'm here to listen and support you, though I'm experiencing some technical difficulties " +
		"with my full AI capabilities right now.\n\n" +
		"What would be most helpful for you to talk about today? I'm here to listen and provide what support I can.",
}

// FallbackText returns the canned reply for label, addressing userName when
// given. Unknown labels use the neutral template.
func FallbackText(label sentiment.Label, userName string) string {
	template, ok := fallbackTemplates[label]
	if !ok {
		template = fallbackTemplates[sentiment.Neutral]
	}

	name := ""
	if userName != "" {
		name = ", " + userName
	}
	return fmt.Sprintf(template, name)
}

// CrisisResponse is the fixed reply sent when a message is classified as crisis.
func CrisisResponse() string {
	return crisisResponse
}
