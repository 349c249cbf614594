package llm

import (
	"strings"

	"github.com/sashabaranov/go-openai"
)

// TextSource yields the text of a model response. Providers return either a
// plain string or multi-part content; both are read through this interface.
type TextSource interface {
	ExtractText() (string, error)
}

// StaticText is a response whose text is already available.
type StaticText string

// ExtractText returns the text as-is.
func (s StaticText) ExtractText() (string, error) {
	return string(s), nil
}

// TextFunc adapts a function to TextSource. The function runs on each call.
type TextFunc func() (string, error)

// ExtractText calls f.
func (f TextFunc) ExtractText() (string, error) {
	return f()
}

// MessageText returns the TextSource for a chat completion message.
// Plain content is returned directly; multi-part content is joined lazily.
func MessageText(msg openai.ChatCompletionMessage) TextSource {
	if msg.Content != "" || len(msg.MultiContent) == 0 {
		return StaticText(msg.Content)
	}

	parts := msg.MultiContent
	return TextFunc(func() (string, error) {
		var sb strings.Builder
		for _, p := range parts {
			if p.Type == openai.ChatMessagePartTypeText {
				sb.WriteString(p.Text)
			}
		}
		return sb.String(), nil
	})
}
