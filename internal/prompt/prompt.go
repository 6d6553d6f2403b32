// Package prompt assembles the role-tagged message list sent to the model:
// one system block carrying the olive-expert persona, one block per history
// turn, and a final user block that is multimodal when an image is attached.
package prompt

import (
	"fmt"
	"strings"

	"olive-chat-server/internal/ai"
	"olive-chat-server/internal/model"
)

const personaTemplate = `You are an expert in agriculture, specifically olives and olive diseases.
Provide accurate and helpful information about olive cultivation, diseases, treatments,
and best practices. Your answers should be informative and understandable to farmers
and enthusiasts. If an image is provided, analyze it for signs of diseases or issues
with olive trees or fruits.

IMPORTANT INSTRUCTIONS:
1. Format your responses using markdown for better readability.
2. Be concise and to the point. Limit your response to 3-4 sentences when possible.
3. Respond in the same language as the user's query. The detected language is: %s.
4. For diseases, quickly identify the disease name, key symptoms, and basic treatment.
5. Refer to the chat history to maintain context in the conversation.
6. If the user mentions something from earlier in the conversation, acknowledge it.`

type Builder struct {
	// Addressee, when set, makes the assistant address the user by name.
	Addressee string
}

// Build produces the full message list for one turn. An empty imageDataURI
// yields a plain-text final block; otherwise the final block carries a text
// part (when text is non-empty) and an image part with the data URI.
func (b Builder) Build(hint Language, history []model.Message, text, imageDataURI string) []ai.ChatMessage {
	messages := make([]ai.ChatMessage, 0, len(history)+2)
	messages = append(messages, ai.TextMessage("system", b.systemInstruction(hint)))

	for _, item := range history {
		role := "user"
		if item.IsBot {
			role = "assistant"
		}
		messages = append(messages, ai.TextMessage(role, item.Text))
	}

	if imageDataURI == "" {
		messages = append(messages, ai.TextMessage("user", text))
		return messages
	}

	var parts []ai.ContentPart
	if text != "" {
		parts = append(parts, ai.ContentPart{Type: "text", Text: text})
	}
	parts = append(parts, ai.ContentPart{
		Type:     "image_url",
		ImageURL: &ai.ImageURL{URL: imageDataURI},
	})
	messages = append(messages, ai.ChatMessage{Role: "user", Content: parts})
	return messages
}

func (b Builder) systemInstruction(hint Language) string {
	instruction := fmt.Sprintf(personaTemplate, hint)
	if strings.TrimSpace(b.Addressee) != "" {
		instruction += fmt.Sprintf("\n7. Address the user as %s in your responses.", b.Addressee)
	}
	return instruction
}

// ImageDataURI normalizes uploaded image input to a data URI. Input may be a
// full data URI already or bare base64 text.
func ImageDataURI(encoded string) string {
	if strings.HasPrefix(encoded, "data:") {
		return encoded
	}
	return "data:image/jpeg;base64," + encoded
}

// StripDataURIPrefix returns the bare base64 payload of an uploaded image.
func StripDataURIPrefix(input string) string {
	if idx := strings.Index(input, "base64,"); idx >= 0 {
		return input[idx+len("base64,"):]
	}
	return input
}
