package rag

import (
	"fmt"

	"github.com/pawsona/pawsona/internal/models"
)

const systemPersona = `You are a Pawsonality (Dog Personality Test) expert. You analyze dog
personality and behavior and give owners practical, tailored care advice.

Guidelines:
- Explain personality types and their traits in plain language.
- Give specific, actionable advice on training, walks and socialization.
- Keep answers warm and to the point.
- Recommend seeing a veterinarian for anything medical.
- Answer from the reference material; say so honestly when you do not know.`

func systemPrompt(typeCode string) string {
	if typeCode == "" {
		return systemPersona
	}
	return systemPersona + fmt.Sprintf(
		"\n\nThe owner's dog is the %s personality type. Tailor your advice to that type's traits.",
		typeCode)
}

func userPrompt(query, context string) string {
	return fmt.Sprintf(
		"Reference material from the knowledge base:\n\n%s\n\n---\n\nUsing the material above, answer this question:\n%s",
		context, query)
}

// buildMessages assembles the provider message sequence: one system
// instruction, the trimmed conversation history, then the current query
// with the retrieval context attached.
func buildMessages(query, typeCode, context string, history []models.ChatMessage) []models.ChatMessage {
	messages := make([]models.ChatMessage, 0, len(history)+2)
	messages = append(messages, models.ChatMessage{Role: models.RoleSystem, Content: systemPrompt(typeCode)})
	messages = append(messages, history...)
	messages = append(messages, models.ChatMessage{Role: models.RoleUser, Content: userPrompt(query, context)})
	return messages
}

// trimHistory keeps only user and assistant turns, then bounds the result
// to the most recent window entries, oldest first. Anything else (stray
// system prompts, unknown roles) is dropped before windowing so the
// provider never sees an invalid sequence.
func trimHistory(history []models.ChatMessage, window int) []models.ChatMessage {
	if window <= 0 || len(history) == 0 {
		return nil
	}

	kept := make([]models.ChatMessage, 0, len(history))
	for _, m := range history {
		if m.Role == models.RoleUser || m.Role == models.RoleAssistant {
			kept = append(kept, m)
		}
	}
	if len(kept) > window {
		kept = kept[len(kept)-window:]
	}
	return kept
}
