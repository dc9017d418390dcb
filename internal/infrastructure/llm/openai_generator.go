// Package llm generates recipe suggestions through the OpenAI chat API.
package llm

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"

	"fridgewiz/server/internal/config"
	"fridgewiz/server/internal/domain/chat"
	"fridgewiz/server/internal/domain/conversation"
)

const systemPrompt = `You are FridgeWiz AI, a specialized cooking assistant that analyzes ingredient photos and creates personalized recipes.

Key capabilities:
- Identify ingredients from photos with high accuracy
- Suggest creative, practical recipes based on available ingredients
- Consider dietary preferences and restrictions
- Provide step-by-step cooking instructions
- Estimate cooking times and difficulty levels
- Offer ingredient substitutions when possible

Always respond in a friendly, helpful tone and focus on making cooking accessible and enjoyable.`

const fallbackReply = "Sorry, I could not generate a response."

// OpenAIGenerator produces recipe suggestions via OpenAI chat completions,
// sending attached images as multi-part image_url content.
type OpenAIGenerator struct {
	client    *openai.Client
	model     string
	maxTokens int
	log       zerolog.Logger
}

var _ chat.Generator = (*OpenAIGenerator)(nil)

// NewOpenAIGenerator constructs a generator from config.
func NewOpenAIGenerator(cfg *config.Config, log zerolog.Logger) *OpenAIGenerator {
	return &OpenAIGenerator{
		client:    openai.NewClient(cfg.OpenAIAPIKey),
		model:     cfg.OpenAIModel,
		maxTokens: cfg.GenerationMaxTokens,
		log:       log.With().Str("component", "openai-generator").Logger(),
	}
}

// GenerateRecipe sends the system prompt, prior turns, and the new user
// message (with any image URLs) and returns the assistant reply.
func (g *OpenAIGenerator) GenerateRecipe(ctx context.Context, message string, history []chat.Turn, imageURLs []string) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(history)+2)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: systemPrompt,
	})

	for _, turn := range history {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    roleFor(turn.Role),
			Content: turn.Content,
		})
	}

	messages = append(messages, userMessage(message, imageURLs))

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       g.model,
		Messages:    messages,
		MaxTokens:   g.maxTokens,
		Temperature: 0.7,
	})
	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		g.log.Warn().Str("model", g.model).Msg("completion returned no content")
		return fallbackReply, nil
	}
	return resp.Choices[0].Message.Content, nil
}

func userMessage(message string, imageURLs []string) openai.ChatCompletionMessage {
	if len(imageURLs) == 0 {
		return openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleUser,
			Content: message,
		}
	}

	parts := make([]openai.ChatMessagePart, 0, len(imageURLs)+1)
	parts = append(parts, openai.ChatMessagePart{
		Type: openai.ChatMessagePartTypeText,
		Text: message,
	})
	for _, url := range imageURLs {
		parts = append(parts, openai.ChatMessagePart{
			Type:     openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{URL: url},
		})
	}
	return openai.ChatCompletionMessage{
		Role:         openai.ChatMessageRoleUser,
		MultiContent: parts,
	}
}

func roleFor(role conversation.Role) string {
	switch role {
	case conversation.RoleAssistant:
		return openai.ChatMessageRoleAssistant
	case conversation.RoleSystem:
		return openai.ChatMessageRoleSystem
	default:
		return openai.ChatMessageRoleUser
	}
}
