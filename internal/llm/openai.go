package llm

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// Client is the external inference collaborator: a pure request/response
// text service with no session state of its own.
type Client interface {
	Compare(ctx context.Context, latest, previous string) (string, error)
}

// comparePrompt instructs the model to report changes from the previous
// submission to the latest one. Directionality matters: the new content is
// always presented as "latest".
const comparePrompt = "You are a health data assistant. The user periodically submits health " +
	"measurements or test results as free text. Compare the two submissions below and describe, " +
	"in plain language, what changed from the previous submission to the latest one. Mention " +
	"values that improved, worsened or stayed the same. Do not give a diagnosis."

// OpenAIClient calls the OpenAI chat completion API to produce comparison
// narratives.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

// NewOpenAIClient constructs an OpenAI-backed client. An empty model falls
// back to a modern small default.
func NewOpenAIClient(apiKey, model string) *OpenAIClient {
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &OpenAIClient{client: openai.NewClient(apiKey), model: model}
}

// Compare sends both submissions to the chat completion API and returns the
// narrative describing the changes between them.
func (c *OpenAIClient) Compare(ctx context.Context, latest, previous string) (string, error) {
	if c.client == nil {
		return "", errors.New("openai client not initialized")
	}
	content := fmt.Sprintf("Latest:\n%s\n\nPrevious:\n%s", latest, previous)
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: comparePrompt},
			{Role: openai.ChatMessageRoleUser, Content: content},
		},
		Temperature: 0.2,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("empty completion response")
	}
	return resp.Choices[0].Message.Content, nil
}
