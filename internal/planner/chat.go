package planner

import (
	"context"
	"encoding/json"

	"github.com/charterhq/charter/internal/output"
)

// OpenAI-compatible chat completion types. The same wire format serves
// api.openai.com and local servers (LM Studio, Ollama).
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) completeChat(ctx context.Context, req Request, url string, headers map[string]string) (*Response, error) {
	body := c.buildChatRequest(req)

	respBody, err := c.doRequest(ctx, url, body, headers)
	if err != nil {
		return nil, err
	}

	return parseChatResponse(respBody, c.model)
}

func (c *Client) buildChatRequest(req Request) chatRequest {
	messages := []chatMessage{}
	if req.System != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.System})
	}
	messages = append(messages, chatMessage{Role: "user", Content: req.Prompt})

	// Empty model string lets a local server use whatever it has loaded
	model := c.model
	if c.provider == ProviderLocal && (model == "default" || model == "local") {
		model = ""
	}

	body := chatRequest{Model: model, Messages: messages}
	if req.MaxTokens > 0 {
		body.MaxTokens = req.MaxTokens
	}
	if req.Temperature > 0 {
		body.Temperature = req.Temperature
	}
	return body
}

func parseChatResponse(respBody []byte, model string) (*Response, error) {
	var result chatResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, output.NewSystemErrorWithCause("failed to parse response", err)
	}

	if result.Error != nil {
		return nil, output.NewSystemError("API error: " + result.Error.Message)
	}

	if len(result.Choices) == 0 {
		return nil, output.NewSystemError("empty response from API")
	}

	responseModel := model
	if responseModel == "" || responseModel == "default" {
		responseModel = "local"
	}

	return &Response{Content: result.Choices[0].Message.Content, Model: responseModel}, nil
}
