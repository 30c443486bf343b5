//nolint:bodyclose // Test file uses mock responses with NopCloser bodies
package planner

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
)

// mockHTTPDoer implements HTTPDoer for testing.
type mockHTTPDoer struct {
	response *http.Response
	err      error
	lastReq  *http.Request
}

func (m *mockHTTPDoer) Do(req *http.Request) (*http.Response, error) {
	m.lastReq = req
	return m.response, m.err
}

// mockResponse creates a mock HTTP response with the given status and body.
func mockResponse(statusCode int, body string) *http.Response {
	return &http.Response{
		StatusCode: statusCode,
		Body:       io.NopCloser(bytes.NewBufferString(body)),
	}
}

func TestParseProviderPrefix(t *testing.T) {
	tests := []struct {
		name         string
		model        string
		wantProvider Provider
		wantModel    string
	}{
		{"claude prefix", "claude-haiku", ProviderAnthropic, "haiku"},
		{"anthropic prefix", "anthropic-sonnet", ProviderAnthropic, "sonnet"},
		{"gemini prefix", "gemini-flash", ProviderGoogle, "flash"},
		{"openai prefix", "openai-gpt-5", ProviderOpenAI, "gpt-5"},
		{"local prefix", "local-llama", ProviderLocal, "llama"},
		{"no matching prefix", "gpt-4-turbo", "", "gpt-4-turbo"},
		{"case insensitive", "CLAUDE-haiku", ProviderAnthropic, "haiku"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider, model := parseProviderPrefix(tt.model)
			if provider != tt.wantProvider {
				t.Errorf("parseProviderPrefix(%q) provider = %q, want %q", tt.model, provider, tt.wantProvider)
			}
			if model != tt.wantModel {
				t.Errorf("parseProviderPrefix(%q) model = %q, want %q", tt.model, model, tt.wantModel)
			}
		})
	}
}

func TestInferProvider(t *testing.T) {
	tests := []struct {
		model string
		want  Provider
	}{
		{"gpt-4o", ProviderOpenAI},
		{"gemini-2.0", ProviderGoogle},
		{"qwen2.5-coder", ProviderLocal},
		{"claude-sonnet-4-5", ProviderAnthropic},
		{"something-unknown", ProviderAnthropic},
	}

	for _, tt := range tests {
		if got := inferProvider(tt.model); got != tt.want {
			t.Errorf("inferProvider(%q) = %q, want %q", tt.model, got, tt.want)
		}
	}
}

func TestResolveModelAlias(t *testing.T) {
	if got := resolveModelAlias("haiku", ProviderAnthropic); !strings.HasPrefix(got, "claude-haiku-") {
		t.Errorf("resolveModelAlias(haiku) = %q, want claude-haiku-* expansion", got)
	}
	if got := resolveModelAlias("gpt-5.2", ProviderOpenAI); got != "gpt-5.2" {
		t.Errorf("resolveModelAlias passthrough = %q, want gpt-5.2", got)
	}
}

func TestNewClientMissingAPIKey(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")

	_, err := NewClient("haiku", ProviderAnthropic)
	if err == nil {
		t.Fatal("NewClient() expected error when API key is unset")
	}
	if !strings.Contains(err.Error(), "ANTHROPIC_API_KEY") {
		t.Errorf("error = %q, want to name ANTHROPIC_API_KEY", err.Error())
	}
}

func TestNewClientLocalNeedsNoKey(t *testing.T) {
	client, err := NewClient("local", ProviderLocal)
	if err != nil {
		t.Fatalf("NewClient(local) error = %v", err)
	}
	if client.provider != ProviderLocal {
		t.Errorf("provider = %q, want local", client.provider)
	}
}

func TestCompleteUnsupportedProvider(t *testing.T) {
	client := &Client{provider: "nonsense"}
	_, err := client.Complete(context.Background(), Request{Prompt: "hi"})
	if err == nil {
		t.Fatal("Complete() expected error for unsupported provider")
	}
}

func TestCompleteAnthropic(t *testing.T) {
	responseJSON := `{"content": [{"type": "text", "text": "Hello, "}, {"type": "text", "text": "world!"}]}`

	client := &Client{
		provider:   ProviderAnthropic,
		model:      "claude-haiku-4-5-20251001",
		apiKey:     "test-key",
		httpClient: &mockHTTPDoer{response: mockResponse(200, responseJSON)},
	}

	resp, err := client.completeAnthropic(context.Background(), Request{Prompt: "Say hello"})
	if err != nil {
		t.Fatalf("completeAnthropic() error = %v", err)
	}
	if resp.Content != "Hello, world!" {
		t.Errorf("Content = %q, want %q", resp.Content, "Hello, world!")
	}
}

func TestCompleteAnthropicAPIError(t *testing.T) {
	responseJSON := `{"error": {"type": "invalid_api_key", "message": "Invalid API key provided"}}`

	client := &Client{
		provider:   ProviderAnthropic,
		model:      "claude-haiku-4-5-20251001",
		apiKey:     "test-key",
		httpClient: &mockHTTPDoer{response: mockResponse(200, responseJSON)},
	}

	_, err := client.completeAnthropic(context.Background(), Request{Prompt: "test"})
	if err == nil {
		t.Fatal("completeAnthropic() expected error")
	}
	if !strings.Contains(err.Error(), "Invalid API key provided") {
		t.Errorf("error = %q, want to contain API message", err.Error())
	}
}

func TestCompleteChat_Success(t *testing.T) {
	responseJSON := `{"choices": [{"message": {"content": "done"}}]}`

	doer := &mockHTTPDoer{response: mockResponse(200, responseJSON)}
	client := &Client{
		provider:   ProviderOpenAI,
		model:      "gpt-5-mini",
		apiKey:     "test-key",
		httpClient: doer,
	}

	resp, err := client.completeChat(context.Background(), Request{System: "sys", Prompt: "go"},
		"https://api.openai.com/v1/chat/completions", map[string]string{"Authorization": "Bearer test-key"})
	if err != nil {
		t.Fatalf("completeChat() error = %v", err)
	}
	if resp.Content != "done" {
		t.Errorf("Content = %q, want done", resp.Content)
	}
	if got := doer.lastReq.Header.Get("Authorization"); got != "Bearer test-key" {
		t.Errorf("Authorization header = %q", got)
	}
}

func TestCompleteChat_EmptyChoices(t *testing.T) {
	client := &Client{
		provider:   ProviderLocal,
		model:      "default",
		apiKey:     "not-needed",
		httpClient: &mockHTTPDoer{response: mockResponse(200, `{"choices": []}`)},
	}

	_, err := client.completeChat(context.Background(), Request{Prompt: "test"}, "http://localhost:1234/v1/chat/completions", nil)
	if err == nil {
		t.Fatal("completeChat() expected error for empty choices")
	}
	if !strings.Contains(err.Error(), "empty response") {
		t.Errorf("error = %q, want to contain 'empty response'", err.Error())
	}
}

func TestBuildChatRequestLocalDefaultModel(t *testing.T) {
	client := &Client{provider: ProviderLocal, model: "default"}
	body := client.buildChatRequest(Request{Prompt: "hi"})
	if body.Model != "" {
		t.Errorf("Model = %q, want empty for local default", body.Model)
	}
}

func TestDoRequestHTTPFailure(t *testing.T) {
	client := &Client{
		provider:   ProviderAnthropic,
		model:      "claude-haiku-4-5-20251001",
		apiKey:     "test-key",
		httpClient: &mockHTTPDoer{err: errors.New("connection refused")},
	}

	_, err := client.completeAnthropic(context.Background(), Request{Prompt: "test"})
	if err == nil {
		t.Fatal("expected error on transport failure")
	}
}

func TestDoRequestNon200Truncated(t *testing.T) {
	longBody := strings.Repeat("x", 1000)
	client := &Client{
		provider:   ProviderAnthropic,
		model:      "claude-haiku-4-5-20251001",
		apiKey:     "test-key",
		httpClient: &mockHTTPDoer{response: mockResponse(500, longBody)},
	}

	_, err := client.completeAnthropic(context.Background(), Request{Prompt: "test"})
	if err == nil {
		t.Fatal("expected error on 500")
	}
	if len(err.Error()) > 600 {
		t.Errorf("error body not truncated, len = %d", len(err.Error()))
	}
}
