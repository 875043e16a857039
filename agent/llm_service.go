package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	einoSchema "github.com/cloudwego/eino/schema"

	"genbi/config"
)

// RequestKind selects the completion timeout class. Direct-query calls
// (classification, SQL generation) get the short timeout; plan generation and
// per-step analysis calls get the long one, so legitimate long-running
// reasoning is not aborted prematurely.
type RequestKind string

const (
	RequestKindQuery    RequestKind = "query"
	RequestKindAnalysis RequestKind = "analysis"
)

// Completer is the text-in/text-out completion boundary. An empty completion
// and a transport error are equivalent failures: both return a non-nil error.
type Completer interface {
	Complete(ctx context.Context, prompt string, kind RequestKind) (string, error)
}

// CompleteFunc adapts a plain function to the Completer interface.
type CompleteFunc func(ctx context.Context, prompt string, kind RequestKind) (string, error)

func (f CompleteFunc) Complete(ctx context.Context, prompt string, kind RequestKind) (string, error) {
	return f(ctx, prompt, kind)
}

// LLMService implements Completer against the configured provider.
// OpenAI-format providers go through the eino chat model; Anthropic-format
// providers use the messages API directly.
type LLMService struct {
	provider  string
	apiKey    string
	baseURL   string
	modelName string
	maxTokens int

	queryTimeout    time.Duration
	analysisTimeout time.Duration

	chatModel  model.ChatModel
	httpClient *http.Client

	Log func(string)
}

// NewLLMService creates an LLMService from the stored configuration.
func NewLLMService(cfg config.Config, logFunc func(string)) (*LLMService, error) {
	s := &LLMService{
		provider:        cfg.LLMProvider,
		apiKey:          cfg.APIKey,
		baseURL:         cfg.BaseURL,
		modelName:       cfg.ModelName,
		maxTokens:       cfg.MaxTokens,
		queryTimeout:    time.Duration(cfg.QueryTimeoutSec) * time.Second,
		analysisTimeout: time.Duration(cfg.AnalysisTimeoutSec) * time.Second,
		Log:             logFunc,
	}

	switch cfg.LLMProvider {
	case "Anthropic", "Claude-Compatible":
		// Per-call context deadlines govern the timeout.
		s.httpClient = &http.Client{}
	default:
		// OpenAI and OpenAI-Compatible.
		cm, err := openai.NewChatModel(context.Background(), &openai.ChatModelConfig{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.ModelName,
			Timeout: s.analysisTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create chat model: %v", err)
		}
		s.chatModel = cm
	}

	return s, nil
}

func (s *LLMService) log(msg string) {
	if s.Log != nil {
		s.Log(msg)
	}
}

func (s *LLMService) timeoutFor(kind RequestKind) time.Duration {
	if kind == RequestKindAnalysis {
		return s.analysisTimeout
	}
	return s.queryTimeout
}

// Complete sends one prompt and returns the completion text.
func (s *LLMService) Complete(ctx context.Context, prompt string, kind RequestKind) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeoutFor(kind))
	defer cancel()

	s.log(fmt.Sprintf("[llm] %s request (%s), prompt length %d", s.provider, kind, len(prompt)))

	var (
		content string
		err     error
	)
	if s.chatModel != nil {
		var resp *einoSchema.Message
		resp, err = s.chatModel.Generate(ctx, []*einoSchema.Message{
			{Role: einoSchema.User, Content: prompt},
		})
		if err == nil {
			content = resp.Content
		}
	} else {
		content, err = s.completeAnthropic(ctx, prompt)
	}

	if err != nil {
		s.log(fmt.Sprintf("[llm] request failed: %v", err))
		return "", err
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return "", fmt.Errorf("empty completion from %s", s.provider)
	}
	s.log(fmt.Sprintf("[llm] response length %d", len(content)))
	return content, nil
}

// completeAnthropic calls the Anthropic-format messages API.
func (s *LLMService) completeAnthropic(ctx context.Context, prompt string) (string, error) {
	fullURL := "https://api.anthropic.com/v1/messages"
	if s.baseURL != "" {
		u, err := url.Parse(s.baseURL)
		if err != nil {
			return "", fmt.Errorf("invalid base URL: %v", err)
		}
		// Append the standard path unless the base URL already carries one.
		path := u.Path
		if path == "" || path == "/" || path == "/v1" || path == "/v1/" {
			if !strings.HasSuffix(path, "/") {
				path += "/"
			}
			if !strings.HasPrefix(strings.TrimPrefix(path, "/"), "v1") {
				path += "v1/"
			}
			path += "messages"
		}
		u.Path = path
		fullURL = u.String()
	}

	maxTokens := s.maxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	body := map[string]interface{}{
		"model":      s.modelName,
		"max_tokens": maxTokens,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
	}

	jsonBody, _ := json.Marshal(body)
	req, err := http.NewRequestWithContext(ctx, "POST", fullURL, bytes.NewBuffer(jsonBody))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("x-api-key", s.apiKey)
	}
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		if resp.StatusCode == http.StatusNotFound {
			return "", fmt.Errorf("API error (404): Not Found. Check your Base URL and path (e.g., /v1/messages). Full URL used: %s", fullURL)
		}
		return "", fmt.Errorf("API error (%d): %s", resp.StatusCode, string(respBody))
	}

	var result struct {
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	if len(result.Content) == 0 {
		return "", fmt.Errorf("no response content from %s", s.provider)
	}
	return result.Content[0].Text, nil
}
