package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"journey_backend/internal/config"
	"journey_backend/pkg/logger"

	"go.uber.org/zap"
)

// AIService OpenAI 兼容的 /chat/completions 客户端。
// 查询生成、摘要增强、策展都走这一个入口。
type AIService struct {
	config config.AIConfig
	client *http.Client
}

func NewAIService(cfg config.AIConfig) *AIService {
	return &AIService{
		config: cfg,
		client: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSecs) * time.Second,
		},
	}
}

type AIChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatCompletionRequest struct {
	Model       string          `json:"model"`
	Messages    []AIChatMessage `json:"messages"`
	Temperature float64         `json:"temperature,omitempty"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
}

type ChatCompletionResponse struct {
	Choices []struct {
		Message AIChatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// GenerateText 单轮补全。超时错误重试一次，其余错误直接返回，
// 调用方各自决定降级路径。
func (s *AIService) GenerateText(systemPrompt, prompt string, temperature float64, maxTokens int) (string, error) {
	result, err := s.complete(systemPrompt, prompt, temperature, maxTokens)
	if err != nil && isTimeout(err) {
		logger.Log.Warn("AI request timed out, retrying once",
			zap.String("model", s.config.Model))
		result, err = s.complete(systemPrompt, prompt, temperature, maxTokens)
	}
	return result, err
}

// GenerateJSON 补全并把结果反序列化到 out。模型偶尔会把 JSON 包在
// 代码围栏里或附带解释文字，这里先剥一层再解析。
func (s *AIService) GenerateJSON(systemPrompt, prompt string, temperature float64, maxTokens int, out interface{}) error {
	text, err := s.GenerateText(systemPrompt, prompt, temperature, maxTokens)
	if err != nil {
		return err
	}

	cleaned := ExtractJSON(text)
	if err := json.Unmarshal([]byte(cleaned), out); err != nil {
		return fmt.Errorf("AI returned non-JSON response: %w", err)
	}
	return nil
}

func (s *AIService) complete(systemPrompt, prompt string, temperature float64, maxTokens int) (string, error) {
	messages := []AIChatMessage{}
	if systemPrompt != "" {
		messages = append(messages, AIChatMessage{Role: "system", Content: systemPrompt})
	}
	messages = append(messages, AIChatMessage{Role: "user", Content: prompt})

	reqBody := ChatCompletionRequest{
		Model:       s.config.Model,
		Messages:    messages,
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequest("POST", s.config.BaseURL+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.config.APIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("AI API error (status %d): %s", resp.StatusCode, string(body))
	}

	var result ChatCompletionResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", err
	}
	if result.Error != nil {
		return "", fmt.Errorf("AI API error: %s", result.Error.Message)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("AI returned no choices")
	}
	return result.Choices[0].Message.Content, nil
}

func isTimeout(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}

// ExtractJSON 剥掉代码围栏和围栏外的杂质文本，定位首个 JSON 值
func ExtractJSON(text string) string {
	text = strings.TrimSpace(text)

	if idx := strings.Index(text, "```"); idx >= 0 {
		rest := text[idx+3:]
		rest = strings.TrimPrefix(rest, "json")
		if end := strings.Index(rest, "```"); end >= 0 {
			return strings.TrimSpace(rest[:end])
		}
		return strings.TrimSpace(rest)
	}

	objStart := strings.Index(text, "{")
	arrStart := strings.Index(text, "[")
	start := objStart
	closer := "}"
	if arrStart >= 0 && (objStart < 0 || arrStart < objStart) {
		start = arrStart
		closer = "]"
	}
	if start < 0 {
		return text
	}
	end := strings.LastIndex(text, closer)
	if end <= start {
		return text
	}
	return text[start : end+1]
}
