package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"journey_backend/internal/config"
	"journey_backend/pkg/logger"

	"go.uber.org/zap"
)

// PushService 旅程就绪通知，POST 到配置的 webhook。
// 纯尽力而为，失败只记日志，绝不影响旅程终态。
type PushService struct {
	webhookURL string
	client     *http.Client
}

func NewPushService(cfg config.PushConfig) *PushService {
	return &PushService{
		webhookURL: cfg.WebhookURL,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

type pushPayload struct {
	Type      string `json:"type"`
	UserID    uint   `json:"userId"`
	JourneyID uint   `json:"journeyId"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	URL       string `json:"url"`
}

func (s *PushService) NotifyJourneyReady(userID, journeyID uint, topic string) {
	if s.webhookURL == "" {
		return
	}

	payload := pushPayload{
		Type:      "journey_ready",
		UserID:    userID,
		JourneyID: journeyID,
		Title:     "Journey Ready!",
		Body:      fmt.Sprintf("Your learning journey for '%s' is ready to start!", topic),
		URL:       fmt.Sprintf("/journey/%d", journeyID),
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return
	}

	resp, err := s.client.Post(s.webhookURL, "application/json", bytes.NewReader(data))
	if err != nil {
		logger.Log.Warn("push notification failed",
			zap.Uint("journey_id", journeyID), zap.Error(err))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		logger.Log.Warn("push webhook returned non-success status",
			zap.Uint("journey_id", journeyID), zap.Int("status", resp.StatusCode))
	}
}
