package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/umar-io/lease-agreement-generator/internal/common"
	"go.uber.org/zap"
)

type EmailAttachment struct {
	Filename string
	Content  []byte
}

type EmailMessage struct {
	From        string
	To          []string
	Subject     string
	HTML        string
	Attachments []EmailAttachment
}

// EmailSender hands a message to the email transport and returns its message id.
type EmailSender interface {
	Send(ctx context.Context, msg EmailMessage) (string, error)
}

type ResendConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

type resendEmailSender struct {
	client *resty.Client
	apiKey string
	logger *zap.Logger
}

func NewResendEmailSender(cfg ResendConfig, logger *zap.Logger) EmailSender {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	client := resty.New().
		SetBaseURL(strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &resendEmailSender{
		client: client,
		apiKey: strings.TrimSpace(cfg.APIKey),
		logger: logger,
	}
}

type resendAttachment struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
}

type resendRequest struct {
	From        string             `json:"from"`
	To          []string           `json:"to"`
	Subject     string             `json:"subject"`
	HTML        string             `json:"html"`
	Attachments []resendAttachment `json:"attachments,omitempty"`
}

type resendResponse struct {
	ID string `json:"id"`
}

type resendError struct {
	StatusCode int    `json:"statusCode"`
	Name       string `json:"name"`
	Message    string `json:"message"`
}

func (s *resendEmailSender) Send(ctx context.Context, msg EmailMessage) (string, error) {
	if s.apiKey == "" {
		return "", fmt.Errorf("%w: email api key not configured", common.ErrTransportRejected)
	}

	request := resendRequest{
		From:    msg.From,
		To:      msg.To,
		Subject: msg.Subject,
		HTML:    msg.HTML,
	}
	for _, a := range msg.Attachments {
		request.Attachments = append(request.Attachments, resendAttachment{
			Filename: a.Filename,
			Content:  base64.StdEncoding.EncodeToString(a.Content),
		})
	}

	var (
		result resendResponse
		apiErr resendError
	)
	resp, err := s.client.R().
		SetContext(ctx).
		SetAuthToken(s.apiKey).
		SetBody(request).
		SetResult(&result).
		SetError(&apiErr).
		Post("/emails")
	if err != nil {
		return "", fmt.Errorf("%w: %w", common.ErrTransportRejected, err)
	}
	if resp.IsError() {
		s.logger.Warn("email transport rejected message",
			zap.Int("status_code", resp.StatusCode()),
			zap.String("name", apiErr.Name),
			zap.String("message", apiErr.Message),
		)
		msg := apiErr.Message
		if msg == "" {
			msg = resp.Status()
		}
		return "", fmt.Errorf("%w: %s", common.ErrTransportRejected, msg)
	}
	if result.ID == "" {
		return "", fmt.Errorf("%w: response carried no message id", common.ErrTransportRejected)
	}
	return result.ID, nil
}
