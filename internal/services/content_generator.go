package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/umar-io/lease-agreement-generator/internal/common"
	"github.com/umar-io/lease-agreement-generator/internal/models"
	"go.uber.org/zap"
)

const (
	generationSystemPrompt = "You are a legal document generator."
	generationTemperature  = 0.3
)

// ContentGenerator turns lease terms into agreement text.
type ContentGenerator interface {
	Generate(ctx context.Context, terms models.LeaseTerms) (string, error)
}

// GenerationError reports why the remote generator could not produce text.
// errors.Is(err, common.ErrGenerationUnavailable) holds for every GenerationError.
type GenerationError struct {
	Reason string
	Err    error
}

func (e *GenerationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("generation unavailable: %s: %v", e.Reason, e.Err)
	}
	return "generation unavailable: " + e.Reason
}

func (e *GenerationError) Unwrap() []error {
	if e.Err == nil {
		return []error{common.ErrGenerationUnavailable}
	}
	return []error{common.ErrGenerationUnavailable, e.Err}
}

type RemoteGeneratorConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

type remoteContentGenerator struct {
	client *resty.Client
	apiKey string
	model  string
	logger *zap.Logger
}

// NewRemoteContentGenerator calls an OpenAI-compatible chat completions endpoint.
// An empty API key is allowed; every call then fails with a GenerationError.
func NewRemoteContentGenerator(cfg RemoteGeneratorConfig, logger *zap.Logger) ContentGenerator {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	client := resty.New().
		SetBaseURL(strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &remoteContentGenerator{
		client: client,
		apiKey: strings.TrimSpace(cfg.APIKey),
		model:  strings.TrimSpace(cfg.Model),
		logger: logger,
	}
}

func (g *remoteContentGenerator) Generate(ctx context.Context, terms models.LeaseTerms) (string, error) {
	if g.apiKey == "" {
		return "", &GenerationError{Reason: "api key not configured"}
	}
	if g.model == "" {
		return "", &GenerationError{Reason: "model not configured"}
	}

	request := chatRequest{
		Model: g.model,
		Messages: []chatMessage{
			{Role: "system", Content: generationSystemPrompt},
			{Role: "user", Content: BuildLeasePrompt(terms)},
		},
		Temperature: generationTemperature,
	}

	var (
		response chatResponse
		apiErr   chatErrorResponse
	)
	start := time.Now()
	resp, err := g.client.R().
		SetContext(ctx).
		SetAuthToken(g.apiKey).
		SetBody(request).
		SetResult(&response).
		SetError(&apiErr).
		Post("/chat/completions")
	if err != nil {
		return "", &GenerationError{Reason: "request failed", Err: err}
	}
	if resp.IsError() {
		msg := apiErr.Error.Message
		if msg == "" {
			msg = resp.Status()
		}
		g.logger.Warn("generation api returned error",
			zap.Int("status_code", resp.StatusCode()),
			zap.String("message", msg),
		)
		return "", &GenerationError{Reason: fmt.Sprintf("api error %d: %s", resp.StatusCode(), msg)}
	}
	if len(response.Choices) == 0 {
		return "", &GenerationError{Reason: "malformed response: no choices"}
	}
	text := NormalizeGeneratedText(response.Choices[0].Message.Content)
	if text == "" {
		return "", &GenerationError{Reason: "malformed response: empty content"}
	}

	g.logger.Info("lease text generated",
		zap.String("model", g.model),
		zap.Duration("latency", time.Since(start)),
		zap.Int("chars", len(text)),
	)
	return text, nil
}

// BuildLeasePrompt describes the terms to the language model.
func BuildLeasePrompt(terms models.LeaseTerms) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Generate a comprehensive and legally sound %s lease agreement with the following details:\n\n", terms.TemplateID.DisplayName())
	b.WriteString("PROPERTY INFORMATION:\n")
	fmt.Fprintf(&b, "- Address: %s\n\n", terms.FullAddress())
	b.WriteString("PARTIES:\n")
	fmt.Fprintf(&b, "- Landlord: %s\n", terms.LandlordName)
	fmt.Fprintf(&b, "- Tenant: %s\n\n", terms.TenantName)
	b.WriteString("LEASE TERMS:\n")
	fmt.Fprintf(&b, "- Start Date: %s\n", terms.StartDate.Long())
	fmt.Fprintf(&b, "- End Date: %s\n", terms.EndDate.Long())
	fmt.Fprintf(&b, "- Monthly Rent: %s\n", terms.MonthlyRent.FormatUSD())
	fmt.Fprintf(&b, "- Security Deposit: %s\n\n", terms.SecurityDeposit.FormatUSD())
	b.WriteString("POLICIES:\n")
	pets := "Not Allowed"
	if terms.PetsAllowed {
		pets = "Allowed"
	}
	fmt.Fprintf(&b, "- Pets: %s\n", pets)
	fmt.Fprintf(&b, "- Smoking: %s\n", terms.SmokingPolicy)
	if notes := common.SafeString(terms.AdditionalNotes); notes != "" {
		fmt.Fprintf(&b, "\nADDITIONAL PROVISIONS:\n%s\n", notes)
	}
	b.WriteString("\nPlease generate a complete, professional lease agreement that includes all standard clauses. ")
	b.WriteString("Format with clear sections and numbering. Use plain text without markdown.")
	return b.String()
}

var (
	markdownHeading  = regexp.MustCompile(`^#{1,6}\s+`)
	markdownEmphasis = strings.NewReplacer("**", "", "__", "")
)

// NormalizeGeneratedText strips markdown decoration models tend to add.
func NormalizeGeneratedText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		line = markdownEmphasis.Replace(line)
		line = markdownHeading.ReplaceAllString(line, "")
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

type chatErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}
