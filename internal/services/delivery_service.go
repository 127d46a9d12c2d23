package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"html/template"
	"net/mail"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/umar-io/lease-agreement-generator/internal/common"
	"github.com/umar-io/lease-agreement-generator/internal/models"
	"github.com/umar-io/lease-agreement-generator/internal/repositories"
	"go.uber.org/zap"
)

const (
	DefaultEmailFrom     = "Lease Manager <lease-generator@leezign.dev>"
	defaultFetchTimeout  = 12 * time.Second
	defaultMaxPDFBytes   = 10 << 20
	defaultStatusTimeout = 15 * time.Second
	fetchUserAgent       = "LeaseManager/1.0 (+https://leezign.dev)"
	maxFilenameStem      = 60
)

var (
	whitespaceRun   = regexp.MustCompile(`\s+`)
	unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9_-]`)
)

// DeliveryRequest addresses one agreement to its tenant. PDFRef is an http(s) URL
// or a data:...;base64, URL.
type DeliveryRequest struct {
	TenantEmail  string
	TenantName   string
	LandlordName string
	PDFRef       string
	LeaseID      uuid.NullUUID
}

func (r DeliveryRequest) validate() error {
	verr := &common.ValidationError{}
	if strings.TrimSpace(r.TenantEmail) == "" {
		verr.Add("tenant_email", "is required")
	} else if _, err := mail.ParseAddress(r.TenantEmail); err != nil {
		verr.Add("tenant_email", "must be a valid email address")
	}
	if strings.TrimSpace(r.TenantName) == "" {
		verr.Add("tenant_name", "is required")
	}
	if strings.TrimSpace(r.LandlordName) == "" {
		verr.Add("landlord_name", "is required")
	}
	ref := strings.TrimSpace(r.PDFRef)
	switch {
	case ref == "":
		verr.Add("pdf_url", "is required")
	case !isDataURL(ref) && !strings.HasPrefix(ref, "http://") && !strings.HasPrefix(ref, "https://"):
		verr.Add("pdf_url", "must be an http(s) or data URL")
	}
	return verr.Err()
}

// DeliveryService emails an agreement to its tenant.
type DeliveryService interface {
	Send(ctx context.Context, req DeliveryRequest) (string, error)
	// Wait blocks until pending status updates have finished.
	Wait()
}

type DeliveryConfig struct {
	From          string
	FetchTimeout  time.Duration
	MaxPDFBytes   int
	StatusTimeout time.Duration
}

type deliveryService struct {
	sender  EmailSender
	store   ArtifactStore
	leases  repositories.LeaseRepository
	fetcher *resty.Client
	cfg     DeliveryConfig
	logger  *zap.Logger
	pending sync.WaitGroup
}

func NewDeliveryService(sender EmailSender, store ArtifactStore, leases repositories.LeaseRepository, cfg DeliveryConfig, logger *zap.Logger) DeliveryService {
	if cfg.From == "" {
		cfg.From = DefaultEmailFrom
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = defaultFetchTimeout
	}
	if cfg.MaxPDFBytes <= 0 {
		cfg.MaxPDFBytes = defaultMaxPDFBytes
	}
	if cfg.StatusTimeout <= 0 {
		cfg.StatusTimeout = defaultStatusTimeout
	}
	fetcher := resty.New().
		SetTimeout(cfg.FetchTimeout).
		SetResponseBodyLimit(cfg.MaxPDFBytes).
		SetHeader("User-Agent", fetchUserAgent)

	return &deliveryService{
		sender:  sender,
		store:   store,
		leases:  leases,
		fetcher: fetcher,
		cfg:     cfg,
		logger:  logger,
	}
}

func (d *deliveryService) Send(ctx context.Context, req DeliveryRequest) (string, error) {
	if err := req.validate(); err != nil {
		return "", err
	}
	ref := strings.TrimSpace(req.PDFRef)

	pdf, err := d.resolvePDF(ctx, ref)
	if err != nil {
		d.logger.Warn("pdf could not be resolved", zap.Bool("data_url", isDataURL(ref)), zap.Error(err))
		return "", err
	}

	html, err := RenderDeliveryEmail(DeliveryEmail{
		TenantName:   req.TenantName,
		LandlordName: req.LandlordName,
		DownloadURL:  d.downloadLink(ctx, ref),
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", common.ErrTransportRejected, err)
	}

	messageID, err := d.sender.Send(ctx, EmailMessage{
		From:    d.cfg.From,
		To:      []string{strings.TrimSpace(req.TenantEmail)},
		Subject: "Lease Agreement - " + req.LandlordName,
		HTML:    html,
		Attachments: []EmailAttachment{{
			Filename: SanitizeAttachmentFilename(req.TenantName),
			Content:  pdf,
		}},
	})
	if err != nil {
		return "", err
	}

	d.logger.Info("lease agreement sent", zap.String("message_id", messageID))
	if req.LeaseID.Valid {
		d.markSent(req.LeaseID.UUID)
	}
	return messageID, nil
}

func (d *deliveryService) Wait() {
	d.pending.Wait()
}

// markSent records the delivery without holding up the caller. Failures are logged only.
func (d *deliveryService) markSent(leaseID uuid.UUID) {
	d.pending.Add(1)
	go func() {
		defer d.pending.Done()
		defer func() {
			if r := recover(); r != nil {
				d.logger.Error("panic while marking lease sent", zap.String("lease_id", leaseID.String()), zap.Any("panic", r))
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), d.cfg.StatusTimeout)
		defer cancel()
		if err := d.leases.UpdateStatus(ctx, leaseID, models.LeaseStatusSent); err != nil {
			d.logger.Warn("failed to mark lease sent", zap.String("lease_id", leaseID.String()), zap.Error(err))
		}
	}()
}

func (d *deliveryService) resolvePDF(ctx context.Context, ref string) ([]byte, error) {
	if isDataURL(ref) {
		return d.decodeDataURL(ref)
	}

	data, err := d.fetch(ctx, ref)
	if err == nil {
		return data, nil
	}
	if errors.Is(err, common.ErrSizeLimitExceeded) || !d.store.IsStoreURL(ref) {
		return nil, err
	}
	signed, ok := d.store.SignedURL(ctx, ref)
	if !ok {
		return nil, err
	}
	d.logger.Debug("retrying pdf fetch with signed url")
	return d.fetch(ctx, signed)
}

func (d *deliveryService) fetch(ctx context.Context, url string) ([]byte, error) {
	resp, err := d.fetcher.R().SetContext(ctx).Get(url)
	if err != nil {
		if errors.Is(err, resty.ErrResponseBodyTooLarge) {
			return nil, fmt.Errorf("%w: pdf exceeds %d bytes", common.ErrSizeLimitExceeded, d.cfg.MaxPDFBytes)
		}
		return nil, fmt.Errorf("%w: %w", common.ErrPdfUnavailable, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: fetch returned %s", common.ErrPdfUnavailable, resp.Status())
	}
	body := resp.Body()
	if len(body) == 0 {
		return nil, fmt.Errorf("%w: empty body", common.ErrPdfUnavailable)
	}
	return body, nil
}

func (d *deliveryService) decodeDataURL(ref string) ([]byte, error) {
	_, payload, ok := strings.Cut(ref, ";base64,")
	if !ok || payload == "" {
		return nil, fmt.Errorf("%w: malformed base64 data url", common.ErrPdfUnavailable)
	}
	if base64.StdEncoding.DecodedLen(len(payload)) > d.cfg.MaxPDFBytes+2 {
		return nil, fmt.Errorf("%w: pdf exceeds %d bytes", common.ErrSizeLimitExceeded, d.cfg.MaxPDFBytes)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrPdfUnavailable, err)
	}
	if len(data) > d.cfg.MaxPDFBytes {
		return nil, fmt.Errorf("%w: pdf exceeds %d bytes", common.ErrSizeLimitExceeded, d.cfg.MaxPDFBytes)
	}
	return data, nil
}

// downloadLink picks the href for the email button: a signed URL for stored documents,
// the reference itself for other web URLs and nothing for inline data.
func (d *deliveryService) downloadLink(ctx context.Context, ref string) string {
	switch {
	case isDataURL(ref):
		return ""
	case d.store.IsStoreURL(ref):
		signed, ok := d.store.SignedURL(ctx, ref)
		if !ok {
			return ""
		}
		return signed
	default:
		return ref
	}
}

func isDataURL(ref string) bool {
	return strings.HasPrefix(ref, "data:")
}

// SanitizeAttachmentFilename builds Lease_Agreement_<name>.pdf from a tenant name.
func SanitizeAttachmentFilename(tenantName string) string {
	stem := whitespaceRun.ReplaceAllString(strings.TrimSpace(tenantName), "_")
	stem = unsafeFileChars.ReplaceAllString(stem, "")
	if len(stem) > maxFilenameStem {
		stem = stem[:maxFilenameStem]
	}
	if stem == "" {
		stem = "Tenant"
	}
	return "Lease_Agreement_" + stem + ".pdf"
}

type DeliveryEmail struct {
	TenantName   string
	LandlordName string
	DownloadURL  string
}

var deliveryEmailTemplate = template.Must(template.New("delivery").Parse(`<!DOCTYPE html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>Lease Agreement</title>
  </head>
  <body style="font-family:-apple-system,BlinkMacSystemFont,'Segoe UI',Roboto,'Helvetica Neue',Arial,sans-serif;line-height:1.6;color:#333;max-width:600px;margin:0 auto;padding:20px;">
    <div style="background:#111;color:#fff;padding:30px;border-radius:10px 10px 0 0;text-align:center;">
      <h1 style="margin:0;font-size:28px;font-weight:700;">Lease Agreement</h1>
    </div>
    <div style="background:#f9f9f9;padding:30px;border-radius:0 0 10px 10px;">
      <p style="font-size:16px;">Hello <strong>{{.TenantName}}</strong>,</p>
      <p style="font-size:16px;">{{.LandlordName}} has sent you a lease agreement for your review and signature. The agreement is attached to this email.</p>
      <div style="background:#fff;border-left:4px solid #000;padding:20px;margin:25px 0;">
        <p style="margin:0;font-size:14px;color:#666;"><strong>Next Steps:</strong></p>
        <ol style="margin:10px 0 0 0;padding-left:20px;font-size:14px;color:#666;">
          <li>Download and review the lease agreement</li>
          <li>Sign the document</li>
          <li>Return the signed copy to {{.LandlordName}}</li>
        </ol>
      </div>
      {{- if .DownloadURL}}
      <div style="text-align:center;margin:30px 0;">
        <a href="{{.DownloadURL}}" style="display:inline-block;background:#000;color:#fff;padding:14px 32px;text-decoration:none;border-radius:8px;font-weight:600;">Download Lease Agreement</a>
      </div>
      {{- end}}
      <p style="font-size:14px;color:#666;">If you have any questions about this agreement, please contact {{.LandlordName}} directly.</p>
      <hr style="border:none;border-top:1px solid #ddd;margin:25px 0;">
      <p style="font-size:12px;color:#999;text-align:center;margin:0;">This is an automated message from Lease Manager.<br>Please do not reply to this email.</p>
    </div>
  </body>
</html>
`))

// RenderDeliveryEmail builds the HTML body. Names are escaped.
func RenderDeliveryEmail(data DeliveryEmail) (string, error) {
	var buf bytes.Buffer
	if err := deliveryEmailTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render delivery email: %w", err)
	}
	return buf.String(), nil
}
