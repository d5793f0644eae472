package mailer

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"time"

	"smallbiznis-backoffice/pkg/config"

	"github.com/go-resty/resty/v2"
	"go.uber.org/fx"
)

//go:generate mockgen -source=mailer.go -destination=mock/mock_mailer.go -package=mock

var Module = fx.Module("mailer",
	fx.Provide(NewRenderer, NewHTTPSender),
)

type Message struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

// Sender delivers a rendered message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

//go:embed templates/*.html
var templateFS embed.FS

type Renderer struct {
	tmpl *template.Template
}

func NewRenderer() (*Renderer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse mail templates: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// Render executes the named template. Templates define a "subject" block
// alongside the body.
func (r *Renderer) Render(name string, data any) (subject, body string, err error) {
	var sb, bb bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&sb, name+".subject", data); err != nil {
		return "", "", fmt.Errorf("render %s subject: %w", name, err)
	}
	if err := r.tmpl.ExecuteTemplate(&bb, name+".body", data); err != nil {
		return "", "", fmt.Errorf("render %s body: %w", name, err)
	}
	return sb.String(), bb.String(), nil
}

type HTTPSender struct {
	client *resty.Client
	from   string
}

func NewHTTPSender(cfg *config.Config) Sender {
	timeout := cfg.Mail.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	client := resty.New().
		SetBaseURL(cfg.Mail.BaseURL).
		SetAuthToken(cfg.Mail.APIKey).
		SetTimeout(timeout).
		SetRetryCount(2).
		SetHeader("Content-Type", "application/json")

	return &HTTPSender{client: client, from: cfg.Mail.From}
}

type apiError struct {
	Message string `json:"message"`
}

func (s *HTTPSender) Send(ctx context.Context, msg Message) error {
	if msg.To == "" {
		return errors.New("mail recipient is empty")
	}
	if msg.From == "" {
		msg.From = s.from
	}

	var apiErr apiError
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(msg).
		SetError(&apiErr).
		Post("/emails")
	if err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("send mail: provider returned %d: %s", resp.StatusCode(), apiErr.Message)
	}
	return nil
}
