package libretranslate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/oukeidos/libretag/internal/apperrors"
	"github.com/oukeidos/libretag/internal/httpclient"
	"github.com/oukeidos/libretag/internal/logger"
	"github.com/oukeidos/libretag/internal/version"
)

// Request is one text to translate.
type Request struct {
	Text   string
	Source string
	Target string
}

type requestBody struct {
	Q      string `json:"q"`
	Source string `json:"source"`
	Target string `json:"target"`
	APIKey string `json:"api_key,omitempty"`
}

type responseBody struct {
	TranslatedText *string `json:"translatedText"`
	Error          string  `json:"error,omitempty"`
}

// Options configures a Client.
type Options struct {
	URL     string
	Timeout time.Duration
	APIKey  string
}

// Client posts to a LibreTranslate-compatible /translate endpoint. It makes
// exactly one HTTP request per Translate call.
type Client struct {
	url    string
	apiKey string
	http   *http.Client
}

func NewClient(opts Options) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(opts.URL))
	if err != nil {
		return nil, apperrors.New(apperrors.KindValidation, "Invalid API URL.", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, apperrors.Validation(fmt.Sprintf("API URL must use http or https, got %q", opts.URL))
	}
	if u.Host == "" {
		return nil, apperrors.Validation(fmt.Sprintf("API URL has no host: %q", opts.URL))
	}
	return &Client{
		url:    u.String(),
		apiKey: strings.TrimSpace(opts.APIKey),
		http:   httpclient.NewClient(opts.Timeout),
	}, nil
}

// Translate returns the translated text, or an *apperrors.Error whose kind
// is network, server, parse, auth, rate_limit or bad_request.
func (c *Client) Translate(ctx context.Context, req Request) (string, error) {
	payload, err := json.Marshal(requestBody{
		Q:      req.Text,
		Source: req.Source,
		Target: req.Target,
		APIKey: c.apiKey,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", version.UserAgent())

	body, resp, err := httpclient.DoAndRead(c.http, httpReq)
	if err != nil {
		if errors.Is(err, httpclient.ErrBodyTooLarge) {
			return "", apperrors.Parse("ERROR: "+err.Error(), err)
		}
		return "", apperrors.Network("ERROR: "+networkMessage(err), err)
	}
	logger.Debug("LibreTranslate response", "status", resp.Status, "bytes", len(body))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", classifyStatus(resp, body)
	}

	var parsed responseBody
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", apperrors.Parse("ERROR: response is not valid JSON", fmt.Errorf("failed to decode response: %w", err))
	}
	if parsed.TranslatedText == nil {
		return "", apperrors.Parse("ERROR: response has no translatedText field", fmt.Errorf("missing translatedText (error=%q)", parsed.Error))
	}
	return *parsed.TranslatedText, nil
}

func classifyStatus(resp *http.Response, body []byte) error {
	status := statusText(resp)
	var detail responseBody
	_ = json.Unmarshal(body, &detail)
	cause := fmt.Errorf("libretranslate status=%s error=%q", resp.Status, detail.Error)

	msg := "ERROR: " + status
	if detail.Error != "" {
		msg += " (" + detail.Error + ")"
	}

	switch {
	case resp.StatusCode >= 500:
		return apperrors.New(apperrors.KindServer, "ERROR: "+status, cause)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return apperrors.New(apperrors.KindAuth, msg, cause)
	case resp.StatusCode == http.StatusTooManyRequests:
		return apperrors.New(apperrors.KindRateLimit, msg, cause)
	default:
		return apperrors.New(apperrors.KindBadRequest, msg, cause)
	}
}

func statusText(resp *http.Response) string {
	if resp.Status != "" {
		return resp.Status
	}
	return fmt.Sprintf("%d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
}

// networkMessage strips the request URL that net/http prepends, which may
// carry credentials in its userinfo.
func networkMessage(err error) string {
	var uerr *url.Error
	if errors.As(err, &uerr) && uerr.Err != nil {
		return uerr.Err.Error()
	}
	return err.Error()
}
