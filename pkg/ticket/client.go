package ticket

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/platinummonkey/selfservice/pkg/domain"
	"golang.org/x/oauth2/clientcredentials"
)

// ErrUnexpectedStatus is returned when the tracker rejects an issue
var ErrUnexpectedStatus = errors.New("unexpected ticketing response status")

// Client creates issues for actions
type Client interface {
	CreateIssue(ctx context.Context, action *domain.Action) (string, error)
}

// Config configures the HTTP ticketing client
type Config struct {
	URL          string
	Project      string
	ClientID     string
	ClientSecret string
	TokenURL     string
	Timeout      time.Duration
}

// HTTPClient posts issues as JSON to the tracker
type HTTPClient struct {
	url     string
	project string
	client  *http.Client
}

// NewHTTPClient creates a ticketing client. When client credentials are configured
// requests carry an OAuth2 bearer token.
func NewHTTPClient(ctx context.Context, cfg Config) *HTTPClient {
	client := &http.Client{Timeout: cfg.Timeout}
	if cfg.ClientID != "" && cfg.TokenURL != "" {
		cc := &clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.TokenURL,
		}
		client = cc.Client(ctx)
		client.Timeout = cfg.Timeout
	}
	return NewHTTPClientWithClient(cfg.URL, cfg.Project, client)
}

// NewHTTPClientWithClient creates a ticketing client using the given HTTP client
func NewHTTPClientWithClient(url, project string, client *http.Client) *HTTPClient {
	return &HTTPClient{
		url:     strings.TrimRight(url, "/"),
		project: project,
		client:  client,
	}
}

type issueRequest struct {
	Project     string            `json:"project"`
	Summary     string            `json:"summary"`
	Description string            `json:"description"`
	Labels      []string          `json:"labels"`
	Fields      map[string]string `json:"fields"`
}

type issueResponse struct {
	Key string `json:"key"`
}

// CreateIssue files an issue for action and returns its key
func (c *HTTPClient) CreateIssue(ctx context.Context, action *domain.Action) (string, error) {
	payload, err := json.Marshal(c.issueFor(action))
	if err != nil {
		return "", fmt.Errorf("failed to marshal issue: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url+"/issues", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to build issue request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("issue request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("%w: %d: %s", ErrUnexpectedStatus, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var created issueResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return "", fmt.Errorf("failed to decode issue response: %w", err)
	}
	if created.Key == "" {
		return "", fmt.Errorf("tracker returned an issue without a key")
	}
	return created.Key, nil
}

func (c *HTTPClient) issueFor(action *domain.Action) issueRequest {
	verb := "Connect"
	if action.Type == domain.ActionTypeUnlinkRequest {
		verb = "Disconnect"
	}
	return issueRequest{
		Project: c.project,
		Summary: fmt.Sprintf("%s %s to %s", verb, action.IdpName, action.SpName),
		Description: fmt.Sprintf("Applicant: %s (%s)\nInstitution: %s\nIdP: %s\nSP: %s\n\n%s",
			action.UserName, action.UserEmail, action.InstitutionID, action.IdpID, action.SpID, action.Body),
		Labels: []string{"selfservice", strings.ToLower(string(action.Type))},
		Fields: map[string]string{
			"idp": action.IdpID,
			"sp":  action.SpID,
		},
	}
}
