package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/spec-kit/intake-assistant/internal/config"
)

// Scope selects which resource pool a provider query targets.
type Scope string

const (
	ScopeKnowledge Scope = "knowledge"
	ScopeCatalog   Scope = "catalog"
)

// ProviderResult is one semantic search hit. ID is a composite
// "<table>:<sysid>" reference that may carry a trailing decorative marker.
type ProviderResult struct {
	ID      string     `json:"id"`
	Title   string     `json:"title"`
	Snippet string     `json:"snippet"`
	Score   float64    `json:"score"`
	Meta    ResultMeta `json:"meta"`
}

// ResultMeta carries resource-specific hit metadata.
type ResultMeta struct {
	Number   string `json:"number"`
	Category string `json:"category"`
	Price    string `json:"price"`
	State    string `json:"state"`
	Link     string `json:"link"`
}

// Provider is the semantic search collaborator.
type Provider interface {
	Search(ctx context.Context, term string, scope Scope) ([]ProviderResult, error)
}

type httpProvider struct {
	cfg  config.SearchConfig
	http *http.Client
}

// NewHTTPProvider builds a provider client for the configured endpoint.
func NewHTTPProvider(cfg config.SearchConfig) Provider {
	return &httpProvider{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout()},
	}
}

type searchRequest struct {
	ContextID string `json:"context_id"`
	Term      string `json:"term"`
	Scope     string `json:"scope"`
}

type searchResponse struct {
	Results []ProviderResult `json:"results"`
}

func (p *httpProvider) Search(ctx context.Context, term string, scope Scope) ([]ProviderResult, error) {
	if p.cfg.ProviderURL == "" {
		return nil, errors.New("search provider not configured")
	}

	payload, err := json.Marshal(searchRequest{
		ContextID: p.cfg.ContextID,
		Term:      term,
		Scope:     string(scope),
	})
	if err != nil {
		return nil, err
	}

	url := strings.TrimSuffix(p.cfg.ProviderURL, "/") + "/search"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search provider HTTP %d", resp.StatusCode)
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, err
	}
	return parsed.Results, nil
}

// parseResultRef splits a composite "<table>:<sysid>" hit reference and
// strips any trailing decorative marker after the id.
func parseResultRef(id string) (table, sysID string, ok bool) {
	parts := strings.SplitN(id, ":", 2)
	if len(parts) != 2 {
		return "", "", false
	}
	fields := strings.Fields(parts[1])
	if len(fields) == 0 {
		return "", "", false
	}
	return strings.TrimSpace(parts[0]), fields[0], true
}
