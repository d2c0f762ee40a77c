// Package panelapp provides a minimal client for the PanelApp registry API.
// It covers the two endpoints the sync passes need: a panel's gene list at
// a pinned version, and the latest signed-off name/version for a panel.
package panelapp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/eastglh/panelsync/pkg/errors"
)

// DefaultBaseURL is the public PanelApp API root.
const DefaultBaseURL = "https://panelapp.genomicsengland.co.uk/api/v1"

// DefaultTimeout bounds each registry request.
const DefaultTimeout = 30 * time.Second

// Gene is one gene entry in a panel response.
type Gene struct {
	ConfidenceLevel string   `json:"confidence_level"`
	GeneData        GeneData `json:"gene_data"`
}

// GeneData carries the gene identifiers for a panel entry.
type GeneData struct {
	HGNCID string `json:"hgnc_id"`
}

// SignedOff is the latest signed-off release of a panel. Zero-value fields
// mean the registry had no data; callers must never treat that as an
// instruction to clear local state.
type SignedOff struct {
	Name      string
	Version   string
	SignedOff string // Sign-off date as reported by the registry
}

type panelResponse struct {
	Genes []Gene `json:"genes"`
}

type signedOffResponse struct {
	Results []signedOffResult `json:"results"`
}

type signedOffResult struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	SignedOff string `json:"signed_off"`
}

// HighConfidence is the default gene filter: PanelApp's "green" genes.
// The registry reports confidence_level as a string; should the field type
// change, swap the predicate rather than the client.
func HighConfidence(g Gene) bool {
	return g.ConfidenceLevel == "3"
}

// Client calls the PanelApp API.
type Client struct {
	baseURL string
	http    *http.Client
	filter  func(Gene) bool
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API root, e.g. for a test server.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		c.http = h
	}
}

// WithGeneFilter replaces the membership predicate applied to panel genes.
func WithGeneFilter(filter func(Gene) bool) Option {
	return func(c *Client) {
		c.filter = filter
	}
}

// New creates a PanelApp client with the default base URL, timeout, and
// high-confidence gene filter.
func New(opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		http:    &http.Client{Timeout: DefaultTimeout},
		filter:  HighConfidence,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Membership fetches the member gene ids for a panel at the given version,
// filtered by the client's gene predicate. Entries without an HGNC id are
// dropped.
func (c *Client) Membership(ctx context.Context, remoteID int64, version string) ([]string, error) {
	endpoint := fmt.Sprintf("%s/panels/%d/?version=%s", c.baseURL, remoteID, url.QueryEscape(version))

	var panel panelResponse
	if err := c.get(ctx, endpoint, &panel); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(panel.Genes))
	for _, g := range panel.Genes {
		if !c.filter(g) || g.GeneData.HGNCID == "" {
			continue
		}
		ids = append(ids, g.GeneData.HGNCID)
	}
	return ids, nil
}

// Attributes fetches the latest signed-off name/version/date for a panel.
// An empty result list is not an error; it returns a zero SignedOff.
func (c *Client) Attributes(ctx context.Context, remoteID int64) (SignedOff, error) {
	endpoint := fmt.Sprintf("%s/panels/signedoff/?panel_id=%d", c.baseURL, remoteID)

	var resp signedOffResponse
	if err := c.get(ctx, endpoint, &resp); err != nil {
		return SignedOff{}, err
	}
	if len(resp.Results) == 0 {
		return SignedOff{}, nil
	}

	latest := resp.Results[0]
	return SignedOff{
		Name:      latest.Name,
		Version:   latest.Version,
		SignedOff: latest.SignedOff,
	}, nil
}

// get performs a GET request and decodes the JSON response into out.
func (c *Client) get(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return errors.WrapAPI(endpoint, 0, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.WrapAPI(endpoint, 0, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return errors.NewAPIError(endpoint, resp.StatusCode, "unexpected status")
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.WrapAPI(endpoint, resp.StatusCode, fmt.Errorf("decode response: %w", err))
	}
	return nil
}
