package scryfall

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"grimoire/internal/services"
)

// BulkEntry describes one downloadable dump variant from the bulk manifest.
type BulkEntry struct {
	Type        string `json:"type"`
	Name        string `json:"name"`
	DownloadURI string `json:"download_uri"`
	Size        int64  `json:"size"`
	UpdatedAt   string `json:"updated_at"`
}

type bulkManifest struct {
	Data []BulkEntry `json:"data"`
}

// CardFace carries the per-face fields the engine reads from multi-faced cards.
type CardFace struct {
	Name      string            `json:"name"`
	ImageURIs map[string]string `json:"image_uris"`
}

// CardData models the catalog card payload fields the engine reasons about.
// Everything else rides along verbatim in the raw payload.
type CardData struct {
	ID              string            `json:"id"`
	OracleID        string            `json:"oracle_id"`
	Name            string            `json:"name"`
	Language        string            `json:"lang"`
	Layout          string            `json:"layout"`
	SetCode         string            `json:"set"`
	SetName         string            `json:"set_name"`
	SetType         string            `json:"set_type"`
	CollectorNumber string            `json:"collector_number"`
	ManaCost        string            `json:"mana_cost"`
	ConvertedCost   float64           `json:"cmc"`
	TypeLine        string            `json:"type_line"`
	OracleText      string            `json:"oracle_text"`
	Power           string            `json:"power"`
	Toughness       string            `json:"toughness"`
	Colors          []string          `json:"colors"`
	ColorIdentity   []string          `json:"color_identity"`
	Rarity          string            `json:"rarity"`
	FlavorText      string            `json:"flavor_text"`
	Artist          string            `json:"artist"`
	ImageURIs       map[string]string `json:"image_uris"`
	Prices          json.RawMessage   `json:"prices"`
	Legalities      json.RawMessage   `json:"legalities"`
	CardFaces       []CardFace        `json:"card_faces"`
}

// API defines the catalog operations consumed by the loader and the engine.
type API interface {
	BulkData(ctx context.Context) ([]BulkEntry, error)
	Download(ctx context.Context, downloadURL string, dst io.Writer, progress func(written int64)) (int64, error)
	GetCard(ctx context.Context, catalogID string) (*CardData, []byte, error)
}

// Client provides access to the external card catalog API.
type Client struct {
	baseURL        string
	userAgent      string
	httpClient     *http.Client
	downloadClient *http.Client
}

var _ API = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the client used for manifest and per-card fetches.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithDownloadClient overrides the client used for bulk dump downloads.
func WithDownloadClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.downloadClient = client
		}
	}
}

// WithTimeouts sets the per-card fetch and bulk download timeouts.
func WithTimeouts(fetch, download time.Duration) Option {
	return func(c *Client) {
		if fetch > 0 {
			c.httpClient.Timeout = fetch
		}
		if download > 0 {
			c.downloadClient.Timeout = download
		}
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(agent string) Option {
	return func(c *Client) {
		if strings.TrimSpace(agent) != "" {
			c.userAgent = agent
		}
	}
}

// New creates a catalog API client.
func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("catalog base url required")
	}
	client := &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		userAgent:      "grimoire/1.0",
		httpClient:     &http.Client{Timeout: 30 * time.Second},
		downloadClient: &http.Client{Timeout: 10 * time.Minute},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// BulkData fetches the dump manifest listing available bulk variants.
func (c *Client) BulkData(ctx context.Context) ([]BulkEntry, error) {
	endpoint, err := url.Parse(c.baseURL + "/bulk-data")
	if err != nil {
		return nil, fmt.Errorf("parse catalog url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalService, "scryfall", "bulk-data",
			fmt.Sprintf("execute request (latency=%v)", latency), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, services.Wrap(services.ErrExternalService, "scryfall", "bulk-data",
			fmt.Sprintf("manifest fetch returned %d (latency=%v)", resp.StatusCode, latency), nil)
	}

	var manifest bulkManifest
	if err := json.NewDecoder(resp.Body).Decode(&manifest); err != nil {
		return nil, services.Wrap(services.ErrExternalService, "scryfall", "bulk-data", "decode manifest", err)
	}
	return manifest.Data, nil
}

// Download streams a bulk dump to dst, invoking progress with the cumulative
// byte count after each chunk. Returns the number of bytes written.
func (c *Client) Download(ctx context.Context, downloadURL string, dst io.Writer, progress func(written int64)) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, downloadURL, nil)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.downloadClient.Do(req)
	if err != nil {
		return 0, services.Wrap(services.ErrExternalService, "scryfall", "download", "execute request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, services.Wrap(services.ErrExternalService, "scryfall", "download",
			fmt.Sprintf("dump download returned %d", resp.StatusCode), nil)
	}

	var written int64
	buf := make([]byte, 1<<20)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if _, writeErr := dst.Write(buf[:n]); writeErr != nil {
				return written, fmt.Errorf("write dump chunk: %w", writeErr)
			}
			written += int64(n)
			if progress != nil {
				progress(written)
			}
		}
		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				return written, nil
			}
			return written, services.Wrap(services.ErrExternalService, "scryfall", "download", "read dump body", readErr)
		}
	}
}

// GetCard fetches one card by catalog id, returning the typed fields plus the
// verbatim payload bytes. A 404 maps to the not-found sentinel so callers can
// distinguish missing cards from transport failures.
func (c *Client) GetCard(ctx context.Context, catalogID string) (*CardData, []byte, error) {
	endpoint, err := url.Parse(c.baseURL + "/cards/" + url.PathEscape(catalogID))
	if err != nil {
		return nil, nil, fmt.Errorf("parse catalog url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return nil, nil, services.Wrap(services.ErrExternalService, "scryfall", "get-card",
			fmt.Sprintf("execute request (latency=%v)", latency), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil, services.Wrap(services.ErrNotFound, "scryfall", "get-card",
			fmt.Sprintf("card %s not found at source", catalogID), nil)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, nil, services.Wrap(services.ErrExternalService, "scryfall", "get-card",
			fmt.Sprintf("card fetch returned %d (latency=%v)", resp.StatusCode, latency), nil)
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, services.Wrap(services.ErrExternalService, "scryfall", "get-card", "read card body", err)
	}

	var card CardData
	if err := json.Unmarshal(payload, &card); err != nil {
		return nil, nil, services.Wrap(services.ErrExternalService, "scryfall", "get-card", "decode card payload", err)
	}
	return &card, payload, nil
}
