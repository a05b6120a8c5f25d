package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"licitradar/internal/domain"
	"licitradar/internal/ports"
)

// Client queries the Mercado Publico bulk listing API for the tenders
// published on a given day.
type Client struct {
	baseURL string
	ticket  string
	http    *http.Client
	logger  *slog.Logger
}

var _ ports.TenderSource = (*Client)(nil)

// NewClient wires the listing endpoint and the access ticket.
func NewClient(baseURL, ticket string, client *http.Client, logger *slog.Logger) *Client {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL: baseURL,
		ticket:  ticket,
		http:    client,
		logger:  logger,
	}
}

type listingResponse struct {
	Listado []listingItem `json:"Listado"`
}

type listingItem struct {
	ExternalID   string `json:"CodigoExterno"`
	Name         string `json:"Nombre"`
	StatusCode   int    `json:"CodigoEstado"`
	Organization string `json:"OrganismoCompleto"`
	ClosingDate  string `json:"FechaCierre"`
}

// FetchDaily returns every tender the API lists for the requested day.
// A missing ticket is a fatal precondition, not an empty result.
func (c *Client) FetchDaily(ctx context.Context, day time.Time) ([]domain.Candidate, error) {
	if c.ticket == "" {
		return nil, fmt.Errorf("discovery ticket is not configured (MP_TICKET)")
	}

	endpoint, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}

	// The API expects the date as DDMMYYYY.
	query := endpoint.Query()
	query.Set("fecha", day.Format("02012006"))
	query.Set("ticket", c.ticket)
	endpoint.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("query listing: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("listing api %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	var listing listingResponse
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		return nil, fmt.Errorf("decode listing: %w", err)
	}

	candidates := make([]domain.Candidate, 0, len(listing.Listado))
	for _, item := range listing.Listado {
		candidates = append(candidates, domain.Candidate{
			ExternalID:   item.ExternalID,
			Name:         item.Name,
			StatusCode:   item.StatusCode,
			Organization: item.Organization,
			ClosingDate:  item.ClosingDate,
		})
	}

	c.debug("daily listing fetched", "day", day.Format("2006-01-02"), "count", len(candidates))
	return candidates, nil
}

func (c *Client) debug(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}
