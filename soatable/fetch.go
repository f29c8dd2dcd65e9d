package soatable

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"
)

// Client downloads tables from an SOA-style table service.
type Client struct {
	base   string
	client *http.Client
	logger *log.Entry
}

// NewClient targets baseURL (normally https://mort.soa.org). A zero
// timeout disables the deadline.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		base:   baseURL,
		client: &http.Client{Timeout: timeout},
		logger: log.WithField("component", "soatable"),
	}
}

// Fetch downloads and decodes table id.
func (c *Client) Fetch(ctx context.Context, id int) (*Document, error) {
	url := fmt.Sprintf("%s/ViewTable.aspx?&TableIdentity=%d&ContentType=xml", c.base, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("soatable: build request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("soatable: fetch table %d: %w", id, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("soatable: fetch table %d: status %s", id, resp.Status)
	}

	doc, err := Parse(resp.Body)
	if err != nil {
		return nil, err
	}
	c.logger.WithField("table_id", id).
		WithField("name", doc.Name()).
		Debug("fetched SOA table")
	return doc, nil
}

// FetchID is Fetch for identities already held as strings, as the index
// page reports them.
func (c *Client) FetchID(ctx context.Context, id string) (*Document, error) {
	n, err := strconv.Atoi(id)
	if err != nil {
		return nil, fmt.Errorf("soatable: table identity %q: %w", id, err)
	}
	return c.Fetch(ctx, n)
}
