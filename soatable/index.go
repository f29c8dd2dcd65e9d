package soatable

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

// IndexEntry is one table surfaced by the SOA search pages.
type IndexEntry struct {
	ID   int
	Name string
}

var identityPattern = regexp.MustCompile(`TableIdentity=(\d+)`)

// SearchIndex loads an SOA search results page and extracts every linked
// table. Duplicate links collapse to one entry per identity.
func (c *Client) SearchIndex(ctx context.Context, page string) ([]IndexEntry, error) {
	url := page
	if !strings.HasPrefix(url, "http") {
		url = c.base + "/" + strings.TrimPrefix(page, "/")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("soatable: build index request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("soatable: fetch index: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("soatable: fetch index: status %s", resp.Status)
	}

	doc, err := htmlquery.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("soatable: parse index page: %w", err)
	}

	links, err := htmlquery.QueryAll(doc, "//a[contains(@href,'TableIdentity=')]")
	if err != nil {
		return nil, fmt.Errorf("soatable: query index links: %w", err)
	}

	seen := make(map[int]bool)
	entries := make([]IndexEntry, 0, len(links))
	for _, link := range links {
		href := htmlquery.SelectAttr(link, "href")
		m := identityPattern.FindStringSubmatch(href)
		if m == nil {
			continue
		}
		id, err := strconv.Atoi(m[1])
		if err != nil || seen[id] {
			continue
		}
		seen[id] = true
		entries = append(entries, IndexEntry{ID: id, Name: nodeText(link)})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })

	c.logger.WithField("entries", len(entries)).Debug("indexed SOA search page")
	return entries, nil
}

// nodeText flattens all text beneath a node, collapsing whitespace.
func nodeText(node *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n == nil {
			return
		}
		if n.Type == html.TextNode {
			b.WriteString(" ")
			b.WriteString(n.Data)
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(node)
	return strings.Join(strings.Fields(b.String()), " ")
}
