package isbn

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Metadata is a bibliographic record resolved from an ISBN.
type Metadata struct {
	ISBN      string
	Title     string
	Authors   []string
	Publisher string
	Year      string
	Language  string
}

// Client queries public bibliographic services. Every failure path returns
// (nil, false): lookup results enrich a rename, they never block one.
type Client struct {
	httpClient *http.Client
	endpoints  []string

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

const (
	googleBooksEndpoint = "https://www.googleapis.com/books/v1/volumes"
	openLibraryEndpoint = "https://openlibrary.org/api/books"

	// perHostInterval spaces requests per service host.
	perHostInterval = 200 * time.Millisecond

	maxResponseBytes = 1 << 20
)

// NewClient builds a client using the default services.
func NewClient(httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		httpClient: httpClient,
		endpoints:  []string{googleBooksEndpoint, openLibraryEndpoint},
		limiters:   make(map[string]*rate.Limiter),
	}
}

// NewClientWithEndpoints is for tests and alternate service deployments.
func NewClientWithEndpoints(httpClient *http.Client, endpoints ...string) *Client {
	c := NewClient(httpClient)
	c.endpoints = endpoints
	return c
}

// Lookup resolves the ISBN through the configured services in order,
// returning the first hit.
func (c *Client) Lookup(ctx context.Context, raw string) (*Metadata, bool) {
	canonical := ToISBN13(raw)
	if canonical == "" {
		return nil, false
	}
	for _, endpoint := range c.endpoints {
		if meta := c.query(ctx, endpoint, canonical); meta != nil {
			meta.ISBN = canonical
			return meta, true
		}
	}
	return nil, false
}

func (c *Client) query(ctx context.Context, endpoint, isbn string) *Metadata {
	reqURL, err := buildURL(endpoint, isbn)
	if err != nil {
		return nil
	}
	if err := c.limiterFor(reqURL.Host).Wait(ctx); err != nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil
	}
	if strings.Contains(endpoint, "openlibrary") {
		return parseOpenLibrary(body, isbn)
	}
	return parseGoogleBooks(body)
}

func (c *Client) limiterFor(host string) *rate.Limiter {
	c.mu.Lock()
	defer c.mu.Unlock()
	limiter, ok := c.limiters[host]
	if !ok {
		limiter = rate.NewLimiter(rate.Every(perHostInterval), 1)
		c.limiters[host] = limiter
	}
	return limiter
}

func buildURL(endpoint, isbn string) (*url.URL, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	if strings.Contains(endpoint, "openlibrary") {
		q.Set("bibkeys", "ISBN:"+isbn)
		q.Set("format", "json")
		q.Set("jscmd", "data")
	} else {
		q.Set("q", "isbn:"+isbn)
	}
	u.RawQuery = q.Encode()
	return u, nil
}

type googleBooksResponse struct {
	TotalItems int `json:"totalItems"`
	Items      []struct {
		VolumeInfo struct {
			Title         string   `json:"title"`
			Authors       []string `json:"authors"`
			Publisher     string   `json:"publisher"`
			PublishedDate string   `json:"publishedDate"`
			Language      string   `json:"language"`
		} `json:"volumeInfo"`
	} `json:"items"`
}

func parseGoogleBooks(body []byte) *Metadata {
	var parsed googleBooksResponse
	if err := json.Unmarshal(body, &parsed); err != nil || len(parsed.Items) == 0 {
		return nil
	}
	info := parsed.Items[0].VolumeInfo
	if info.Title == "" {
		return nil
	}
	return &Metadata{
		Title:     info.Title,
		Authors:   info.Authors,
		Publisher: info.Publisher,
		Year:      yearOf(info.PublishedDate),
		Language:  info.Language,
	}
}

type openLibraryBook struct {
	Title   string `json:"title"`
	Authors []struct {
		Name string `json:"name"`
	} `json:"authors"`
	Publishers []struct {
		Name string `json:"name"`
	} `json:"publishers"`
	PublishDate string `json:"publish_date"`
}

func parseOpenLibrary(body []byte, isbn string) *Metadata {
	var parsed map[string]openLibraryBook
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil
	}
	book, ok := parsed["ISBN:"+isbn]
	if !ok || book.Title == "" {
		return nil
	}
	meta := &Metadata{Title: book.Title, Year: yearOf(book.PublishDate)}
	for _, author := range book.Authors {
		if author.Name != "" {
			meta.Authors = append(meta.Authors, author.Name)
		}
	}
	if len(book.Publishers) > 0 {
		meta.Publisher = book.Publishers[0].Name
	}
	return meta
}

// yearOf pulls the four-digit year out of a publication date in any of the
// forms the services emit ("2004", "2004-07-24", "July 24, 2004").
func yearOf(date string) string {
	for i := 0; i+4 <= len(date); i++ {
		if isYearRun(date[i : i+4]) && (i == 0 || !isDigit(date[i-1])) && (i+4 == len(date) || !isDigit(date[i+4])) {
			return date[i : i+4]
		}
	}
	return ""
}

func isYearRun(s string) bool {
	return len(s) == 4 && (s[0] == '1' || s[0] == '2') && isDigit(s[1]) && isDigit(s[2]) && isDigit(s[3])
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

// String implements fmt.Stringer for log output.
func (m *Metadata) String() string {
	return fmt.Sprintf("%s: %q by %s", m.ISBN, m.Title, strings.Join(m.Authors, ", "))
}
