package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"genbi/config"
)

// WebServer serves the web-facing gateway methods: search_web and fetch_page.
// Pages are fetched with a plain HTTP client and parsed statically, so
// JavaScript-rendered content is not available.
type WebServer struct {
	httpClient *http.Client
	logger     func(string)
}

// NewWebServer creates a WebServer, honoring the proxy configuration when set.
func NewWebServer(proxy *config.ProxyConfig, logger func(string)) *WebServer {
	if logger == nil {
		logger = func(string) {}
	}
	client := &http.Client{
		Timeout: 30 * time.Second,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return fmt.Errorf("too many redirects")
			}
			return nil
		},
	}
	if proxy != nil && proxy.Enabled && proxy.Host != "" && proxy.Port > 0 {
		proxyURL, err := url.Parse(fmt.Sprintf("%s://%s:%d", proxy.Protocol, proxy.Host, proxy.Port))
		if err == nil {
			client.Transport = &http.Transport{Proxy: http.ProxyURL(proxyURL)}
			logger(fmt.Sprintf("[mcp-web] Using proxy: %s", proxyURL.String()))
		}
	}
	return &WebServer{httpClient: client, logger: logger}
}

// Methods lists the methods this server answers.
func (s *WebServer) Methods() []string {
	return []string{"search_web", "fetch_page"}
}

// searchConfig is the engine blob carried in params.config.
type searchConfig struct {
	Engine string `json:"engine"` // "bing" or "duckduckgo"
	URL    string `json:"url"`    // base search URL
}

// SearchResult is one search hit.
type SearchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// SearchResults is the search_web payload.
type SearchResults struct {
	Query   string         `json:"query"`
	Engine  string         `json:"engine"`
	Results []SearchResult `json:"results"`
}

// WebTable is a table extracted from a page.
type WebTable struct {
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
}

// WebPage is the fetch_page payload.
type WebPage struct {
	URL         string     `json:"url"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Content     string     `json:"content"`
	Headings    []string   `json:"headings,omitempty"`
	Tables      []WebTable `json:"tables,omitempty"`
}

// Handle executes one web gateway call.
func (s *WebServer) Handle(ctx context.Context, raw []byte) ([]byte, error) {
	var req Request
	if err := json.Unmarshal(raw, &req); err != nil {
		return errorResponse("invalid request: %v", err), nil
	}

	switch req.Method {
	case "search_web":
		return s.searchWeb(ctx, req)
	case "fetch_page":
		return s.fetchPage(ctx, req)
	default:
		return errorResponse("unknown method: %s", req.Method), nil
	}
}

func (s *WebServer) searchWeb(ctx context.Context, req Request) ([]byte, error) {
	query, _ := req.Params["query"].(string)
	if strings.TrimSpace(query) == "" {
		return errorResponse("query is required"), nil
	}

	var cfg searchConfig
	if err := decodeParams(req.Params["config"], &cfg); err != nil {
		return errorResponse("invalid config: %v", err), nil
	}
	if cfg.URL == "" {
		cfg.Engine = "bing"
		cfg.URL = "https://www.bing.com/search"
	}

	searchURL := fmt.Sprintf("%s?q=%s", cfg.URL, url.QueryEscape(query))
	s.logger(fmt.Sprintf("[mcp-web] search_web (%s): %s", cfg.Engine, query))

	doc, err := s.fetchDocument(ctx, searchURL)
	if err != nil {
		var ce *clientError
		if errors.As(err, &ce) {
			return errorResponse("%s", ce.msg), nil
		}
		return nil, err
	}

	results := parseSearchResults(doc, cfg.Engine)
	return resultResponse(SearchResults{Query: query, Engine: cfg.Engine, Results: results})
}

// parseSearchResults extracts search hits from a result page. Selectors are
// engine-specific; unknown engines fall back to the Bing layout.
func parseSearchResults(doc *goquery.Document, engine string) []SearchResult {
	var results []SearchResult

	switch engine {
	case "duckduckgo":
		doc.Find("div.result").Each(func(i int, sel *goquery.Selection) {
			if len(results) >= 10 {
				return
			}
			link := sel.Find("a.result__a").First()
			href, _ := link.Attr("href")
			title := strings.TrimSpace(link.Text())
			snippet := strings.TrimSpace(sel.Find(".result__snippet").Text())
			if title == "" || href == "" {
				return
			}
			results = append(results, SearchResult{
				Title:   title,
				URL:     decodeDuckDuckGoURL(href),
				Snippet: snippet,
			})
		})
	default: // bing layout
		doc.Find("li.b_algo").Each(func(i int, sel *goquery.Selection) {
			if len(results) >= 10 {
				return
			}
			link := sel.Find("h2 a").First()
			href, _ := link.Attr("href")
			title := strings.TrimSpace(link.Text())
			snippet := strings.TrimSpace(sel.Find(".b_caption p").First().Text())
			if title == "" || href == "" {
				return
			}
			results = append(results, SearchResult{Title: title, URL: href, Snippet: snippet})
		})
	}

	return results
}

// decodeDuckDuckGoURL unwraps the redirect links DuckDuckGo uses
// (//duckduckgo.com/l/?uddg=<escaped target>).
func decodeDuckDuckGoURL(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	return href
}

func (s *WebServer) fetchPage(ctx context.Context, req Request) ([]byte, error) {
	pageURL, _ := req.Params["url"].(string)
	if !strings.HasPrefix(pageURL, "http://") && !strings.HasPrefix(pageURL, "https://") {
		return errorResponse("url must start with http:// or https://"), nil
	}
	selector, _ := req.Params["selector"].(string)

	s.logger(fmt.Sprintf("[mcp-web] fetch_page: %s", pageURL))

	doc, err := s.fetchDocument(ctx, pageURL)
	if err != nil {
		var ce *clientError
		if errors.As(err, &ce) {
			return errorResponse("%s", ce.msg), nil
		}
		return nil, err
	}

	if selector != "" {
		selection := doc.Find(selector)
		if selection.Length() == 0 {
			return errorResponse("selector %q not found in page", selector), nil
		}
		html, err := selection.Html()
		if err != nil {
			return errorResponse("failed to extract selection: %v", err), nil
		}
		doc, err = goquery.NewDocumentFromReader(strings.NewReader(html))
		if err != nil {
			return errorResponse("failed to parse selection: %v", err), nil
		}
	}

	return resultResponse(parsePage(doc, pageURL))
}

// clientError marks a 4xx response. Re-issuing the same request cannot
// succeed, so callers report it in the envelope instead of retrying.
type clientError struct {
	msg string
}

func (e *clientError) Error() string { return e.msg }

// fetchDocument performs the HTTP round trip with browser-like headers and
// parses the body. Transport failures and server-side errors are returned as
// retryable errors; 4xx responses come back as a clientError, which the
// callers turn into a final envelope error.
func (s *WebServer) fetchDocument(ctx context.Context, target string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/114.0.0.0 Safari/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9,zh-CN,zh;q=0.8")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %v", target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return nil, &clientError{msg: fmt.Sprintf("HTTP error %d fetching %s", resp.StatusCode, target)}
		}
		return nil, fmt.Errorf("HTTP error %d fetching %s", resp.StatusCode, target)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %v", err)
	}
	return doc, nil
}

// parsePage extracts the structured content of a fetched page.
func parsePage(doc *goquery.Document, pageURL string) *WebPage {
	page := &WebPage{URL: pageURL}

	page.Title = strings.TrimSpace(doc.Find("title").First().Text())
	if desc, ok := doc.Find("meta[name='description']").First().Attr("content"); ok {
		page.Description = strings.TrimSpace(desc)
	}

	// Prefer common content containers over the whole body.
	for _, sel := range []string{"article", "main", ".content", "#content", "body"} {
		elem := doc.Find(sel).First()
		if elem.Length() > 0 {
			page.Content = strings.TrimSpace(elem.Text())
			if len(page.Content) > 100 {
				break
			}
		}
	}
	if len(page.Content) > 10000 {
		page.Content = page.Content[:10000] + "... [truncated]"
	}

	doc.Find("h1, h2, h3").Each(func(i int, sel *goquery.Selection) {
		if len(page.Headings) >= 20 {
			return
		}
		if h := strings.TrimSpace(sel.Text()); h != "" {
			page.Headings = append(page.Headings, h)
		}
	})

	doc.Find("table").Each(func(i int, sel *goquery.Selection) {
		if len(page.Tables) >= 10 {
			return
		}
		table := parseHTMLTable(sel)
		if len(table.Headers) > 0 || len(table.Rows) > 0 {
			page.Tables = append(page.Tables, table)
		}
	})

	return page
}

func parseHTMLTable(table *goquery.Selection) WebTable {
	data := WebTable{}

	table.Find("thead tr").First().Find("th, td").Each(func(i int, s *goquery.Selection) {
		data.Headers = append(data.Headers, strings.TrimSpace(s.Text()))
	})

	// Without a thead, the first row doubles as the header.
	headerFromFirstRow := len(data.Headers) == 0
	if headerFromFirstRow {
		table.Find("tr").First().Find("th, td").Each(func(i int, s *goquery.Selection) {
			data.Headers = append(data.Headers, strings.TrimSpace(s.Text()))
		})
	}

	table.Find("tr").Each(func(i int, tr *goquery.Selection) {
		// thead rows are already consumed as headers. The parser inserts a
		// tbody even when the source had none, so header detection cannot
		// rely on tbody membership: when the header came from the first row,
		// skip that row here.
		if tr.Closest("thead").Length() > 0 {
			return
		}
		if headerFromFirstRow && i == 0 {
			return
		}
		if len(data.Rows) >= 100 {
			return
		}
		var row []string
		tr.Find("td, th").Each(func(j int, td *goquery.Selection) {
			row = append(row, strings.TrimSpace(td.Text()))
		})
		if len(row) > 0 {
			data.Rows = append(data.Rows, row)
		}
	})

	return data
}
