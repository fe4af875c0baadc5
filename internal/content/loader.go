package content

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const youtubeOEmbedURL = "https://www.youtube.com/oembed"

// Loader fetches the raw text behind a URL: the video title for YouTube
// links, the extracted page text for everything else.
type Loader struct {
	httpClient *http.Client
	oembedURL  string
}

// NewLoader creates a content loader with a bounded HTTP client.
func NewLoader(timeout time.Duration) *Loader {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Loader{
		httpClient: &http.Client{Timeout: timeout},
		oembedURL:  youtubeOEmbedURL,
	}
}

// Load returns the text content for the given URL. For YouTube links an
// oEmbed failure yields empty text rather than an error; for regular pages
// fetch or parse failures are returned to the caller.
func (l *Loader) Load(ctx context.Context, rawURL string) (string, error) {
	if isYouTubeURL(rawURL) {
		return l.loadYouTube(ctx, rawURL)
	}
	return l.loadPage(ctx, rawURL)
}

// loadYouTube resolves the video title via the public oEmbed endpoint.
func (l *Loader) loadYouTube(ctx context.Context, videoURL string) (string, error) {
	q := url.Values{}
	q.Set("url", videoURL)
	q.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.oembedURL+"?"+q.Encode(), nil)
	if err != nil {
		return "", err
	}

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return "", nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", nil
	}

	var oembed struct {
		Title string `json:"title"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&oembed); err != nil {
		return "", nil
	}
	return fmt.Sprintf("Topic: %s. Explain clearly with examples.", oembed.Title), nil
}

// loadPage fetches the page and extracts its visible text.
func (l *Loader) loadPage(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "study-assistant/1.0")

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch %s: status %d", pageURL, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("parse %s: %w", pageURL, err)
	}

	doc.Find("script, style, noscript").Remove()

	// Collect text nodes individually; Selection.Text would glue adjacent
	// elements together ("<h1>A</h1><p>B" becoming "AB").
	var parts []string
	collectText(doc.Find("body"), &parts)
	return normalizeWhitespace(strings.Join(parts, " ")), nil
}

// collectText appends every text node under sel, depth first.
func collectText(sel *goquery.Selection, parts *[]string) {
	sel.Contents().Each(func(_ int, s *goquery.Selection) {
		if goquery.NodeName(s) == "#text" {
			*parts = append(*parts, s.Text())
			return
		}
		collectText(s, parts)
	})
}

// isYouTubeURL matches the two YouTube host forms the oEmbed endpoint accepts.
func isYouTubeURL(rawURL string) bool {
	return strings.Contains(rawURL, "youtube.com") || strings.Contains(rawURL, "youtu.be")
}

// normalizeWhitespace collapses runs of whitespace into single spaces.
func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
