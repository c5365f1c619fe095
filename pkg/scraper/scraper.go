package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"github.com/pawsona/pawsona/internal/models"
)

type Config struct {
	MaxDepth          int
	RateLimit         float64 // requests per second
	IgnorePatterns    []string
	AllowedExtensions []string
	Timeout           time.Duration
	OnProgress        func(url string)
	Logger            *slog.Logger
}

// Scraper crawls care-guide sites and extracts their readable text. It
// stays on the host of the page a crawl started from, follows links up to
// MaxDepth, and rate-limits requests so it behaves itself on small sites.
type Scraper struct {
	cfg      Config
	client   *http.Client
	visited  map[string]bool
	limiter  *rate.Limiter
	baseHost string
	logger   *slog.Logger
}

func New(cfg Config) *Scraper {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = 2
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 2
	}
	if len(cfg.AllowedExtensions) == 0 {
		cfg.AllowedExtensions = []string{".html", ".htm", "/", ""}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Scraper{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		visited: make(map[string]bool),
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), 1),
		logger:  logger,
	}
}

// Scrape crawls startURL and the same-host pages it links to, returning
// one GuidePage per fetched page. Pages already visited by an earlier
// crawl on this scraper are skipped, so overlapping start URLs do not
// produce duplicates.
func (s *Scraper) Scrape(ctx context.Context, startURL string) ([]models.GuidePage, error) {
	parsed, err := url.Parse(startURL)
	if err != nil {
		return nil, fmt.Errorf("parsing start URL: %w", err)
	}
	s.baseHost = parsed.Host

	var pages []models.GuidePage
	if err := s.crawl(ctx, startURL, 0, &pages); err != nil {
		return pages, err
	}
	return pages, nil
}

func (s *Scraper) crawl(ctx context.Context, urlStr string, depth int, pages *[]models.GuidePage) error {
	if depth > s.cfg.MaxDepth || s.visited[urlStr] {
		return nil
	}
	if !s.allowed(urlStr) {
		return nil
	}

	s.visited[urlStr] = true
	if s.cfg.OnProgress != nil {
		s.cfg.OnProgress(urlStr)
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetching %s: status %d", urlStr, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return err
	}

	*pages = append(*pages, models.GuidePage{
		URL:     urlStr,
		Title:   strings.TrimSpace(doc.Find("title").Text()),
		Content: s.extractMainContent(doc),
	})

	base, err := url.Parse(urlStr)
	if err != nil {
		return nil
	}
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok {
			return
		}
		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		next := base.ResolveReference(ref)
		next.Fragment = ""
		if err := s.crawl(ctx, next.String(), depth+1, pages); err != nil {
			s.logger.Warn("skipping linked page", "url", next.String(), "error", err)
		}
	})

	return nil
}

func (s *Scraper) allowed(urlStr string) bool {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return false
	}
	if parsed.Host != s.baseHost {
		return false
	}

	path := strings.ToLower(parsed.Path)
	validExt := false
	for _, ext := range s.cfg.AllowedExtensions {
		if strings.HasSuffix(path, ext) {
			validExt = true
			break
		}
	}
	if !validExt {
		return false
	}

	for _, pattern := range s.cfg.IgnorePatterns {
		if strings.Contains(urlStr, pattern) {
			return false
		}
	}
	return true
}

func (s *Scraper) extractMainContent(doc *goquery.Document) string {
	selectors := []string{
		"main",
		"article",
		".content",
		"#content",
		".guide",
		"#guide",
	}

	var content string
	for _, selector := range selectors {
		if selected := doc.Find(selector); selected.Length() > 0 {
			content = selected.Text()
			break
		}
	}
	if content == "" {
		content = doc.Find("body").Text()
	}

	return cleanContent(content)
}

func cleanContent(content string) string {
	noisePatterns := []string{
		"Cookie Policy",
		"Accept Cookies",
		"Privacy Policy",
		"Terms of Service",
	}
	for _, pattern := range noisePatterns {
		content = strings.ReplaceAll(content, pattern, "")
	}

	return strings.Join(strings.Fields(content), " ")
}
