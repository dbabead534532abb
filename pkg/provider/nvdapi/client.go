// Package nvdapi fetches the NVD CPE dictionary page by page. A minimal probe request learns the total
// item count before any page plan is computed, every page payload is written to disk before the resume
// checkpoint advances, and a fixed politeness delay bounds the request rate independent of retry state.
package nvdapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/hashicorp/go-cleanhttp"
	"github.com/wagoodman/go-progress"

	"github.com/itsmeakapa/secref/internal/log"
	"github.com/itsmeakapa/secref/pkg/provider"
)

const (
	DefaultURL        = "https://services.nvd.nist.gov/rest/json/cpes/2.0"
	DefaultPageSize   = 10000
	DefaultPoliteness = 7 * time.Second

	// TestModePages caps the page plan when running in reduced-scope test mode.
	TestModePages = 5
)

type Config struct {
	URL      string
	APIKey   string
	PageSize int

	// Politeness is the fixed delay between successful page fetches, independent of retry backoff.
	Politeness time.Duration

	Retry provider.RetryPolicy

	// MaxPages caps the page plan when > 0 (reduced-scope test mode).
	MaxPages int
}

func DefaultConfig() Config {
	return Config{
		URL:        DefaultURL,
		PageSize:   DefaultPageSize,
		Politeness: DefaultPoliteness,
		Retry:      provider.DefaultRetryPolicy(),
	}
}

type Client struct {
	cfg    Config
	client *http.Client
}

func NewClient(cfg Config) *Client {
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	return &Client{
		cfg:    cfg,
		client: cleanhttp.DefaultClient(),
	}
}

// Plan describes the full set of pages to fetch, derived from the probe response.
type Plan struct {
	TotalResults int
	PageSize     int
	Pages        int

	// upstream metadata echoed by the probe
	Format    string
	Version   string
	Timestamp string
}

type pageEnvelope struct {
	ResultsPerPage int               `json:"resultsPerPage"`
	StartIndex     int               `json:"startIndex"`
	TotalResults   int               `json:"totalResults"`
	Format         string            `json:"format"`
	Version        string            `json:"version"`
	Timestamp      string            `json:"timestamp"`
	Products       []json.RawMessage `json:"products"`
}

// Probe issues a minimal single-item request to learn the total item count. A probe that cannot report a
// usable count aborts the run, since no pagination plan can be computed from it.
func (c *Client) Probe(ctx context.Context) (Plan, error) {
	log.Debug("fetching initial page to determine total item count")

	var envelope pageEnvelope
	err := c.cfg.Retry.Do(ctx, "probe", func() error {
		body, err := c.get(ctx, 1, 0)
		if err != nil {
			return err
		}
		return json.Unmarshal(body, &envelope)
	})
	if err != nil {
		return Plan{}, err
	}

	if envelope.TotalResults <= 0 {
		return Plan{}, fmt.Errorf("probe did not report a usable total item count")
	}

	plan := Plan{
		TotalResults: envelope.TotalResults,
		PageSize:     c.cfg.PageSize,
		Pages:        (envelope.TotalResults + c.cfg.PageSize - 1) / c.cfg.PageSize,
		Format:       envelope.Format,
		Version:      envelope.Version,
		Timestamp:    envelope.Timestamp,
	}

	log.WithFields("total", humanize.Comma(int64(plan.TotalResults)), "pages", plan.Pages).Info("computed page plan")

	if c.cfg.MaxPages > 0 && plan.Pages > c.cfg.MaxPages {
		plan.Pages = c.cfg.MaxPages
		log.WithFields("pages", plan.Pages).Warn("test mode: capping page plan")
	}

	return plan, nil
}

// FetchPages downloads every page of the plan into per-page files under dir, resuming from the
// checkpoint. The payload of a page is durably written before the checkpoint advances past it.
func (c *Client) FetchPages(ctx context.Context, plan Plan, dir string, monitors ...*progress.Manual) error {
	checkpoint := NewCheckpoint(dir)

	start := checkpoint.Load()
	if start > plan.Pages {
		log.WithFields("checkpoint", start, "pages", plan.Pages).Warn("checkpoint exceeds page plan, refetching from the first page")
		start = 0
	}
	if start > 0 {
		log.WithFields("page", start).Info("resuming from checkpoint")
	}

	var monitor *progress.Manual
	if len(monitors) > 0 {
		monitor = monitors[0]
		monitor.SetTotal(int64(plan.Pages))
		monitor.Set(int64(start))
	}

	for page := start; page < plan.Pages; page++ {
		if err := c.fetchPage(ctx, plan, page, dir); err != nil {
			return err
		}

		if err := checkpoint.Save(page + 1); err != nil {
			return err
		}

		if monitor != nil {
			monitor.Add(1)
		}

		if page < plan.Pages-1 {
			if err := provider.Sleep(ctx, c.cfg.Politeness); err != nil {
				return err
			}
		}
	}

	if monitor != nil {
		monitor.SetCompleted()
	}

	return nil
}

func (c *Client) fetchPage(ctx context.Context, plan Plan, page int, dir string) error {
	startIndex := page * plan.PageSize

	return c.cfg.Retry.Do(ctx, fmt.Sprintf("page %d/%d", page+1, plan.Pages), func() error {
		log.WithFields("page", page+1, "pages", plan.Pages, "startIndex", startIndex).Info("downloading page")

		body, err := c.get(ctx, plan.PageSize, startIndex)
		if err != nil {
			return err
		}

		var envelope pageEnvelope
		if err := json.Unmarshal(body, &envelope); err != nil {
			return fmt.Errorf("unable to parse page %d: %w", page+1, err)
		}

		if len(envelope.Products) == 0 {
			// a page with zero items before the declared last page has historically indicated an
			// upstream fault, not a legitimately empty page
			return provider.ErrEmptyPage
		}

		if err := writeDurably(PagePath(dir, page), body); err != nil {
			return err
		}

		log.WithFields("page", page+1, "entries", len(envelope.Products)).Debug("page downloaded")

		return nil
	})
}

func (c *Client) get(ctx context.Context, resultsPerPage, startIndex int) ([]byte, error) {
	url := fmt.Sprintf("%s?resultsPerPage=%d&startIndex=%d", c.cfg.URL, resultsPerPage, startIndex)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if c.cfg.APIKey != "" {
		req.Header.Set("apiKey", c.cfg.APIKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, provider.Permanent(fmt.Errorf("resource not found: %s", url))
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}

	return io.ReadAll(resp.Body)
}

// PagePath returns the per-page payload file for the given page index.
func PagePath(dir string, page int) string {
	return filepath.Join(dir, fmt.Sprintf("page_%d.json", page))
}

// PagePaths returns the payload files of a completed plan in fetch order.
func PagePaths(dir string, pages int) []string {
	var paths []string
	for page := 0; page < pages; page++ {
		paths = append(paths, PagePath(dir, page))
	}
	return paths
}

// writeDurably stages the payload next to its final path and renames it into place, so a partially
// written page file is never observed under the name the checkpoint vouches for.
func writeDurably(path string, body []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, body, 0o644); err != nil {
		return fmt.Errorf("unable to stage page payload: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("unable to finalize page payload: %w", err)
	}
	return nil
}
