// Package epss downloads a single dated exploit-probability score file. A missing dated resource is a
// permanent condition (the file for that date will never appear), while connection and server failures
// are retried under the shared policy.
package epss

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/wagoodman/go-progress"

	"github.com/itsmeakapa/secref/internal/file"
	"github.com/itsmeakapa/secref/internal/log"
	"github.com/itsmeakapa/secref/pkg/provider"
)

const DefaultBaseURL = "https://epss.empiricalsecurity.com"

type Config struct {
	BaseURL string
	Date    time.Time
	Retry   provider.RetryPolicy
}

func DefaultConfig(date time.Time) Config {
	return Config{
		BaseURL: DefaultBaseURL,
		Date:    date,
		Retry:   provider.DefaultRetryPolicy(),
	}
}

type Client struct {
	cfg    Config
	client *http.Client
	getter file.Getter
}

func NewClient(cfg Config) *Client {
	httpClient := cleanhttp.DefaultClient()
	return &Client{
		cfg:    cfg,
		client: httpClient,
		getter: file.NewGetter(httpClient),
	}
}

// URL returns the dated resource URL for the configured date.
func (c *Client) URL() string {
	return fmt.Sprintf("%s/epss_scores-%s.csv.gz", c.cfg.BaseURL, c.cfg.Date.Format("2006-01-02"))
}

// FileName returns the local name of the dated archive.
func (c *Client) FileName() string {
	return fmt.Sprintf("epss_scores-%s.csv.gz", c.cfg.Date.Format("2006-01-02"))
}

// Fetch downloads the dated score archive to dst. An already-present dst short-circuits as success. The
// payload is staged at a partial path and renamed into place only once the download completes.
func (c *Client) Fetch(ctx context.Context, dst string, monitors ...*progress.Manual) error {
	if _, err := os.Stat(dst); err == nil {
		log.WithFields("path", dst).Info("dated archive already downloaded, skipping fetch")
		return nil
	}

	src := c.URL()
	partial := dst + ".part"

	err := c.cfg.Retry.Do(ctx, "epss download", func() error {
		if err := c.probe(ctx, src); err != nil {
			return err
		}

		if err := c.getter.GetFile(partial, src, monitors...); err != nil {
			// a partial payload must never be mistaken for a complete one by a later run
			if rmErr := os.Remove(partial); rmErr != nil && !os.IsNotExist(rmErr) {
				log.WithFields("path", partial, "error", rmErr).Warn("unable to remove partial download")
			}
			return err
		}

		return os.Rename(partial, dst)
	})
	if err != nil {
		return err
	}

	log.WithFields("url", src, "path", dst).Info("downloaded score archive")

	return nil
}

// probe classifies resource absence before the download starts: a 404 for a dated file is permanent and
// must not burn retry attempts.
func (c *Client) probe(ctx context.Context, src string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, src, nil)
	if err != nil {
		return err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return provider.Permanent(fmt.Errorf("no score file published for %s (HTTP 404)", c.cfg.Date.Format("2006-01-02")))
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, src)
	}

	return nil
}
