package solar

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Download fetches url into destPath through a temporary file and an
// atomic rename, retrying transient failures until maxElapsed. HTTP 4xx
// responses are not retried. It returns the number of bytes written.
func Download(ctx context.Context, client *http.Client, url, destPath string, maxElapsed time.Duration) (int64, error) {
	if client == nil {
		client = http.DefaultClient
	}

	var n int64
	op := func() error {
		var err error
		n, err = fetch(ctx, client, url, destPath)
		return err
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = maxElapsed
	if err := backoff.Retry(op, backoff.WithContext(bo, ctx)); err != nil {
		return 0, err
	}
	return n, nil
}

func fetch(ctx context.Context, client *http.Client, url, destPath string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, backoff.Permanent(err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("HTTP GET failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return 0, backoff.Permanent(err)
		}
		return 0, err
	}

	tmpPath := destPath + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return 0, backoff.Permanent(fmt.Errorf("create file failed: %w", err))
	}

	n, err := io.Copy(f, resp.Body)
	f.Close()
	if err != nil {
		os.Remove(tmpPath)
		return 0, fmt.Errorf("download failed: %w", err)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return 0, backoff.Permanent(fmt.Errorf("rename failed: %w", err))
	}
	return n, nil
}
