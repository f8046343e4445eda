package fetcher

import (
	"context"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/dateradar/pricing-cli/internal/resilience"
)

const defaultDownloadTimeout = 60 * time.Second

// Download fetches url to a temporary file and returns its path. The
// caller owns the file and should remove it when done. Used for rule
// sources published as spreadsheet export URLs. Transient failures are
// retried; a failed download falls through to the rules fallback copy.
func Download(ctx context.Context, url string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultDownloadTimeout)
	defer cancel()

	cfg := resilience.DefaultRetryConfig()
	cfg.OnRetry = resilience.RetryLogger("rulesource", "download")

	return resilience.Do(ctx, cfg, func(ctx context.Context) (string, error) {
		return download(ctx, url)
	})
}

func download(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", eris.Wrap(err, "fetcher: create request")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", eris.Wrapf(err, "fetcher: get %s", url)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		err = eris.Errorf("fetcher: get %s: status %d", url, resp.StatusCode)
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return "", resilience.NewTransientError(err, resp.StatusCode)
		}
		return "", err
	}

	tmp, err := os.CreateTemp("", "rulesource-*.xlsx")
	if err != nil {
		return "", eris.Wrap(err, "fetcher: create temp file")
	}

	n, err := io.Copy(tmp, resp.Body)
	closeErr := tmp.Close()
	if err != nil {
		os.Remove(tmp.Name())
		return "", eris.Wrapf(err, "fetcher: download %s", url)
	}
	if closeErr != nil {
		os.Remove(tmp.Name())
		return "", eris.Wrap(closeErr, "fetcher: close temp file")
	}

	zap.L().Debug("fetcher: downloaded rule source",
		zap.String("url", url),
		zap.Int64("bytes", n),
	)
	return tmp.Name(), nil
}
