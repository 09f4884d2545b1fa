package browser

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/phrazzld/imagine-api/internal/generation"
	"github.com/phrazzld/imagine-api/internal/platform/logger"
)

// URLValidator checks that extracted result URLs are reachable.
type URLValidator struct {
	client *http.Client
	logger *slog.Logger
}

// NewURLValidator creates a validator that issues requests through client.
func NewURLValidator(client *http.Client, logger *slog.Logger) *URLValidator {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &URLValidator{client: client, logger: logger}
}

// Validate sends a HEAD request for every URL and returns the ones worth
// keeping, in their original order. A non-2xx answer drops the URL; a
// request that fails outright keeps it. When URLs were given but all of
// them were dropped the result is ErrTransportFailure.
func (v *URLValidator) Validate(ctx context.Context, urls []string) ([]string, error) {
	log := logger.FromContextOrDefault(ctx, v.logger)

	kept := make([]string, 0, len(urls))
	for _, u := range urls {
		status, err := v.head(ctx, u)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			log.DebugContext(ctx, "image url check failed, keeping url", "url", u, "error", err)
			kept = append(kept, u)
		case status >= 200 && status < 300:
			kept = append(kept, u)
		default:
			log.WarnContext(ctx, "image url rejected", "url", u, "status", status)
		}
	}

	if len(urls) > 0 && len(kept) == 0 {
		return nil, fmt.Errorf("%w: all %d image urls were rejected", generation.ErrTransportFailure, len(urls))
	}
	return kept, nil
}

func (v *URLValidator) head(ctx context.Context, url string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return 0, err
	}
	resp, err := v.client.Do(req)
	if err != nil {
		return 0, err
	}
	_ = resp.Body.Close()
	return resp.StatusCode, nil
}
