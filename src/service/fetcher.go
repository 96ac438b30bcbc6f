package service

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/pondermatic/strategy11-challenge/src/domain"
	"github.com/rs/zerolog"
)

// DefaultChallengeAPIURL is the upstream endpoint serving the challenge data
const DefaultChallengeAPIURL = "https://api.strategy11.com/wp-json/challenge/v1/1"

// maxResponseSize caps how much of the upstream body is read
const maxResponseSize = 10 << 20

// Fetcher retrieves the raw challenge document
type Fetcher interface {
	Fetch(ctx context.Context) ([]byte, error)
}

// RemoteFetcher performs one GET against a fixed URL. It never retries; a
// failure is returned to the caller as REMOTE_PROCESS_ERROR.
type RemoteFetcher struct {
	client *http.Client
	url    string
}

// NewRemoteFetcher creates a fetcher; a nil client means http.DefaultClient
func NewRemoteFetcher(client *http.Client, url string) *RemoteFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &RemoteFetcher{
		client: client,
		url:    url,
	}
}

func (f *RemoteFetcher) logger(ctx context.Context) *zerolog.Logger {
	l := zerolog.Ctx(ctx).With().Str("component", "remote-fetcher").Logger()
	return &l
}

func (f *RemoteFetcher) URL() string {
	return f.url
}

// Fetch returns the response body of the upstream API
func (f *RemoteFetcher) Fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, newTransportError(fmt.Errorf("failed to build request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	f.logger(ctx).Debug().Str("url", f.url).Msg("requesting challenge data")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, newTransportError(fmt.Errorf("failed to request challenge api: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, newTransportError(fmt.Errorf("failed to read challenge api response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newTransportError(fmt.Errorf("challenge api responded with status %d", resp.StatusCode))
	}

	f.logger(ctx).Debug().
		Int("status", resp.StatusCode).
		Int("bytes", len(body)).
		Msg("challenge data received")

	return body, nil
}

func newTransportError(err error) error {
	return domain.NewError(
		domain.ErrorCodeRemoteProcess,
		err,
		domain.WithMsg("Unable to reach the challenge API."),
	)
}
