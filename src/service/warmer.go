package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// CacheWarmer refills the challenge cache in the background so page views
// rarely wait on the challenge API.
type CacheWarmer struct {
	challenge *ChallengeService
	interval  time.Duration
}

// DefaultWarmInterval applies when WarmerConfig.Interval is not positive
const DefaultWarmInterval = 5 * time.Minute

type WarmerConfig struct {
	Interval time.Duration
}

func NewCacheWarmer(challenge *ChallengeService, config WarmerConfig) *CacheWarmer {
	interval := config.Interval
	if interval <= 0 {
		interval = DefaultWarmInterval
	}
	return &CacheWarmer{
		challenge: challenge,
		interval:  interval,
	}
}

// Interval is the time between two warming cycles
func (w *CacheWarmer) Interval() time.Duration {
	return w.interval
}

// logger wraps the execution context with component info
func (w *CacheWarmer) logger(ctx context.Context) *zerolog.Logger {
	l := zerolog.Ctx(ctx).With().Str("component", "cache-warmer").Logger()
	return &l
}

// Start warms the cache once, then on every tick until ctx is done
func (w *CacheWarmer) Start(ctx context.Context) error {
	w.logger(ctx).Info().
		Dur("interval", w.interval).
		Msg("starting cache warmer")

	w.warmOnce(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger(ctx).Info().Msg("cache warmer stopped")
			return ctx.Err()
		case <-ticker.C:
			w.warmOnce(ctx)
		}
	}
}

func (w *CacheWarmer) warmOnce(ctx context.Context) {
	if err := w.Warm(ctx); err != nil {
		w.logger(ctx).Error().Err(err).Msg("warming cycle failed")
	}
}

// Warm fetches the challenge data when nothing is cached. A populated cache
// is left alone so the TTL keeps its meaning.
func (w *CacheWarmer) Warm(ctx context.Context) error {
	cached, err := w.challenge.IsCached(ctx)
	if err != nil {
		return err
	}
	if cached {
		w.logger(ctx).Debug().Msg("cache is warm")
		return nil
	}

	dataset, err := w.challenge.GetData(ctx)
	if err != nil {
		return err
	}

	w.logger(ctx).Debug().Int("rows", len(dataset.Rows)).Msg("cache warmed")
	return nil
}
