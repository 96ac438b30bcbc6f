package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/pondermatic/strategy11-challenge/src/domain"
	"github.com/pondermatic/strategy11-challenge/src/repository"
	"github.com/rs/zerolog"
)

const (
	// DefaultRouteNamespace prefixes the REST route and the cache key
	DefaultRouteNamespace = "pondermatic-strategy11/v1"
	// ChallengeRoute is the REST route serving the dataset
	ChallengeRoute = "/challenge"
	// DefaultCacheTTL bounds how long a validated dataset is served from cache
	DefaultCacheTTL = time.Hour

	lastCallSuffix = "/last-call"
)

type ChallengeConfig struct {
	RouteNamespace string
	CacheTTL       time.Duration
}

// ChallengeService runs the fetch, decode, validate and cache pipeline.
// Concurrent misses are not coalesced; each caller may fetch on its own.
type ChallengeService struct {
	store     repository.TransientStore
	fetcher   Fetcher
	validator *SchemaValidator
	nonce     *NonceIssuer
	events    *Dispatcher
	cacheKey  string
	ttl       time.Duration
	now       func() time.Time
}

func NewChallengeService(
	cfg ChallengeConfig,
	store repository.TransientStore,
	fetcher Fetcher,
	validator *SchemaValidator,
	nonce *NonceIssuer,
	events *Dispatcher,
) *ChallengeService {
	namespace := cfg.RouteNamespace
	if namespace == "" {
		namespace = DefaultRouteNamespace
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}

	return &ChallengeService{
		store:     store,
		fetcher:   fetcher,
		validator: validator,
		nonce:     nonce,
		events:    events,
		cacheKey:  namespace + ChallengeRoute,
		ttl:       ttl,
		now:       time.Now,
	}
}

// WithClock replaces the time source used for the last-call record
func (s *ChallengeService) WithClock(now func() time.Time) *ChallengeService {
	s.now = now
	return s
}

// logger wraps the execution context with component info
func (s *ChallengeService) logger(ctx context.Context) *zerolog.Logger {
	l := zerolog.Ctx(ctx).With().Str("component", "challenge-service").Logger()
	return &l
}

// CacheKey returns the key the dataset is cached under
func (s *ChallengeService) CacheKey() string {
	return s.cacheKey
}

func (s *ChallengeService) lastCallKey() string {
	return s.cacheKey + lastCallSuffix
}

func (s *ChallengeService) TTL() time.Duration {
	return s.ttl
}

// GetData returns the cached dataset, or fetches, validates and caches a
// fresh one. Failed fetches, undecodable bodies and invalid documents are
// returned as domain errors and never cached.
func (s *ChallengeService) GetData(ctx context.Context) (*domain.Dataset, error) {
	if dataset, ok := s.cached(ctx); ok {
		s.events.Dispatch(ctx, EventCacheHit, EventPayload{Key: s.cacheKey})
		return dataset, nil
	}
	s.events.Dispatch(ctx, EventCacheMiss, EventPayload{Key: s.cacheKey})

	body, err := s.request(ctx)
	if err != nil {
		return nil, err
	}

	document, err := decodeDocument(body)
	if err != nil {
		s.logger(ctx).Warn().Err(err).Msg("challenge api returned undecodable body")
		s.events.Dispatch(ctx, EventDecodeFailed, EventPayload{Key: s.cacheKey, Err: err})
		return nil, err
	}

	violation, err := s.validator.Validate(document)
	if err != nil {
		return nil, domain.NewError(domain.ErrorCodeInternalProcess, err)
	}
	if violation != nil {
		err := domain.NewError(
			domain.ErrorCodeRemoteSchemaInvalid,
			fmt.Errorf("schema violation at %q: %s", violation.JSONPointer, violation.Message),
			domain.WithMsg("The fetched user data did not pass JSON schema validation tests."),
			domain.WithDetail(violation),
		)
		s.logger(ctx).Warn().
			Str("json_pointer", violation.JSONPointer).
			Str("violation", violation.Message).
			Msg("challenge data failed schema validation")
		s.events.Dispatch(ctx, EventValidationFailed, EventPayload{Key: s.cacheKey, Err: err})
		return nil, err
	}

	dataset := &domain.Dataset{}
	if err := dataset.FromJSON(body); err != nil {
		err = newDecodeError(err)
		s.events.Dispatch(ctx, EventDecodeFailed, EventPayload{Key: s.cacheKey, Err: err})
		return nil, err
	}

	s.save(ctx, dataset)
	return dataset, nil
}

// cached returns the dataset held in the cache. Read failures and corrupt
// values count as a miss.
func (s *ChallengeService) cached(ctx context.Context) (*domain.Dataset, bool) {
	value, err := s.store.Get(ctx, s.cacheKey)
	if err != nil {
		if !errors.Is(err, repository.ErrTransientNotFound) {
			s.logger(ctx).Error().Err(err).Msg("failed to read cached challenge data")
		}
		return nil, false
	}

	dataset := &domain.Dataset{}
	if err := dataset.FromJSON(value); err != nil {
		s.logger(ctx).Warn().Err(err).Msg("discarding corrupt cached challenge data")
		return nil, false
	}
	return dataset, true
}

// request calls the upstream API and records the time of the call
func (s *ChallengeService) request(ctx context.Context) ([]byte, error) {
	start := s.now()
	s.recordLastCall(ctx, start)

	body, err := s.fetcher.Fetch(ctx)
	elapsed := s.now().Sub(start)
	if err != nil {
		s.logger(ctx).Error().Err(err).Msg("failed to fetch challenge data")
		s.events.Dispatch(ctx, EventUpstreamFailed, EventPayload{Key: s.cacheKey, Duration: elapsed, Err: err})
		return nil, err
	}

	s.events.Dispatch(ctx, EventUpstreamRequest, EventPayload{Key: s.cacheKey, Duration: elapsed})
	return body, nil
}

func (s *ChallengeService) save(ctx context.Context, dataset *domain.Dataset) {
	value, err := dataset.ToJSON()
	if err != nil {
		s.logger(ctx).Error().Err(err).Msg("failed to encode challenge data for cache")
		return
	}
	if err := s.store.Set(ctx, s.cacheKey, value, s.ttl); err != nil {
		s.logger(ctx).Error().Err(err).Msg("failed to cache challenge data")
		return
	}

	s.logger(ctx).Debug().Dur("ttl", s.ttl).Int("rows", len(dataset.Rows)).Msg("challenge data cached")
	s.events.Dispatch(ctx, EventCacheStored, EventPayload{Key: s.cacheKey})
}

// IsCached reports whether an unexpired dataset is in the cache
func (s *ChallengeService) IsCached(ctx context.Context) (bool, error) {
	_, err := s.store.Get(ctx, s.cacheKey)
	if errors.Is(err, repository.ErrTransientNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// CanClearCache reports whether the caller may clear the cache: either token
// is a valid clear-cache nonce or ctx carries an operator identity.
func (s *ChallengeService) CanClearCache(ctx context.Context, token string) bool {
	if IsOperator(ctx) {
		return true
	}
	return s.nonce.Verify(token, ClearCacheAction)
}

// ClearCacheNonce issues a token that authorizes clearing the cache until it expires
func (s *ChallengeService) ClearCacheNonce() (string, error) {
	if s.nonce == nil {
		return "", errors.New("nonce issuer is not configured")
	}
	return s.nonce.Create(ClearCacheAction)
}

// ClearCache deletes the cached dataset. It returns false without touching
// the cache when the caller is not authorized.
func (s *ChallengeService) ClearCache(ctx context.Context, token string) bool {
	return s.clear(ctx, token, s.cacheKey)
}

// ClearLastCall deletes the record of the last upstream request, under the
// same authorization as ClearCache
func (s *ChallengeService) ClearLastCall(ctx context.Context, token string) bool {
	return s.clear(ctx, token, s.lastCallKey())
}

func (s *ChallengeService) clear(ctx context.Context, token, key string) bool {
	if !s.CanClearCache(ctx, token) {
		s.logger(ctx).Warn().Str("key", key).Msg("unauthorized attempt to clear cache")
		s.events.Dispatch(ctx, EventCacheClearDenied, EventPayload{Key: key})
		return false
	}

	if err := s.store.Delete(ctx, key); err != nil {
		s.logger(ctx).Error().Err(err).Str("key", key).Msg("failed to clear cache")
		return false
	}

	operator, _ := OperatorFrom(ctx)
	s.logger(ctx).Info().Str("key", key).Str("operator", operator).Msg("cache cleared")
	s.events.Dispatch(ctx, EventCacheCleared, EventPayload{Key: key})
	return true
}

// LastCall returns when the upstream API was last requested. The zero time
// means no call is on record.
func (s *ChallengeService) LastCall(ctx context.Context) (time.Time, error) {
	value, err := s.store.Get(ctx, s.lastCallKey())
	if errors.Is(err, repository.ErrTransientNotFound) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}

	sec, err := strconv.ParseInt(string(value), 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid last call record %q: %w", value, err)
	}
	return time.Unix(sec, 0), nil
}

func (s *ChallengeService) recordLastCall(ctx context.Context, at time.Time) {
	value := []byte(strconv.FormatInt(at.Unix(), 10))
	if err := s.store.Set(ctx, s.lastCallKey(), value, 0); err != nil {
		s.logger(ctx).Warn().Err(err).Msg("failed to record last call time")
	}
}

// decodeDocument parses body into generic JSON values for schema validation.
// Numbers stay json.Number so integers are not widened to float64.
func decodeDocument(body []byte) (interface{}, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var document interface{}
	if err := dec.Decode(&document); err != nil {
		return nil, newDecodeError(err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, newDecodeError(errors.New("unexpected data after top-level value"))
	}
	return document, nil
}

func newDecodeError(err error) error {
	return domain.NewError(
		domain.ErrorCodeRemoteResponseDecode,
		fmt.Errorf("failed to decode challenge api response: %w", err),
		domain.WithMsg("The challenge API returned a response that is not valid JSON."),
	)
}
