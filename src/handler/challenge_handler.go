package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pondermatic/strategy11-challenge/src/service"
	"github.com/rs/zerolog"
)

// nonceParam carries the anti-forgery token on clear requests
const nonceParam = "_wpnonce"

type ChallengeHandler struct {
	challengeService *service.ChallengeService
}

func NewChallengeHandler(challengeService *service.ChallengeService) *ChallengeHandler {
	return &ChallengeHandler{
		challengeService: challengeService,
	}
}

func (h *ChallengeHandler) logger(ctx context.Context) *zerolog.Logger {
	l := zerolog.Ctx(ctx).With().Str("handler", "challenge").Logger()
	return &l
}

// ChallengeStatusResponse describes the cache state of the challenge data
type ChallengeStatusResponse struct {
	CacheKey string     `json:"cacheKey"`
	Cached   bool       `json:"cached"`
	TTL      int64      `json:"ttlSeconds"`
	LastCall *time.Time `json:"lastCall,omitempty"`
}

// GetChallenge godoc
// @Summary Challenge data
// @Description Returns the challenge dataset, cached for an hour
// @Tags challenge
// @Produce json
// @Success 200 {object} domain.Dataset
// @Failure 502 {object} StandardResponse
// @Router /challenge [get]
func (h *ChallengeHandler) GetChallenge(c *gin.Context) {
	dataset, err := h.challengeService.GetData(c.Request.Context())
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, dataset)
}

// ClearCache godoc
// @Summary Clear cached challenge data
// @Description Requires an operator API secret or a valid clear-cache nonce
// @Tags challenge
// @Produce json
// @Param X-API-Secret header string false "API secret"
// @Param _wpnonce query string false "Clear-cache nonce"
// @Success 200 {object} ClearCacheResponse
// @Failure 403 {object} ClearCacheResponse
// @Router /challenge/cache [delete]
func (h *ChallengeHandler) ClearCache(c *gin.Context) {
	h.clear(c, h.challengeService.ClearCache)
}

// ClearLastCall godoc
// @Summary Clear the last upstream call record
// @Tags challenge
// @Produce json
// @Param X-API-Secret header string true "API secret"
// @Success 200 {object} ClearCacheResponse
// @Failure 401 {object} StandardResponse
// @Router /challenge/last-call [delete]
func (h *ChallengeHandler) ClearLastCall(c *gin.Context) {
	h.clear(c, h.challengeService.ClearLastCall)
}

func (h *ChallengeHandler) clear(c *gin.Context, clear func(ctx context.Context, token string) bool) {
	ctx := c.Request.Context()
	token := c.Query(nonceParam)
	if token == "" {
		token = c.GetHeader("X-WP-Nonce")
	}

	if !h.challengeService.CanClearCache(ctx, token) {
		h.logger(ctx).Warn().Msg("clear request without valid nonce or operator identity")
		c.AbortWithStatusJSON(http.StatusForbidden, ClearCacheResponse{Cleared: false})
		return
	}

	if !clear(ctx, token) {
		c.AbortWithStatusJSON(http.StatusInternalServerError, ClearCacheResponse{Cleared: false})
		return
	}

	c.JSON(http.StatusOK, ClearCacheResponse{Cleared: true})
}

// GetStatus godoc
// @Summary Cache status
// @Tags challenge
// @Produce json
// @Param X-API-Secret header string true "API secret"
// @Success 200 {object} StandardResponse{data=ChallengeStatusResponse}
// @Failure 401 {object} StandardResponse
// @Router /challenge/status [get]
func (h *ChallengeHandler) GetStatus(c *gin.Context) {
	ctx := c.Request.Context()

	cached, err := h.challengeService.IsCached(ctx)
	if err != nil {
		respondWithError(c, err)
		return
	}

	lastCall, err := h.challengeService.LastCall(ctx)
	if err != nil {
		respondWithError(c, err)
		return
	}

	status := ChallengeStatusResponse{
		CacheKey: h.challengeService.CacheKey(),
		Cached:   cached,
		TTL:      int64(h.challengeService.TTL() / time.Second),
	}
	if !lastCall.IsZero() {
		status.LastCall = &lastCall
	}

	respondWithSuccess(c, status)
}
