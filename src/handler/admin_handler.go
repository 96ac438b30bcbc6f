package handler

import (
	"context"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/pondermatic/strategy11-challenge/src/domain"
	"github.com/pondermatic/strategy11-challenge/src/service"
	"github.com/rs/zerolog"
)

const (
	refreshAction = "refresh"
	adminTitle    = "Strategy11 Challenge"
)

type AdminHandler struct {
	challengeService *service.ChallengeService
	presenter        *service.TablePresenter
	lang             string
}

func NewAdminHandler(challengeService *service.ChallengeService, presenter *service.TablePresenter, lang string) *AdminHandler {
	return &AdminHandler{
		challengeService: challengeService,
		presenter:        presenter,
		lang:             lang,
	}
}

func (h *AdminHandler) logger(ctx context.Context) *zerolog.Logger {
	l := zerolog.Ctx(ctx).With().Str("handler", "admin").Logger()
	return &l
}

// Page renders the admin table. With action=refresh and a valid nonce it
// clears the cache and redirects to the same page without those parameters.
func (h *AdminHandler) Page(c *gin.Context) {
	ctx := c.Request.Context()
	query := c.Request.URL.Query()
	var failure string

	if query.Get("action") == refreshAction {
		token := query.Get(nonceParam)
		switch {
		case !h.challengeService.CanClearCache(ctx, token):
			failure = "The link you followed has expired."
		case !h.challengeService.ClearCache(ctx, token):
			failure = "Failed to clear the last cached response."
		default:
			c.Redirect(http.StatusFound, cleanURL(c.Request.URL.Path, query))
			return
		}
	}

	spec := domain.ParseSortSpec(query.Get("orderby"), query.Get("order"))
	view := h.presenter.BuildView(ctx, h.challengeService, spec)

	page := newTablePage(c.Request.URL.Path, h.lang, adminTitle, view)
	if failure != "" {
		page.addNotice(failure)
	}

	nonce, err := h.challengeService.ClearCacheNonce()
	if err != nil {
		h.logger(ctx).Error().Err(err).Msg("failed to create clear-cache nonce")
	} else {
		page.RefreshURL = refreshURL(c.Request.URL.Path, spec, nonce)
	}

	c.HTML(http.StatusOK, "admin.tmpl", page)
}

func refreshURL(path string, spec domain.SortSpec, nonce string) string {
	q := url.Values{}
	q.Set("orderby", string(spec.Column))
	q.Set("order", string(spec.Direction))
	q.Set("action", refreshAction)
	q.Set(nonceParam, nonce)
	return path + "?" + q.Encode()
}
