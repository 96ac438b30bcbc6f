package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pondermatic/strategy11-challenge/src/domain"
	"github.com/pondermatic/strategy11-challenge/src/service"
)

// ShortcodeHandler serves the public, read-only challenge table
type ShortcodeHandler struct {
	challengeService *service.ChallengeService
	presenter        *service.TablePresenter
	lang             string
}

func NewShortcodeHandler(challengeService *service.ChallengeService, presenter *service.TablePresenter, lang string) *ShortcodeHandler {
	return &ShortcodeHandler{
		challengeService: challengeService,
		presenter:        presenter,
		lang:             lang,
	}
}

func (h *ShortcodeHandler) Page(c *gin.Context) {
	spec := domain.ParseSortSpec(c.Query("orderby"), c.Query("order"))
	view := h.presenter.BuildView(c.Request.Context(), h.challengeService, spec)

	title := view.Title
	if title == "" {
		title = adminTitle
	}
	c.HTML(http.StatusOK, "shortcode.tmpl", newTablePage(c.Request.URL.Path, h.lang, title, view))
}
