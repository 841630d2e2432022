package web

import (
	"net/http"

	"github.com/alwitt/goutils"
	"github.com/alwitt/requestboard/models"
	"github.com/apex/log"
	"github.com/gin-gonic/gin"
)

// boardHandlers form actions of the request board page. Every action redirects back to the
// page; board failures are logged by the board and never shown.
type boardHandlers struct {
	goutils.Component
}

func (h boardHandlers) backToPage(c *gin.Context) {
	c.Redirect(http.StatusSeeOther, "/")
}

func (h boardHandlers) renderPage(c *gin.Context) {
	c.HTML(http.StatusOK, "page.html", gin.H{"View": sessionBoard(c).View()})
}

func (h boardHandlers) getBoard(c *gin.Context) {
	c.JSON(http.StatusOK, sessionBoard(c).View())
}

// bindDraft copy the create form input into the board, if the form carries it
func (h boardHandlers) bindDraft(c *gin.Context) bool {
	if _, ok := c.GetPostForm("name"); !ok {
		return false
	}
	var draft models.Draft
	if err := c.ShouldBind(&draft); err != nil {
		log.WithError(err).WithFields(h.GetLogTagsForContext(c.Request.Context())).
			Warn("Unable to parse create form")
		return false
	}
	sessionBoard(c).SetDraft(draft)
	return true
}

func (h boardHandlers) refresh(c *gin.Context) {
	// Refresh is a button of the create form; keep what was typed so far
	h.bindDraft(c)
	_ = sessionBoard(c).Refresh(c.Request.Context())
	h.backToPage(c)
}

func (h boardHandlers) submit(c *gin.Context) {
	if h.bindDraft(c) {
		_ = sessionBoard(c).Submit(c.Request.Context())
	}
	h.backToPage(c)
}

func (h boardHandlers) startEdit(c *gin.Context) {
	if err := sessionBoard(c).StartEdit(c.Request.Context(), c.Param("id")); err != nil {
		log.WithError(err).WithFields(h.GetLogTagsForContext(c.Request.Context())).
			Warn("Unable to start edit")
	}
	h.backToPage(c)
}

func (h boardHandlers) saveEdit(c *gin.Context) {
	ctx := c.Request.Context()
	current := sessionBoard(c)
	if err := current.SetEditFields(
		c.Param("id"), c.PostForm("subject"), c.PostForm("message"),
	); err != nil {
		log.WithError(err).WithFields(h.GetLogTagsForContext(ctx)).Warn("Unable to save edit")
		h.backToPage(c)
		return
	}
	_ = current.SaveEdit(ctx)
	h.backToPage(c)
}

func (h boardHandlers) cancelEdit(c *gin.Context) {
	// A stale page may cancel an edit that is no longer active
	sessionBoard(c).CancelEditOf(c.Param("id"))
	h.backToPage(c)
}

func (h boardHandlers) deleteRequest(c *gin.Context) {
	_ = sessionBoard(c).Delete(c.Request.Context(), c.Param("id"))
	h.backToPage(c)
}
