package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ssai/ssquiz/internal/apperr"
	"github.com/ssai/ssquiz/internal/quizview"
)

// GET /api/quiz/latest
func (h *handler) latest(c *gin.Context) {
	v, err := h.Views.Latest(c.Request.Context(), userID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

// GET /api/quiz/all/first
func (h *handler) firstAll(c *gin.Context) {
	v, err := h.Views.FirstAll(c.Request.Context(), userID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

// GET /api/quiz/all/latest
func (h *handler) latestAll(c *gin.Context) {
	v, err := h.Views.LatestAll(c.Request.Context(), userID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

// step serves next/prev within scope; ?current_id= is required.
func (h *handler) step(scope quizview.Scope, forward bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := currentID(c)
		if err != nil {
			h.respondError(c, err)
			return
		}
		var v *quizview.View
		if forward {
			v, err = h.Views.Next(c.Request.Context(), userID(c), scope, id)
		} else {
			v, err = h.Views.Prev(c.Request.Context(), userID(c), scope, id)
		}
		if err != nil {
			h.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, v)
	}
}

// GET /api/quiz/:id
func (h *handler) getQuiz(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	v, err := h.Views.Own(c.Request.Context(), id, userID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

type answerRequest struct {
	Answer string `json:"answer"`
}

// POST /api/quiz/:id/answer
func (h *handler) submit(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	var req answerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, apperr.Invalid("answer is required"))
		return
	}
	ctx := c.Request.Context()
	if err := h.Users.Ensure(ctx, userID(c), ""); err != nil {
		h.respondError(c, err)
		return
	}
	res, err := h.Attempts.Submit(ctx, id, userID(c), req.Answer)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GET /api/quiz/summary?scope=user|all
func (h *handler) summary(c *gin.Context) {
	scope, err := quizview.ParseScope(c.Query("scope"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	owner := ""
	if scope == quizview.ScopeUser {
		owner = userID(c)
	}
	s, err := h.Attempts.Summary(c.Request.Context(), userID(c), owner)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

// GET /api/quiz/wrong-notes
func (h *handler) wrongNotes(c *gin.Context) {
	notes, err := h.Attempts.WrongNotes(c.Request.Context(), userID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, notes)
}

// POST /api/quiz/generate queues generation from the caller's own record.
func (h *handler) generateOwn(c *gin.Context) {
	ctx := c.Request.Context()
	if err := h.Users.Ensure(ctx, userID(c), ""); err != nil {
		h.respondError(c, err)
		return
	}
	jobID, err := h.Jobs.EnqueueGenerateOne(ctx, userID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"job_id": jobID})
}
