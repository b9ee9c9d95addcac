package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	"github.com/ssai/ssquiz/internal/apperr"
	"github.com/ssai/ssquiz/internal/jobs"
	"github.com/ssai/ssquiz/internal/llm"
	"github.com/ssai/ssquiz/internal/store"
)

type generateRequest struct {
	UserID string `json:"user_id"`
}

// POST /api/admin/generate
func (h *handler) adminGenerate(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.UserID == "" {
		h.respondError(c, apperr.Invalid("user_id is required"))
		return
	}
	ctx := c.Request.Context()
	if _, err := h.Users.Get(ctx, req.UserID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			err = apperr.NotFound("user not found")
		}
		h.respondError(c, err)
		return
	}
	jobID, err := h.Jobs.EnqueueGenerateOne(ctx, req.UserID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"job_id": jobID})
}

// POST /api/admin/generate-all
func (h *handler) adminGenerateAll(c *gin.Context) {
	jobID, err := h.Jobs.EnqueueGenerateAll(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"job_id": jobID})
}

// GET /api/admin/jobs/:id
func (h *handler) jobStatus(c *gin.Context) {
	snap, err := h.Jobs.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// GET /api/admin/quizzes
func (h *handler) adminList(c *gin.Context) {
	list, err := h.Views.AdminList(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// GET /api/admin/quizzes/:id
func (h *handler) adminGet(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	v, err := h.Views.Admin(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

type patchRequest struct {
	Title       *string   `json:"title"`
	Link        *string   `json:"link"`
	Question    *string   `json:"question"`
	Choices     *[]string `json:"choices"`
	Correct     *string   `json:"correct"`
	Wrong       *[]string `json:"wrong"`
	Explanation *string   `json:"explanation"`
	Reference   *string   `json:"reference"`
}

// PATCH /api/admin/quizzes/:id applies the fields present in the body.
func (h *handler) adminPatch(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	var req patchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, apperr.Invalid("invalid quiz update"))
		return
	}
	ctx := c.Request.Context()
	err = h.Quizzes.Update(ctx, id, store.QuizPatch(req))
	if errors.Is(err, store.ErrNotFound) {
		err = apperr.NotFound("quiz not found")
	}
	if err != nil {
		h.respondError(c, err)
		return
	}
	v, err := h.Views.Admin(ctx, id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

// DELETE /api/admin/quizzes/:id
func (h *handler) adminDelete(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	err = h.Quizzes.Delete(c.Request.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		err = apperr.NotFound("quiz not found")
	}
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

// POST /api/admin/quizzes/:id/mix
func (h *handler) adminMix(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		h.respondError(c, err)
		return
	}
	ctx := c.Request.Context()
	if err := h.Maintenance.Reshuffle(ctx, id); err != nil {
		h.respondError(c, err)
		return
	}
	v, err := h.Views.Admin(ctx, id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

// POST /api/admin/quizzes/mix-all
func (h *handler) adminMixAll(c *gin.Context) {
	mixed, err := h.Maintenance.ReshuffleAll(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"mixed": mixed})
}

// POST /api/admin/quizzes/dedupe
func (h *handler) adminDedupe(c *gin.Context) {
	report, err := h.Maintenance.Dedupe(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// POST /api/admin/docs/learn
func (h *handler) startLearning(c *gin.Context) {
	jobID, err := h.Jobs.EnqueueLearn(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"job_id": jobID, "message": "learning started"})
}

// GET /api/admin/docs/learn/status reports the newest learn job.
func (h *handler) learningStatus(c *gin.Context) {
	snap, err := h.Jobs.Latest(c.Request.Context(), jobs.KindLearnCorpus)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if snap == nil {
		c.JSON(http.StatusOK, gin.H{"status": "idle", "progress": 0, "message": "idle"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": snap.Status, "progress": snap.Progress, "message": snap.Message})
}

type purposeUsage struct {
	Purpose      string `json:"purpose"`
	Calls        int    `json:"calls"`
	InputTokens  int    `json:"input_tokens"`
	OutputTokens int    `json:"output_tokens"`
	AvgLatencyMs int64  `json:"avg_latency_ms"`
}

type modelUsage struct {
	Model        string   `json:"model"`
	Calls        int      `json:"calls"`
	InputTokens  int      `json:"input_tokens"`
	OutputTokens int      `json:"output_tokens"`
	CostUSD      *float64 `json:"cost_usd"`
}

// GET /api/admin/llm/usage
func (h *handler) llmUsage(c *gin.Context) {
	ctx := c.Request.Context()
	byPurpose, err := h.Events.LLMUsageByPurpose(ctx)
	if err != nil {
		h.respondError(c, err)
		return
	}
	byModel, err := h.Events.LLMUsageByModel(ctx)
	if err != nil {
		h.respondError(c, err)
		return
	}

	purposes := lo.Map(byPurpose, func(u store.LLMUsageStats, _ int) purposeUsage {
		return purposeUsage(u)
	})
	models := lo.Map(byModel, func(u store.LLMModelUsage, _ int) modelUsage {
		m := modelUsage{Model: u.Model, Calls: u.Calls, InputTokens: u.InputTokens, OutputTokens: u.OutputTokens}
		if cost := llm.LookupCost(u.Model); cost != nil {
			m.CostUSD = lo.ToPtr(cost.Cost(u.InputTokens, u.OutputTokens))
		}
		return m
	})
	c.JSON(http.StatusOK, gin.H{"by_purpose": purposes, "by_model": models})
}
