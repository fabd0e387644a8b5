package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pders01/voice-schema/internal/ideas"
	"github.com/pders01/voice-schema/internal/models"
	"github.com/pders01/voice-schema/internal/schema"
)

// API holds the handler dependencies
type API struct {
	repo      *ideas.Repository
	generator schema.Generator
	logger    *slog.Logger
}

// NewAPI creates the handler set
func NewAPI(repo *ideas.Repository, gen schema.Generator, logger *slog.Logger) *API {
	return &API{repo: repo, generator: gen, logger: logger}
}

func registerRoutes(r *gin.Engine, api *API) {
	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/health", api.handleHealth)

		apiGroup.GET("/ideas", api.handleListIdeas)
		apiGroup.POST("/ideas", api.handleCreateIdea)
		apiGroup.GET("/ideas/:id", api.handleGetIdea)
		apiGroup.PATCH("/ideas/:id", api.handleUpdateIdea)
		apiGroup.DELETE("/ideas/:id", api.handleDeleteIdea)
		apiGroup.POST("/ideas/:id/transcript", api.handleAddTranscript)
		apiGroup.POST("/ideas/:id/toggle", api.handleToggleIdea)
		apiGroup.POST("/ideas/:id/tags/:tag", api.handleAddTag)
		apiGroup.DELETE("/ideas/:id/tags/:tag", api.handleRemoveTag)
		apiGroup.POST("/ideas/:id/schema", api.handleAttachSchema)

		apiGroup.GET("/tags", api.handleTagCounts)

		apiGroup.POST("/schema", api.handleGenerateSchema)
		apiGroup.POST("/schema/export", api.handleExportSchema)
	}
}

func (a *API) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (a *API) handleListIdeas(c *gin.Context) {
	if tag := c.Query("tag"); tag != "" {
		c.JSON(http.StatusOK, ideas.Filter(a.repo.ByTag(tag), c.Query("q")))
		return
	}
	c.JSON(http.StatusOK, a.repo.Search(c.Query("q")))
}

func (a *API) handleCreateIdea(c *gin.Context) {
	var payload struct {
		Title              string                     `json:"title" binding:"required"`
		Description        string                     `json:"description"`
		TranscriptSegments []models.TranscriptSegment `json:"transcriptSegments"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondMessage(c, http.StatusBadRequest, err.Error())
		return
	}

	idea, err := a.repo.Create(payload.Title, payload.Description, payload.TranscriptSegments)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, idea)
}

func (a *API) handleGetIdea(c *gin.Context) {
	idea, err := a.repo.Get(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, idea)
}

func (a *API) handleUpdateIdea(c *gin.Context) {
	var patch models.IdeaPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		respondMessage(c, http.StatusBadRequest, err.Error())
		return
	}

	if _, err := a.repo.Update(c.Param("id"), patch); err != nil {
		respondError(c, err)
		return
	}
	a.handleGetIdea(c)
}

func (a *API) handleDeleteIdea(c *gin.Context) {
	if err := a.repo.Delete(c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (a *API) handleAddTranscript(c *gin.Context) {
	var payload struct {
		Segments []models.TranscriptSegment `json:"segments" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondMessage(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := a.repo.AddTranscript(c.Param("id"), payload.Segments); err != nil {
		respondError(c, err)
		return
	}
	a.handleGetIdea(c)
}

func (a *API) handleToggleIdea(c *gin.Context) {
	done, err := a.repo.ToggleCompletion(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"isCompleted": done})
}

func (a *API) handleAddTag(c *gin.Context) {
	if err := a.repo.AddTag(c.Param("id"), c.Param("tag")); err != nil {
		respondError(c, err)
		return
	}
	a.handleGetIdea(c)
}

func (a *API) handleRemoveTag(c *gin.Context) {
	if err := a.repo.RemoveTag(c.Param("id"), c.Param("tag")); err != nil {
		respondError(c, err)
		return
	}
	a.handleGetIdea(c)
}

func (a *API) handleTagCounts(c *gin.Context) {
	c.JSON(http.StatusOK, a.repo.TagCounts())
}

func (a *API) handleAttachSchema(c *gin.Context) {
	var s models.GeneratedSchema
	if err := c.ShouldBindJSON(&s); err != nil {
		respondMessage(c, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(s.ProjectTitle) == "" {
		respondMessage(c, http.StatusBadRequest, "projectTitle is required")
		return
	}

	if err := a.repo.AttachSchema(c.Param("id"), s); err != nil {
		respondError(c, err)
		return
	}
	a.handleGetIdea(c)
}

// handleGenerateSchema accepts either raw transcript text or the segments of
// a dictation, optionally read from a stored idea.
func (a *API) handleGenerateSchema(c *gin.Context) {
	var payload struct {
		Transcript string                     `json:"transcript"`
		Segments   []models.TranscriptSegment `json:"segments"`
		IdeaID     string                     `json:"ideaId"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondMessage(c, http.StatusBadRequest, err.Error())
		return
	}

	transcript := payload.Transcript
	switch {
	case payload.IdeaID != "":
		idea, err := a.repo.Get(payload.IdeaID)
		if err != nil {
			respondError(c, err)
			return
		}
		transcript = idea.Transcript()
	case len(payload.Segments) > 0:
		transcript = schema.Transcript(payload.Segments)
	}

	s, err := a.generator.Generate(c.Request.Context(), transcript)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

func (a *API) handleExportSchema(c *gin.Context) {
	var s models.GeneratedSchema
	if err := c.ShouldBindJSON(&s); err != nil {
		respondMessage(c, http.StatusBadRequest, err.Error())
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+schema.FileName(s)+`"`)
	c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(schema.Render(s)))
}

// statusFor maps the error taxonomy to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrInput):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrConfiguration):
		return http.StatusPreconditionFailed
	case errors.Is(err, models.ErrService):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"error": err.Error(), "message": models.UserMessage(err)})
}

func respondMessage(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}
