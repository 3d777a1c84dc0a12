package mentor

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mentorlink/mentor-api/internal/middleware"
	"github.com/mentorlink/mentor-api/internal/model"
	"github.com/mentorlink/mentor-api/internal/service/mentor"
	apperrors "github.com/mentorlink/mentor-api/pkg/errors"
	"github.com/mentorlink/mentor-api/pkg/httputil"
)

type Handler struct {
	service *mentor.Service
}

func NewHandler(service *mentor.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) ListVerified(c *gin.Context) {
	var p model.Pagination
	if err := c.ShouldBindQuery(&p); err != nil {
		httputil.RespondWithError(c, apperrors.Validation(err.Error()))
		return
	}

	mentors, err := h.service.ListVerified(c.Request.Context(), p)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, mentors)
}

func (h *Handler) ListFeedback(c *gin.Context) {
	mentorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.Validation("invalid mentor ID"))
		return
	}

	var p model.Pagination
	if err := c.ShouldBindQuery(&p); err != nil {
		httputil.RespondWithError(c, apperrors.Validation(err.Error()))
		return
	}

	items, err := h.service.ListFeedback(c.Request.Context(), mentorID, p)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, items)
}

func (h *Handler) SetVerification(c *gin.Context) {
	adminID, ok := middleware.CurrentUserID(c)
	if !ok {
		httputil.RespondWithError(c, apperrors.Authorization("not authenticated"))
		return
	}

	mentorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.Validation("invalid mentor ID"))
		return
	}

	var req model.SetVerificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.Validation(err.Error()))
		return
	}

	updated, err := h.service.SetVerification(c.Request.Context(), mentorID, req.Verified, adminID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	updated.PasswordHash = ""
	httputil.RespondWithSuccess(c, updated)
}

func (h *Handler) RegisterPublicRoutes(r *gin.RouterGroup) {
	mentors := r.Group("/mentors")
	{
		mentors.GET("", h.ListVerified)
		mentors.GET("/:id/feedback", h.ListFeedback)
	}
}

func (h *Handler) RegisterAdminRoutes(r *gin.RouterGroup, authMw *middleware.AuthMiddleware) {
	mentors := r.Group("/mentors")
	{
		mentors.POST("/:id/verify", authMw.RequireAdmin(), h.SetVerification)
	}
}
