package appointment

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mentorlink/mentor-api/internal/middleware"
	"github.com/mentorlink/mentor-api/internal/model"
	"github.com/mentorlink/mentor-api/internal/service/appointment"
	"github.com/mentorlink/mentor-api/internal/service/rbac"
	apperrors "github.com/mentorlink/mentor-api/pkg/errors"
	"github.com/mentorlink/mentor-api/pkg/httputil"
)

type Handler struct {
	service *appointment.Service
	rbacSvc *rbac.Service
}

func NewHandler(service *appointment.Service, rbacSvc *rbac.Service) *Handler {
	return &Handler{service: service, rbacSvc: rbacSvc}
}

func (h *Handler) Book(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		httputil.RespondWithError(c, apperrors.Authorization("not authenticated"))
		return
	}

	var req model.BookAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.Validation(err.Error()))
		return
	}

	apt, err := h.service.Book(c.Request.Context(), userID, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithCreated(c, apt)
}

func (h *Handler) Confirm(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		httputil.RespondWithError(c, apperrors.Authorization("not authenticated"))
		return
	}

	aptID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.Validation("invalid appointment ID"))
		return
	}

	// mentor_notes is the only field and it is optional, so the body may
	// be omitted entirely.
	var req model.ConfirmAppointmentRequest
	if err := httputil.BindOptionalJSON(c, &req); err != nil {
		httputil.RespondWithError(c, apperrors.Validation(err.Error()))
		return
	}

	result, err := h.service.Confirm(c.Request.Context(), userID, aptID, req.MentorNotes)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, result)
}

func (h *Handler) Cancel(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		httputil.RespondWithError(c, apperrors.Authorization("not authenticated"))
		return
	}

	aptID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.Validation("invalid appointment ID"))
		return
	}

	var req model.CancelAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.Validation("cancellation reason is required"))
		return
	}

	result, err := h.service.Cancel(c.Request.Context(), userID, aptID, req.Reason)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, result)
}

func (h *Handler) SubmitFeedback(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		httputil.RespondWithError(c, apperrors.Authorization("not authenticated"))
		return
	}

	aptID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.Validation("invalid appointment ID"))
		return
	}

	var req model.SubmitFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.Validation(err.Error()))
		return
	}

	apt, err := h.service.Complete(c.Request.Context(), userID, aptID, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, apt)
}

func (h *Handler) Get(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		httputil.RespondWithError(c, apperrors.Authorization("not authenticated"))
		return
	}

	aptID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.Validation("invalid appointment ID"))
		return
	}

	apt, err := h.service.Get(c.Request.Context(), userID, aptID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, apt)
}

func (h *Handler) List(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		httputil.RespondWithError(c, apperrors.Authorization("not authenticated"))
		return
	}

	role, err := h.rbacSvc.ResolveRole(c.Request.Context(), userID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	status := model.AppointmentStatus(c.Query("status"))
	appointments, err := h.service.ListForActor(c.Request.Context(), userID, role, status)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, appointments)
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, authMw *middleware.AuthMiddleware) {
	appointments := r.Group("/appointments")
	{
		appointments.POST("", authMw.RequirePermission(model.PermBookSession), h.Book)
		appointments.GET("", h.List)
		appointments.GET("/:id", h.Get)
		appointments.POST("/:id/confirm", authMw.RequirePermission(model.PermConfirmSession), h.Confirm)
		appointments.POST("/:id/cancel", authMw.RequirePermission(model.PermCancelSession), h.Cancel)
		appointments.POST("/:id/feedback", authMw.RequirePermission(model.PermSubmitFeedback), h.SubmitFeedback)
	}
}
