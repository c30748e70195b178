package handler

import (
	"net/http"

	"fitcommunity/internal/middleware"
	"fitcommunity/internal/models"
	"fitcommunity/internal/service"

	"github.com/gin-gonic/gin"
)

type MentorHandler struct {
	svc *service.MentorService
}

func NewMentorHandler(svc *service.MentorService) *MentorHandler {
	return &MentorHandler{svc: svc}
}

func (h *MentorHandler) Request(c *gin.Context) {
	var req struct {
		TargetUserID uint `json:"target_user_id" binding:"required"`
	}
	if !bind(c, &req) {
		return
	}
	m, err := h.svc.Request(c.Request.Context(), middleware.GetUserID(c), req.TargetUserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, m)
}

func (h *MentorHandler) Accept(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	m, err := h.svc.Accept(c.Request.Context(), middleware.GetUserID(c), id)
	h.respond(c, m, err)
}

func (h *MentorHandler) Reject(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	m, err := h.svc.Reject(middleware.GetUserID(c), id)
	h.respond(c, m, err)
}

func (h *MentorHandler) Terminate(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	m, err := h.svc.Terminate(middleware.GetUserID(c), id)
	h.respond(c, m, err)
}

func (h *MentorHandler) respond(c *gin.Context, m *models.MentorRelationship, err error) {
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (h *MentorHandler) Mentors(c *gin.Context) {
	h.list(c, "mentors", h.svc.Mentors)
}

func (h *MentorHandler) Mentees(c *gin.Context) {
	h.list(c, "mentees", h.svc.Mentees)
}

func (h *MentorHandler) Pending(c *gin.Context) {
	h.list(c, "requests", h.svc.Pending)
}

func (h *MentorHandler) list(c *gin.Context, key string, fn func(uint) ([]models.MentorRelationship, error)) {
	list, err := fn(middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{key: list})
}
