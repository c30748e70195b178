package handler

import (
	"net/http"

	"fitcommunity/internal/service"

	"github.com/gin-gonic/gin"
)

type AssistantHandler struct {
	svc *service.AssistantService
}

func NewAssistantHandler(svc *service.AssistantService) *AssistantHandler {
	return &AssistantHandler{svc: svc}
}

func (h *AssistantHandler) Quote(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Quote(c.Request.Context()))
}

func (h *AssistantHandler) CatFact(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.CatFact(c.Request.Context()))
}

func (h *AssistantHandler) Gifs(c *gin.Context) {
	limit, _ := page(c, 10, 50)
	list, err := h.svc.Gifs(c.Request.Context(), c.Query("q"), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"gifs": list})
}

func (h *AssistantHandler) Exercises(c *gin.Context) {
	limit, _ := page(c, 20, 100)
	res, err := h.svc.Exercises(c.Request.Context(), c.Query("body_part"), c.Query("name"), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *AssistantHandler) BodyParts(c *gin.Context) {
	parts, err := h.svc.BodyParts(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"body_parts": parts})
}

func (h *AssistantHandler) Tutor(c *gin.Context) {
	var req struct {
		Question string `json:"question" binding:"required"`
	}
	if !bind(c, &req) {
		return
	}
	answer, err := h.svc.Tutor(c.Request.Context(), req.Question)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"answer": answer})
}

func (h *AssistantHandler) Advice(c *gin.Context) {
	var req struct {
		Topic string `json:"topic" binding:"required"`
	}
	if !bind(c, &req) {
		return
	}
	advice, err := h.svc.Advice(c.Request.Context(), req.Topic)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"advice": advice})
}
