package handler

import (
	"net/http"
	"strconv"

	"fitcommunity/internal/middleware"
	"fitcommunity/internal/service"

	"github.com/gin-gonic/gin"
)

type ChatHandler struct {
	svc *service.ChatService
}

func NewChatHandler(svc *service.ChatService) *ChatHandler {
	return &ChatHandler{svc: svc}
}

func (h *ChatHandler) Create(c *gin.Context) {
	var req struct {
		Title          string `json:"title" binding:"max=150"`
		ParticipantIDs []uint `json:"participant_ids" binding:"required,min=1"`
	}
	if !bind(c, &req) {
		return
	}
	chat, err := h.svc.Create(middleware.GetUserID(c), req.Title, req.ParticipantIDs)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, chat)
}

func (h *ChatHandler) List(c *gin.Context) {
	limit, offset := page(c, 20, 100)
	list, err := h.svc.List(middleware.GetUserID(c), limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"chats": list})
}

// Messages pages backwards with ?before=<message id>.
func (h *ChatHandler) Messages(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	before, _ := strconv.ParseUint(c.Query("before"), 10, 64)
	limit, _ := page(c, 50, 200)
	list, err := h.svc.Messages(middleware.GetUserID(c), id, uint(before), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": list})
}

func (h *ChatHandler) Send(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Content  string `json:"content" binding:"max=5000"`
		MediaURL string `json:"media_url" binding:"omitempty,url,max=512"`
	}
	if !bind(c, &req) {
		return
	}
	m, err := h.svc.Send(c.Request.Context(), middleware.GetUserID(c), id, req.Content, req.MediaURL)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, m)
}
