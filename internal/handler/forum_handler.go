package handler

import (
	"net/http"

	"fitcommunity/internal/middleware"
	"fitcommunity/internal/service"

	"github.com/gin-gonic/gin"
)

type ForumHandler struct {
	svc      *service.ForumService
	profiles *service.ProfileService
}

func NewForumHandler(svc *service.ForumService, profiles *service.ProfileService) *ForumHandler {
	return &ForumHandler{svc: svc, profiles: profiles}
}

type contentRequest struct {
	Content string `json:"content" binding:"required,max=10000"`
}

// Forums

func (h *ForumHandler) ListForums(c *gin.Context) {
	list, err := h.svc.ListForums()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"forums": list})
}

func (h *ForumHandler) GetForum(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	f, err := h.svc.GetForum(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, f)
}

func (h *ForumHandler) CreateForum(c *gin.Context) {
	var req struct {
		Title       string `json:"title" binding:"required,max=150"`
		Description string `json:"description"`
	}
	if !bind(c, &req) {
		return
	}
	f, err := h.svc.CreateForum(middleware.GetUserID(c), req.Title, req.Description)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, f)
}

// Threads

func (h *ForumHandler) ListThreads(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	limit, offset := page(c, 20, 100)
	list, err := h.svc.ListThreads(id, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"threads": list})
}

func (h *ForumHandler) CreateThread(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Title   string `json:"title" binding:"required,max=255"`
		Content string `json:"content" binding:"required"`
	}
	if !bind(c, &req) {
		return
	}
	t, err := h.svc.CreateThread(middleware.GetUserID(c), id, service.ThreadInput{Title: req.Title, Content: req.Content})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, t)
}

func (h *ForumHandler) GetThread(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	t, err := h.svc.ViewThread(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *ForumHandler) UpdateThread(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Title    string `json:"title" binding:"max=255"`
		Content  string `json:"content"`
		IsPinned *bool  `json:"is_pinned"`
		IsLocked *bool  `json:"is_locked"`
	}
	if !bind(c, &req) {
		return
	}
	t, err := h.svc.UpdateThread(middleware.GetUserID(c), middleware.GetRole(c), id, service.ThreadInput{
		Title: req.Title, Content: req.Content, IsPinned: req.IsPinned, IsLocked: req.IsLocked,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *ForumHandler) DeleteThread(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteThread(middleware.GetUserID(c), middleware.GetRole(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// UploadThreadImage attaches a multipart "file" to the author's thread.
func (h *ForumHandler) UploadThreadImage(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	userID := middleware.GetUserID(c)
	if _, err := h.svc.ThreadAuthor(userID, id); err != nil {
		respondError(c, err)
		return
	}
	f, ok := formImage(c)
	if !ok {
		return
	}
	defer f.Close()
	url, err := h.profiles.UploadThreadImage(c.Request.Context(), userID, id, f)
	if err != nil {
		respondError(c, err)
		return
	}
	t, err := h.svc.SetThreadImage(userID, id, url)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

// Comments

func (h *ForumHandler) ListComments(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	limit, offset := page(c, 50, 200)
	list, err := h.svc.ListComments(id, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"comments": list})
}

func (h *ForumHandler) CreateComment(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req contentRequest
	if !bind(c, &req) {
		return
	}
	cm, err := h.svc.CreateComment(c.Request.Context(), middleware.GetUserID(c), id, req.Content)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, cm)
}

func (h *ForumHandler) UpdateComment(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req contentRequest
	if !bind(c, &req) {
		return
	}
	cm, err := h.svc.UpdateComment(middleware.GetUserID(c), id, req.Content)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cm)
}

func (h *ForumHandler) DeleteComment(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteComment(middleware.GetUserID(c), middleware.GetRole(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Subcomments

func (h *ForumHandler) ListSubcomments(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	list, err := h.svc.ListSubcomments(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"subcomments": list})
}

func (h *ForumHandler) CreateSubcomment(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req contentRequest
	if !bind(c, &req) {
		return
	}
	sc, err := h.svc.CreateSubcomment(c.Request.Context(), middleware.GetUserID(c), id, req.Content)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sc)
}

func (h *ForumHandler) UpdateSubcomment(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req contentRequest
	if !bind(c, &req) {
		return
	}
	sc, err := h.svc.UpdateSubcomment(middleware.GetUserID(c), id, req.Content)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sc)
}

func (h *ForumHandler) DeleteSubcomment(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteSubcomment(middleware.GetUserID(c), middleware.GetRole(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
