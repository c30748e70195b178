package handler

import (
	"net/http"

	"fitcommunity/internal/domain"
	"fitcommunity/internal/middleware"
	"fitcommunity/internal/service"

	"github.com/gin-gonic/gin"
)

type VoteHandler struct {
	svc *service.VoteService
}

func NewVoteHandler(svc *service.VoteService) *VoteHandler {
	return &VoteHandler{svc: svc}
}

type CastVoteRequest struct {
	ContentType string `json:"content_type" binding:"required"`
	ObjectID    uint   `json:"object_id" binding:"required"`
	VoteType    string `json:"vote_type" binding:"required,oneof=UPVOTE DOWNVOTE"`
}

func (h *VoteHandler) Cast(c *gin.Context) {
	var req CastVoteRequest
	if !bind(c, &req) {
		return
	}
	ct, err := domain.ParseContentType(req.ContentType)
	if err != nil {
		respondError(c, err)
		return
	}
	st, err := h.svc.Cast(c.Request.Context(), middleware.GetUserID(c), domain.ContentRef{Type: ct, ID: req.ObjectID}, req.VoteType)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func contentRef(c *gin.Context) (domain.ContentRef, bool) {
	ct, err := domain.ParseContentType(c.Param("content_type"))
	if err != nil {
		respondError(c, err)
		return domain.ContentRef{}, false
	}
	id, ok := paramID(c, "object_id")
	if !ok {
		return domain.ContentRef{}, false
	}
	return domain.ContentRef{Type: ct, ID: id}, true
}

func (h *VoteHandler) Remove(c *gin.Context) {
	ref, ok := contentRef(c)
	if !ok {
		return
	}
	st, err := h.svc.Remove(middleware.GetUserID(c), ref)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *VoteHandler) Get(c *gin.Context) {
	ref, ok := contentRef(c)
	if !ok {
		return
	}
	st, err := h.svc.Get(middleware.GetUserID(c), ref)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}
