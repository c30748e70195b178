package handler

import (
	"net/http"
	"strconv"

	"fitcommunity/internal/domain"
	"fitcommunity/internal/middleware"
	"fitcommunity/internal/service"

	"github.com/gin-gonic/gin"
)

type GoalHandler struct {
	svc *service.GoalService
}

func NewGoalHandler(svc *service.GoalService) *GoalHandler {
	return &GoalHandler{svc: svc}
}

type GoalRequest struct {
	UserID       uint      `json:"user_id"` // mentee when a mentor assigns the goal
	Title        string    `json:"title" binding:"required,max=200"`
	Description  string    `json:"description"`
	GoalType     string    `json:"goal_type" binding:"max=50"`
	TargetValue  float64   `json:"target_value" binding:"required,gt=0"`
	CurrentValue float64   `json:"current_value" binding:"gte=0"`
	Unit         string    `json:"unit" binding:"max=30"`
	StartDate    *flexTime `json:"start_date"`
	TargetDate   flexTime  `json:"target_date"`
	Status       string    `json:"status" binding:"omitempty,oneof=ACTIVE COMPLETED INACTIVE ABANDONED"`
}

func (r *GoalRequest) input() service.GoalInput {
	return service.GoalInput{
		Title:        r.Title,
		Description:  r.Description,
		GoalType:     r.GoalType,
		TargetValue:  r.TargetValue,
		CurrentValue: r.CurrentValue,
		Unit:         r.Unit,
		StartDate:    r.StartDate.ptr(),
		TargetDate:   r.TargetDate.Time,
		Status:       r.Status,
	}
}

func (h *GoalHandler) Create(c *gin.Context) {
	var req GoalRequest
	if !bind(c, &req) {
		return
	}
	g, err := h.svc.Create(c.Request.Context(), middleware.GetUserID(c), req.UserID, req.input())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, g)
}

// List returns my goals, or a mentee's goals with ?user_id=.
func (h *GoalHandler) List(c *gin.Context) {
	var owner uint
	if raw := c.Query("user_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			respondError(c, domain.Invalid("user_id must be an integer"))
			return
		}
		owner = uint(id)
	}
	list, err := h.svc.List(middleware.GetUserID(c), owner, c.Query("status"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"goals": list})
}

// Assigned lists goals the caller set for current mentees.
func (h *GoalHandler) Assigned(c *gin.Context) {
	list, err := h.svc.Assigned(middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"goals": list})
}

func (h *GoalHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	g, err := h.svc.Get(middleware.GetUserID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, g)
}

func (h *GoalHandler) Update(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req GoalRequest
	if !bind(c, &req) {
		return
	}
	g, err := h.svc.Update(c.Request.Context(), middleware.GetUserID(c), id, req.input())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, g)
}

func (h *GoalHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(middleware.GetUserID(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *GoalHandler) Progress(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Increment float64 `json:"increment" binding:"required,gt=0"`
	}
	if !bind(c, &req) {
		return
	}
	g, err := h.svc.AddProgress(c.Request.Context(), middleware.GetUserID(c), id, req.Increment)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, g)
}

func (h *GoalHandler) CheckInactive(c *gin.Context) {
	n, err := h.svc.CheckInactive(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deactivated": n})
}

func (h *GoalHandler) Suggestions(c *gin.Context) {
	var req struct {
		Focus string `json:"focus" binding:"max=500"`
	}
	if c.Request.ContentLength > 0 && !bind(c, &req) {
		return
	}
	out, err := h.svc.Suggest(c.Request.Context(), middleware.GetUserID(c), req.Focus)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"suggestions": out})
}
