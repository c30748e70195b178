package handler

import (
	"net/http"

	"fitcommunity/internal/middleware"
	"fitcommunity/internal/service"

	"github.com/gin-gonic/gin"
)

type MeHandler struct {
	profiles *service.ProfileService
}

func NewMeHandler(profiles *service.ProfileService) *MeHandler {
	return &MeHandler{profiles: profiles}
}

type UpdateProfileRequest struct {
	FirstName   *string   `json:"first_name" binding:"omitempty,max=100"`
	LastName    *string   `json:"last_name" binding:"omitempty,max=100"`
	Bio         *string   `json:"bio" binding:"omitempty,max=2000"`
	DateOfBirth *flexTime `json:"date_of_birth"`
	Gender      *string   `json:"gender" binding:"omitempty,max=20"`
	HeightCm    *float64  `json:"height_cm"`
	WeightKg    *float64  `json:"weight_kg"`
	Location    *string   `json:"location" binding:"omitempty,max=255"`
}

func (h *MeHandler) Get(c *gin.Context) {
	p, err := h.profiles.Me(middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *MeHandler) Update(c *gin.Context) {
	var req UpdateProfileRequest
	if !bind(c, &req) {
		return
	}
	p, err := h.profiles.Update(middleware.GetUserID(c), service.ProfileInput{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Bio:         req.Bio,
		DateOfBirth: req.DateOfBirth.ptr(),
		Gender:      req.Gender,
		HeightCm:    req.HeightCm,
		WeightKg:    req.WeightKg,
		Location:    req.Location,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// UploadAvatar takes a multipart "file" field.
func (h *MeHandler) UploadAvatar(c *gin.Context) {
	f, ok := formImage(c)
	if !ok {
		return
	}
	defer f.Close()
	p, err := h.profiles.SetAvatar(c.Request.Context(), middleware.GetUserID(c), f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *MeHandler) RegisterFCMToken(c *gin.Context) {
	var req struct {
		Token string `json:"token" binding:"required"`
	}
	if !bind(c, &req) {
		return
	}
	if err := h.profiles.SetFCMToken(middleware.GetUserID(c), req.Token); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Public profiles and directory

func (h *MeHandler) GetUser(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	p, err := h.profiles.Public(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *MeHandler) SearchUsers(c *gin.Context) {
	limit, _ := page(c, 20, 50)
	list, err := h.profiles.Search(c.Query("search"), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": list})
}

func (h *MeHandler) Coaches(c *gin.Context) {
	limit, offset := page(c, 20, 100)
	list, err := h.profiles.Coaches(limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"coaches": list})
}
