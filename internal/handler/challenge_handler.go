package handler

import (
	"net/http"

	"fitcommunity/internal/domain"
	"fitcommunity/internal/middleware"
	"fitcommunity/internal/service"
	"fitcommunity/pkg/location"

	"github.com/gin-gonic/gin"
)

type ChallengeHandler struct {
	svc *service.ChallengeService
}

func NewChallengeHandler(svc *service.ChallengeService) *ChallengeHandler {
	return &ChallengeHandler{svc: svc}
}

type ChallengeRequest struct {
	Title         string   `json:"title" binding:"required,max=200"`
	Description   string   `json:"description"`
	ChallengeType string   `json:"challenge_type" binding:"max=50"`
	TargetValue   float64  `json:"target_value" binding:"required,gt=0"`
	Unit          string   `json:"unit" binding:"max=30"`
	StartDate     flexTime `json:"start_date"`
	EndDate       flexTime `json:"end_date"`
	MinAge        *int     `json:"min_age" binding:"omitempty,gte=0,lte=150"`
	MaxAge        *int     `json:"max_age" binding:"omitempty,gte=0,lte=150"`
	Location      string   `json:"location" binding:"max=255"`
	Latitude      *float64 `json:"latitude"`
	Longitude     *float64 `json:"longitude"`
}

func (r *ChallengeRequest) input() service.ChallengeInput {
	return service.ChallengeInput{
		Title:         r.Title,
		Description:   r.Description,
		ChallengeType: r.ChallengeType,
		TargetValue:   r.TargetValue,
		Unit:          r.Unit,
		StartDate:     r.StartDate.Time,
		EndDate:       r.EndDate.Time,
		MinAge:        r.MinAge,
		MaxAge:        r.MaxAge,
		Location:      r.Location,
		Latitude:      r.Latitude,
		Longitude:     r.Longitude,
	}
}

func (h *ChallengeHandler) Create(c *gin.Context) {
	var req ChallengeRequest
	if !bind(c, &req) {
		return
	}
	v, err := h.svc.Create(c.Request.Context(), middleware.GetUserID(c), req.input())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, v)
}

func (h *ChallengeHandler) Update(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req ChallengeRequest
	if !bind(c, &req) {
		return
	}
	v, err := h.svc.Update(c.Request.Context(), middleware.GetUserID(c), id, req.input())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

func (h *ChallengeHandler) Delete(c *gin.Context) {
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

func searchParams(c *gin.Context) (service.SearchParams, error) {
	var p service.SearchParams
	var err error
	if p.IsActive, err = queryBool(c, "is_active"); err != nil {
		return p, err
	}
	if p.Participating, err = queryBool(c, "user_participating"); err != nil {
		return p, err
	}
	if p.MinAge, err = queryInt(c, "min_age"); err != nil {
		return p, err
	}
	if p.MaxAge, err = queryInt(c, "max_age"); err != nil {
		return p, err
	}
	if p.RadiusKm, err = queryFloat(c, "radius_km"); err != nil {
		return p, err
	}
	p.Location = c.Query("location")
	p.Limit, p.Offset = page(c, 50, 200)
	return p, nil
}

// Search implements GET /challenges with the optional filters is_active,
// user_participating, min_age, max_age, location and radius_km.
func (h *ChallengeHandler) Search(c *gin.Context) {
	p, err := searchParams(c)
	if err != nil {
		respondError(c, err)
		return
	}
	list, err := h.svc.Search(c.Request.Context(), middleware.GetUserID(c), p)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"challenges": list, "count": len(list)})
}

func (h *ChallengeHandler) Nearby(c *gin.Context) {
	lat, err := queryFloat(c, "lat")
	if err != nil {
		respondError(c, err)
		return
	}
	lng, err := queryFloat(c, "lng")
	if err != nil {
		respondError(c, err)
		return
	}
	if lat == nil || lng == nil {
		respondError(c, domain.Invalid("lat and lng are required"))
		return
	}
	center := location.Point{Lat: *lat, Lng: *lng}
	if !center.Valid() {
		respondError(c, domain.Invalid("lat must be within [-90, 90] and lng within [-180, 180]"))
		return
	}
	radius, err := queryFloat(c, "radius_km")
	if err != nil {
		respondError(c, err)
		return
	}
	r := 0.0
	if radius != nil {
		if *radius <= 0 {
			respondError(c, domain.Invalid("radius_km must be a positive number"))
			return
		}
		r = *radius
	}
	list, err := h.svc.Nearby(middleware.GetUserID(c), center, r)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"challenges": list, "count": len(list)})
}

func (h *ChallengeHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	v, err := h.svc.Detail(middleware.GetUserID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

func (h *ChallengeHandler) Join(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	p, err := h.svc.Join(middleware.GetUserID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *ChallengeHandler) Leave(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Leave(middleware.GetUserID(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ChallengeHandler) Progress(c *gin.Context) {
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
	res, err := h.svc.AddProgress(c.Request.Context(), middleware.GetUserID(c), id, req.Increment)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *ChallengeHandler) Leaderboard(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	board, err := h.svc.Leaderboard(middleware.GetUserID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"leaderboard": board})
}

func (h *ChallengeHandler) CheckEnded(c *gin.Context) {
	n, err := h.svc.CheckEnded(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ended": n})
}
