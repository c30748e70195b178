package handler

import (
	"mime/multipart"
	"net/http"

	"fitcommunity/internal/domain"
	"fitcommunity/internal/middleware"

	"github.com/gin-gonic/gin"
)

const maxImageBytes = 8 << 20

// formImage opens the multipart "file" field. The caller closes the file.
func formImage(c *gin.Context) (multipart.File, bool) {
	fh, err := c.FormFile("file")
	if err != nil {
		respondError(c, domain.Invalid("file required"))
		return nil, false
	}
	if fh.Size > maxImageBytes {
		respondError(c, domain.Invalid("file too large"))
		return nil, false
	}
	f, err := fh.Open()
	if err != nil {
		respondError(c, domain.Invalid("could not read file"))
		return nil, false
	}
	return f, true
}

// UploadMedia stores an image for a chat and returns its URL for a following send.
func (h *ChatHandler) UploadMedia(c *gin.Context) {
	chatID, ok := paramID(c, "id")
	if !ok {
		return
	}
	f, ok := formImage(c)
	if !ok {
		return
	}
	defer f.Close()
	res, err := h.svc.UploadMedia(c.Request.Context(), middleware.GetUserID(c), chatID, f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
