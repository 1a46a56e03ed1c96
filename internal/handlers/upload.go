package handlers

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// maxImageSize caps uploads at 5 MB.
const maxImageSize = 5 << 20

// UploadHandler stores chat images and hands back a stable URL. The chat
// core only ever carries that URL as message content with the image flag
// set.
type UploadHandler struct {
	dir string
}

// NewUploadHandler ensures the upload directory exists.
func NewUploadHandler(dir string) (*UploadHandler, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &UploadHandler{dir: dir}, nil
}

// Handle accepts a multipart image and returns its serving path.
func (h *UploadHandler) Handle(c *gin.Context) {
	file, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "no image file"})
		return
	}
	if file.Size > maxImageSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"success": false, "message": "image exceeds 5MB limit"})
		return
	}
	if !strings.HasPrefix(file.Header.Get("Content-Type"), "image/") {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "only image files are allowed"})
		return
	}

	filename := uuid.NewString() + filepath.Ext(file.Filename)
	if err := c.SaveUploadedFile(file, filepath.Join(h.dir, filename)); err != nil {
		logrus.WithError(err).Error("store uploaded image")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "could not store image"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"imageUrl": "/uploads/" + filename,
	})
}
