package httpapi

import (
	"errors"
	"io"
	"net/http"

	"github.com/filedrop/filedrop/internal/common"
	"github.com/filedrop/filedrop/internal/server/models"
	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string    `json:"access_token"`
	User        loginUser `json:"user"`
}

type loginUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Username == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
		return
	}

	res, err := s.users.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		s.logger.Error(c.Request.Context(), "login failed", "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, loginResponse{
		AccessToken: res.AccessToken,
		User:        loginUser{ID: res.UserID, Username: res.UserName},
	})
}

func (s *Server) handleUpload(c *gin.Context) {
	ownerID, ok := userIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no file uploaded"})
		return
	}
	if fileHeader.Size > s.maxUploadSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file exceeds the 10MB limit"})
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable upload"})
		return
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, s.maxUploadSize+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable upload"})
		return
	}
	if int64(len(data)) > s.maxUploadSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file exceeds the 10MB limit"})
		return
	}

	rec, err := s.files.Upload(c.Request.Context(), ownerID, fileHeader.Filename, fileHeader.Header.Get("Content-Type"), data)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, rec)
}

type uploadURLRequest struct {
	Filename string `json:"filename"`
	MimeType string `json:"mimeType"`
}

type uploadURLResponse struct {
	UploadURL string           `json:"uploadUrl"`
	File      *models.FileInfo `json:"file"`
}

func (s *Server) handleUploadURL(c *gin.Context) {
	ownerID, ok := userIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
		return
	}

	var req uploadURLRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Filename == "" || req.MimeType == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "filename and mimeType are required"})
		return
	}

	url, rec, err := s.files.CreateUploadURL(c.Request.Context(), ownerID, req.Filename, req.MimeType)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, uploadURLResponse{UploadURL: url, File: rec})
}

type completeUploadRequest struct {
	Size int64 `json:"size"`
}

func (s *Server) handleCompleteUpload(c *gin.Context) {
	if _, ok := userIDFromContext(c); !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
		return
	}

	var req completeUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "size is required"})
		return
	}

	// Best-effort: an unknown id is ignored on purpose.
	s.files.FinalizeSize(c.Request.Context(), c.Param("id"), req.Size)
	c.Status(http.StatusNoContent)
}

func (s *Server) handleList(c *gin.Context) {
	ownerID, ok := userIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
		return
	}

	list := s.files.List(ownerID)
	if list == nil {
		list = []models.FileInfo{}
	}
	c.JSON(http.StatusOK, list)
}

func (s *Server) handleDownloadURL(c *gin.Context) {
	ownerID, ok := userIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
		return
	}

	url, err := s.files.DownloadURL(c.Request.Context(), c.Param("id"), ownerID)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"downloadUrl": url})
}

func (s *Server) handleDelete(c *gin.Context) {
	ownerID, ok := userIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
		return
	}

	if err := s.files.Delete(c.Request.Context(), c.Param("id"), ownerID); err != nil {
		s.writeError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// writeError maps the sentinel error taxonomy to HTTP status codes.
func (s *Server) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, common.ErrorUnsupportedMediaType):
		c.JSON(http.StatusBadRequest, gin.H{"error": "File type not allowed. Allowed types: PDF, JPG, PNG, TXT"})
	case errors.Is(err, common.ErrorFileTooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file exceeds the 10MB limit"})
	case errors.Is(err, common.ErrorNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
	case errors.Is(err, common.ErrorUploadFailed), errors.Is(err, common.ErrorDeleteFailed):
		s.logger.Error(c.Request.Context(), "backing store error", "error", err.Error())
		c.JSON(http.StatusBadGateway, gin.H{"error": "storage temporarily unavailable"})
	default:
		s.logger.Error(c.Request.Context(), "unexpected error", "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
