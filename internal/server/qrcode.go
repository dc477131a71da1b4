package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	qrdomain "github.com/smallbiznis/breakeven/internal/qrcode/domain"
)

type updateTargetRequest struct {
	URL string `json:"url"`
}

func (s *Server) GetQRCode(c *gin.Context) {
	view, err := s.qrSvc.GetBinding(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": view})
}

func (s *Server) UpdateQRTarget(c *gin.Context) {
	var req updateTargetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	view, err := s.qrSvc.SetTargetURL(c.Request.Context(), req.URL)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": view})
}

func (s *Server) ClearQROverride(c *gin.Context) {
	view, err := s.qrSvc.ClearOverride(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": view})
}

func (s *Server) ResetQRCounters(c *gin.Context) {
	view, err := s.qrSvc.ResetCounters(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": view})
}

func (s *Server) GenerateQRCode(c *gin.Context) {
	var req qrdomain.ImageRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			AbortWithError(c, invalidRequestError())
			return
		}
	}

	img, err := s.qrSvc.Generate(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", img.Filename))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, img.ContentType, img.Body)
}

func (s *Server) QRPoster(c *gin.Context) {
	body, err := s.qrSvc.Poster(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="qr-poster.pdf"`)
	c.Data(http.StatusOK, "application/pdf", body)
}

// RecordQRScan is public: printed codes point here before redirecting
// visitors to the target.
func (s *Server) RecordQRScan(c *gin.Context) {
	var req qrdomain.ScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.UserAgent = c.Request.UserAgent()
	req.IPAddress = c.ClientIP()

	result, err := s.qrSvc.Scan(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}
