package server

import (
	"encoding/base64"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/raphaelgruber/logoforge/internal/service"
)

func (s *Server) gradeLogo(c *gin.Context) {
	l, err := s.deps.Grading.Grade(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, l)
}

func (s *Server) gradeProject(c *gin.Context) {
	job, err := s.deps.Grading.GradeProject(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, newJobResponse(job.Snapshot()))
}

func (s *Server) analyzeImage(c *gin.Context) {
	var req analyzeRequest
	if !bindJSON(c, &req) {
		return
	}
	data, err := base64.StdEncoding.DecodeString(req.Image)
	if err != nil {
		writeError(c, fmt.Errorf("%w: image: %s", service.ErrInvalidInput, err))
		return
	}
	analysis, err := s.deps.Grading.Analyze(c.Request.Context(), data)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, analysis)
}
