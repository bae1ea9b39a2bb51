package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/raphaelgruber/logoforge/internal/models"
)

func (s *Server) extractBrief(c *gin.Context) {
	var req extractBriefRequest
	if !bindJSON(c, &req) {
		return
	}
	brief, gaps, err := s.deps.Projects.ExtractBrief(c.Request.Context(), req.Text)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, extractBriefResponse{CompanyBrief: brief, Gaps: nonNil(gaps)})
}

func (s *Server) listProjects(c *gin.Context) {
	projects, err := s.deps.Projects.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(projects))
}

func (s *Server) createProject(c *gin.Context) {
	var req createProjectRequest
	if !bindJSON(c, &req) {
		return
	}
	p, err := s.deps.Projects.Create(c.Request.Context(), req.Name, req.CompanyBrief)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (s *Server) getProject(c *gin.Context) {
	p, err := s.deps.Projects.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) updateProject(c *gin.Context) {
	var req updateProjectRequest
	if !bindJSON(c, &req) {
		return
	}
	p, err := s.deps.Projects.Update(c.Request.Context(), c.Param("id"), models.ProjectUpdate{
		Name:          req.Name,
		CompanyBrief:  req.CompanyBrief,
		PhaseProgress: req.PhaseProgress,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) selectWinner(c *gin.Context) {
	var req winnerRequest
	if !bindJSON(c, &req) {
		return
	}
	p, err := s.deps.Projects.SelectWinner(c.Request.Context(), c.Param("id"), req.LogoID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) listDirections(c *gin.Context) {
	dirs, err := s.deps.Projects.Directions(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(dirs))
}

func (s *Server) proposeDirections(c *gin.Context) {
	var req proposeDirectionsRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}
	dirs, err := s.deps.Projects.ProposeDirections(c.Request.Context(), c.Param("id"), req.Competitors)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(dirs))
}

func (s *Server) selectDirection(c *gin.Context) {
	var req selectDirectionRequest
	if !bindJSON(c, &req) {
		return
	}
	d, err := s.deps.Projects.SelectDirection(c.Request.Context(), c.Param("id"), *req.Selected)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (s *Server) listLogos(c *gin.Context) {
	logos, err := s.deps.Projects.Logos(c.Request.Context(), c.Param("id"), includeArchived(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(logos))
}

func (s *Server) getLogo(c *gin.Context) {
	l, err := s.deps.Projects.Logo(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, l)
}

func (s *Server) updateLogo(c *gin.Context) {
	var req updateLogoRequest
	if !bindJSON(c, &req) {
		return
	}
	l, err := s.deps.Projects.UpdateLogo(c.Request.Context(), c.Param("id"), models.LogoUpdate{
		IsFavorite: req.IsFavorite,
		IsArchived: req.IsArchived,
		Scores:     req.Scores,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, l)
}

func includeArchived(c *gin.Context) bool {
	v, _ := strconv.ParseBool(c.Query("include_archived"))
	return v
}
