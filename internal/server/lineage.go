package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) tree(c *gin.Context) {
	tree, err := s.deps.Lineage.Tree(c.Request.Context(), c.Param("id"), includeArchived(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, tree)
}

func (s *Server) timeline(c *gin.Context) {
	logos, err := s.deps.Lineage.Timeline(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(logos))
}

func (s *Server) flow(c *gin.Context) {
	flow, err := s.deps.Lineage.Flow(c.Request.Context(), c.Param("id"), includeArchived(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, flow)
}

func (s *Server) ancestors(c *gin.Context) {
	logos, err := s.deps.Lineage.Ancestors(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(logos))
}

func (s *Server) descendants(c *gin.Context) {
	logos, err := s.deps.Lineage.Descendants(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(logos))
}

// nonNil keeps empty lists encoding as [] rather than null.
func nonNil[T any](v []T) []T {
	if v == nil {
		return []T{}
	}
	return v
}
