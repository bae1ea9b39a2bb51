package server

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/raphaelgruber/logoforge/internal/models"
	"github.com/raphaelgruber/logoforge/internal/service"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPingPeriod = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local dev
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

func (s *Server) generate(c *gin.Context) {
	job, err := s.deps.Generation.EngineerAndStart(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, newJobResponse(job.Snapshot()))
}

func (s *Server) startBatch(c *gin.Context) {
	var req batchRequest
	if !bindJSON(c, &req) {
		return
	}
	tasks := make([]models.Task, len(req.Tasks))
	for i, t := range req.Tasks {
		tasks[i] = t.task()
	}
	job, err := s.deps.Generation.StartBatch(c.Request.Context(), c.Param("id"), tasks)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, newJobResponse(job.Snapshot()))
}

func (s *Server) branch(c *gin.Context) {
	var req branchRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}
	job, err := s.deps.Refinement.Branch(c.Request.Context(), c.Param("id"), req.Instruction)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, newJobResponse(job.Snapshot()))
}

func (s *Server) refine(c *gin.Context) {
	var req refineRequest
	if !bindJSON(c, &req) {
		return
	}
	logo, err := s.deps.Refinement.Refine(c.Request.Context(), c.Param("id"), req.Instruction)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, logo)
}

func (s *Server) improve(c *gin.Context) {
	var req improveRequest
	if !bindJSON(c, &req) {
		return
	}
	in := service.ImproveInput{LogoID: req.LogoID, Weaknesses: req.Weaknesses}
	if req.Image != "" {
		data, err := base64.StdEncoding.DecodeString(req.Image)
		if err != nil {
			writeError(c, fmt.Errorf("%w: image: %s", service.ErrInvalidInput, err))
			return
		}
		in.Image = data
	}
	job, err := s.deps.Refinement.Improve(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, newJobResponse(job.Snapshot()))
}

func (s *Server) listJobs(c *gin.Context) {
	limit := 20
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(c, fmt.Errorf("%w: limit must be a non-negative integer", service.ErrInvalidInput))
			return
		}
		limit = n
	}
	jobs, err := s.deps.Jobs.ListJobs(c.Request.Context(), c.Query("project_id"), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]jobResponse, len(jobs))
	for i, j := range jobs {
		out[i] = newJobResponse(j)
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) getJob(c *gin.Context) {
	job, err := s.deps.Jobs.Lookup(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newJobResponse(job))
}

func (s *Server) cancelJob(c *gin.Context) {
	if !s.deps.Jobs.Cancel(c.Param("id")) {
		writeError(c, fmt.Errorf("job %s is not running: %w", c.Param("id"), service.ErrNotFound))
		return
	}
	c.Status(http.StatusNoContent)
}

// watchJob streams job snapshots over a websocket until the job finishes.
// Jobs from an earlier server run get their stored state once.
func (s *Server) watchJob(c *gin.Context) {
	id := c.Param("id")
	updates, unsubscribe, err := s.deps.Jobs.Subscribe(id)
	if err != nil {
		stored, lookupErr := s.deps.Jobs.Lookup(c.Request.Context(), id)
		if lookupErr != nil {
			writeError(c, lookupErr)
			return
		}
		ch := make(chan models.BatchJob, 1)
		ch <- stored
		close(ch)
		updates, unsubscribe = ch, func() {}
	}
	defer unsubscribe()

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn("failed to upgrade websocket", "job_id", id, "error", err)
		return
	}
	defer ws.Close()

	// Reads only detect the client going away.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(wsPingPeriod)
	defer ping.Stop()

	for {
		select {
		case snap, ok := <-updates:
			if !ok {
				_ = ws.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "job finished"),
					time.Now().Add(wsWriteWait))
				return
			}
			_ = ws.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := ws.WriteJSON(newJobResponse(snap)); err != nil {
				s.logger.Debug("websocket write failed", "job_id", id, "error", err)
				return
			}
		case <-ping.C:
			if err := ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return
			}
		case <-gone:
			return
		case <-c.Request.Context().Done():
			return
		}
	}
}
