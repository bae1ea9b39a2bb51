// Package client provides a REST client for the logoforge server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/raphaelgruber/logoforge/internal/lineage"
	"github.com/raphaelgruber/logoforge/internal/metrics"
	"github.com/raphaelgruber/logoforge/internal/models"
)

// Client talks to the logoforge HTTP API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a new client.
// If baseURL is empty, uses LOGOFORGE_SERVER_URL or defaults to localhost:8585.
// Timeout can be configured via LOGOFORGE_CLIENT_TIMEOUT (default 5m, refine
// waits for both the LLM and the image model).
func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = os.Getenv("LOGOFORGE_SERVER_URL")
	}
	if baseURL == "" {
		baseURL = "http://localhost:8585"
	}

	timeout := 5 * time.Minute
	if t := os.Getenv("LOGOFORGE_CLIENT_TIMEOUT"); t != "" {
		if d, err := time.ParseDuration(t); err == nil {
			timeout = d
		}
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server error %d: %s", e.StatusCode, e.Message)
}

// IsNotFound reports whether err is a 404 from the server.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// do sends a JSON request and decodes the response into result when non-nil.
// Non-2xx responses become *APIError carrying the server's error message.
func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	var reader io.Reader
	if body != nil {
		reqBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(reqBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errBody struct {
			Error string `json:"error"`
		}
		msg := strings.TrimSpace(string(data))
		if json.Unmarshal(data, &errBody) == nil && errBody.Error != "" {
			msg = errBody.Error
		}
		return &APIError{StatusCode: resp.StatusCode, Message: msg}
	}

	if result != nil && len(data) > 0 {
		if err := json.Unmarshal(data, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}
	return nil
}

// =============================================================================
// TYPES
// =============================================================================

// Job is a batch job with its completion percentage.
type Job struct {
	models.BatchJob
	Percent int `json:"percent"`
}

// Tree is a project's derivation forest.
type Tree struct {
	Forest []*lineage.Node `json:"forest"`
	Report lineage.Report  `json:"report"`
}

// Flow is the positioned node/edge view of a project's forest.
type Flow struct {
	Nodes []lineage.FlowNode `json:"nodes"`
	Edges []lineage.FlowEdge `json:"edges"`
}

// ProjectUpdate holds optional project changes.
type ProjectUpdate struct {
	Name          *string              `json:"name,omitempty"`
	CompanyBrief  *models.CompanyBrief `json:"company_brief,omitempty"`
	PhaseProgress *int                 `json:"phase_progress,omitempty"`
}

// LogoUpdate holds optional logo metadata changes.
type LogoUpdate struct {
	IsFavorite *bool          `json:"is_favorite,omitempty"`
	IsArchived *bool          `json:"is_archived,omitempty"`
	Scores     *models.Scores `json:"scores,omitempty"`
}

// =============================================================================
// PROJECTS
// =============================================================================

// Health checks that the server and its database respond.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil)
}

// ExtractBrief turns free text into a company brief plus the fields that
// could not be filled.
func (c *Client) ExtractBrief(ctx context.Context, text string) (models.CompanyBrief, []string, error) {
	var result struct {
		CompanyBrief models.CompanyBrief `json:"company_brief"`
		Gaps         []string            `json:"gaps"`
	}
	if err := c.do(ctx, http.MethodPost, "/v1/briefs/extract", map[string]string{"text": text}, &result); err != nil {
		return models.CompanyBrief{}, nil, err
	}
	return result.CompanyBrief, result.Gaps, nil
}

// CreateProject creates a project. An empty name uses the company name.
func (c *Client) CreateProject(ctx context.Context, name string, brief models.CompanyBrief) (*models.Project, error) {
	var p models.Project
	body := map[string]any{"name": name, "company_brief": brief}
	if err := c.do(ctx, http.MethodPost, "/v1/projects", body, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetProject retrieves a project by ID.
func (c *Client) GetProject(ctx context.Context, id string) (*models.Project, error) {
	var p models.Project
	if err := c.do(ctx, http.MethodGet, "/v1/projects/"+url.PathEscape(id), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// ListProjects lists all projects.
func (c *Client) ListProjects(ctx context.Context) ([]models.Project, error) {
	var ps []models.Project
	if err := c.do(ctx, http.MethodGet, "/v1/projects", nil, &ps); err != nil {
		return nil, err
	}
	return ps, nil
}

// UpdateProject applies the non-nil fields of upd.
func (c *Client) UpdateProject(ctx context.Context, id string, upd ProjectUpdate) (*models.Project, error) {
	var p models.Project
	if err := c.do(ctx, http.MethodPatch, "/v1/projects/"+url.PathEscape(id), upd, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// SelectWinner sets the project's winning logo; an empty logoID clears it.
func (c *Client) SelectWinner(ctx context.Context, projectID, logoID string) (*models.Project, error) {
	var p models.Project
	path := "/v1/projects/" + url.PathEscape(projectID) + "/winner"
	if err := c.do(ctx, http.MethodPut, path, map[string]string{"logo_id": logoID}, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// =============================================================================
// DIRECTIONS
// =============================================================================

// ListDirections lists a project's creative directions.
func (c *Client) ListDirections(ctx context.Context, projectID string) ([]models.Direction, error) {
	var ds []models.Direction
	if err := c.do(ctx, http.MethodGet, "/v1/projects/"+url.PathEscape(projectID)+"/directions", nil, &ds); err != nil {
		return nil, err
	}
	return ds, nil
}

// ProposeDirections replaces the project's directions with fresh proposals.
func (c *Client) ProposeDirections(ctx context.Context, projectID, competitors string) ([]models.Direction, error) {
	var ds []models.Direction
	path := "/v1/projects/" + url.PathEscape(projectID) + "/directions/propose"
	if err := c.do(ctx, http.MethodPost, path, map[string]string{"competitors": competitors}, &ds); err != nil {
		return nil, err
	}
	return ds, nil
}

// SelectDirection marks a direction as selected or not.
func (c *Client) SelectDirection(ctx context.Context, directionID string, selected bool) (*models.Direction, error) {
	var d models.Direction
	path := "/v1/directions/" + url.PathEscape(directionID) + "/selected"
	if err := c.do(ctx, http.MethodPut, path, map[string]bool{"selected": selected}, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// =============================================================================
// GENERATION
// =============================================================================

// Generate engineers prompts for the selected directions and starts a batch.
func (c *Client) Generate(ctx context.Context, projectID string) (*Job, error) {
	var j Job
	if err := c.do(ctx, http.MethodPost, "/v1/projects/"+url.PathEscape(projectID)+"/generate", nil, &j); err != nil {
		return nil, err
	}
	return &j, nil
}

// StartBatch starts a batch for explicit tasks.
func (c *Client) StartBatch(ctx context.Context, projectID string, tasks []models.Task) (*Job, error) {
	var j Job
	path := "/v1/projects/" + url.PathEscape(projectID) + "/batches"
	if err := c.do(ctx, http.MethodPost, path, map[string]any{"tasks": tasks}, &j); err != nil {
		return nil, err
	}
	return &j, nil
}

// Branch starts a batch of variations of a logo.
func (c *Client) Branch(ctx context.Context, logoID, instruction string) (*Job, error) {
	var j Job
	path := "/v1/logos/" + url.PathEscape(logoID) + "/branch"
	if err := c.do(ctx, http.MethodPost, path, map[string]string{"instruction": instruction}, &j); err != nil {
		return nil, err
	}
	return &j, nil
}

// Refine applies one instruction to a logo and returns the refined child.
func (c *Client) Refine(ctx context.Context, logoID, instruction string) (*models.Logo, error) {
	var l models.Logo
	path := "/v1/logos/" + url.PathEscape(logoID) + "/refine"
	if err := c.do(ctx, http.MethodPost, path, map[string]string{"instruction": instruction}, &l); err != nil {
		return nil, err
	}
	return &l, nil
}

// ImproveRequest names what to improve: a stored logo, or raw image bytes
// when LogoID is empty. Without weaknesses the server analyzes the image.
type ImproveRequest struct {
	LogoID     string   `json:"logo_id,omitempty"`
	Image      []byte   `json:"image,omitempty"`
	Weaknesses []string `json:"weaknesses,omitempty"`
}

// Improve starts a batch of new logos in projectID addressing weaknesses of
// the requested image.
func (c *Client) Improve(ctx context.Context, projectID string, req ImproveRequest) (*Job, error) {
	var j Job
	path := "/v1/projects/" + url.PathEscape(projectID) + "/improve"
	if err := c.do(ctx, http.MethodPost, path, req, &j); err != nil {
		return nil, err
	}
	return &j, nil
}

// =============================================================================
// GRADING
// =============================================================================

// Analysis is the critique of an uploaded image.
type Analysis struct {
	Scores     models.Scores `json:"scores"`
	Weaknesses []string      `json:"actionable_weaknesses"`
}

// Grade scores one logo and returns it with its new scores.
func (c *Client) Grade(ctx context.Context, logoID string) (*models.Logo, error) {
	var l models.Logo
	path := "/v1/logos/" + url.PathEscape(logoID) + "/grade"
	if err := c.do(ctx, http.MethodPost, path, nil, &l); err != nil {
		return nil, err
	}
	return &l, nil
}

// GradeProject starts a job grading every ungraded logo of a project.
func (c *Client) GradeProject(ctx context.Context, projectID string) (*Job, error) {
	var j Job
	path := "/v1/projects/" + url.PathEscape(projectID) + "/grade"
	if err := c.do(ctx, http.MethodPost, path, nil, &j); err != nil {
		return nil, err
	}
	return &j, nil
}

// AnalyzeImage critiques an image that is not stored as a logo.
func (c *Client) AnalyzeImage(ctx context.Context, image []byte) (*Analysis, error) {
	var a Analysis
	if err := c.do(ctx, http.MethodPost, "/v1/images/analyze", map[string][]byte{"image": image}, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// =============================================================================
// LOGOS AND LINEAGE
// =============================================================================

// ListLogos lists a project's logos in creation order.
func (c *Client) ListLogos(ctx context.Context, projectID string, includeArchived bool) ([]models.Logo, error) {
	var ls []models.Logo
	path := "/v1/projects/" + url.PathEscape(projectID) + "/logos" + archivedQuery(includeArchived)
	if err := c.do(ctx, http.MethodGet, path, nil, &ls); err != nil {
		return nil, err
	}
	return ls, nil
}

// GetLogo retrieves a logo by ID.
func (c *Client) GetLogo(ctx context.Context, id string) (*models.Logo, error) {
	var l models.Logo
	if err := c.do(ctx, http.MethodGet, "/v1/logos/"+url.PathEscape(id), nil, &l); err != nil {
		return nil, err
	}
	return &l, nil
}

// UpdateLogo applies the non-nil fields of upd.
func (c *Client) UpdateLogo(ctx context.Context, id string, upd LogoUpdate) (*models.Logo, error) {
	var l models.Logo
	if err := c.do(ctx, http.MethodPatch, "/v1/logos/"+url.PathEscape(id), upd, &l); err != nil {
		return nil, err
	}
	return &l, nil
}

// Tree returns the project's derivation forest.
func (c *Client) Tree(ctx context.Context, projectID string, includeArchived bool) (*Tree, error) {
	var t Tree
	path := "/v1/projects/" + url.PathEscape(projectID) + "/tree" + archivedQuery(includeArchived)
	if err := c.do(ctx, http.MethodGet, path, nil, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// Flow returns the positioned node/edge view of the project's forest.
func (c *Client) Flow(ctx context.Context, projectID string, includeArchived bool) (*Flow, error) {
	var f Flow
	path := "/v1/projects/" + url.PathEscape(projectID) + "/flow" + archivedQuery(includeArchived)
	if err := c.do(ctx, http.MethodGet, path, nil, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// Timeline returns the project's logos ordered by creation time.
func (c *Client) Timeline(ctx context.Context, projectID string) ([]models.Logo, error) {
	return c.logos(ctx, "/v1/projects/"+url.PathEscape(projectID)+"/timeline")
}

// Ancestors returns the parent chain of a logo, oldest first.
func (c *Client) Ancestors(ctx context.Context, logoID string) ([]models.Logo, error) {
	return c.logos(ctx, "/v1/logos/"+url.PathEscape(logoID)+"/ancestors")
}

// Descendants returns every logo derived from logoID.
func (c *Client) Descendants(ctx context.Context, logoID string) ([]models.Logo, error) {
	return c.logos(ctx, "/v1/logos/"+url.PathEscape(logoID)+"/descendants")
}

func (c *Client) logos(ctx context.Context, path string) ([]models.Logo, error) {
	var ls []models.Logo
	if err := c.do(ctx, http.MethodGet, path, nil, &ls); err != nil {
		return nil, err
	}
	return ls, nil
}

func archivedQuery(include bool) string {
	if include {
		return "?include_archived=true"
	}
	return ""
}

// =============================================================================
// JOBS
// =============================================================================

// ListJobs returns recent jobs, optionally for one project.
func (c *Client) ListJobs(ctx context.Context, projectID string, limit int) ([]Job, error) {
	q := url.Values{}
	if projectID != "" {
		q.Set("project_id", projectID)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	path := "/v1/jobs"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var jobs []Job
	if err := c.do(ctx, http.MethodGet, path, nil, &jobs); err != nil {
		return nil, err
	}
	return jobs, nil
}

// GetJob retrieves a job by ID.
func (c *Client) GetJob(ctx context.Context, id string) (*Job, error) {
	var j Job
	if err := c.do(ctx, http.MethodGet, "/v1/jobs/"+url.PathEscape(id), nil, &j); err != nil {
		return nil, err
	}
	return &j, nil
}

// CancelJob stops a running job.
func (c *Client) CancelJob(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/v1/jobs/"+url.PathEscape(id), nil, nil)
}

// WatchJob streams job updates until the job finishes or ctx is done.
// onUpdate is called for every update; returning an error from it stops the
// watch. The last received state is returned.
func (c *Client) WatchJob(ctx context.Context, id string, onUpdate func(Job) error) (*Job, error) {
	wsURL := c.baseURL
	wsURL = strings.Replace(wsURL, "http://", "ws://", 1)
	wsURL = strings.Replace(wsURL, "https://", "wss://", 1)

	u, err := url.Parse(wsURL + "/v1/jobs/" + url.PathEscape(id) + "/ws")
	if err != nil {
		return nil, fmt.Errorf("parse endpoint: %w", err)
	}

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, resp, err := dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		if resp != nil && resp.StatusCode != http.StatusSwitchingProtocols {
			return nil, &APIError{StatusCode: resp.StatusCode, Message: "watch job " + id}
		}
		return nil, fmt.Errorf("websocket connect: %w", err)
	}

	var mu sync.Mutex
	closed := false
	closeConn := func() {
		mu.Lock()
		defer mu.Unlock()
		if !closed {
			closed = true
			conn.Close()
		}
	}
	defer closeConn()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			closeConn()
		case <-done:
		}
	}()

	var last *Job
	for {
		var j Job
		if err := conn.ReadJSON(&j); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				if last == nil {
					return nil, fmt.Errorf("job %s: connection closed without updates", id)
				}
				return last, nil
			}
			if ctx.Err() != nil {
				return last, ctx.Err()
			}
			return last, fmt.Errorf("read message: %w", err)
		}
		last = &j
		if onUpdate != nil {
			if err := onUpdate(j); err != nil {
				return last, err
			}
		}
		if j.Status.Terminal() {
			return last, nil
		}
	}
}

// =============================================================================
// STATS
// =============================================================================

// Stats returns the server's runtime statistics.
func (c *Client) Stats(ctx context.Context) (*metrics.Snapshot, error) {
	var s metrics.Snapshot
	if err := c.do(ctx, http.MethodGet, "/stats", nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}
