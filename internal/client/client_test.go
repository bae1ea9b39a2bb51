package client

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/raphaelgruber/logoforge/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Defaults(t *testing.T) {
	t.Setenv("LOGOFORGE_SERVER_URL", "")
	t.Setenv("LOGOFORGE_CLIENT_TIMEOUT", "30s")

	c := New("")
	assert.Equal(t, "http://localhost:8585", c.baseURL)
	assert.Equal(t, "30s", c.httpClient.Timeout.String())

	c = New("http://example.test/")
	assert.Equal(t, "http://example.test", c.baseURL)
}

func TestClient_ErrorResponses(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/projects/missing":
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"project missing: not found"}`))
		default:
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte("upstream down"))
		}
	}))
	defer srv.Close()
	c := New(srv.URL)

	_, err := c.GetProject(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.Contains(t, err.Error(), "project missing: not found")

	_, err = c.ListProjects(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Equal(t, "upstream down", apiErr.Message)
	assert.False(t, IsNotFound(err))
}

func TestClient_Requests(t *testing.T) {
	var got struct {
		method string
		path   string
		query  string
		body   map[string]any
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.method, got.path, got.query = r.Method, r.URL.Path, r.URL.RawQuery
		got.body = nil
		if r.ContentLength > 0 {
			_ = json.NewDecoder(r.Body).Decode(&got.body)
		}
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/v1/jobs":
			_, _ = w.Write([]byte(`[{"id":"job-1","status":"completed","total":2,"completed":2,"percent":100}]`))
		case r.Method == http.MethodPost && r.URL.Path == "/v1/projects/p1/batches":
			w.WriteHeader(http.StatusAccepted)
			_, _ = w.Write([]byte(`{"id":"job-2","status":"pending","total":1}`))
		default:
			_, _ = w.Write([]byte(`{"id":"p1","name":"Acme"}`))
		}
	}))
	defer srv.Close()
	c := New(srv.URL)
	ctx := context.Background()

	p, err := c.CreateProject(ctx, "", models.CompanyBrief{CompanyName: "Acme"})
	require.NoError(t, err)
	assert.Equal(t, "p1", p.ID)
	assert.Equal(t, http.MethodPost, got.method)
	assert.Equal(t, "/v1/projects", got.path)
	assert.Equal(t, map[string]any{"company_name": "Acme"}, got.body["company_brief"])

	jobs, err := c.ListJobs(ctx, "p1", 5)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, 100, jobs[0].Percent)
	assert.Equal(t, models.JobStatusCompleted, jobs[0].Status)
	assert.Equal(t, "limit=5&project_id=p1", got.query)

	job, err := c.StartBatch(ctx, "p1", []models.Task{{PromptText: "fox"}})
	require.NoError(t, err)
	assert.Equal(t, "job-2", job.ID)
	tasks, ok := got.body["tasks"].([]any)
	require.True(t, ok)
	assert.Equal(t, map[string]any{"prompt_text": "fox"}, tasks[0])

	_, err = c.ListLogos(ctx, "p1", true)
	require.NoError(t, err)
	assert.Equal(t, "include_archived=true", got.query)

	_, err = c.Improve(ctx, "p1", ImproveRequest{Image: []byte("logo"), Weaknesses: []string{"busy"}})
	require.NoError(t, err)
	assert.Equal(t, "/v1/projects/p1/improve", got.path)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("logo")), got.body["image"])
	assert.Equal(t, []any{"busy"}, got.body["weaknesses"])
	assert.NotContains(t, got.body, "logo_id")

	_, err = c.GradeProject(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, http.MethodPost, got.method)
	assert.Equal(t, "/v1/projects/p1/grade", got.path)
}

func TestClient_WatchJob(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/jobs/job-1/ws" {
			http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for _, j := range []Job{
			{BatchJob: models.BatchJob{ID: "job-1", Status: models.JobStatusRunning, Total: 2, Completed: 1}, Percent: 50},
			{BatchJob: models.BatchJob{ID: "job-1", Status: models.JobStatusCompleted, Total: 2, Completed: 2}, Percent: 100},
		} {
			if err := conn.WriteJSON(j); err != nil {
				return
			}
		}
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	}))
	defer srv.Close()
	c := New(srv.URL)

	var seen []int
	last, err := c.WatchJob(context.Background(), "job-1", func(j Job) error {
		seen = append(seen, j.Percent)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{50, 100}, seen)
	assert.Equal(t, models.JobStatusCompleted, last.Status)

	_, err = c.WatchJob(context.Background(), "nope", nil)
	assert.True(t, IsNotFound(err))
}
