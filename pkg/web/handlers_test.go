package web

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/covena/covena/pkg/models"
	"github.com/covena/covena/pkg/orchestrator"
	"github.com/covena/covena/pkg/persistence/memory"
	"github.com/covena/covena/pkg/testutil"
	"github.com/covena/covena/pkg/workflow"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T) (*fiber.App, *memory.Persistence) {
	t.Helper()

	store := memory.NewPersistence()
	engine := workflow.NewEngine(workflow.Config{
		RequiredNeighborApprovals: 3,
		BoardMembers:              []string{"board-1", "board-2", "board-3"},
	})
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	handlers := NewAPIHandlers(
		orchestrator.New(logger, store, engine, nil),
		validator.New(validator.WithRequiredStructEnabled()),
	)

	app := fiber.New()

	r := app.Group("/requests")
	r.Post("/", handlers.SubmitRequest)
	r.Get("/", handlers.ListRequests)
	r.Get("/:id", handlers.GetRequest)
	r.Delete("/:id", handlers.DeleteRequest)
	r.Post("/:id/cancel", handlers.CancelRequest)
	r.Post("/:id/review", handlers.OpenReview)
	r.Post("/:id/review/complete", handlers.CompleteReview)
	r.Post("/:id/review/request-info", handlers.RequestInfo)
	r.Post("/:id/reply", handlers.Reply)
	r.Post("/:id/approvals", handlers.RecordNeighborApproval)
	r.Post("/:id/votes", handlers.RecordBoardVote)
	r.Post("/:id/complete", handlers.CompleteWork)
	r.Post("/:id/appeal", handlers.FileAppeal)

	return app, store
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body any) *http.Response {
	t.Helper()

	var reader io.Reader

	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req)
	require.NoError(t, err)

	return resp
}

func decodeRequest(t *testing.T, resp *http.Response) *models.Request {
	t.Helper()

	var request models.Request
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&request))

	return &request
}

func TestSubmitRequest(t *testing.T) {
	app, _ := newTestApp(t)

	resp := doJSON(t, app, http.MethodPost, "/requests/", map[string]any{
		"homeowner_id":       "homeowner-1",
		"community_id":       "community-1",
		"type":               "exterior_modification",
		"title":              "Repaint front door",
		"assigned_neighbors": []string{"neighbor-1", "neighbor-2", "neighbor-3"},
	})

	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	request := decodeRequest(t, resp)
	assert.NotEmpty(t, request.ID)
	assert.Equal(t, models.StatusSubmitted, request.Status)
	assert.Equal(t, models.PriorityMedium, request.Priority)
}

func TestSubmitRequestValidation(t *testing.T) {
	app, _ := newTestApp(t)

	resp := doJSON(t, app, http.MethodPost, "/requests/", map[string]any{
		"homeowner_id": "homeowner-1",
		"type":         "exterior_modification",
		// title missing
	})

	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	var problem map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&problem))
	assert.Equal(t, "validation_error", problem["type"])
}

func TestGetRequestNotFound(t *testing.T) {
	app, _ := newTestApp(t)

	resp := doJSON(t, app, http.MethodGet, "/requests/missing", nil)

	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	var problem map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&problem))
	assert.Equal(t, "request_not_found", problem["type"])
}

func TestLifecycleEndpoints(t *testing.T) {
	app, _ := newTestApp(t)

	resp := doJSON(t, app, http.MethodPost, "/requests/", map[string]any{
		"homeowner_id":       "homeowner-1",
		"type":               "landscaping",
		"title":              "Replace lawn with xeriscaping",
		"assigned_neighbors": []string{"neighbor-1", "neighbor-2", "neighbor-3"},
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	id := decodeRequest(t, resp).ID

	resp = doJSON(t, app, http.MethodPost, "/requests/"+id+"/review", map[string]any{
		"reviewer": "manager-1",
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, models.StatusUnderReview, decodeRequest(t, resp).Status)

	resp = doJSON(t, app, http.MethodPost, "/requests/"+id+"/review/complete", map[string]any{
		"reviewer":       "manager-1",
		"recommendation": "approve",
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, models.StatusNeighborApproval, decodeRequest(t, resp).Status)

	for _, neighbor := range []string{"neighbor-1", "neighbor-2", "neighbor-3"} {
		resp = doJSON(t, app, http.MethodPost, "/requests/"+id+"/approvals", map[string]any{
			"neighbor_id": neighbor,
			"status":      "approved",
		})
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
	}

	for _, member := range []string{"board-1", "board-2"} {
		resp = doJSON(t, app, http.MethodPost, "/requests/"+id+"/votes", map[string]any{
			"board_member_id": member,
			"vote":            "approve",
		})
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
	}

	request := decodeRequest(t, resp)
	assert.Equal(t, models.StatusApproved, request.Status)

	resp = doJSON(t, app, http.MethodPost, "/requests/"+id+"/complete", map[string]any{
		"actor_id": "homeowner-1",
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, models.StatusCompleted, decodeRequest(t, resp).Status)
}

func TestInvalidTransitionConflict(t *testing.T) {
	app, _ := newTestApp(t)

	resp := doJSON(t, app, http.MethodPost, "/requests/", map[string]any{
		"homeowner_id": "homeowner-1",
		"type":         "other",
		"title":        "Install solar panels",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	id := decodeRequest(t, resp).ID

	// Voting on a freshly submitted request defies the state machine.
	resp = doJSON(t, app, http.MethodPost, "/requests/"+id+"/votes", map[string]any{
		"board_member_id": "board-1",
		"vote":            "approve",
	})

	require.Equal(t, fiber.StatusConflict, resp.StatusCode)

	var problem map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&problem))
	assert.Equal(t, "invalid_transition", problem["type"])
}

func TestDeletePreconditionFailed(t *testing.T) {
	app, _ := newTestApp(t)

	resp := doJSON(t, app, http.MethodPost, "/requests/", map[string]any{
		"homeowner_id": "homeowner-1",
		"type":         "other",
		"title":        "Install solar panels",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	id := decodeRequest(t, resp).ID

	resp = doJSON(t, app, http.MethodPost, "/requests/"+id+"/review", map[string]any{
		"reviewer": "manager-1",
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = doJSON(t, app, http.MethodDelete, "/requests/"+id, nil)
	require.Equal(t, fiber.StatusPreconditionFailed, resp.StatusCode)

	var problem map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&problem))
	assert.Equal(t, "precondition_failed", problem["type"])
}

func TestDeleteSubmittedRequest(t *testing.T) {
	app, _ := newTestApp(t)

	resp := doJSON(t, app, http.MethodPost, "/requests/", map[string]any{
		"homeowner_id": "homeowner-1",
		"type":         "other",
		"title":        "Install solar panels",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	id := decodeRequest(t, resp).ID

	resp = doJSON(t, app, http.MethodDelete, "/requests/"+id, nil)
	require.Equal(t, fiber.StatusNoContent, resp.StatusCode)

	resp = doJSON(t, app, http.MethodGet, "/requests/"+id, nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestCancelRequest(t *testing.T) {
	app, _ := newTestApp(t)

	resp := doJSON(t, app, http.MethodPost, "/requests/", map[string]any{
		"homeowner_id": "homeowner-1",
		"type":         "other",
		"title":        "Install solar panels",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	id := decodeRequest(t, resp).ID

	resp = doJSON(t, app, http.MethodPost, "/requests/"+id+"/cancel", map[string]any{
		"actor_id": "homeowner-1",
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, models.StatusCancelled, decodeRequest(t, resp).Status)
}

func TestListRequestsFilters(t *testing.T) {
	app, store := newTestApp(t)
	ctx := context.Background()

	submitted := testutil.CreateTestRequest()
	voting := testutil.CreateTestRequest(testutil.WithStatus(models.StatusBoardVoting))
	other := testutil.CreateTestRequest(func(r *models.Request) { r.HomeownerID = "homeowner-2" })

	for _, request := range []*models.Request{submitted, voting, other} {
		require.NoError(t, store.RequestRepository().Save(ctx, request))
	}

	decodeList := func(resp *http.Response) []map[string]any {
		var body struct {
			Requests []map[string]any `json:"requests"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))

		return body.Requests
	}

	resp := doJSON(t, app, http.MethodGet, "/requests/", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Len(t, decodeList(resp), 3)

	resp = doJSON(t, app, http.MethodGet, "/requests/?homeowner_id=homeowner-2", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Len(t, decodeList(resp), 1)

	// The legacy board_review alias filters as board_voting.
	resp = doJSON(t, app, http.MethodGet, "/requests/?status=board_review", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	listed := decodeList(resp)
	require.Len(t, listed, 1)
	assert.Equal(t, voting.ID, listed[0]["id"])

	resp = doJSON(t, app, http.MethodGet, "/requests/?status=bogus", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
