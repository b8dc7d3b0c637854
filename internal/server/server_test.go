package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"linecheck/internal/model"
	"linecheck/internal/repository"
	"linecheck/internal/service"
)

type testPortal struct {
	server *Server
	tokens map[string]string // name -> bearer token
	lists  map[string]uint
	tasks  map[string]uint
}

// newTestPortal seeds one location with a staff member, a second staff
// member, a superadmin, one checklist and one task with a pending instance.
func newTestPortal(t *testing.T) *testPortal {
	t.Helper()
	db, err := repository.NewDB(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	ctx := context.Background()

	userRepo := repository.NewUserRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	instanceRepo := repository.NewInstanceRepository(db)
	checkoutRepo := repository.NewCheckoutRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	locationRepo := repository.NewLocationRepository(db)

	identity := service.NewIdentityService(userRepo)
	instances := service.NewInstanceService(instanceRepo, taskRepo, identity)
	checkouts := service.NewCheckoutService(checkoutRepo, taskRepo, identity, auditRepo)
	batches := service.NewBatchService(instanceRepo, taskRepo, checkouts, identity, auditRepo)
	listViews := service.NewListViewService(taskRepo, instanceRepo, checkoutRepo, identity)

	location := &model.Location{Name: "Downtown"}
	if err := locationRepo.Create(ctx, location); err != nil {
		t.Fatalf("seed location: %v", err)
	}
	list := &model.TaskList{LocationID: location.ID, Name: "Opening"}
	if err := taskRepo.CreateList(ctx, list); err != nil {
		t.Fatalf("seed list: %v", err)
	}
	task := &model.Task{TaskListID: list.ID, Title: "Brew coffee"}
	if err := taskRepo.Create(ctx, task); err != nil {
		t.Fatalf("seed task: %v", err)
	}
	if err := instanceRepo.Create(ctx, &model.TaskInstance{TaskID: task.ID, Status: model.StatusPending, DueDate: time.Now()}); err != nil {
		t.Fatalf("seed instance: %v", err)
	}

	portal := &testPortal{
		server: New(":0", identity, instances, checkouts, batches, listViews),
		tokens: map[string]string{},
		lists:  map[string]uint{"opening": list.ID},
		tasks:  map[string]uint{"coffee": task.ID},
	}
	for name, role := range map[string]string{
		"sam":  model.RoleStaff,
		"pat":  model.RoleStaff,
		"root": model.RoleSuperadmin,
	} {
		user := &model.User{Name: name, Role: role}
		if err := userRepo.Create(ctx, user); err != nil {
			t.Fatalf("seed user: %v", err)
		}
		if role != model.RoleSuperadmin {
			if err := userRepo.AddMembership(ctx, user.ID, location.ID); err != nil {
				t.Fatalf("seed membership: %v", err)
			}
		}
		token, err := identity.IssueToken(ctx, user.ID)
		if err != nil {
			t.Fatalf("issue token: %v", err)
		}
		portal.tokens[name] = token
	}
	return portal
}

func (p *testPortal) do(t *testing.T, method, path, user, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if user != "" {
		req.Header.Set("Authorization", "Bearer "+p.tokens[user])
	}
	rec := httptest.NewRecorder()
	p.server.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return body
}

func TestHealthNoAuth(t *testing.T) {
	portal := newTestPortal(t)
	rec := portal.do(t, http.MethodGet, "/api/health", "", "")
	if rec.Code != http.StatusOK {
		t.Errorf("status: got %d, want 200", rec.Code)
	}
}

func TestMissingTokenUnauthorized(t *testing.T) {
	portal := newTestPortal(t)
	path := fmt.Sprintf("/api/lists/%d/checkout", portal.lists["opening"])
	rec := portal.do(t, http.MethodPost, path, "", "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status: got %d, want 401", rec.Code)
	}
}

func TestCheckoutConflictCarriesHolder(t *testing.T) {
	portal := newTestPortal(t)
	path := fmt.Sprintf("/api/lists/%d/checkout", portal.lists["opening"])

	if rec := portal.do(t, http.MethodPost, path, "sam", ""); rec.Code != http.StatusOK {
		t.Fatalf("first checkout: got %d, want 200: %s", rec.Code, rec.Body.String())
	}
	rec := portal.do(t, http.MethodPost, path, "pat", "")
	if rec.Code != http.StatusConflict {
		t.Fatalf("second checkout: got %d, want 409: %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if _, ok := body["locked_by"]; !ok {
		t.Errorf("body missing locked_by: %v", body)
	}
}

func TestApplyCompletionsFlow(t *testing.T) {
	portal := newTestPortal(t)
	listID := portal.lists["opening"]

	checkoutPath := fmt.Sprintf("/api/lists/%d/checkout", listID)
	if rec := portal.do(t, http.MethodPost, checkoutPath, "sam", ""); rec.Code != http.StatusOK {
		t.Fatalf("checkout: got %d: %s", rec.Code, rec.Body.String())
	}

	applyPath := fmt.Sprintf("/api/lists/%d/completions", listID)
	payload := fmt.Sprintf(`{"changes":[{"task_id":%d,"completed":true}],"checkin":true}`, portal.tasks["coffee"])
	rec := portal.do(t, http.MethodPost, applyPath, "sam", payload)
	if rec.Code != http.StatusOK {
		t.Fatalf("apply: got %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if success, _ := body["success"].(bool); !success {
		t.Errorf("apply: got %v, want success", body)
	}

	// checkin=true released the lock, so pat can now check out.
	if rec := portal.do(t, http.MethodPost, checkoutPath, "pat", ""); rec.Code != http.StatusOK {
		t.Errorf("checkout after release: got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestApplyCompletionsValidation(t *testing.T) {
	portal := newTestPortal(t)
	listID := portal.lists["opening"]
	path := fmt.Sprintf("/api/lists/%d/completions", listID)

	cases := []struct {
		name string
		body string
	}{
		{"empty changes", `{"changes":[]}`},
		{"missing completed", fmt.Sprintf(`{"changes":[{"task_id":%d}]}`, portal.tasks["coffee"])},
		{"not json", `{`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := portal.do(t, http.MethodPost, path, "sam", tc.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status: got %d, want 400: %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestForceReleaseRequiresAdmin(t *testing.T) {
	portal := newTestPortal(t)
	listID := portal.lists["opening"]

	checkoutPath := fmt.Sprintf("/api/lists/%d/checkout", listID)
	if rec := portal.do(t, http.MethodPost, checkoutPath, "sam", ""); rec.Code != http.StatusOK {
		t.Fatalf("checkout: got %d", rec.Code)
	}

	releasePath := fmt.Sprintf("/api/lists/%d/release", listID)
	if rec := portal.do(t, http.MethodPost, releasePath, "pat", ""); rec.Code != http.StatusForbidden {
		t.Errorf("staff release: got %d, want 403", rec.Code)
	}
	if rec := portal.do(t, http.MethodPost, releasePath, "root", ""); rec.Code != http.StatusOK {
		t.Errorf("admin release: got %d, want 200", rec.Code)
	}
}

func TestChecklistView(t *testing.T) {
	portal := newTestPortal(t)
	path := fmt.Sprintf("/api/lists/%d/tasks", portal.lists["opening"])

	rec := portal.do(t, http.MethodGet, path, "sam", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d: %s", rec.Code, rec.Body.String())
	}
	var view service.ChecklistView
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(view.Tasks) != 1 {
		t.Fatalf("tasks: got %d, want 1", len(view.Tasks))
	}
	if view.Tasks[0].Instance == nil || view.Tasks[0].Instance.Status != model.StatusPending {
		t.Errorf("instance: got %+v, want pending", view.Tasks[0].Instance)
	}
}
