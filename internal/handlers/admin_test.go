package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/sahyadri-heights/carpool-backend/internal/middleware"
	"github.com/sahyadri-heights/carpool-backend/internal/models"
	"github.com/sahyadri-heights/carpool-backend/internal/services"
	"github.com/sahyadri-heights/carpool-backend/internal/storage"
)

type adminEnv struct {
	app      *fiber.App
	store    *storage.MemoryStore
	sessions *services.SessionService
}

func newAdminEnv(t *testing.T) *adminEnv {
	t.Helper()
	store := storage.NewMemoryStore()
	sessions := services.NewSessionService("test-secret", time.Hour)

	app := fiber.New()
	handler := NewAdminHandler(store)
	admin := app.Group("/admin", middleware.Authenticate(sessions, store), middleware.RequireAdmin())
	admin.Get("/users", handler.GetUsers)
	admin.Patch("/users/:userID/status", handler.UpdateUserStatus)
	admin.Patch("/users/:userID/role", handler.SetUserRole)
	admin.Delete("/users/:userID", handler.DeleteUser)

	return &adminEnv{app: app, store: store, sessions: sessions}
}

func (e *adminEnv) newUser(t *testing.T, email, role, status string) *models.User {
	t.Helper()
	user, err := e.store.CreateUser(&models.User{Email: email, Role: role, Status: status})
	if err != nil {
		t.Fatal(err)
	}
	return user
}

func (e *adminEnv) do(t *testing.T, method, path, body string, as *models.User) *http.Response {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if as != nil {
		token, err := e.sessions.IssueToken(as)
		if err != nil {
			t.Fatal(err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := e.app.Test(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

func errorMessage(t *testing.T, resp *http.Response) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decoding error body: %v", err)
	}
	return body.Error
}

func TestDeleteUser_LastAdminRefused(t *testing.T) {
	e := newAdminEnv(t)
	admin := e.newUser(t, "admin@society.test", models.RoleAdmin, models.UserStatusApproved)

	resp := e.do(t, http.MethodDelete, "/admin/users/"+admin.UserID, "", admin)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if msg := errorMessage(t, resp); msg != "Cannot delete the last admin" {
		t.Fatalf("unexpected error message %q", msg)
	}

	// With a second admin in place the deletion goes through
	second := e.newUser(t, "admin2@society.test", models.RoleAdmin, models.UserStatusApproved)
	resp = e.do(t, http.MethodDelete, "/admin/users/"+admin.UserID, "", second)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 after adding a second admin, got %d", resp.StatusCode)
	}
	if _, err := e.store.GetUserByID(admin.UserID); err == nil {
		t.Fatal("user should be gone after deletion")
	}
}

func TestSetUserRole_LastAdminDemoteRefused(t *testing.T) {
	e := newAdminEnv(t)
	admin := e.newUser(t, "admin@society.test", models.RoleAdmin, models.UserStatusApproved)

	resp := e.do(t, http.MethodPatch, "/admin/users/"+admin.UserID+"/role",
		`{"role":"USER"}`, admin)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}

	stored, err := e.store.GetUserByID(admin.UserID)
	if err != nil {
		t.Fatal(err)
	}
	if !stored.IsAdmin() {
		t.Fatal("sole admin must keep the role")
	}
}

func TestUpdateUserStatus_Approve(t *testing.T) {
	e := newAdminEnv(t)
	admin := e.newUser(t, "admin@society.test", models.RoleAdmin, models.UserStatusApproved)
	resident := e.newUser(t, "new@society.test", models.RoleUser, models.UserStatusPending)

	resp := e.do(t, http.MethodPatch, "/admin/users/"+resident.UserID+"/status",
		`{"status":"APPROVED"}`, admin)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	stored, err := e.store.GetUserByID(resident.UserID)
	if err != nil {
		t.Fatal(err)
	}
	if !stored.IsApproved() {
		t.Fatalf("expected APPROVED, got %s", stored.Status)
	}
}

func TestUpdateUserStatus_RejectsUnknownValue(t *testing.T) {
	e := newAdminEnv(t)
	admin := e.newUser(t, "admin@society.test", models.RoleAdmin, models.UserStatusApproved)
	resident := e.newUser(t, "new@society.test", models.RoleUser, models.UserStatusPending)

	resp := e.do(t, http.MethodPatch, "/admin/users/"+resident.UserID+"/status",
		`{"status":"BANNED"}`, admin)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestAdminRoutes_RequireAdminRole(t *testing.T) {
	e := newAdminEnv(t)
	e.newUser(t, "admin@society.test", models.RoleAdmin, models.UserStatusApproved)
	resident := e.newUser(t, "resident@society.test", models.RoleUser, models.UserStatusApproved)

	resp := e.do(t, http.MethodGet, "/admin/users", "", resident)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin, got %d", resp.StatusCode)
	}

	resp = e.do(t, http.MethodGet, "/admin/users", "", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without a token, got %d", resp.StatusCode)
	}
}
