package routes

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/portal-hospitalario/backend/internal/blob"
	"github.com/portal-hospitalario/backend/internal/config"
	"github.com/portal-hospitalario/backend/internal/handlers"
	"github.com/portal-hospitalario/backend/internal/models"
	"github.com/portal-hospitalario/backend/internal/policy"
	"github.com/portal-hospitalario/backend/internal/services"
	"github.com/portal-hospitalario/backend/internal/store"
	"github.com/portal-hospitalario/backend/internal/store/memstore"
)

type fakeVerifier struct{}

func (fakeVerifier) Verify(_ context.Context, idToken string) (*services.Principal, error) {
	if idToken != "good-token" {
		return nil, services.ErrUnauthenticated
	}
	return &services.Principal{Sub: "idp|nuevo", Name: "Nuevo", Email: "nuevo@hospital.local", EmailVerified: true}, nil
}

type testServer struct {
	app      *fiber.App
	st       *store.Store
	identity *services.IdentityService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	cfg := &config.Config{
		JWTSecret:            "routes-test-secret",
		JWTAccessExpiry:      time.Hour,
		ElectromedicinaEmail: "electromedicina@hospital.local",
		ApproverEmails:       []string{"compras@hospital.local"},
	}
	st := memstore.New()
	p := policy.New(cfg.ElectromedicinaEmail, cfg.ApproverEmails, cfg.AllowTicketReopen)
	audit := services.NewAuditService(st.Audit, p)
	identity := services.NewIdentityService(st.Users, audit, fakeVerifier{}, cfg)
	tickets := services.NewTicketService(st.Tickets, audit, p)
	blobs, err := blob.New(context.Background(), blob.Options{})
	if err != nil {
		t.Fatalf("blob.New: %v", err)
	}

	app := fiber.New()
	Setup(app, cfg, identity, Handlers{
		Auth:      handlers.NewAuthHandler(identity),
		Health:    handlers.NewHealthHandler(nil),
		Tickets:   handlers.NewTicketHandler(tickets, services.NewSuggestionService(tickets, cfg), blobs),
		Fallas:    handlers.NewFallaHandler(services.NewFallaService(st.Fallas, st.Users, audit, p), blobs),
		Approvals: handlers.NewApprovalHandler(services.NewApprovalService(st.Approvals, audit, p, cfg.ApproverEmails)),
		Inventory: handlers.NewInventoryHandler(services.NewInventoryService(st.Inventory, audit, p)),
		Admin:     handlers.NewAdminHandler(audit, services.NewUserService(st.Users, audit, p)),
	})

	for _, u := range []models.User{
		{ID: "idp|admin", Name: "Ana", Email: "admin@hospital.local", Role: models.RoleAdmin},
		{ID: "idp|other", Name: "Otro", Email: "other@x.com", Role: models.RoleUser},
	} {
		u := u
		if err := st.Users.Create(context.Background(), &u); err != nil {
			t.Fatalf("creating user: %v", err)
		}
	}
	return &testServer{app: app, st: st, identity: identity}
}

func (s *testServer) token(t *testing.T, userID string) string {
	t.Helper()
	u, err := s.st.Users.FindByID(context.Background(), userID)
	if err != nil {
		u = &models.User{ID: userID, Email: "ghost@x.com"}
	}
	tok, _, err := s.identity.IssueSession(u)
	if err != nil {
		t.Fatalf("IssueSession: %v", err)
	}
	return tok
}

func (s *testServer) do(t *testing.T, method, path, token, body string) (int, map[string]interface{}) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	out := map[string]interface{}{}
	raw, _ := io.ReadAll(resp.Body)
	if len(raw) > 0 {
		json.Unmarshal(raw, &out)
	}
	return resp.StatusCode, out
}

func TestPublicRoutes(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(t, http.MethodGet, "/api/health", "", "")
	if status != http.StatusOK || body["status"] != "ok" {
		t.Errorf("health = %d %v", status, body)
	}
	status, body = s.do(t, http.MethodGet, "/api/catalog", "", "")
	if status != http.StatusOK || len(body) == 0 {
		t.Errorf("catalog = %d %v", status, body)
	}
}

func TestSessionExchange(t *testing.T) {
	s := newTestServer(t)

	status, _ := s.do(t, http.MethodPost, "/api/auth/session", "", `{"id_token":"bad"}`)
	if status != http.StatusUnauthorized {
		t.Errorf("bad token status = %d", status)
	}
	status, body := s.do(t, http.MethodPost, "/api/auth/session", "", `{}`)
	if status != http.StatusBadRequest || body["fields"] == nil {
		t.Errorf("empty body = %d %v", status, body)
	}

	status, body = s.do(t, http.MethodPost, "/api/auth/session", "", `{"id_token":"good-token"}`)
	if status != http.StatusOK {
		t.Fatalf("session status = %d %v", status, body)
	}
	token, _ := body["access_token"].(string)
	user, _ := body["user"].(map[string]interface{})
	if token == "" || user["role"] != string(models.RoleUser) {
		t.Fatalf("session body = %v", body)
	}

	status, body = s.do(t, http.MethodGet, "/api/me", token, "")
	if status != http.StatusOK || body["email"] != "nuevo@hospital.local" {
		t.Errorf("me = %d %v", status, body)
	}
}

func TestProtectedRoutesRequireSession(t *testing.T) {
	s := newTestServer(t)

	if status, _ := s.do(t, http.MethodGet, "/api/fallas", "", ""); status != http.StatusUnauthorized {
		t.Errorf("no token status = %d", status)
	}
	if status, _ := s.do(t, http.MethodGet, "/api/fallas", "garbage", ""); status != http.StatusUnauthorized {
		t.Errorf("garbage token status = %d", status)
	}
	ghost := s.token(t, "idp|ghost")
	if status, _ := s.do(t, http.MethodGet, "/api/tickets", ghost, ""); status != http.StatusUnauthorized {
		t.Errorf("unknown user status = %d", status)
	}
}

func TestFallasAccessDenied(t *testing.T) {
	s := newTestServer(t)
	token := s.token(t, "idp|other")

	status, body := s.do(t, http.MethodGet, "/api/fallas", token, "")
	if status != http.StatusForbidden || body["message"] != policy.DeniedMessage {
		t.Errorf("list = %d %v", status, body)
	}
	status, _ = s.do(t, http.MethodPost, "/api/fallas", token, `{"titulo":"x"}`)
	if status != http.StatusForbidden {
		t.Errorf("create = %d", status)
	}
}

func TestFallaLifecycleOverHTTP(t *testing.T) {
	s := newTestServer(t)
	token := s.token(t, "idp|admin")

	status, body := s.do(t, http.MethodPost, "/api/fallas", token, `{}`)
	if status != http.StatusBadRequest || body["fields"] == nil {
		t.Errorf("empty create = %d %v", status, body)
	}

	status, body = s.do(t, http.MethodPost, "/api/fallas", token,
		`{"titulo":"Bomba rota","descripcion":"No enciende la bomba de infusión","equipo_nombre":"Bomba XYZ","ubicacion":"UCI"}`)
	if status != http.StatusCreated {
		t.Fatalf("create = %d %v", status, body)
	}
	id, _ := body["id"].(string)
	if body["estado"] != string(models.EstadoReportada) {
		t.Errorf("estado = %v", body["estado"])
	}

	status, body = s.do(t, http.MethodPost, "/api/fallas/"+id+"/transicion", token, `{"estado":"CERRADA"}`)
	if status != http.StatusOK || body["estado"] != "CERRADA" {
		t.Fatalf("transition = %d %v", status, body)
	}
	status, _ = s.do(t, http.MethodPost, "/api/fallas/"+id+"/transicion", token, `{"estado":"EN_DIAGNOSTICO"}`)
	if status != http.StatusConflict {
		t.Errorf("terminal transition = %d, want 409", status)
	}

	status, body = s.do(t, http.MethodGet, "/api/fallas?estado=CERRADA", token, "")
	if status != http.StatusOK || body["total"] != float64(1) {
		t.Errorf("list = %d %v", status, body)
	}
	for _, q := range []string{"estado=cerrada", "estado=Reportada,cerrada&severidad=media", "tipo_falla=otra"} {
		status, body = s.do(t, http.MethodGet, "/api/fallas?"+q, token, "")
		if status != http.StatusOK || body["total"] != float64(1) {
			t.Errorf("list %s = %d %v", q, status, body)
		}
	}
	if status, _ := s.do(t, http.MethodGet, "/api/fallas/not-a-uuid", token, ""); status != http.StatusBadRequest {
		t.Errorf("bad id = %d", status)
	}
}

func TestTicketsOverHTTP(t *testing.T) {
	s := newTestServer(t)
	other := s.token(t, "idp|other")

	status, body := s.do(t, http.MethodPost, "/api/tickets", other,
		`{"subject":"Sin acceso","description":"No puedo entrar al HIS","priority":"High"}`)
	if status != http.StatusCreated {
		t.Fatalf("create = %d %v", status, body)
	}
	id, _ := body["id"].(string)

	status, _ = s.do(t, http.MethodPatch, "/api/tickets/"+id+"/status", other, `{"status":"Closed"}`)
	if status != http.StatusForbidden {
		t.Errorf("ordinary user status change = %d", status)
	}

	status, body = s.do(t, http.MethodPost, "/api/tickets/"+id+"/attachments/upload-url", other,
		`{"file_name":"captura.png","content_type":"image/png"}`)
	if status != http.StatusServiceUnavailable {
		t.Errorf("upload url without storage = %d %v", status, body)
	}

	status, body = s.do(t, http.MethodGet, "/api/tickets?mine=true", other, "")
	if status != http.StatusOK || body["total"] != float64(1) {
		t.Errorf("mine = %d %v", status, body)
	}
}

func TestAdminRoutes(t *testing.T) {
	s := newTestServer(t)
	admin := s.token(t, "idp|admin")
	other := s.token(t, "idp|other")

	if status, _ := s.do(t, http.MethodGet, "/api/audit-logs", other, ""); status != http.StatusForbidden {
		t.Errorf("audit as user = %d", status)
	}

	status, body := s.do(t, http.MethodPut, "/api/users/idp%7Cother/role", admin, `{"role":"Electromedicina","department":"Biomedica"}`)
	if status != http.StatusOK || body["role"] != "Electromedicina" {
		t.Fatalf("update role = %d %v", status, body)
	}

	// The new role applies on the next request with the same token.
	status, _ = s.do(t, http.MethodGet, "/api/inventory", other, "")
	if status != http.StatusOK {
		t.Errorf("inventory after promotion = %d", status)
	}

	status, body = s.do(t, http.MethodGet, "/api/audit-logs?action="+strings.ReplaceAll(services.ActionUserRoleChanged, " ", "%20"), admin, "")
	if status != http.StatusOK || body["total"] != float64(1) {
		t.Errorf("audit = %d %v", status, body)
	}

	status, body = s.do(t, http.MethodPut, "/api/users/idp%7Cother/role", admin, `{"role":"Root"}`)
	if status != http.StatusBadRequest {
		t.Errorf("invalid role = %d %v", status, body)
	}
}
