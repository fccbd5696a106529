package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	iauth "github.com/charlesng35/lootguard/internal/auth"
	"github.com/charlesng35/lootguard/internal/database/testutil"
	"github.com/charlesng35/lootguard/internal/handlers"
	"github.com/charlesng35/lootguard/internal/rules"
	"github.com/charlesng35/lootguard/internal/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type routerFixture struct {
	router *gin.Engine
	state  *services.EngineState
}

func newTestRouter(t *testing.T) *routerFixture {
	t.Helper()

	db := testutil.MustOpenTestDB(t, testutil.WithSeedRules())

	state := services.NewEngineState(true, false)

	sharing, err := services.NewSharingService(db)
	require.NoError(t, err)
	presence, err := services.NewPresenceService(db, sharing)
	require.NoError(t, err)
	perms, err := services.NewPermissionService(db)
	require.NoError(t, err)
	audit, err := services.NewAuditService(db)
	require.NoError(t, err)

	relationships := services.NewRelationshipService(services.RelationshipConfig{}, nil, nil, nil)
	zoneScope, err := services.NewZoneScopeService(db, services.ZoneScopeConfig{}, nil)
	require.NoError(t, err)
	table, err := rules.NewTable(db)
	require.NoError(t, err)

	engine, err := services.NewDecisionService(services.DecisionConfig{}, services.DecisionDeps{
		State:         state,
		Sharing:       sharing,
		Presence:      presence,
		Permissions:   perms,
		Relationships: relationships,
		Zones:         zoneScope,
		Rules:         table,
		Audit:         audit,
	})
	require.NoError(t, err)

	jwt, err := iauth.NewJWTService(iauth.JWTConfig{
		Secret: "router-test-secret-0123456789abcdef",
		Issuer: "lootguard-test",
	})
	require.NoError(t, err)

	hash, err := iauth.HashPassword("hunter2hunter2")
	require.NoError(t, err)
	operator := iauth.OperatorConfig{Name: "ops", PasswordHash: hash}

	router, err := NewRouter(Deps{
		JWT:      jwt,
		Auth:     handlers.NewAuthHandler(jwt, operator),
		Decision: handlers.NewDecisionHandler(engine),
		Events:   handlers.NewEventsHandler(presence, engine),
		Shares:   handlers.NewSharesHandler(sharing),
		Admin:    handlers.NewAdminHandler(engine, zoneScope, table, perms, []handlers.StatusOption{{Name: "RequirePermission", Value: false}}),
		Audit:    handlers.NewAuditHandler(audit),
	})
	require.NoError(t, err)

	return &routerFixture{router: router, state: state}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
}

func (f *routerFixture) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *routerFixture) login(t *testing.T) string {
	t.Helper()

	w := f.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"name": "ops", "password": "hunter2hunter2"})
	require.Equal(t, http.StatusOK, w.Code)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	var data struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.NotEmpty(t, data.AccessToken)
	return data.AccessToken
}

func TestNewRouterRequiresDeps(t *testing.T) {
	_, err := NewRouter(Deps{})
	require.Error(t, err)
}

func TestHealthEndpoint(t *testing.T) {
	f := newTestRouter(t)

	w := f.do(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	f := newTestRouter(t)

	w := f.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"name": "ops", "password": "wrong"})
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminRoutesRequireToken(t *testing.T) {
	f := newTestRouter(t)

	w := f.do(t, http.MethodGet, "/api/admin/status", "", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = f.do(t, http.MethodGet, "/api/admin/status", "not-a-token", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminStatusWithToken(t *testing.T) {
	f := newTestRouter(t)
	token := f.login(t)

	w := f.do(t, http.MethodGet, "/api/admin/status", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	var status struct {
		Enabled bool `json:"enabled"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &status))
	require.True(t, status.Enabled)
}

func TestAdminEnableDisable(t *testing.T) {
	f := newTestRouter(t)
	token := f.login(t)

	w := f.do(t, http.MethodPost, "/api/admin/disable", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.False(t, f.state.Enabled())

	w = f.do(t, http.MethodPost, "/api/admin/enable", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, f.state.Enabled())
}

func TestDecideEndpoint(t *testing.T) {
	f := newTestRouter(t)

	// Record presence so the actor and owner resolve.
	w := f.do(t, http.MethodPost, "/api/events/connect", "", gin.H{"actor_id": "actor-1"})
	require.Equal(t, http.StatusOK, w.Code)
	w = f.do(t, http.MethodPost, "/api/events/connect", "", gin.H{"actor_id": "owner-1"})
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodPost, "/api/decide", "", gin.H{
		"resource_type": "box.wooden.large",
		"resource_id":   "res-1",
		"actor_id":      "actor-1",
		"owner_id":      "owner-1",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	var decision struct {
		Allowed bool   `json:"allowed"`
		Rule    string `json:"rule"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &decision))
	require.False(t, decision.Allowed)
	require.Equal(t, services.RuleTable, decision.Rule)
}

func TestShareLifecycleFlipsDecision(t *testing.T) {
	f := newTestRouter(t)
	token := f.login(t)

	for _, actor := range []string{"actor-1", "owner-1"} {
		w := f.do(t, http.MethodPost, "/api/events/connect", "", gin.H{"actor_id": actor})
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := f.do(t, http.MethodPost, "/api/shares", token, gin.H{
		"owner_id":    "owner-1",
		"resource_id": "res-1",
		"share_with":  "actor-1",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = f.do(t, http.MethodPost, "/api/decide", "", gin.H{
		"resource_type": "box.wooden.large",
		"resource_id":   "res-1",
		"actor_id":      "actor-1",
		"owner_id":      "owner-1",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	var decision struct {
		Allowed bool   `json:"allowed"`
		Rule    string `json:"rule"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &decision))
	require.True(t, decision.Allowed)
	require.Equal(t, services.RuleShared, decision.Rule)

	// Revoking the grant restores the deny.
	w = f.do(t, http.MethodDelete, "/api/shares/owner-1/res-1", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodPost, "/api/decide", "", gin.H{
		"resource_type": "box.wooden.large",
		"resource_id":   "res-1",
		"actor_id":      "actor-1",
		"owner_id":      "owner-1",
	})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	require.NoError(t, json.Unmarshal(env.Data, &decision))
	require.False(t, decision.Allowed)
}

func TestShareCheckEndpoint(t *testing.T) {
	f := newTestRouter(t)
	token := f.login(t)

	w := f.do(t, http.MethodPost, "/api/shares", token, gin.H{
		"owner_id":    "owner-1",
		"resource_id": "res-1",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = f.do(t, http.MethodPost, "/api/share-check", "", gin.H{
		"owner_id":    "owner-1",
		"resource_id": "res-1",
		"actor_id":    "anyone",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	var data struct {
		Shared bool `json:"shared"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.True(t, data.Shared)
}

func TestUnknownRouteReturnsEnvelope(t *testing.T) {
	f := newTestRouter(t)

	w := f.do(t, http.MethodGet, "/api/nope", "", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Contains(t, w.Body.String(), `"success":false`)
}
