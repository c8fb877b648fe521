package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cyclopcam/dbh"
	"github.com/cyclopcam/logs"
	"github.com/stretchr/testify/require"
	"github.com/tavernkeep/tavern/server/auth"
	"github.com/tavernkeep/tavern/server/effort"
	"github.com/tavernkeep/tavern/server/model"
	"github.com/tavernkeep/tavern/server/nav"
	"github.com/tavernkeep/tavern/server/notify"
	"golang.org/x/oauth2"
)

// fakeTwitch answers the token exchange and the Helix profile call
func fakeTwitch(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"token-abc","refresh_token":"refresh-xyz","token_type":"bearer"}`))
	})
	mux.HandleFunc("/helix/users", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":[{"id":"12345","login":"streamfan","display_name":"StreamFan","profile_image_url":"https://cdn.example.com/fan.png"}]}`))
	})
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

func testServer(t *testing.T) *Server {
	t.Helper()
	log := logs.NewTestingLog(t)
	db, err := openDB(log, dbh.MakeSqliteConfig(filepath.Join(t.TempDir(), "tavern.sqlite")))
	require.NoError(t, err)
	provider := fakeTwitch(t)
	cfg := &Config{
		Twitch: auth.TwitchConfig{
			ClientID:    "client-id-1",
			CallbackURL: "http://localhost/auth/twitch/callback",
			AuthURL:     provider.URL + "/oauth2/authorize",
			TokenURL:    provider.URL + "/oauth2/token",
			HelixURL:    provider.URL + "/helix",
		},
	}
	s := &Server{
		Log:      log,
		DB:       db,
		cfg:      cfg,
		sessions: auth.NewSessionServer(db, log, ""),
		twitch:   auth.NewTwitchClient(cfg.Twitch),
		effort:   effort.NewEffortDB(db, log),
		notifier: notify.NewNotifier(log, ""),
		menu:     nav.DefaultMenu(),
	}
	require.NoError(t, s.setupHttpRoutes())
	return s
}

func do(s *Server, method, path, body string, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	s.httpRouter.ServeHTTP(rec, req)
	return rec
}

// Create a session + user record, and return the browser's cookie
func loginAs(t *testing.T, s *Server, login string, user model.User) *http.Cookie {
	t.Helper()
	user.Login = login
	user.CreatedAt = dbh.MakeIntTime(time.Now().UTC())
	require.NoError(t, s.DB.Create(&user).Error)
	rec := httptest.NewRecorder()
	require.NoError(t, s.sessions.Login(rec, &auth.Profile{ID: "1", Login: login, DisplayName: login}, &oauth2.Token{AccessToken: "t"}))
	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.SessionCookie {
			return c
		}
	}
	t.Fatal("no session cookie issued")
	return nil
}

func TestPingAndRobots(t *testing.T) {
	s := testServer(t)
	rec := do(s, "GET", "/api/ping", "", nil)
	require.Equal(t, 200, rec.Code)

	rec = do(s, "GET", "/robots.txt", "", nil)
	require.Equal(t, 200, rec.Code)
	require.Equal(t, "User-agent: Googlebot\nAllow: /\nUser-Agent: *\nDisallow: /", rec.Body.String())
}

func TestNavigation(t *testing.T) {
	s := testServer(t)
	rec := do(s, "GET", "/api/navigation", "", nil)
	require.Equal(t, 200, rec.Code)
	menu := []nav.Section{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &menu))
	require.Equal(t, nav.DefaultMenu(), menu)
}

func TestAuthBeginRedirect(t *testing.T) {
	s := testServer(t)
	rec := do(s, "GET", "/auth/twitch?returnTo=/wow/aq-effort/gandling", "", nil)
	require.Equal(t, http.StatusFound, rec.Code)
	require.True(t, strings.HasPrefix(rec.Header().Get("Location"), s.cfg.Twitch.AuthURL))
	location, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	require.Equal(t, "client-id-1", location.Query().Get("client_id"))
	require.Equal(t, "/wow/aq-effort/gandling", auth.DecodeReturnTarget(location.Query().Get("state")))

	// No returnTo: no state parameter
	rec = do(s, "GET", "/auth/twitch", "", nil)
	require.Equal(t, http.StatusFound, rec.Code)
	location, err = url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	require.False(t, location.Query().Has("state"))
}

func TestAuthCallbackProviderError(t *testing.T) {
	s := testServer(t)
	// The user clicked "cancel" on the consent screen
	rec := do(s, "GET", "/auth/twitch/callback?error=access_denied&error_description=x", "", nil)
	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, authFailurePage, rec.Header().Get("Location"))

	rec = do(s, "GET", "/auth/twitch/callback", "", nil)
	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, authFailurePage, rec.Header().Get("Location"))
}

func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.SessionCookie {
			return c
		}
	}
	return nil
}

func TestAuthCallbackSuccess(t *testing.T) {
	s := testServer(t)
	state := auth.EncodeReturnTarget("/wow/aq-effort/gandling")
	rec := do(s, "GET", "/auth/twitch/callback?code=good-code&state="+url.QueryEscape(state), "", nil)
	require.Equal(t, http.StatusFound, rec.Code)
	// The browser lands exactly where it asked to return to
	require.Equal(t, "/wow/aq-effort/gandling", rec.Header().Get("Location"))
	cookie := sessionCookie(rec)
	require.NotNil(t, cookie)
	require.True(t, cookie.HttpOnly)

	// The session is live: once the user record exists, the cookie resolves
	require.NoError(t, s.DB.Create(&model.User{
		Login:     "streamfan",
		CreatedAt: dbh.MakeIntTime(time.Now().UTC()),
	}).Error)
	identity := s.sessions.IdentityFromRequest(httptest.NewRequest("GET", "/", nil))
	require.Nil(t, identity)
	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(cookie)
	identity = s.sessions.IdentityFromRequest(req)
	require.NotNil(t, identity)
	require.Equal(t, "streamfan", identity.Login)
}

func TestAuthCallbackFallbackRedirects(t *testing.T) {
	s := testServer(t)

	// No state: login succeeds and lands on the default page
	rec := do(s, "GET", "/auth/twitch/callback?code=good-code", "", nil)
	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, defaultLandingPage, rec.Header().Get("Location"))
	require.NotNil(t, sessionCookie(rec))

	// Tampered state: still a successful login, silent fallback, no error page
	rec = do(s, "GET", "/auth/twitch/callback?code=good-code&state=garbage", "", nil)
	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, defaultLandingPage, rec.Header().Get("Location"))
	require.NotNil(t, sessionCookie(rec))

	// A state smuggling an off-site destination falls back too
	state := auth.EncodeReturnTarget(`/\evil.example.com`)
	rec = do(s, "GET", "/auth/twitch/callback?code=good-code&state="+url.QueryEscape(state), "", nil)
	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, defaultLandingPage, rec.Header().Get("Location"))
}

func TestWhoAmI(t *testing.T) {
	s := testServer(t)
	rec := do(s, "GET", "/api/auth/whoami", "", nil)
	require.Equal(t, 200, rec.Code)
	require.Equal(t, "null", strings.TrimSpace(rec.Body.String()))

	cookie := loginAs(t, s, "streamfan", model.User{TrackEditor: true})
	rec = do(s, "GET", "/api/auth/whoami", "", cookie)
	require.Equal(t, 200, rec.Code)
	identity := auth.Identity{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &identity))
	require.Equal(t, "streamfan", identity.Login)
	require.True(t, identity.Level.IsEditor)
	require.False(t, identity.Level.IsModerator)
}

func TestEffortEndpoints(t *testing.T) {
	s := testServer(t)

	rec := do(s, "GET", "/wow/aq-effort/gandling", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, rec.Body.String(), "No data found for given server")

	// Anonymous and non-moderator ingestion must be rejected
	body := `[{"server":"Gandling","faction":"Horde","material":"Copper Bar","current":750,"required":1000}]`
	rec = do(s, "POST", "/api/wow/aq-effort/snapshot", body, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	viewer := loginAs(t, s, "viewer", model.User{})
	rec = do(s, "POST", "/api/wow/aq-effort/snapshot", body, viewer)
	require.Equal(t, http.StatusForbidden, rec.Code)

	mod := loginAs(t, s, "mod", model.User{TrackModerator: true})
	rec = do(s, "POST", "/api/wow/aq-effort/snapshot", body, mod)
	require.Equal(t, 200, rec.Code)

	rec = do(s, "GET", "/wow/aq-effort/gandling", "", nil)
	require.Equal(t, 200, rec.Code)
	table := effort.Table{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &table))
	require.Equal(t, "AQ War Effort - Gandling", table.Title)
	require.Len(t, table.Rows, 1)
	require.Equal(t, "750", table.Rows[0].Current.Value)

	rec = do(s, "GET", "/wow/aq-effort/gandling/material/horde/copper_bar", "", nil)
	require.Equal(t, 200, rec.Code)
	chart := effort.Chart{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &chart))
	require.Equal(t, []int64{750}, chart.Data)
	require.EqualValues(t, 1000, chart.YMax)

	rec = do(s, "GET", "/wow/aq-effort/gandling/material/alliance/copper_bar", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, rec.Body.String(), "No data found for given material/faction/server combination")
}

func TestSnapshotValidation(t *testing.T) {
	s := testServer(t)
	mod := loginAs(t, s, "mod", model.User{TrackModerator: true})

	rec := do(s, "POST", "/api/wow/aq-effort/snapshot", `[]`, mod)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(s, "POST", "/api/wow/aq-effort/snapshot", `[{"server":"","faction":"Horde","material":"X"}]`, mod)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUserAdminEndpoints(t *testing.T) {
	s := testServer(t)
	rec := do(s, "GET", "/api/users/list", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	mod := loginAs(t, s, "mod", model.User{TrackModerator: true})
	rec = do(s, "GET", "/api/users/list", "", mod)
	require.Equal(t, http.StatusForbidden, rec.Code)

	admin := loginAs(t, s, "boss", model.User{TrackAdmin: true})
	rec = do(s, "GET", "/api/users/list", "", admin)
	require.Equal(t, 200, rec.Code)
	users := []model.User{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &users))
	require.Len(t, users, 2)

	// Grant a capability to someone who has never signed in
	rec = do(s, "POST", "/api/users/save", `{"login":"newmod","trackModerator":true}`, admin)
	require.Equal(t, 200, rec.Code)
	saved := model.User{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &saved))
	require.NotZero(t, saved.ID)
	require.True(t, saved.TrackModerator)

	// Saving again with the same login updates in place
	rec = do(s, "POST", "/api/users/save", `{"login":"newmod","trackModerator":false}`, admin)
	require.Equal(t, 200, rec.Code)
	updated := model.User{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	require.Equal(t, saved.ID, updated.ID)
	require.False(t, updated.TrackModerator)
}

func TestPaypalWebhook(t *testing.T) {
	s := testServer(t)
	body := `{
		"id": "WH-123",
		"create_time": "2026-08-24T15:04:05Z",
		"summary": "Payment received",
		"resource": {"state": "completed", "amount": {"mode": "INSTANT_TRANSFER", "currency": "EUR", "total": "5.00"}}
	}`
	// Always 200, whatever happens downstream
	rec := do(s, "POST", "/paypal", body, nil)
	require.Equal(t, 200, rec.Code)
}
