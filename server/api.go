package server

import (
	"net/http"
	"os"
	"time"

	"github.com/cyclopcam/staticfiles"
	"github.com/cyclopcam/www"
	"github.com/go-chi/httprate"
	"github.com/julienschmidt/httprouter"
	"github.com/tavernkeep/tavern/server/auth"
)

type identityHandler func(w http.ResponseWriter, r *http.Request, params httprouter.Params, identity *auth.Identity)

func (s *Server) setupHttpRoutes() error {
	router := httprouter.New()

	public := func(method, route string, handle httprouter.Handle) {
		www.Handle(s.Log, router, method, route, handle)
	}

	// withIdentity resolves the session before the handler runs. This is the
	// single point of truth for identity across all routes: identity is nil
	// for anonymous requests, and the handler decides what that means.
	withIdentity := func(method, route string, handle identityHandler) {
		www.Handle(s.Log, router, method, route, func(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
			handle(w, r, params, s.sessions.IdentityFromRequest(r))
		})
	}

	// protected rejects the request unless the capability check passes
	protected := func(method, route string, allowed func(auth.Capabilities) bool, handle identityHandler) {
		withIdentity(method, route, func(w http.ResponseWriter, r *http.Request, params httprouter.Params, identity *auth.Identity) {
			if identity == nil {
				www.PanicUnauthorized()
			}
			if !allowed(identity.Level) {
				www.PanicForbidden()
			}
			handle(w, r, params, identity)
		})
	}

	// ratelimited guards the endpoints that talk to the identity provider
	ratelimited := func(method, route string, handle httprouter.Handle, requestLimit int, windowLength time.Duration) {
		limited := httprate.Limit(requestLimit, windowLength, httprate.WithKeyFuncs(httprate.KeyByIP))
		www.Handle(s.Log, router, method, route, func(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
			limited(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				handle(w, r, params)
			})).ServeHTTP(w, r)
		})
	}

	public("GET", "/api/ping", s.httpPing)
	public("GET", "/robots.txt", s.httpRobots)
	public("GET", "/api/navigation", s.httpNavigation)

	ratelimited("GET", "/auth/twitch", s.httpAuthBegin, 10, time.Minute)
	ratelimited("GET", "/auth/twitch/callback", s.httpAuthCallback, 10, time.Minute)
	withIdentity("POST", "/api/auth/logout", s.httpAuthLogout)
	withIdentity("GET", "/api/auth/whoami", s.httpAuthWhoAmI)

	withIdentity("GET", "/wow/aq-effort/:server", s.httpEffortTable)
	withIdentity("GET", "/wow/aq-effort/:server/material/:faction/:material", s.httpEffortMaterial)
	protected("POST", "/api/wow/aq-effort/snapshot", func(level auth.Capabilities) bool { return level.IsModerator }, s.httpEffortAddSnapshots)

	protected("GET", "/api/users/list", func(level auth.Capabilities) bool { return level.IsAdmin }, s.httpUsersList)
	protected("POST", "/api/users/save", func(level auth.Capabilities) bool { return level.IsAdmin }, s.httpUsersSave)

	public("POST", "/paypal", s.httpPaypalWebhook)

	if s.cfg.StaticRoot != "" {
		static, err := staticfiles.NewCachedStaticFileServer(os.DirFS(s.cfg.StaticRoot), "", []string{"/api/", "/auth/"}, s.Log, false, nil)
		if err != nil {
			s.Log.Warnf("Error in static files: %v. Public assets will not be served.", err)
		} else {
			router.NotFound = static
		}
	}

	s.httpRouter = router
	return nil
}
