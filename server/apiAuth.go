package server

import (
	"net/http"

	"github.com/cyclopcam/www"
	"github.com/julienschmidt/httprouter"
	"github.com/tavernkeep/tavern/server/auth"
)

const (
	// Where a successful login lands when no (valid) returnTo was requested
	defaultLandingPage = "/contact"
	// Where a failed or refused login lands
	authFailurePage = "/wcs"
)

func (s *Server) httpAuthBegin(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	returnTo := www.QueryValue(r, "returnTo")
	state := auth.EncodeReturnTarget(returnTo)
	http.Redirect(w, r, s.twitch.BeginAuthorization(state), http.StatusFound)
}

func (s *Server) httpAuthCallback(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	if e := www.QueryValue(r, "error"); e != "" {
		// Provider-reported failure, eg the user denied consent
		s.Log.Infof("Twitch login refused: %v (%v)", e, www.QueryValue(r, "error_description"))
		http.Redirect(w, r, authFailurePage, http.StatusFound)
		return
	}
	code := www.QueryValue(r, "code")
	if code == "" {
		http.Redirect(w, r, authFailurePage, http.StatusFound)
		return
	}
	profile, token, err := s.twitch.CompleteAuthorization(r.Context(), code)
	if err != nil {
		s.Log.Warnf("Twitch login failed: %v", err)
		http.Redirect(w, r, authFailurePage, http.StatusFound)
		return
	}
	www.Check(s.sessions.Login(w, profile, token))

	state := www.QueryValue(r, "state")
	target := auth.DecodeReturnTarget(state)
	if target == "" {
		if state != "" {
			s.Log.Infof("Redirect not applicable, falling back to %v", defaultLandingPage)
		}
		target = defaultLandingPage
	}
	http.Redirect(w, r, target, http.StatusFound)
}

func (s *Server) httpAuthLogout(w http.ResponseWriter, r *http.Request, params httprouter.Params, identity *auth.Identity) {
	s.sessions.Logout(w, r)
	www.SendOK(w)
}

// Returns the authenticated user view + capability set, or JSON null when the
// request carries no usable session.
func (s *Server) httpAuthWhoAmI(w http.ResponseWriter, r *http.Request, params httprouter.Params, identity *auth.Identity) {
	www.SendJSON(w, identity)
}
