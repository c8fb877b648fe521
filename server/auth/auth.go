package auth

import (
	"crypto/sha256"
	"net/http"
	"time"

	"github.com/cyclopcam/dbh"
	"github.com/cyclopcam/logs"
	"github.com/tavernkeep/tavern/pkg/rando"
	"github.com/tavernkeep/tavern/server/model"
	"golang.org/x/oauth2"
	"gorm.io/gorm"
)

const SessionCookie = "session"

const sessionLifetime = 30 * 24 * time.Hour

// Identity is the per-request authenticated user view. It is rebuilt from the
// session record and the durable user record on every request, never cached,
// so a revoked privilege takes effect on the very next request.
type Identity struct {
	Login       string       `json:"login"`
	DisplayName string       `json:"displayName"`
	ExternalID  string       `json:"externalId"`
	AvatarURL   string       `json:"avatarUrl"`
	IsSiteAdmin bool         `json:"isSiteAdmin"`
	User        *model.User  `json:"user"`
	Level       Capabilities `json:"level"`
}

// SessionServer owns the session table and turns incoming requests into
// identities.
type SessionServer struct {
	db             *gorm.DB
	log            logs.Log
	siteAdminLogin string
}

func NewSessionServer(db *gorm.DB, log logs.Log, siteAdminLogin string) *SessionServer {
	return &SessionServer{
		db:             db,
		log:            log,
		siteAdminLogin: siteAdminLogin,
	}
}

// Login creates a session holding the provider identity payload and tokens,
// and hands the browser its cookie.
func (s *SessionServer) Login(w http.ResponseWriter, profile *Profile, token *oauth2.Token) error {
	now := time.Now().UTC()
	expiresAt := now.Add(sessionLifetime)
	cookieToken := rando.StrongRandomAlphaNumChars(30)
	session := model.Session{
		Key:       HashSessionToken(cookieToken),
		CreatedAt: dbh.MakeIntTime(now),
		ExpiresAt: dbh.MakeIntTime(expiresAt),
		Identity: dbh.MakeJSONField(model.IdentityPayload{
			ID:          profile.ID,
			Login:       profile.Login,
			DisplayName: profile.DisplayName,
			AvatarURL:   profile.AvatarURL,
		}),
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
	}
	if err := s.db.Create(&session).Error; err != nil {
		return err
	}
	s.PurgeExpiredSessions()
	s.log.Infof("Logging %v in", profile.Login)
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    cookieToken,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
	})
	return nil
}

// Logout destroys the session referenced by the request's cookie.
func (s *SessionServer) Logout(w http.ResponseWriter, r *http.Request) {
	cookie, _ := r.Cookie(SessionCookie)
	if cookie != nil {
		s.db.Where("key = ?", HashSessionToken(cookie.Value)).Delete(&model.Session{})
	}
	http.SetCookie(w, &http.Cookie{
		Name:    SessionCookie,
		Value:   "",
		Path:    "/",
		Expires: time.Unix(0, 0),
	})
}

// IdentityFromRequest resolves the session cookie into an Identity.
// Returns nil when there is no session, the session has expired, or the
// session's login has no durable user record. In all of those cases the
// request proceeds unauthenticated; route handlers decide what that means.
func (s *SessionServer) IdentityFromRequest(r *http.Request) *Identity {
	cookie, _ := r.Cookie(SessionCookie)
	if cookie == nil {
		return nil
	}
	session := model.Session{}
	s.db.Where("key = ?", HashSessionToken(cookie.Value)).Find(&session)
	if session.Identity == nil {
		return nil
	}
	if !session.ExpiresAt.IsZero() && session.ExpiresAt.Get().Before(time.Now()) {
		return nil
	}
	payload := session.Identity.Data
	user := model.User{}
	s.db.Where("login = ?", payload.Login).Find(&user)
	if user.ID == 0 {
		// Valid session, but the durable user record is gone (or was never
		// created by the bot). Degrade to unauthenticated rather than fail.
		s.log.Infof("Session for %v has no user record, treating as anonymous", payload.Login)
		return nil
	}
	return &Identity{
		Login:       payload.Login,
		DisplayName: payload.DisplayName,
		ExternalID:  payload.ID,
		AvatarURL:   payload.AvatarURL,
		IsSiteAdmin: s.siteAdminLogin != "" && payload.Login == s.siteAdminLogin,
		User:        &user,
		Level:       ResolveCapabilities(&user),
	}
}

func (s *SessionServer) PurgeExpiredSessions() {
	db, err := s.db.DB()
	if err != nil {
		s.log.Warnf("PurgeExpiredSessions failed (1): %v", err)
		return
	}
	_, err = db.Exec("DELETE FROM session WHERE expires_at < ?", time.Now().UnixMilli())
	if err != nil {
		s.log.Warnf("PurgeExpiredSessions failed (2): %v", err)
	}
}

// Hash the session token to safeguard against timing attacks (eg in the DB's
// BTree lookup). The browser holds the only plaintext copy.
func HashSessionToken(value string) []byte {
	h := sha256.Sum256([]byte(value))
	return h[:]
}
