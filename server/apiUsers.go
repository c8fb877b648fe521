package server

import (
	"net/http"
	"time"

	"github.com/cyclopcam/dbh"
	"github.com/cyclopcam/www"
	"github.com/julienschmidt/httprouter"
	"github.com/tavernkeep/tavern/server/auth"
	"github.com/tavernkeep/tavern/server/model"
)

func (s *Server) httpUsersList(w http.ResponseWriter, r *http.Request, params httprouter.Params, identity *auth.Identity) {
	users := []model.User{}
	www.Check(s.DB.Order("login").Find(&users).Error)
	www.SendJSON(w, users)
}

// Create or update a user record. Matching is by login, so admins can grant
// capabilities before the person has ever signed in.
func (s *Server) httpUsersSave(w http.ResponseWriter, r *http.Request, params httprouter.Params, identity *auth.Identity) {
	user := model.User{}
	www.ReadJSON(w, r, &user, 1024*1024)
	if user.Login == "" {
		www.PanicBadRequestf("login is required")
	}
	existing := model.User{}
	s.DB.Where("login = ?", user.Login).Find(&existing)
	if existing.ID == 0 {
		user.ID = 0
		user.CreatedAt = dbh.MakeIntTime(time.Now().UTC())
		www.Check(s.DB.Create(&user).Error)
	} else {
		user.ID = existing.ID
		user.CreatedAt = existing.CreatedAt
		www.Check(s.DB.Save(&user).Error)
	}
	s.Log.Infof("User %v saved by %v", user.Login, identity.Login)
	www.SendJSON(w, &user)
}
