package auth

import "github.com/tavernkeep/tavern/server/model"

// Capabilities are the per-request authorization levels that view logic
// consumes. The storage flags are not hierarchical, so each level ORs in the
// flags above it: an admin passes the moderator and editor checks too.
type Capabilities struct {
	IsLogin     bool `json:"isLogin"`
	IsEditor    bool `json:"isEditor"`
	IsModerator bool `json:"isModerator"`
	IsAdmin     bool `json:"isAdmin"`
}

// ResolveCapabilities is a pure function of the three stored flags.
// Reaching this point implies a live session, hence IsLogin is always true.
func ResolveCapabilities(user *model.User) Capabilities {
	return Capabilities{
		IsLogin:     true,
		IsEditor:    user.TrackEditor || user.TrackModerator || user.TrackAdmin,
		IsModerator: user.TrackModerator || user.TrackAdmin,
		IsAdmin:     user.TrackAdmin,
	}
}
