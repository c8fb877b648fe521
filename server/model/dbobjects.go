package model

import "github.com/cyclopcam/dbh"

// BaseModel is our base class for a GORM model.
// The default GORM Model uses int, but we prefer int64
type BaseModel struct {
	ID int64 `gorm:"primaryKey" json:"id"`
}

// User is the durable application user record. The chat bot is the primary
// writer of this table; the site reads it on every authenticated request to
// derive capabilities, and site admins can edit the track* flags.
type User struct {
	BaseModel
	Login          string      `json:"login"`
	DisplayName    string      `json:"displayName" gorm:"default:null"`
	ExternalID     string      `json:"externalId" gorm:"default:null"`
	AvatarURL      string      `json:"avatarUrl" gorm:"default:null"`
	TrackEditor    bool        `json:"trackEditor"`
	TrackModerator bool        `json:"trackModerator"`
	TrackAdmin     bool        `json:"trackAdmin"`
	CreatedAt      dbh.IntTime `json:"createdAt"`
}

// IdentityPayload is the provider profile blob stored on the session at login.
// Field names follow the provider's JSON so the payload round-trips verbatim.
type IdentityPayload struct {
	ID          string `json:"id"`
	Login       string `json:"login"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"profile_image_url"`
}

// Session is one browser login. Key is the sha256 of the cookie token, so a
// leaked database does not leak live sessions.
type Session struct {
	Key          []byte `gorm:"primaryKey"`
	CreatedAt    dbh.IntTime
	ExpiresAt    dbh.IntTime                     `gorm:"default:null"`
	Identity     *dbh.JSONField[IdentityPayload] `gorm:"default:null"`
	AccessToken  string                          `gorm:"default:null"`
	RefreshToken string                          `gorm:"default:null"`
}

// Snapshot is one immutable measurement of a war-effort material count,
// produced by the external collector. Append-only; the aggregator only reads.
type Snapshot struct {
	BaseModel
	Server    string      `json:"server"`
	Faction   string      `json:"faction"`
	Material  string      `json:"material"`
	Current   int64       `json:"current"`
	Required  int64       `json:"required"`
	UpdatedAt dbh.IntTime `json:"updatedAt"`
}
