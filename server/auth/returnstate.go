package auth

import (
	"encoding/base64"
	"encoding/json"
	"strings"
)

// Guard against absurd state blobs coming back from the OAuth redirect
const maxStateTokenLen = 512

type returnStateJSON struct {
	ReturnTo string `json:"returnTo"`
}

// EncodeReturnTarget wraps the pre-login destination path in an opaque token
// that rides through the OAuth 'state' parameter.
// An empty path produces an empty token, which means "send no state at all".
func EncodeReturnTarget(path string) string {
	if path == "" {
		return ""
	}
	raw, _ := json.Marshal(&returnStateJSON{ReturnTo: path})
	return base64.RawURLEncoding.EncodeToString(raw)
}

// DecodeReturnTarget is the inverse of EncodeReturnTarget.
// Anything that fails to decode, or decodes to a path that is not a
// same-origin relative path, yields "", and the caller falls back to its
// default destination. This function never fails loudly, because the state
// parameter is round-tripped through a third party and the browser.
func DecodeReturnTarget(token string) string {
	if token == "" || len(token) > maxStateTokenLen {
		return ""
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return ""
	}
	state := returnStateJSON{}
	if err := json.Unmarshal(raw, &state); err != nil {
		return ""
	}
	// "//host" is scheme-relative and would navigate off-site. Browsers treat
	// backslash as slash when parsing URLs, so "/\host" is the same hole.
	if !strings.HasPrefix(state.ReturnTo, "/") || strings.HasPrefix(state.ReturnTo, "//") ||
		strings.ContainsRune(state.ReturnTo, '\\') {
		return ""
	}
	return state.ReturnTo
}
