// Package nav holds the site's navigation menu. The menu is built once at
// startup and passed into the router construction; nothing mutates it after
// that.
package nav

// Item is one link in a menu section.
type Item struct {
	Name string `json:"name"`
	Link string `json:"link"`
}

// Section is one top-level menu entry, optionally with sub-items.
type Section struct {
	Name  string `json:"name"`
	Link  string `json:"link"`
	Items []Item `json:"items,omitempty"`
}

// DefaultMenu returns the site's menu structure. Callers treat the result as
// read-only.
func DefaultMenu() []Section {
	return []Section{
		{
			Name: "Chat bot",
			Link: "bot",
			Items: []Item{
				{Name: "Channel data", Link: "channels"},
				{Name: "Cookie statistics", Link: "cookie/list"},
				{Name: "Commands", Link: "command"},
				{Name: "Commands statistics", Link: "command/stats"},
				{Name: "Playsounds", Link: "playsound"},
				{Name: "Reminders - yours", Link: "reminder/list"},
				{Name: "Slots winners list", Link: "slots-winner/list"},
				{Name: "Suggestions - all", Link: "suggestions/list"},
				{Name: "Suggestions - yours", Link: "suggestions/mine"},
			},
		},
		{
			Name: "Channel bots",
			Link: "bot",
			Items: []Item{
				{Name: "Program info", Link: "channel-bots"},
				{Name: "Bots", Link: "channel-bots"},
				{Name: "Badges", Link: "channel-bots/badges"},
				{Name: "Levels", Link: "channel-bots/levels"},
			},
		},
		{
			Name: "War effort",
			Link: "wow",
			Items: []Item{
				{Name: "AQ war effort", Link: "aq-effort"},
			},
		},
		{
			Name: "Stream",
			Link: "stream",
			Items: []Item{
				{Name: "TTS voices", Link: "tts"},
				{Name: "Video request queue", Link: "video-queue"},
			},
		},
		{Name: "Emote origins", Link: "origin"},
		{Name: "API", Link: "api"},
		{Name: "Contact", Link: "contact"},
	}
}
