package models

// User is the authenticated viewer of the remote catalog.
type User struct {
	ID           int                   `json:"id"`
	Name         string                `json:"name"`
	AvatarURL    string                `json:"avatarUrl,omitempty"`
	ProfileColor string                `json:"profileColor,omitempty"`
	ScoreFormat  ScoreFormat           `json:"scoreFormat,omitempty"`
	CustomLists  map[Category][]string `json:"customLists,omitempty"`
}
