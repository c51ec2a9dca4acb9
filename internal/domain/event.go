package domain

import "encoding/json"

// Room message types.
const (
	MessageUsers      = "users"
	MessageRemoteSave = "remote-save"
)

// RemoteSave tells editors that a page changed under them and should be re-fetched.
type RemoteSave struct {
	Type       string `json:"type"`
	Site       string `json:"site"`
	Page       string `json:"page"`
	VersionTag string `json:"versionTag"`
}

// NewRemoteSave encodes a remote-save room message.
func NewRemoteSave(site, page, versionTag string) []byte {
	raw, _ := json.Marshal(RemoteSave{Type: MessageRemoteSave, Site: site, Page: page, VersionTag: versionTag})
	return raw
}
