package domain

import (
	"fmt"
	"strings"
	"time"
)

// Environment names used in artifact keys.
const (
	EnvDraft = "draft"
	EnvLive  = "live"
)

// TransientPrefix marks keys of short-lived copies that the janitor may sweep.
const TransientPrefix = "_tmp/"

// HTMLContentType is stored with every page artifact.
const HTMLContentType = "text/html; charset=utf-8"

// PageArtifact is one stored HTML revision of a page.
type PageArtifact struct {
	Key         string
	Body        []byte
	VersionTag  string
	ContentType string
	UpdatedAt   time.Time
}

// ArtifactInfo is a listing entry.
type ArtifactInfo struct {
	Key        string
	Size       int64
	VersionTag string
	Timestamp  time.Time
}

// PutOptions turns a write into a conditional one.
type PutOptions struct {
	// IfMatch rejects the write unless the stored tag equals it.
	IfMatch string
	// IfNoneMatch rejects the write when the key already exists.
	IfNoneMatch bool
}

// ArtifactKey builds the `{site}/{environment}/{page}.html` store key.
func ArtifactKey(site, env, page string) string {
	return fmt.Sprintf("%s/%s/%s.html", site, env, strings.TrimSuffix(page, ".html"))
}

// TransientKey builds a key under the site's transient area.
func TransientKey(site, name string) string {
	return site + "/" + TransientPrefix + name
}
