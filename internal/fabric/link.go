// Package fabric resolves content links against the content-addressed store:
// composing authorized object URLs, fetching metadata subtrees, and selecting
// a playable delivery option among the offered DRM schemes.
package fabric

import (
	"encoding/json"
	"net/url"
	"strconv"
	"strings"

	"github.com/mediafabric/fabric-client/internal/errs"
)

// legacyPathPrefix marks old-format link paths that embed their own
// container hash. When present the prefix is stripped and the link's hash is
// cleared: the remaining path is self-contained.
const legacyPathPrefix = "/qfab/"

// ResolveOptions control server-side link resolution: the store transparently
// follows and inlines linked sub-objects up to LinkDepth, with per-link error
// tolerance.
type ResolveOptions struct {
	LinkDepth     int
	Resolve       bool
	IncludeSource bool
	IgnoreErrors  bool
}

// ContentLink points at an object or sub-object in the fabric. Immutable
// once parsed; never mutated after resolution to a URL.
type ContentLink struct {
	Path    string
	Hash    string
	Options ResolveOptions
}

// linkDescriptor is the upstream JSON shape a link arrives in.
type linkDescriptor struct {
	Path      string `json:"/"`
	Container string `json:"container"`
}

// ParseLink extracts a ContentLink from an upstream link descriptor.
func ParseLink(raw json.RawMessage) (ContentLink, error) {
	var desc linkDescriptor
	if err := json.Unmarshal(raw, &desc); err != nil {
		return ContentLink{}, errs.NewUnexpectedResponse("decode content link", err)
	}
	if desc.Path == "" {
		return ContentLink{}, errs.NewUnexpectedResponse("content link missing path", nil)
	}
	return NewLink(desc.Path, desc.Container), nil
}

// NewLink builds a ContentLink from a path and container hash, normalizing
// the legacy path form.
func NewLink(path, hash string) ContentLink {
	if strings.HasPrefix(path, legacyPathPrefix) {
		path = strings.TrimPrefix(path, legacyPathPrefix)
		hash = ""
	}
	return ContentLink{Path: strings.TrimPrefix(path, "./"), Hash: hash}
}

// objectPath returns the /q/... request path for the link.
func (l ContentLink) objectPath() string {
	path := strings.TrimLeft(l.Path, "/")
	if l.Hash == "" {
		return "/q/" + path
	}
	return "/q/" + l.Hash + "/" + path
}

// query renders the resolve-control parameters.
func (o ResolveOptions) query(q url.Values) {
	if o.LinkDepth > 0 {
		q.Set("link_depth", strconv.Itoa(o.LinkDepth))
	}
	if o.Resolve {
		q.Set("resolve", "true")
	}
	if o.IncludeSource {
		q.Set("resolve_include_source", "true")
	}
	if o.IgnoreErrors {
		q.Set("resolve_ignore_errors", "true")
	}
}
