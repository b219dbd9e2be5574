package fabric

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/mediafabric/fabric-client/internal/errs"
	"github.com/mediafabric/fabric-client/internal/httputil"
	"github.com/mediafabric/fabric-client/internal/metrics"
	"github.com/mediafabric/fabric-client/pkg/logger"
)

// Resolver turns content links into concrete authorized URLs and fetches
// objects from the store. Authorization travels as a query parameter, either
// the signed bearer token or the minimal static token for public reads.
type Resolver struct {
	endpoint    string
	network     string
	tokens      httputil.TokenSource
	staticToken string
	client      *httputil.Client
	log         *logger.Logger
}

// ResolverConfig configures a Resolver.
type ResolverConfig struct {
	Endpoint    string
	Network     string
	Tokens      httputil.TokenSource
	StaticToken string
	Metrics     *metrics.Metrics
	Logger      *logger.Logger
}

// NewResolver creates a link resolver for one fabric endpoint.
func NewResolver(cfg ResolverConfig) (*Resolver, error) {
	if cfg.Endpoint == "" {
		return nil, errs.NewConfigError("fabric endpoint required")
	}
	log := cfg.Logger
	if log == nil {
		log = logger.NewDefault("fabric")
	}
	client, err := httputil.NewClient(httputil.Config{
		BaseURL: cfg.Endpoint,
		Service: "fabric",
		Metrics: cfg.Metrics,
	})
	if err != nil {
		return nil, err
	}
	return &Resolver{
		endpoint:    strings.TrimRight(cfg.Endpoint, "/"),
		network:     cfg.Network,
		tokens:      cfg.Tokens,
		staticToken: cfg.StaticToken,
		client:      client,
		log:         log,
	}, nil
}

// URLOptions adjust URL resolution.
type URLOptions struct {
	// BaseURLOverride replaces the resolver's endpoint for this URL only.
	BaseURLOverride string
	// AuthRequired selects the signed bearer token (true, the default path)
	// or the static space token (false).
	AuthRequired bool
	// ResolveFlags attaches the link's resolve-control parameters.
	ResolveFlags bool
}

// ResolveURL composes the concrete authorized URL for a link.
func (r *Resolver) ResolveURL(link ContentLink, opts URLOptions) (string, error) {
	base := r.endpoint
	if opts.BaseURLOverride != "" {
		base = strings.TrimRight(opts.BaseURLOverride, "/")
	}

	q := url.Values{}
	token, err := r.authToken(opts.AuthRequired)
	if err != nil {
		return "", err
	}
	q.Set("authorization", token)
	if opts.ResolveFlags {
		link.Options.query(q)
	}

	u := base + link.objectPath() + "?" + q.Encode()
	if _, err := url.Parse(u); err != nil {
		return "", errs.ErrInvalidURL
	}
	return u, nil
}

// StaticAssetURL composes the URL of a network-scoped static asset under the
// /s/{network} tree.
func (r *Resolver) StaticAssetURL(assetPath string) (string, error) {
	if r.network == "" {
		return "", errs.NewConfigError("network name required for static assets")
	}
	token, err := r.authToken(false)
	if err != nil {
		return "", err
	}
	q := url.Values{}
	q.Set("authorization", token)
	return r.endpoint + "/s/" + r.network + "/" + strings.TrimLeft(assetPath, "/") + "?" + q.Encode(), nil
}

func (r *Resolver) authToken(authRequired bool) (string, error) {
	if authRequired {
		if r.tokens == nil {
			return "", errs.ErrNoLogin
		}
		return r.tokens.BearerToken()
	}
	if r.staticToken == "" {
		return "", errs.NewConfigError("no static token configured")
	}
	return r.staticToken, nil
}

// Metadata fetches a metadata subtree of the linked object with server-side
// link resolution, returned for dynamic traversal.
func (r *Resolver) Metadata(ctx context.Context, link ContentLink, subtree string) (gjson.Result, error) {
	token, err := r.authToken(true)
	if err != nil {
		return gjson.Result{}, err
	}

	q := url.Values{}
	q.Set("authorization", token)
	link.Options.query(q)

	path := strings.TrimRight(link.objectPath(), "/") + "/meta/" + strings.TrimLeft(subtree, "/")

	var raw json.RawMessage
	if err := r.client.GetPublic(ctx, path, q, &raw); err != nil {
		return gjson.Result{}, err
	}
	return gjson.ParseBytes(raw), nil
}
