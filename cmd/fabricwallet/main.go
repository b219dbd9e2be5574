// Command fabricwallet exercises the fabric access client from the command
// line: it signs in with a supplied identity token, then executes one action
// (a deep link, a content resolve, or a wallet operation) and prints the
// result as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/mediafabric/fabric-client/internal/auth"
	"github.com/mediafabric/fabric-client/internal/catalog"
	"github.com/mediafabric/fabric-client/internal/config"
	"github.com/mediafabric/fabric-client/internal/deeplink"
	"github.com/mediafabric/fabric-client/internal/fabric"
	"github.com/mediafabric/fabric-client/internal/metrics"
	"github.com/mediafabric/fabric-client/internal/ops"
	"github.com/mediafabric/fabric-client/internal/permissions"
	"github.com/mediafabric/fabric-client/internal/session"
	"github.com/mediafabric/fabric-client/pkg/logger"
)

func main() {
	// Optional .env for local development; missing file is fine.
	_ = godotenv.Load()

	configPath := flag.String("config", envOr("FABRIC_CONFIG", "config/networks.yaml"), "Network configuration document")
	networkName := flag.String("network", envOr("FABRIC_NETWORK", "main"), "Network name to resolve")
	identityToken := flag.String("token", os.Getenv("FABRIC_IDENTITY_TOKEN"), "External identity token for sign-in")
	link := flag.String("link", "", "Deep link to execute")
	propertyID := flag.String("property", "", "Property ID for catalog actions")
	tenantID := flag.String("tenant", "", "Tenant ID for wallet operations")
	timeout := flag.Duration("timeout", 10*time.Minute, "Overall action timeout")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	resolver, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	network, err := resolver.Resolve(*networkName)
	if err != nil {
		log.Fatalf("network: %v", err)
	}

	app, err := newApp(ctx, network, *identityToken)
	if err != nil {
		log.Fatalf("sign-in: %v", err)
	}

	var result any
	switch {
	case *link != "":
		result, err = app.runDeepLink(ctx, *link, *tenantID)
	case *propertyID != "":
		result, err = app.describeProperty(ctx, *propertyID)
	default:
		flag.Usage()
		os.Exit(1)
	}
	if err != nil {
		log.Fatalf("action: %v", err)
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		log.Fatalf("encode result: %v", err)
	}
	fmt.Println(string(out))
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// app wires the client components around one session.
type app struct {
	session     *session.Session
	fabric      *fabric.Resolver
	catalog     *catalog.Client
	permissions *permissions.Resolver
	operations  *ops.Operations
}

func newApp(ctx context.Context, network *config.NetworkConfig, identityToken string) (*app, error) {
	log := logger.NewDefault("fabricwallet")
	m := metrics.New(prometheus.DefaultRegisterer)
	selector := config.FirstEndpoint{}

	authURL, err := network.Endpoint(config.ServiceAuth, selector)
	if err != nil {
		return nil, err
	}
	fabricURL, err := network.Endpoint(config.ServiceFabric, selector)
	if err != nil {
		return nil, err
	}

	signer, err := auth.NewTokenSigner(auth.TokenSignerConfig{
		AuthBaseURL: authURL,
		Metrics:     m,
		Logger:      log,
	})
	if err != nil {
		return nil, err
	}
	login, err := signer.Login(ctx, identityToken, auth.ProviderAuth0)
	if err != nil {
		return nil, err
	}
	fabricToken, err := signer.CreateAccessToken(ctx, login, network.ContentSpaceID)
	if err != nil {
		return nil, err
	}
	accountID, err := auth.AccountIDFromAddress(login.Address)
	if err != nil {
		return nil, err
	}

	sess := session.New(network, nil, log)
	catalogClient, err := catalog.NewClient(catalog.ClientConfig{
		BaseURL: authURL,
		Tokens:  sess,
		Metrics: m,
		Logger:  log,
	})
	if err != nil {
		return nil, err
	}
	cache := catalog.NewCache(catalogClient, log)
	sess.AttachCache(cache)
	sess.SignIn(&auth.Account{
		Provider:    auth.ProviderAuth0,
		Address:     login.Address,
		AccountID:   accountID,
		FabricToken: fabricToken,
		Login:       login,
	})

	staticToken, err := auth.StaticSpaceToken(network.ContentSpaceID)
	if err != nil {
		return nil, err
	}
	fabricResolver, err := fabric.NewResolver(fabric.ResolverConfig{
		Endpoint:    fabricURL,
		Network:     network.Name,
		Tokens:      sess,
		StaticToken: staticToken,
		Metrics:     m,
		Logger:      log,
	})
	if err != nil {
		return nil, err
	}

	opsClient, err := ops.NewClient(ops.ClientConfig{
		BaseURL: authURL,
		Tokens:  sess,
		Metrics: m,
		Logger:  log,
	})
	if err != nil {
		return nil, err
	}

	return &app{
		session:     sess,
		fabric:      fabricResolver,
		catalog:     catalogClient,
		permissions: permissions.NewResolver(cache, log),
		operations:  ops.NewOperations(opsClient, ops.NewPoller(opsClient)),
	}, nil
}

func (a *app) runDeepLink(ctx context.Context, raw, tenantID string) (any, error) {
	dl, err := deeplink.Parse(raw)
	if err != nil {
		return nil, err
	}
	switch dl.Action {
	case deeplink.ActionMint:
		result, err := a.operations.MintEntitlement(ctx, tenantID, dl.Marketplace, dl.SKU, dl.Authorization)
		if err != nil {
			return nil, a.session.HandleAPIError(err)
		}
		return result, nil
	case deeplink.ActionPlay:
		item, err := a.session.Cache().MediaItem(ctx, dl.PropertyID, dl.MediaID)
		if err != nil {
			return nil, a.session.HandleAPIError(err)
		}
		link, err := fabric.ParseLink(item.MediaLink)
		if err != nil {
			return nil, err
		}
		return a.fabric.PlayoutURL(ctx, link, "default", fabric.CapabilityFairPlay)
	case deeplink.ActionProperty, deeplink.ActionItems:
		return a.describeProperty(ctx, dl.PropertyID)
	}
	return nil, fmt.Errorf("unhandled deep link action %q", dl.Action)
}

func (a *app) describeProperty(ctx context.Context, propertyID string) (any, error) {
	property, err := a.catalog.GetProperty(ctx, propertyID)
	if err != nil {
		return nil, a.session.HandleAPIError(err)
	}
	outcome, err := a.permissions.Resolve(ctx, permissions.Request{PropertyID: propertyID})
	if err != nil {
		return nil, a.session.HandleAPIError(err)
	}
	return struct {
		Property   *catalog.MediaProperty `json:"property"`
		Permission *permissions.Result    `json:"permission"`
	}{property, outcome}, nil
}
