// Package session holds the application session: the current account and
// bearer token, the catalog cache handle, and the centralized forced
// sign-out. It is an explicit context object passed to every component
// constructor; there is no ambient or static mutable state.
package session

import (
	"sync"

	"github.com/mediafabric/fabric-client/internal/auth"
	"github.com/mediafabric/fabric-client/internal/catalog"
	"github.com/mediafabric/fabric-client/internal/config"
	"github.com/mediafabric/fabric-client/internal/errs"
	"github.com/mediafabric/fabric-client/pkg/logger"
)

type accountKey struct {
	provider auth.ProviderType
	property string
}

// Session is created on sign-in and cleared on sign-out. A network switch
// discards the session wholesale and builds a new one against the new
// NetworkConfig.
type Session struct {
	mu      sync.Mutex
	network *config.NetworkConfig
	cache   *catalog.Cache
	account *auth.Account
	// saved retains the previously signed-in account per (provider,
	// property) for quick switching.
	saved map[accountKey]*auth.Account
	log   *logger.Logger
}

// New creates a signed-out session for one network.
func New(network *config.NetworkConfig, cache *catalog.Cache, log *logger.Logger) *Session {
	if log == nil {
		log = logger.NewDefault("session")
	}
	return &Session{
		network: network,
		cache:   cache,
		saved:   make(map[accountKey]*auth.Account),
		log:     log,
	}
}

// AttachCache binds the catalog cache after construction. The cache's
// client uses the session as its token source, so the session necessarily
// exists first.
func (s *Session) AttachCache(cache *catalog.Cache) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = cache
}

// Network returns the active network configuration.
func (s *Session) Network() *config.NetworkConfig { return s.network }

// Cache returns the catalog cache bound to this session.
func (s *Session) Cache() *catalog.Cache {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cache
}

// SignIn installs the account as current and remembers it for its
// (provider, property) slot.
func (s *Session) SignIn(account *auth.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.account = account
	s.saved[accountKey{account.Provider, account.PropertyID}] = account
	s.log.WithField("account_id", account.AccountID).WithField("provider", string(account.Provider)).Info("signed in")
}

// SignOut clears the current account and the catalog cache.
func (s *Session) SignOut() {
	s.mu.Lock()
	s.account = nil
	cache := s.cache
	s.mu.Unlock()
	if cache != nil {
		cache.Reset()
	}
	s.log.Info("signed out")
}

// Account returns the current account, or nil when signed out.
func (s *Session) Account() *auth.Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.account
}

// SavedAccount returns a previously signed-in account for the slot.
func (s *Session) SavedAccount(provider auth.ProviderType, propertyID string) (*auth.Account, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.saved[accountKey{provider, propertyID}]
	return account, ok
}

// BearerToken implements httputil.TokenSource. A missing token is a hard
// error: there is no guest mode.
func (s *Session) BearerToken() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.account == nil || s.account.FabricToken == "" {
		return "", errs.ErrNoLogin
	}
	return s.account.FabricToken, nil
}

// HandleAPIError is the single cross-cutting recovery path: an APIError with
// a 4xx status, or whose reason mentions an expired token, forces a sign-out
// (account cleared, cache cleared) and surfaces ErrNoLogin so the caller can
// require re-authentication. Every other error passes through untouched.
func (s *Session) HandleAPIError(err error) error {
	if err == nil {
		return nil
	}
	apiErr, ok := errs.AsAPIError(err)
	if !ok || !apiErr.RequiresSignOut() {
		return err
	}
	s.log.WithField("status", apiErr.StatusCode).Warn("authorization rejected, forcing sign-out")
	s.SignOut()
	return errs.ErrNoLogin
}
