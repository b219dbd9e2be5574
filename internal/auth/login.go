package auth

import (
	"context"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mediafabric/fabric-client/internal/errs"
	"github.com/mediafabric/fabric-client/internal/httputil"
)

// Login exchanges an external identity token for a cluster-scoped token and
// the account's blockchain address. ProviderExternal skips the exchange and
// uses the supplied token as the cluster token directly.
func (t *TokenSigner) Login(ctx context.Context, identityToken string, provider ProviderType) (*LoginResponse, error) {
	if identityToken == "" {
		return nil, errs.NewBadInput("identityToken", "empty")
	}
	if provider == ProviderExternal {
		return &LoginResponse{ClusterToken: identityToken}, nil
	}

	if claims, err := identityClaims(identityToken); err == nil {
		t.log.WithField("subject", claims.Subject).WithField("provider", string(provider)).Debug("exchanging identity token")
	}

	client, err := httputil.NewClient(httputil.Config{
		BaseURL: t.authBaseURL,
		Service: "login",
		Tokens:  httputil.StaticToken(identityToken),
		Metrics: t.metrics,
	})
	if err != nil {
		return nil, err
	}

	var resp LoginResponse
	if err := client.Post(ctx, "/wlt/login/jwt", struct{}{}, &resp); err != nil {
		return nil, err
	}
	if resp.Address == "" || resp.ClusterToken == "" {
		return nil, errs.NewUnexpectedResponse("login response missing address or token", nil)
	}
	t.log.WithField("address", resp.Address).Info("login exchange complete")
	return &resp, nil
}

// IdentityClaims are the unverified claims pulled out of an external identity
// token. Verification is the issuing provider's job; the client reads them
// only for labeling and logging.
type IdentityClaims struct {
	Subject string
	Email   string
}

func identityClaims(identityToken string) (*IdentityClaims, error) {
	token, _, err := jwt.NewParser().ParseUnverified(identityToken, jwt.MapClaims{})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errs.NewUnexpectedResponse("identity token claims", nil)
	}
	out := &IdentityClaims{}
	if sub, err := claims.GetSubject(); err == nil {
		out.Subject = sub
	}
	if email, ok := claims["email"].(string); ok {
		out.Email = email
	}
	return out, nil
}
