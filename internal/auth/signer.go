package auth

import (
	"context"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"github.com/mediafabric/fabric-client/internal/errs"
	"github.com/mediafabric/fabric-client/internal/httputil"
	"github.com/mediafabric/fabric-client/internal/metrics"
	"github.com/mediafabric/fabric-client/pkg/logger"
)

// Signature holds the components returned by the custodial signer.
type Signature struct {
	R []byte
	S []byte
	V byte
}

// Join returns the 65-byte r ‖ s ‖ v wire form.
func (sig Signature) Join() []byte {
	out := make([]byte, 65)
	copy(out[32-len(sig.R):32], sig.R)
	copy(out[64-len(sig.S):64], sig.S)
	out[64] = sig.V
	return out
}

// DigestSigner signs a 32-byte message digest on behalf of an account.
type DigestSigner interface {
	SignDigest(ctx context.Context, accountID string, digest []byte) (Signature, error)
}

// RemoteSigner signs digests through the authority service's custodial
// signing endpoint. The cluster token from the login exchange authenticates
// the call.
type RemoteSigner struct {
	client *httputil.Client
	log    *logger.Logger
}

// RemoteSignerConfig configures a RemoteSigner.
type RemoteSignerConfig struct {
	AuthBaseURL  string
	ClusterToken string
	Metrics      *metrics.Metrics
	Logger       *logger.Logger
}

// NewRemoteSigner creates a signer client.
func NewRemoteSigner(cfg RemoteSignerConfig) (*RemoteSigner, error) {
	if cfg.ClusterToken == "" {
		return nil, errs.NewConfigError("cluster token required for remote signing")
	}
	log := cfg.Logger
	if log == nil {
		log = logger.NewDefault("signer")
	}
	client, err := httputil.NewClient(httputil.Config{
		BaseURL: cfg.AuthBaseURL,
		Service: "signer",
		Tokens:  httputil.StaticToken(cfg.ClusterToken),
		Metrics: cfg.Metrics,
	})
	if err != nil {
		return nil, err
	}
	return &RemoteSigner{client: client, log: log}, nil
}

type signRequest struct {
	Hash string `json:"hash"`
}

type signResponse struct {
	R string `json:"r"`
	S string `json:"s"`
	V string `json:"v"`
}

// SignDigest submits the digest and returns the r/s/v signature components.
// A response missing any component is an UnexpectedResponseError.
func (rs *RemoteSigner) SignDigest(ctx context.Context, accountID string, digest []byte) (Signature, error) {
	if accountID == "" {
		return Signature{}, errs.NewBadInput("accountID", "empty")
	}
	if len(digest) != 32 {
		return Signature{}, errs.NewBadInput("digest", fmt.Sprintf("expected 32 bytes, got %d", len(digest)))
	}

	var resp signResponse
	path := "/wlt/sign/eth/" + accountID
	if err := rs.client.Post(ctx, path, signRequest{Hash: "0x" + hex.EncodeToString(digest)}, &resp); err != nil {
		return Signature{}, err
	}
	sig, err := parseSignature(resp)
	if err != nil {
		return Signature{}, err
	}
	rs.log.WithField("account_id", accountID).Debug("digest signed")
	return sig, nil
}

func parseSignature(resp signResponse) (Signature, error) {
	if resp.R == "" || resp.S == "" || resp.V == "" {
		return Signature{}, errs.NewUnexpectedResponse("signature response missing r/s/v", nil)
	}
	r, err := hexQuantity(resp.R, 32)
	if err != nil {
		return Signature{}, errs.NewUnexpectedResponse("signature r", err)
	}
	s, err := hexQuantity(resp.S, 32)
	if err != nil {
		return Signature{}, errs.NewUnexpectedResponse("signature s", err)
	}
	vBytes, err := hexQuantity(resp.V, 8)
	if err != nil {
		return Signature{}, errs.NewUnexpectedResponse("signature v", err)
	}
	v := byte(new(big.Int).SetBytes(vBytes).Uint64())
	// Recovery IDs arrive as 0/1 or pre-offset 27/28.
	if v < 27 {
		v += 27
	}
	return Signature{R: r, S: s, V: v}, nil
}

// hexQuantity decodes a 0x-prefixed hex quantity of at most max bytes,
// tolerating odd-length values.
func hexQuantity(value string, max int) ([]byte, error) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(value), "0x")
	if len(trimmed)%2 == 1 {
		trimmed = "0" + trimmed
	}
	raw, err := hex.DecodeString(trimmed)
	if err != nil {
		return nil, err
	}
	if len(raw) > max {
		return nil, fmt.Errorf("quantity exceeds %d bytes", max)
	}
	return raw, nil
}
