package auth

import (
	"bytes"
	"compress/zlib"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/mr-tron/base58"
	"golang.org/x/crypto/sha3"

	"github.com/mediafabric/fabric-client/internal/errs"
	"github.com/mediafabric/fabric-client/internal/metrics"
	"github.com/mediafabric/fabric-client/pkg/logger"
)

const (
	// tokenFormatTag prefixes every client-signed access token.
	tokenFormatTag = "acspjc"

	// staticTokenTag prefixes the unsigned token used for public reads.
	staticTokenTag = "austb64"

	// tokenBanner is the fixed text prepended to the canonical payload
	// before signing.
	tokenBanner = "Media Fabric Access Token 1.0\n"

	// DefaultTokenLifetime is baked into the signed payload's expiry field
	// unless the caller overrides it. Expiry is enforced server-side; the
	// client performs no local expiry check.
	DefaultTokenLifetime = 24 * time.Hour

	signatureLength = 65
)

// TokenSigner builds bearer credentials: it runs the login exchange and
// constructs signed access tokens through a DigestSigner.
type TokenSigner struct {
	authBaseURL string
	signer      DigestSigner
	metrics     *metrics.Metrics
	log         *logger.Logger
	now         func() time.Time
}

// TokenSignerConfig configures a TokenSigner.
type TokenSignerConfig struct {
	AuthBaseURL string
	// Signer overrides the remote custodial signer. When nil a RemoteSigner
	// is created per token from the login's cluster token.
	Signer  DigestSigner
	Metrics *metrics.Metrics
	Logger  *logger.Logger
	Now     func() time.Time
}

// NewTokenSigner creates a TokenSigner.
func NewTokenSigner(cfg TokenSignerConfig) (*TokenSigner, error) {
	if cfg.AuthBaseURL == "" && cfg.Signer == nil {
		return nil, errs.NewConfigError("auth base URL required")
	}
	log := cfg.Logger
	if log == nil {
		log = logger.NewDefault("auth")
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &TokenSigner{
		authBaseURL: cfg.AuthBaseURL,
		signer:      cfg.Signer,
		metrics:     cfg.Metrics,
		log:         log,
		now:         now,
	}, nil
}

// tokenPayload is the canonical signed payload. Field order is fixed by the
// struct: the serialized bytes are embedded in the token and must match what
// was signed byte for byte.
type tokenPayload struct {
	Subject     string `json:"sub"`
	AddressB64  string `json:"adr"`
	Space       string `json:"spc"`
	IssuedAtMs  int64  `json:"iat"`
	ExpiresAtMs int64  `json:"exp"`
}

// TokenOption adjusts access-token construction.
type TokenOption func(*tokenOptions)

type tokenOptions struct {
	lifetime time.Duration
}

// WithLifetime overrides the default 24h token lifetime.
func WithLifetime(d time.Duration) TokenOption {
	return func(o *tokenOptions) { o.lifetime = d }
}

// CreateAccessToken builds the composite bearer credential for an account:
// canonical JSON payload, personal-sign digest signed remotely, signature
// joined r ‖ s ‖ v, payload zlib-compressed and appended, the whole blob
// base58-encoded under the fixed format tag.
func (t *TokenSigner) CreateAccessToken(ctx context.Context, login *LoginResponse, contentSpaceID string, opts ...TokenOption) (string, error) {
	if login == nil || login.Address == "" {
		return "", errs.NewBadInput("login", "missing address")
	}
	if contentSpaceID == "" {
		return "", errs.NewBadInput("contentSpaceID", "empty")
	}

	options := tokenOptions{lifetime: DefaultTokenLifetime}
	for _, opt := range opts {
		opt(&options)
	}

	accountID, err := AccountIDFromAddress(login.Address)
	if err != nil {
		return "", err
	}
	addrBytes, err := AddressBytes(login.Address)
	if err != nil {
		return "", err
	}

	issued := t.now()
	payload := tokenPayload{
		Subject:     accountID,
		AddressB64:  base64.StdEncoding.EncodeToString(addrBytes),
		Space:       contentSpaceID,
		IssuedAtMs:  issued.UnixMilli(),
		ExpiresAtMs: issued.Add(options.lifetime).UnixMilli(),
	}
	canonical, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal token payload: %w", err)
	}

	signer := t.signer
	if signer == nil {
		signer, err = NewRemoteSigner(RemoteSignerConfig{
			AuthBaseURL:  t.authBaseURL,
			ClusterToken: login.ClusterToken,
			Metrics:      t.metrics,
			Logger:       t.log,
		})
		if err != nil {
			return "", err
		}
	}

	digest := personalSignDigest(append([]byte(tokenBanner), canonical...))
	sig, err := signer.SignDigest(ctx, accountID, digest)
	if err != nil {
		return "", err
	}

	compressed, err := deflate(canonical)
	if err != nil {
		return "", err
	}
	blob := append(sig.Join(), compressed...)
	token := tokenFormatTag + base58.Encode(blob)

	t.log.WithField("account_id", accountID).
		WithField("expires_at", payload.ExpiresAtMs).
		Info("access token created")
	return token, nil
}

// StaticSpaceToken builds the minimal unsigned token used for
// unauthenticated reads, derived from just the content-space ID.
func StaticSpaceToken(contentSpaceID string) (string, error) {
	if contentSpaceID == "" {
		return "", errs.NewBadInput("contentSpaceID", "empty")
	}
	payload, err := json.Marshal(struct {
		Space string `json:"spc"`
	}{Space: contentSpaceID})
	if err != nil {
		return "", fmt.Errorf("marshal static token payload: %w", err)
	}
	return staticTokenTag + base64.StdEncoding.EncodeToString(payload), nil
}

// DecodeAccessToken reverses the token encoding, returning the signature
// blob and the decompressed canonical payload. Used for verification.
func DecodeAccessToken(token string) (sig []byte, payload []byte, err error) {
	if len(token) <= len(tokenFormatTag) || token[:len(tokenFormatTag)] != tokenFormatTag {
		return nil, nil, errs.NewBadInput("token", "missing format tag")
	}
	blob, err := base58.Decode(token[len(tokenFormatTag):])
	if err != nil {
		return nil, nil, errs.NewBadInput("token", "not base58: "+err.Error())
	}
	if len(blob) <= signatureLength {
		return nil, nil, errs.NewBadInput("token", "truncated")
	}
	payload, err = inflate(blob[signatureLength:])
	if err != nil {
		return nil, nil, errs.NewBadInput("token", "payload: "+err.Error())
	}
	return blob[:signatureLength], payload, nil
}

// personalSignDigest computes the Keccak-256 digest of the Ethereum
// personal-sign envelope around message.
func personalSignDigest(message []byte) []byte {
	prefix := "\x19Ethereum Signed Message:\n" + strconv.Itoa(len(message))
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(prefix))
	h.Write(message)
	return h.Sum(nil)
}

func deflate(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("compress payload: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("compress payload: %w", err)
	}
	return buf.Bytes(), nil
}

func inflate(data []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}
