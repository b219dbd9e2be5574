package auth_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mediafabric/fabric-client/internal/auth"
	"github.com/mediafabric/fabric-client/pkg/logger"
	"github.com/mediafabric/fabric-client/pkg/testutil"
)

const testAddress = "0x9b5e337f0f9c5c6e9b7a64a2de0cfdbcd6e0e5f3"

func TestAccountIDFromAddress(t *testing.T) {
	id, err := auth.AccountIDFromAddress(testAddress)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(id, "iusr"), "account ID should carry the fixed prefix, got %q", id)

	// Derivation is stable.
	again, err := auth.AccountIDFromAddress(testAddress)
	require.NoError(t, err)
	assert.Equal(t, id, again)
}

func TestAccountIDFromAddressRejectsBadInput(t *testing.T) {
	_, err := auth.AccountIDFromAddress("")
	require.Error(t, err)
	_, err = auth.AccountIDFromAddress("0xzz")
	require.Error(t, err)
}

func TestCreateAccessTokenRoundTrip(t *testing.T) {
	signer := &testutil.MockSigner{}
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	ts, err := auth.NewTokenSigner(auth.TokenSignerConfig{
		Signer: signer,
		Logger: logger.NewNop(),
		Now:    func() time.Time { return fixed },
	})
	require.NoError(t, err)

	login := &auth.LoginResponse{Address: testAddress, ClusterToken: "cluster"}
	token, err := ts.CreateAccessToken(context.Background(), login, "ispc1")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(token, "acspjc"), "token should carry the format tag, got %q", token)
	assert.Equal(t, 1, signer.Calls())

	sig, payload, err := auth.DecodeAccessToken(token)
	require.NoError(t, err)
	assert.Len(t, sig, 65)

	var decoded struct {
		Subject     string `json:"sub"`
		AddressB64  string `json:"adr"`
		Space       string `json:"spc"`
		IssuedAtMs  int64  `json:"iat"`
		ExpiresAtMs int64  `json:"exp"`
	}
	require.NoError(t, json.Unmarshal(payload, &decoded))

	wantID, err := auth.AccountIDFromAddress(testAddress)
	require.NoError(t, err)
	assert.Equal(t, wantID, decoded.Subject)
	assert.Equal(t, "ispc1", decoded.Space)
	assert.Equal(t, fixed.UnixMilli(), decoded.IssuedAtMs)
	assert.Equal(t, fixed.Add(24*time.Hour).UnixMilli(), decoded.ExpiresAtMs)

	addrBytes, err := base64.StdEncoding.DecodeString(decoded.AddressB64)
	require.NoError(t, err)
	wantBytes, err := auth.AddressBytes(testAddress)
	require.NoError(t, err)
	assert.Equal(t, wantBytes, addrBytes)
}

func TestCreateAccessTokenLifetimeOverride(t *testing.T) {
	signer := &testutil.MockSigner{}
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ts, err := auth.NewTokenSigner(auth.TokenSignerConfig{
		Signer: signer,
		Logger: logger.NewNop(),
		Now:    func() time.Time { return fixed },
	})
	require.NoError(t, err)

	token, err := ts.CreateAccessToken(context.Background(),
		&auth.LoginResponse{Address: testAddress}, "ispc1", auth.WithLifetime(time.Hour))
	require.NoError(t, err)

	_, payload, err := auth.DecodeAccessToken(token)
	require.NoError(t, err)
	var decoded struct {
		ExpiresAtMs int64 `json:"exp"`
	}
	require.NoError(t, json.Unmarshal(payload, &decoded))
	assert.Equal(t, fixed.Add(time.Hour).UnixMilli(), decoded.ExpiresAtMs)
}

func TestCreateAccessTokenValidation(t *testing.T) {
	ts, err := auth.NewTokenSigner(auth.TokenSignerConfig{
		Signer: &testutil.MockSigner{},
		Logger: logger.NewNop(),
	})
	require.NoError(t, err)

	_, err = ts.CreateAccessToken(context.Background(), nil, "ispc1")
	require.Error(t, err)
	_, err = ts.CreateAccessToken(context.Background(), &auth.LoginResponse{Address: testAddress}, "")
	require.Error(t, err)
}

func TestStaticSpaceToken(t *testing.T) {
	token, err := auth.StaticSpaceToken("ispc1")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(token, "austb64"))

	payload, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(token, "austb64"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"spc":"ispc1"}`, string(payload))

	_, err = auth.StaticSpaceToken("")
	require.Error(t, err)
}
