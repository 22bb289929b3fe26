package token

import (
	"errors"
	"testing"
	"time"

	"github.com/99designs/keyring"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	apperrors "jifa/cli/internal/errors"
	"jifa/cli/internal/keychain"
)

type fakeCookies struct {
	values    map[string]string
	removeErr error
}

func (f *fakeCookies) Value(name string) string { return f.values[name] }

func (f *fakeCookies) Remove(name string) error {
	delete(f.values, name)
	return f.removeErr
}

type brokenDurable struct{ err error }

func (b brokenDurable) LoadToken() (string, error) { return "", b.err }
func (b brokenDurable) SaveToken(string) error     { return b.err }
func (b brokenDurable) ClearToken() error          { return b.err }

func newStore(t *testing.T) (*Store, *keychain.Manager, *fakeCookies) {
	t.Helper()
	km := keychain.NewWithRing(keyring.NewArrayKeyring(nil))
	fc := &fakeCookies{values: map[string]string{}}
	return NewStore(km, fc), km, fc
}

func TestGetPrefersDurable(t *testing.T) {
	s, km, fc := newStore(t)
	require.NoError(t, km.SaveToken("durable"))
	fc.values[Key] = "cookie"

	tok, err := s.Get()
	require.NoError(t, err)
	require.Equal(t, "durable", tok)
}

func TestGetFallsBackToCookie(t *testing.T) {
	s, _, fc := newStore(t)
	fc.values[Key] = "cookie"

	tok, err := s.Get()
	require.NoError(t, err)
	require.Equal(t, "cookie", tok)
}

func TestGetEmpty(t *testing.T) {
	s, _, _ := newStore(t)

	tok, err := s.Get()
	require.NoError(t, err)
	require.Empty(t, tok)

	_, err = s.Require()
	require.ErrorIs(t, err, ErrNoToken)
}

func TestDurableFailureFallsBack(t *testing.T) {
	fc := &fakeCookies{values: map[string]string{Key: "cookie"}}
	s := NewStore(brokenDurable{err: errors.New("locked")}, fc)

	tok, err := s.Get()
	require.NoError(t, err)
	require.Equal(t, "cookie", tok)

	delete(fc.values, Key)
	_, err = s.Get()
	require.True(t, apperrors.Is(err, apperrors.StorageFailed))
}

func TestClearRemovesBoth(t *testing.T) {
	s, km, fc := newStore(t)
	require.NoError(t, s.Set("durable"))
	fc.values[Key] = "cookie"

	require.NoError(t, s.Clear())

	tok, err := km.LoadToken()
	require.NoError(t, err)
	require.Empty(t, tok)
	require.Empty(t, fc.values[Key])
}

func TestClearAttemptsBothOnFailure(t *testing.T) {
	km := keychain.NewWithRing(keyring.NewArrayKeyring(nil))
	require.NoError(t, km.SaveToken("durable"))
	fc := &fakeCookies{values: map[string]string{Key: "cookie"}, removeErr: errors.New("disk full")}
	s := NewStore(km, fc)

	err := s.Clear()
	require.Error(t, err)
	tok, _ := km.LoadToken()
	require.Empty(t, tok)
}

func TestSetRejectsBlank(t *testing.T) {
	s, _, _ := newStore(t)
	require.ErrorIs(t, s.Set("  "), ErrNoToken)
}

func TestNilCookies(t *testing.T) {
	km := keychain.NewWithRing(keyring.NewArrayKeyring(nil))
	s := NewStore(km, nil)
	require.NoError(t, s.Set("x"))
	tok, err := s.Get()
	require.NoError(t, err)
	require.Equal(t, "x", tok)
	require.NoError(t, s.Clear())
}

func TestInspect(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   "42",
		"name":  "alice",
		"admin": true,
		"exp":   exp.Unix(),
	}).SignedString([]byte("server-secret"))
	require.NoError(t, err)

	info, err := Inspect(raw)
	require.NoError(t, err)
	require.Equal(t, "42", info.Subject)
	require.Equal(t, "alice", info.Name)
	require.True(t, info.Admin)
	require.True(t, info.ExpiresAt.Equal(exp))
	require.False(t, info.Expired(time.Now()))
	require.True(t, info.Expired(exp.Add(time.Second)))
}

func TestInspectOpaqueToken(t *testing.T) {
	_, err := Inspect("not-a-jwt")
	require.Error(t, err)
}
