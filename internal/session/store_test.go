package session

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/require"

	"jifa/cli/internal/cookies"
	"jifa/cli/internal/keychain"
	"jifa/cli/internal/model"
	"jifa/cli/internal/token"
)

type fakeHeaders struct {
	h http.Header
}

func (f *fakeHeaders) SetDefaultHeader(key, value string) { f.h.Set(key, value) }

type fakeNav struct {
	calls int
	err   error
}

func (f *fakeNav) GoHome(context.Context) error {
	f.calls++
	return f.err
}

type fixture struct {
	store   *Store
	keys    *keychain.Manager
	jar     *cookies.Jar
	headers *fakeHeaders
	nav     *fakeNav
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	km := keychain.NewWithRing(keyring.NewArrayKeyring(nil))
	jar, err := cookies.Open(t.TempDir(), "http://localhost:8102")
	require.NoError(t, err)
	f := fixture{
		keys:    km,
		jar:     jar,
		headers: &fakeHeaders{h: http.Header{}},
		nav:     &fakeNav{},
	}
	f.store = NewStore(token.NewStore(km, jar), f.headers, f.nav)
	return f
}

func TestTokenPrefersDurableStorage(t *testing.T) {
	f := newFixture(t)
	f.jar.Set(token.Key, "from-cookie")
	require.NoError(t, f.keys.SaveToken("from-keychain"))

	tok, err := f.store.Token()
	require.NoError(t, err)
	require.Equal(t, "from-keychain", tok)

	require.NoError(t, f.keys.ClearToken())
	tok, err = f.store.Token()
	require.NoError(t, err)
	require.Equal(t, "from-cookie", tok)
}

func TestInitSetsHeaders(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.keys.SaveToken("abc"))

	require.NoError(t, f.store.Init())
	require.Equal(t, "Bearer abc", f.headers.h.Get("Authorization"))
	require.Equal(t, "Bearer abc", f.store.Snapshot().UploadHeader.Get("Authorization"))
}

func TestInitWithoutToken(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.store.Init())
	require.Empty(t, f.headers.h)
	require.Empty(t, f.store.Snapshot().UploadHeader)
}

func TestHandshakeWithoutUserRequiresLogin(t *testing.T) {
	f := newFixture(t)

	f.store.HandleHandshakeData(&model.HandshakeResponse{
		AllowLogin:           true,
		AllowAnonymousAccess: false,
	})

	st := f.store.Snapshot()
	require.True(t, st.LoginFormVisible)
	require.False(t, f.store.LoggedIn())
	require.True(t, f.store.LoginRequired())
}

func TestHandshakeWithoutUserAnonymousAllowed(t *testing.T) {
	f := newFixture(t)

	f.store.HandleHandshakeData(&model.HandshakeResponse{AllowAnonymousAccess: true})

	require.False(t, f.store.Snapshot().LoginFormVisible)
	require.False(t, f.store.LoginRequired())
	require.False(t, f.store.LoggedIn())
}

func TestHandshakeWithUser(t *testing.T) {
	f := newFixture(t)

	f.store.HandleHandshakeData(&model.HandshakeResponse{
		ServerRole:                  model.RoleMaster,
		AllowLogin:                  true,
		AllowRegistration:           true,
		PublicKey:                   &model.PublicKey{PKCS8: "p8", SSH2: "s2"},
		OAuth2LoginLinks:            map[string]string{"github": "/oauth2/github"},
		User:                        &model.User{Name: "alice", Admin: true},
		DisabledFileTransferMethods: []model.FileTransferMethod{model.TransferSCP},
	})

	st := f.store.Snapshot()
	require.False(t, st.LoginFormVisible)
	require.True(t, f.store.LoggedIn())
	require.False(t, f.store.LoginRequired())
	require.True(t, f.store.SupportedOAuth2Login())
	require.Equal(t, "alice", st.User.Name)
	require.True(t, st.User.Admin)
	require.Equal(t, model.RoleMaster, st.ServerRole)
	require.Equal(t, "s2", st.PublicKey.SSH2)
	require.True(t, st.AllowRegistration)
	require.True(t, st.TransferMethodDisabled(model.TransferSCP))
	require.False(t, st.TransferMethodDisabled(model.TransferURL))
}

func TestHandshakeNil(t *testing.T) {
	f := newFixture(t)
	f.store.HandleHandshakeData(nil)
	require.False(t, f.store.Snapshot().LoginFormVisible)
}

func TestSnapshotIsCopy(t *testing.T) {
	f := newFixture(t)
	f.store.HandleHandshakeData(&model.HandshakeResponse{
		OAuth2LoginLinks: map[string]string{"github": "x"},
		User:             &model.User{Name: "alice"},
	})

	st := f.store.Snapshot()
	st.OAuth2LoginLinks["evil"] = "y"
	st.User.Name = "mallory"

	again := f.store.Snapshot()
	require.Len(t, again.OAuth2LoginLinks, 1)
	require.Equal(t, "alice", again.User.Name)
}

func TestLogoutClearsBothAndNavigates(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.keys.SaveToken("abc"))
	f.jar.Set(token.Key, "abc")

	require.NoError(t, f.store.Logout(context.Background()))

	tok, err := f.keys.LoadToken()
	require.NoError(t, err)
	require.Empty(t, tok)
	require.Empty(t, f.jar.Value(token.Key))
	require.Equal(t, 1, f.nav.calls)
}

func TestLoginResponsePersistsTokenAndNavigates(t *testing.T) {
	f := newFixture(t)
	resp := &http.Response{Header: http.Header{"Authorization": []string{"issued"}}}

	require.NoError(t, f.store.HandleLoginOrSignupResponse(context.Background(), resp))

	tok, err := f.keys.LoadToken()
	require.NoError(t, err)
	require.Equal(t, "issued", tok)
	require.Equal(t, 1, f.nav.calls)
}

func TestLoginResponseWithoutToken(t *testing.T) {
	f := newFixture(t)

	err := f.store.HandleLoginOrSignupResponse(context.Background(), &http.Response{Header: http.Header{}})
	require.ErrorIs(t, err, ErrNoAuthorization)
	require.Zero(t, f.nav.calls)
}

func TestNavigationErrorIsReported(t *testing.T) {
	f := newFixture(t)
	f.nav.err = errors.New("handshake down")
	resp := &http.Response{Header: http.Header{"Authorization": []string{"issued"}}}

	err := f.store.HandleLoginOrSignupResponse(context.Background(), resp)
	require.ErrorIs(t, err, f.nav.err)
	// the token is kept even though the reload failed
	tok, _ := f.keys.LoadToken()
	require.Equal(t, "issued", tok)
}

func TestResetTokenDoesNotNavigate(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.keys.SaveToken("abc"))
	f.jar.Set(token.Key, "abc")

	require.NoError(t, f.store.ResetToken())

	tok, err := f.store.Token()
	require.NoError(t, err)
	require.Empty(t, tok)
	require.Zero(t, f.nav.calls)
}

func TestClearUser(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.keys.SaveToken("abc"))
	require.NoError(t, f.store.Init())
	f.store.HandleHandshakeData(&model.HandshakeResponse{User: &model.User{Name: "alice"}})

	f.store.ClearUser()
	require.False(t, f.store.LoggedIn())
	require.Empty(t, f.store.Snapshot().UploadHeader)
}
