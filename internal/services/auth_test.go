package services

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/yungbote/competency-advisor/internal/pkg/ctxutil"
)

func newAuthFixture(t *testing.T) (*testEnv, *authService, *fakeSessionCache) {
	t.Helper()
	env := newTestEnv(t)
	cache := newFakeSessionCache()
	svc := NewAuthService(env.log, env.employeeRepo, env.sessionRepo, cache, "test-secret", time.Hour).(*authService)
	return env, svc, cache
}

func TestAuthServiceLoginAuthenticateLogout(t *testing.T) {
	env, svc, cache := newAuthFixture(t)
	emp, err := svc.CreateEmployee(env.ctx, "Dev@Example.com", "correct horse", "Dev", "One")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", emp.Password)

	_, err = svc.Login(env.ctx, "dev@example.com", "wrong password")
	requireAPIError(t, err, http.StatusUnauthorized, "invalid_credentials")
	_, err = svc.Login(env.ctx, "nobody@example.com", "correct horse")
	requireAPIError(t, err, http.StatusUnauthorized, "invalid_credentials")

	res, err := svc.Login(env.ctx, "dev@example.com", "correct horse")
	require.NoError(t, err)
	require.NotEmpty(t, res.Token)
	assert.Equal(t, emp.ID, res.Employee.ID)

	id, ok, err := svc.Authenticate(env.ctx, res.Token)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, emp.ID, id)

	// cold cache falls through to the session table
	cache.data = map[string]int64{}
	id, ok, err = svc.Authenticate(env.ctx, res.Token)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, emp.ID, id)
	assert.Len(t, cache.data, 1)

	ctx, err := svc.SetContextFromToken(env.ctx, res.Token)
	require.NoError(t, err)
	rd := ctxutil.GetRequestData(ctx)
	require.NotNil(t, rd)
	assert.Equal(t, emp.ID, rd.EmployeeID)
	assert.NotEmpty(t, rd.SessionID)

	require.NoError(t, svc.Logout(env.ctx, res.Token))
	_, ok, err = svc.Authenticate(env.ctx, res.Token)
	require.NoError(t, err)
	assert.False(t, ok)
	_, err = svc.SetContextFromToken(env.ctx, res.Token)
	requireAPIError(t, err, http.StatusUnauthorized, "unauthorized")
}

func TestAuthServiceRejectsBadTokens(t *testing.T) {
	env, svc, _ := newAuthFixture(t)
	_, err := svc.CreateEmployee(env.ctx, "a@example.com", "password1", "", "")
	require.NoError(t, err)
	res, err := svc.Login(env.ctx, "a@example.com", "password1")
	require.NoError(t, err)

	for name, token := range map[string]string{
		"empty":    "",
		"garbage":  "not-a-jwt",
		"tampered": res.Token[:strings.LastIndex(res.Token, ".")+1] + "c2lnbmF0dXJl",
	} {
		t.Run(name, func(t *testing.T) {
			_, ok, err := svc.Authenticate(env.ctx, token)
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}

	other := NewAuthService(env.log, env.employeeRepo, env.sessionRepo, nil, "other-secret", time.Hour)
	_, ok, err := other.Authenticate(env.ctx, res.Token)
	require.NoError(t, err)
	assert.False(t, ok, "signed with a different key")
}

func TestAuthServiceExpiredSession(t *testing.T) {
	env, svc, _ := newAuthFixture(t)
	_, err := svc.CreateEmployee(env.ctx, "old@example.com", "password1", "", "")
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().UTC().Add(-2 * time.Hour) }
	res, err := svc.Login(env.ctx, "old@example.com", "password1")
	require.NoError(t, err)
	svc.now = func() time.Time { return time.Now().UTC() }

	_, ok, err := svc.Authenticate(env.ctx, res.Token)
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, svc.Logout(env.ctx, res.Token), "expired tokens can still log out")
}

func TestAuthServiceCreateEmployeeValidation(t *testing.T) {
	env, svc, _ := newAuthFixture(t)

	_, err := svc.CreateEmployee(env.ctx, "not-an-email", "password1", "", "")
	requireAPIError(t, err, http.StatusBadRequest, "invalid_email")
	_, err = svc.CreateEmployee(env.ctx, "s@example.com", "short", "", "")
	requireAPIError(t, err, http.StatusBadRequest, "weak_password")

	_, err = svc.CreateEmployee(env.ctx, "dup@example.com", "password1", "", "")
	require.NoError(t, err)
	_, err = svc.CreateEmployee(env.ctx, "DUP@example.com", "password1", "", "")
	requireAPIError(t, err, http.StatusConflict, "email_taken")
}

func TestAuthServiceLongPasswordsUseFirst72Bytes(t *testing.T) {
	env, svc, _ := newAuthFixture(t)
	long := strings.Repeat("a", 72)
	emp, err := svc.CreateEmployee(env.ctx, "long@example.com", long+"tail-one", "", "")
	require.NoError(t, err)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(emp.Password), []byte(long)))

	_, err = svc.Login(env.ctx, "long@example.com", long+"tail-two")
	require.NoError(t, err)
}

func TestAuthServiceSetPassword(t *testing.T) {
	env, svc, _ := newAuthFixture(t)
	_, err := svc.CreateEmployee(env.ctx, "reset@example.com", "password1", "", "")
	require.NoError(t, err)

	requireAPIError(t, svc.SetPassword(env.ctx, "reset@example.com", "short"), http.StatusBadRequest, "weak_password")
	requireAPIError(t, svc.SetPassword(env.ctx, "ghost@example.com", "password2"), http.StatusNotFound, "employee_not_found")

	require.NoError(t, svc.SetPassword(env.ctx, "Reset@Example.com", "password2"))
	_, err = svc.Login(env.ctx, "reset@example.com", "password1")
	requireAPIError(t, err, http.StatusUnauthorized, "invalid_credentials")
	_, err = svc.Login(env.ctx, "reset@example.com", "password2")
	require.NoError(t, err)
}

func TestAuthServicePruneSessions(t *testing.T) {
	env, svc, _ := newAuthFixture(t)
	_, err := svc.CreateEmployee(env.ctx, "prune@example.com", "password1", "", "")
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().UTC().Add(-2 * time.Hour) }
	_, err = svc.Login(env.ctx, "prune@example.com", "password1")
	require.NoError(t, err)
	svc.now = func() time.Time { return time.Now().UTC() }
	live, err := svc.Login(env.ctx, "prune@example.com", "password1")
	require.NoError(t, err)

	n, err := svc.PruneSessions(env.ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	_, ok, err := svc.Authenticate(env.ctx, live.Token)
	require.NoError(t, err)
	assert.True(t, ok)
}
