package service_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"go-user-service/internal/core/auth"
	"go-user-service/internal/repo"
	"go-user-service/internal/service"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0}

func newService(t *testing.T) (*service.UserService, *repo.Memory) {
	t.Helper()
	mem := repo.NewMemory()
	jwter := &auth.JWTer{Secret: []byte("test-secret"), Issuer: "test", TTL: time.Hour}
	return service.NewUserService(mem, jwter), mem
}

func TestSignup(t *testing.T) {
	svc, mem := newService(t)

	u, token, err := svc.Signup("mike", "  MIKE@Home.com ", "sjasdasddsfdasd")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.Equal(t, "mike@home.com", u.Email, "email is normalized before persistence")
	require.NotEqual(t, "sjasdasddsfdasd", u.PasswordHash)

	stored, err := mem.FindByIDWithTokens(u.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	require.Len(t, stored.Tokens, 1)
	require.Equal(t, token, stored.Tokens[0].Token)
}

func TestSignupValidation(t *testing.T) {
	svc, _ := newService(t)

	cases := map[string][3]string{
		"missing name":       {"", "a@b.com", "longenough"},
		"malformed email":    {"mike", "not-an-email", "longenough"},
		"short password":     {"mike", "a@b.com", "short"},
		"contains password":  {"mike", "a@b.com", "myPassword123"},
		"uppercase password": {"mike", "a@b.com", "PASSWORD123"},
	}
	for name, tc := range cases {
		_, _, err := svc.Signup(tc[0], tc[1], tc[2])
		require.Error(t, err, name)
		require.True(t, service.IsValidation(err), "%s: want validation error, got %v", name, err)
	}
}

func TestSignupDuplicateEmail(t *testing.T) {
	svc, _ := newService(t)

	_, _, err := svc.Signup("mike", "a@b.com", "longenough")
	require.NoError(t, err)

	_, _, err = svc.Signup("other", "A@B.com", "longenough2")
	require.Error(t, err)
	require.True(t, service.IsValidation(err))
}

func TestLoginAppendsToken(t *testing.T) {
	svc, mem := newService(t)

	u, first, err := svc.Signup("mike", "a@b.com", "longenough")
	require.NoError(t, err)

	_, second, err := svc.Login("a@b.com", "longenough")
	require.NoError(t, err)
	require.NotEqual(t, first, second)

	stored, _ := mem.FindByIDWithTokens(u.ID)
	require.Len(t, stored.Tokens, 2)
	require.Equal(t, second, stored.Tokens[1].Token)

	// 旧令牌仍然有效
	_, err = svc.Authenticate(first)
	require.NoError(t, err)
}

func TestLoginFailures(t *testing.T) {
	svc, mem := newService(t)

	u, _, err := svc.Signup("mike", "a@b.com", "longenough")
	require.NoError(t, err)

	_, _, err = svc.Login("a@b.com", "wrongpass1")
	require.True(t, service.IsAuthentication(err))

	_, _, err = svc.Login("nobody@b.com", "longenough")
	require.True(t, service.IsAuthentication(err))

	// 失败不追加令牌
	stored, _ := mem.FindByIDWithTokens(u.ID)
	require.Len(t, stored.Tokens, 1)
}

func TestAuthenticate(t *testing.T) {
	svc, _ := newService(t)

	u, token, err := svc.Signup("mike", "a@b.com", "longenough")
	require.NoError(t, err)

	got, err := svc.Authenticate(token)
	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)

	_, err = svc.Authenticate("not-a-jwt")
	require.True(t, service.IsAuthentication(err))

	// 签名合法但已被吊销的令牌
	require.NoError(t, svc.Logout(u.ID, token))
	_, err = svc.Authenticate(token)
	require.True(t, service.IsAuthentication(err))
}

func TestLogoutRevokesOnlyPresentedToken(t *testing.T) {
	svc, _ := newService(t)

	u, t1, err := svc.Signup("mike", "a@b.com", "longenough")
	require.NoError(t, err)
	_, t2, err := svc.Login("a@b.com", "longenough")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(u.ID, t1))
	_, err = svc.Authenticate(t1)
	require.Error(t, err)
	_, err = svc.Authenticate(t2)
	require.NoError(t, err)

	require.NoError(t, svc.LogoutAll(u.ID))
	_, err = svc.Authenticate(t2)
	require.Error(t, err)
}

func TestUpdateAllowlist(t *testing.T) {
	svc, mem := newService(t)

	u, _, err := svc.Signup("mike", "a@b.com", "longenough")
	require.NoError(t, err)

	// 未知字段整体拒绝，不做部分写入
	_, err = svc.Update(u, map[string]any{"name": "bart", "monkey": "bart"})
	require.True(t, service.IsValidation(err))
	stored, _ := mem.FindByID(u.ID)
	require.Equal(t, "mike", stored.Name)

	// 空更新集也是 400
	_, err = svc.Update(u, map[string]any{})
	require.True(t, service.IsValidation(err))

	// 合法更新
	updated, err := svc.Update(u, map[string]any{"name": "bart"})
	require.NoError(t, err)
	require.Equal(t, "bart", updated.Name)
	stored, _ = mem.FindByID(u.ID)
	require.Equal(t, "bart", stored.Name)
}

func TestUpdatePasswordRehashed(t *testing.T) {
	svc, _ := newService(t)

	u, _, err := svc.Signup("mike", "a@b.com", "longenough")
	require.NoError(t, err)

	_, err = svc.Update(u, map[string]any{"password": "anotherlongone"})
	require.NoError(t, err)

	_, _, err = svc.Login("a@b.com", "anotherlongone")
	require.NoError(t, err)
	_, _, err = svc.Login("a@b.com", "longenough")
	require.True(t, service.IsAuthentication(err))
}

func TestUpdateEmailConstraints(t *testing.T) {
	svc, _ := newService(t)

	u, _, err := svc.Signup("mike", "a@b.com", "longenough")
	require.NoError(t, err)
	_, _, err = svc.Signup("bart", "taken@b.com", "longenough")
	require.NoError(t, err)

	_, err = svc.Update(u, map[string]any{"email": "taken@b.com"})
	require.True(t, service.IsValidation(err))

	_, err = svc.Update(u, map[string]any{"email": "broken"})
	require.True(t, service.IsValidation(err))

	_, err = svc.Update(u, map[string]any{"email": 42})
	require.True(t, service.IsValidation(err))
}

func TestDeleteRemovesEverything(t *testing.T) {
	svc, mem := newService(t)

	u, token, err := svc.Signup("mike", "a@b.com", "longenough")
	require.NoError(t, err)
	require.NoError(t, svc.SetAvatar(u.ID, "me.png", pngHeader))

	require.NoError(t, svc.Delete(u.ID))

	stored, err := mem.FindByID(u.ID)
	require.NoError(t, err)
	require.Nil(t, stored)
	_, err = svc.Authenticate(token)
	require.Error(t, err)
}

func TestAvatarRules(t *testing.T) {
	svc, mem := newService(t)

	u, _, err := svc.Signup("mike", "a@b.com", "longenough")
	require.NoError(t, err)

	// 非图片扩展名
	err = svc.SetAvatar(u.ID, "notes.txt", pngHeader)
	require.True(t, service.IsValidation(err))

	// 扩展名伪装成 png、内容不是图片
	err = svc.SetAvatar(u.ID, "fake.png", []byte("plain text here"))
	require.True(t, service.IsValidation(err))

	// 超限
	err = svc.WithAvatarLimit(4).SetAvatar(u.ID, "me.png", pngHeader)
	require.True(t, service.IsValidation(err))
	svc.WithAvatarLimit(service.DefaultAvatarMaxBytes)

	// 合法上传覆盖旧值
	require.NoError(t, svc.SetAvatar(u.ID, "me.png", pngHeader))
	data, ct, err := svc.Avatar(u.ID)
	require.NoError(t, err)
	require.Equal(t, pngHeader, data)
	require.Equal(t, "image/png", ct)

	require.NoError(t, svc.ClearAvatar(u.ID))
	data, _, err = svc.Avatar(u.ID)
	require.NoError(t, err)
	require.Empty(t, data)

	stored, _ := mem.FindByID(u.ID)
	require.Empty(t, stored.Avatar)
}
