package tests

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/trezcool/rollcall/apps/api/echo"
	"github.com/trezcool/rollcall/core/user"
	"github.com/trezcool/rollcall/tests"
)

const pwd = "Str0ng!Pass"

func Test_home(t *testing.T) {
	f := setup(t)
	req, rec := newRequest(http.MethodGet, "/")
	f.app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Welcome to Rollcall API!", rec.Body.String())
}

func Test_userApi_login(t *testing.T) {
	f := setup(t)
	testutil.CreateUser(t, f.usrRepo, "Teacher", "teacher@test.cd", pwd, user.RoleTeacher, "5B", true)
	testutil.CreateUser(t, f.usrRepo, "Gone", "gone@test.cd", pwd, user.RoleParent, "", false)

	authFailed := marchallObj(t, httpErr{Error: "authentication failed"})
	tests := []httpTest{
		{
			name:     "missing fields",
			body:     []byte(`{}`),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"email":"this field is required","password":"this field is required"}`),
		},
		{
			name:     "unknown email",
			body:     []byte(`{"email":"nobody@test.cd","password":"` + pwd + `"}`),
			wantCode: http.StatusBadRequest,
			wantData: authFailed,
		},
		{
			name:     "wrong password",
			body:     []byte(`{"email":"teacher@test.cd","password":"wrong"}`),
			wantCode: http.StatusBadRequest,
			wantData: authFailed,
		},
		{
			name:     "wrong role",
			body:     []byte(`{"email":"teacher@test.cd","password":"` + pwd + `","role":"parent"}`),
			wantCode: http.StatusBadRequest,
			wantData: authFailed,
		},
		{
			name:     "invalid role",
			body:     []byte(`{"email":"teacher@test.cd","password":"` + pwd + `","role":"janitor"}`),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"role":"invalid role"}`),
		},
		{
			name:     "deactivated",
			body:     []byte(`{"email":"gone@test.cd","password":"` + pwd + `"}`),
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "account deactivated"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.method, tt.path = http.MethodPost, "/v1/users/login"
			checkCodeAndData(t, tt, f.do(tt))
		})
	}

	t.Run("success", func(t *testing.T) {
		rec := f.do(httpTest{
			method: http.MethodPost,
			path:   "/v1/users/login",
			body:   []byte(`{"email":" Teacher@Test.cd ","password":"` + pwd + `","role":"teacher"}`),
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp LoginResponse
		unmarshal(t, rec, &resp)
		claims := new(Claims)
		_, err := jwt.ParseWithClaims(resp.Token, claims, func(*jwt.Token) (interface{}, error) {
			return []byte(f.conf.SecretKey), nil
		})
		require.NoError(t, err)
		assert.Equal(t, "teacher@test.cd", claims.Email)
		assert.Equal(t, user.RoleTeacher, claims.Role)
		assert.Equal(t, "5B", claims.ClassLabel)

		usr, err := f.usrRepo.GetUserByEmail(context.Background(), "teacher@test.cd")
		require.NoError(t, err)
		assert.False(t, usr.LastLogin.IsZero(), "last login should be set")
	})
}

func Test_userApi_sessionEndpoints(t *testing.T) {
	f := setup(t)
	teacher := testutil.CreateUser(t, f.usrRepo, "Teacher", "teacher@test.cd", pwd, user.RoleTeacher, "5B", true)
	token := f.token(t, teacher)

	tests := []httpTest{
		{
			name:     "me without token",
			method:   http.MethodGet,
			path:     "/v1/users/me",
			wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, errMissingToken),
		},
		{
			name:     "me",
			method:   http.MethodGet,
			path:     "/v1/users/me",
			token:    token,
			wantCode: http.StatusOK,
			wantData: marchallObj(t, teacher),
		},
		{
			name:     "logout without token",
			method:   http.MethodPost,
			path:     "/v1/users/logout",
			wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, errMissingToken),
		},
		{
			name:     "logout",
			method:   http.MethodPost,
			path:     "/v1/users/logout",
			token:    token,
			wantCode: http.StatusNoContent,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkCodeAndData(t, tt, f.do(tt))
		})
	}

	t.Run("token refresh", func(t *testing.T) {
		rec := f.do(httpTest{method: http.MethodPost, path: "/v1/users/token-refresh", token: token})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var resp LoginResponse
		unmarshal(t, rec, &resp)
		assert.NotEmpty(t, resp.Token)
	})

	t.Run("token refresh of deactivated user", func(t *testing.T) {
		gone := testutil.CreateUser(t, f.usrRepo, "Gone", "gone@test.cd", pwd, user.RoleParent, "", false)
		tt := httpTest{
			method:   http.MethodPost,
			path:     "/v1/users/token-refresh",
			token:    f.token(t, gone),
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "account deactivated"}),
		}
		checkCodeAndData(t, tt, f.do(tt))
	})
}

func Test_userApi_register(t *testing.T) {
	f := setup(t)
	admin := testutil.CreateUser(t, f.usrRepo, "Admin", "admin@test.cd", pwd, user.RoleAdmin, "", true)
	teacher := testutil.CreateUser(t, f.usrRepo, "Teacher", "teacher@test.cd", pwd, user.RoleTeacher, "5B", true)
	adminToken := f.token(t, admin)

	newUser := func(name, email, role, class, password string) []byte {
		return marchallObj(t, user.NewUser{
			Name:            name,
			Email:           email,
			Role:            role,
			ClassLabel:      class,
			Password:        password,
			PasswordConfirm: password,
		})
	}

	tests := []httpTest{
		{
			name:     "not an admin",
			token:    f.token(t, teacher),
			body:     newUser("New", "new@test.cd", user.RoleParent, "", pwd),
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name:     "teacher without class",
			token:    adminToken,
			body:     newUser("New Teacher", "new.teacher@test.cd", user.RoleTeacher, "", pwd),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"class_label":"teachers must be assigned a class"}`),
		},
		{
			name:     "weak password",
			token:    adminToken,
			body:     newUser("New", "new@test.cd", user.RoleParent, "", "password"),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"password":"password must contain at least 1 uppercase character, 1 lowercase character, 1 digit and 1 special character"}`),
		},
		{
			name:     "email taken",
			token:    adminToken,
			body:     newUser("Other", "TEACHER@test.cd", user.RoleParent, "", pwd),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"email":"` + user.ErrEmailExists.Error() + `"}`),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.method, tt.path = http.MethodPost, "/v1/users/register"
			checkCodeAndData(t, tt, f.do(tt))
		})
	}

	t.Run("success", func(t *testing.T) {
		rec := f.do(httpTest{
			method: http.MethodPost,
			path:   "/v1/users/register",
			token:  adminToken,
			body:   newUser("New Teacher", "new.teacher@test.cd", user.RoleTeacher, "6A", pwd),
		})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var usr user.User
		unmarshal(t, rec, &usr)
		assert.NotEmpty(t, usr.ID)
		assert.Equal(t, "6A", usr.ClassLabel)
		assert.True(t, usr.IsActive)

		saved, err := f.usrRepo.GetUserByID(context.Background(), usr.ID)
		require.NoError(t, err)
		assert.NoError(t, saved.CheckPassword(pwd))
	})
}

func Test_userApi_query(t *testing.T) {
	f := setup(t)
	now := time.Now()
	admin := testutil.CreateUser(t, f.usrRepo, "Admin", "admin@test.cd", pwd, user.RoleAdmin, "", true, now)
	t1 := testutil.CreateUser(t, f.usrRepo, "Teacher A", "a@test.cd", pwd, user.RoleTeacher, "5A", true, now.Add(time.Hour))
	t2 := testutil.CreateUser(t, f.usrRepo, "Teacher B", "b@test.cd", pwd, user.RoleTeacher, "5B", true, now.Add(2*time.Hour))
	adminToken := f.token(t, admin)

	tests := []httpTest{
		{
			name:     "teachers",
			path:     "/v1/users?role=teacher&ordering=created_at",
			wantData: marchallObj(t, []user.User{t1, t2}),
		},
		{
			name:     "teachers newest first",
			path:     "/v1/users?role=teacher&ordering=-created_at",
			wantData: marchallObj(t, []user.User{t2, t1}),
		},
		{
			name:     "unknown fields ignored",
			path:     "/v1/users?role=teacher&ordering=password_hash,-CREATED_AT",
			wantData: marchallObj(t, []user.User{t2, t1}),
		},
		{
			name:     "first occurrence wins",
			path:     "/v1/users?role=teacher&ordering=created_at,-created_at",
			wantData: marchallObj(t, []user.User{t1, t2}),
		},
		{
			name:     "no match",
			path:     "/v1/users?role=parent",
			wantData: []byte(`[]`),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.method, tt.token, tt.wantCode = http.MethodGet, adminToken, http.StatusOK
			rec := f.do(tt)
			require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			assert.JSONEq(t, string(tt.wantData), rec.Body.String())
		})
	}
}
