package tests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"

	. "github.com/trezcool/rollcall/apps/api/echo"
	"github.com/trezcool/rollcall/apps/shared"
	"github.com/trezcool/rollcall/core"
	"github.com/trezcool/rollcall/core/attendance"
	"github.com/trezcool/rollcall/core/user"
	"github.com/trezcool/rollcall/fs"
	"github.com/trezcool/rollcall/services/email"
	"github.com/trezcool/rollcall/services/push"
	"github.com/trezcool/rollcall/storage/database/inmem"
	"github.com/trezcool/rollcall/tests"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

func TestMain(m *testing.M) {
	core.ParseEmailTemplates(appfs.FS, true, new(testutil.Logger))
	os.Exit(m.Run())
}

type fixture struct {
	conf    *core.Config
	app     Server
	usrRepo user.Repository
	repo    attendance.Repository
	push    *pushsvc.ServiceMock
	mail    *emailsvc.ConsoleServiceMock
	logger  *testutil.Logger
}

func setup(t *testing.T) *fixture {
	t.Helper()

	conf := testutil.NewConfig()
	logger := new(testutil.Logger)

	// set up DB & repos
	db := inmemdb.Open()
	f := &fixture{
		conf:    conf,
		usrRepo: inmemdb.NewUserRepository(db),
		repo:    inmemdb.NewAttendanceRepository(db),
		push:    pushsvc.NewServiceMock(),
		mail:    emailsvc.NewConsoleServiceMock(conf, logger),
		logger:  logger,
	}

	// set up services
	validate, translator := shared.NewValidator()
	usrSvc := user.NewService(f.usrRepo)
	attSvc := attendance.NewService(
		f.repo,
		attendance.NewAbsenceNotifier(f.repo, f.push),
		usrSvc,
		f.mail,
		conf,
	)

	// set up server
	f.app = NewServer(ServerDeps{
		Conf:           conf,
		Logger:         logger,
		UserSvc:        usrSvc,
		AttendanceSvc:  attSvc,
		Validate:       validate,
		Translator:     translator,
		DisableReqLogs: true,
	})
	t.Cleanup(func() { _ = f.app.Close() })
	return f
}

func (f *fixture) token(t *testing.T, usr user.User) string {
	token, err := NewToken(f.conf, usr)
	if err != nil {
		t.Fatalf("token() failed: %v", err)
	}
	return token
}

func (f *fixture) do(tt httpTest) *httptest.ResponseRecorder {
	req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
	f.app.ServeHTTP(rec, req)
	return rec
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func unmarshal(t *testing.T, rec *httptest.ResponseRecorder, obj interface{}) {
	if err := json.Unmarshal(rec.Body.Bytes(), obj); err != nil {
		t.Fatalf("unmarshal(%s) failed: %v", rec.Body.String(), err)
	}
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if j1 == nil || j2 == nil {
		return false, nil
	}
	if _, ok := j1.([]interface{}); !ok {
		return false, nil
	}
	return assert.ElementsMatch(t, j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
