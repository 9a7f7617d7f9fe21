package tests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"

	. "github.com/enactus/membership/apps/api/echo"
	"github.com/enactus/membership/core"
	"github.com/enactus/membership/core/agenda"
	"github.com/enactus/membership/core/attendance"
	"github.com/enactus/membership/core/dashboard"
	"github.com/enactus/membership/core/member"
	"github.com/enactus/membership/core/notify"
	"github.com/enactus/membership/core/post"
	"github.com/enactus/membership/services/email"
	"github.com/enactus/membership/services/metrics"
	"github.com/enactus/membership/services/ratelimit"
	inmemdb "github.com/enactus/membership/storage/database/inmem"
	"github.com/enactus/membership/storage/repos"
	"github.com/enactus/membership/tests"
)

var (
	errMissingToken = httpErr{Error: "missing or malformed jwt"}
	errForbidden    = httpErr{Error: "permission denied"}
)

type testApp struct {
	*Server
	conf     *core.Config
	db       *inmemdb.DB
	mailer   *emailsvc.ConsoleServiceMock
	logger   *testutil.LoggerMock
	usrRepo  member.Repository
	absRepo  attendance.Repository
	postRepo post.Repository
}

func setup(t *testing.T) *testApp {
	conf := core.NewTestConfig()
	conf.RateLimit.Requests = 10

	// set up DB & repos
	db := testutil.NewStore(t)
	usrRepo := docrepos.NewUserRepository(db)
	absRepo := docrepos.NewAbsenceRepository(db)
	evtRepo := docrepos.NewEventRepository(db)
	postRepo := docrepos.NewPostRepository(db)

	// set up services
	logger := new(testutil.LoggerMock)
	mailer := emailsvc.NewConsoleServiceMock(conf)
	metrics := metricsvc.New()
	validate, translator := testutil.NewValidator()

	memberSvc := member.NewService(usrRepo)
	notifier := notify.NewController(mailer, conf, logger, metrics)
	attendanceSvc := attendance.NewService(absRepo, memberSvc, metrics)
	agendaSvc := agenda.NewService(evtRepo, memberSvc, notifier, logger)
	postSvc := post.NewService(postRepo)

	// set up server
	server := NewServer(ServerDeps{
		Conf:           conf,
		Logger:         logger,
		Validate:       validate,
		Translator:     translator,
		MemberSvc:      memberSvc,
		AttendanceSvc:  attendanceSvc,
		Notifier:       notifier,
		AgendaSvc:      agendaSvc,
		PostSvc:        postSvc,
		DashboardSvc:   dashboard.NewService(memberSvc, attendanceSvc, agendaSvc, postSvc),
		Metrics:        metrics,
		Limiter:        ratelimit.NewMemoryLimiter(conf.RateLimit.Requests, conf.RateLimit.Window),
		DisableReqLogs: true,
	})

	return &testApp{
		Server:   server,
		conf:     conf,
		db:       db,
		mailer:   mailer,
		logger:   logger,
		usrRepo:  usrRepo,
		absRepo:  absRepo,
		postRepo: postRepo,
	}
}

// createUser creates an approved user with the given role.
func (app *testApp) createUser(t *testing.T, name, email, role string) member.User {
	return testutil.CreateUser(t, app.usrRepo, name, email, "", role, member.StatusApproved)
}

func (app *testApp) token(t *testing.T, usr member.User) string {
	return getToken(t, app.conf, usr)
}

func (app *testApp) run(t *testing.T, tt httpTest) *httptest.ResponseRecorder {
	t.Helper()
	req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
	app.ServeHTTP(rec, req)
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
	extra    interface{}
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

func getToken(t *testing.T, conf *core.Config, usr member.User) string {
	claims := GetUserClaims(conf, usr)
	token, err := GenerateToken(conf, claims)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	if objs == nil {
		objs = []interface{}{}
	}
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList() failed: %v", err)
	}
	return data
}

func unmarchall(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("unmarchall() failed: %v; body %s", err, rec.Body.String())
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
	return assert.ElementsMatch(t, j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
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
