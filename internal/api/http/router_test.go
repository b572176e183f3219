package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unicover/unicover-lms/internal/attempt"
	"github.com/unicover/unicover-lms/internal/audit"
	authmw "github.com/unicover/unicover-lms/internal/auth/middleware"
	"github.com/unicover/unicover-lms/internal/contact"
	"github.com/unicover/unicover-lms/internal/course"
	"github.com/unicover/unicover-lms/internal/db"
	"github.com/unicover/unicover-lms/internal/license"
	"github.com/unicover/unicover-lms/internal/question"
	"github.com/unicover/unicover-lms/internal/rbac"
	"github.com/unicover/unicover-lms/internal/storage"
	"github.com/unicover/unicover-lms/internal/testbank"
)

type memCache struct {
	mu sync.Mutex
	m  map[string][]byte
}

func (c *memCache) Get(_ context.Context, k string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.m[k]
	return b, ok, nil
}

func (c *memCache) Set(_ context.Context, k string, b []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[k] = b
	return nil
}

func (c *memCache) DeletePrefix(_ context.Context, p string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.m {
		if strings.HasPrefix(k, p) {
			delete(c.m, k)
		}
	}
	return nil
}

type env struct {
	srv    *httptest.Server
	deps   Deps
	tokens map[string]string // role -> token
}

func newEnv(t *testing.T) *env {
	t.Helper()
	ctx := context.Background()
	h, err := db.Open(ctx, db.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = h.Close() })

	blobs, err := storage.NewFSStore(t.TempDir())
	require.NoError(t, err)

	tests := testbank.NewSQLStore(h)
	d := Deps{
		Auth:     authmw.NewAuthService("test-secret", time.Hour),
		Users:    authmw.NewUserStore(h),
		Tests:    tests,
		Courses:  course.NewSQLStore(h),
		Contacts: &contact.Service{Store: contact.NewSQLStore(h), Notifier: contact.LogNotifier{}},
		Licenses: &license.Service{Store: license.NewSQLStore(h), Blobs: blobs},
		Attempts: &attempt.Service{Store: attempt.NewSQLStore(h), Tests: tests},
		Audit:    audit.NewEventRepo(h),
		Cache:    &memCache{m: map[string][]byte{}},
	}
	e := &env{deps: d, tokens: map[string]string{}}
	for _, role := range []string{rbac.RoleAdmin, rbac.RoleEditor, rbac.RoleStudent} {
		hash, err := authmw.HashPassword("password-" + role)
		require.NoError(t, err)
		u, err := d.Users.Create(ctx, role+"1", hash, role, "")
		require.NoError(t, err)
		tok, err := d.Auth.IssueJWT(u)
		require.NoError(t, err)
		e.tokens[role] = tok
	}
	e.srv = httptest.NewServer(NewRouter(d))
	t.Cleanup(e.srv.Close)
	return e
}

func (e *env) do(t *testing.T, method, path, role string, body any) *http.Response {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, e.srv.URL+path, rd)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if role != "" {
		req.Header.Set("Authorization", "Bearer "+e.tokens[role])
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func (e *env) createTest(t *testing.T, title string) testbank.Test {
	t.Helper()
	resp := e.do(t, "POST", "/api/tests/", rbac.RoleEditor, map[string]any{
		"title": title, "is_standalone": true, "passing_score": 50,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decodeBody[testbank.Test](t, resp)
}

func TestQuestionLifecycle(t *testing.T) {
	e := newEnv(t)
	tst := e.createTest(t, "Охрана труда")
	base := "/api/tests/" + key(tst.ID) + "/questions/"

	ui := question.UIQuestion{
		Type:          question.SingleChoice,
		Text:          "Столица Казахстана?",
		Options:       []question.Option{{Text: "Астана"}, {Text: "Алматы"}},
		CorrectAnswer: question.Single("Астана"),
	}
	api, err := question.ToAPIAt(ui, 0)
	require.NoError(t, err)

	resp := e.do(t, "POST", base, rbac.RoleEditor, api)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeBody[question.APIQuestion](t, resp)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, 1, created.Order)
	require.Len(t, created.Options, 2)
	assert.Equal(t, "opt-1", created.Options[0].ID)
	assert.True(t, created.Options[0].IsCorrect)

	resp = e.do(t, "GET", base, rbac.RoleEditor, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decodeBody[[]question.APIQuestion](t, resp), 1)

	// Editors see the key, everyone else does not.
	resp = e.do(t, "GET", "/api/tests/"+key(tst.ID)+"/", rbac.RoleEditor, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	full := decodeBody[testbank.Test](t, resp)
	require.Len(t, full.Questions, 1)
	back, err := question.FromAPI(full.Questions[0])
	require.NoError(t, err)
	assert.Equal(t, "Астана", back.CorrectAnswer.Value())

	resp = e.do(t, "GET", "/api/tests/"+key(tst.ID), "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "is_correct")
	assert.Contains(t, string(raw), "Астана")

	// Self-check scoring by option text.
	resp = e.do(t, "POST", "/api/tests/"+key(tst.ID)+"/score", "", map[string]any{
		"responses": map[string]any{created.ID: "Астана"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var res struct {
		Percent float64 `json:"percent"`
		Passed  bool    `json:"passed"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	assert.Equal(t, 100.0, res.Percent)
	assert.True(t, res.Passed)

	// Update keeps option ids for unchanged texts.
	ui.ID = created.ID
	ui.Options = []question.Option{{Text: "Алматы"}, {Text: "Астана"}, {Text: "Шымкент"}}
	api, err = question.ToAPIAt(ui, 0)
	require.NoError(t, err)
	resp = e.do(t, "PUT", base+created.ID+"/", rbac.RoleEditor, api)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decodeBody[question.APIQuestion](t, resp)
	require.Len(t, updated.Options, 3)
	assert.Equal(t, "opt-2", updated.Options[0].ID)
	assert.Equal(t, "opt-1", updated.Options[1].ID)
	assert.True(t, updated.Options[1].IsCorrect)

	resp = e.do(t, "DELETE", base+created.ID, rbac.RoleEditor, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp = e.do(t, "GET", base+created.ID, rbac.RoleEditor, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	evs, err := e.deps.Audit.List(context.Background(), 0, "", 0)
	require.NoError(t, err)
	var types []string
	for _, ev := range evs {
		types = append(types, ev.Type)
	}
	assert.Equal(t, []string{"test.created", "question.created", "question.updated", "question.deleted"}, types)
}

func TestQuestionErrors(t *testing.T) {
	e := newEnv(t)
	tst := e.createTest(t, "Промбезопасность")
	base := "/api/tests/" + key(tst.ID) + "/questions"

	resp := e.do(t, "POST", base, rbac.RoleEditor, map[string]any{"type": "single_choice", "text": "", "weight": 1})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	detail := decodeBody[map[string]string](t, resp)
	assert.Contains(t, detail["detail"], "text is required")

	q := map[string]any{"type": "short_answer", "text": "2+2", "order": 1, "weight": 1,
		"options": []map[string]any{{"text": "4", "is_correct": true}}}
	resp = e.do(t, "POST", base, rbac.RoleEditor, q)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = e.do(t, "POST", "/api/admin/licenses", rbac.RoleAdmin, map[string]any{
		"title": "A", "number": "N-1", "category": "other", "issued_date": "2020-01-01"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp = e.do(t, "POST", "/api/admin/licenses", rbac.RoleAdmin, map[string]any{
		"title": "B", "number": "N-1", "category": "other", "issued_date": "2020-01-01"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = e.do(t, "POST", "/api/tests/999999/questions", rbac.RoleEditor, q)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = e.do(t, "GET", "/api/tests/abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAuthorization(t *testing.T) {
	e := newEnv(t)

	resp := e.do(t, "POST", "/api/tests", "", map[string]any{"title": "x"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp = e.do(t, "POST", "/api/tests", rbac.RoleStudent, map[string]any{"title": "x"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp = e.do(t, "GET", "/api/admin/users", rbac.RoleEditor, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp = e.do(t, "GET", "/api/admin/users", rbac.RoleAdmin, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp = e.do(t, "GET", "/api/admin/contacts", rbac.RoleEditor, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Inactive tests are hidden from the public.
	tst := e.createTest(t, "Черновик")
	resp = e.do(t, "PATCH", "/api/tests/"+key(tst.ID), rbac.RoleEditor, map[string]any{"is_active": false})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Черновик", decodeBody[testbank.Test](t, resp).Title)
	resp = e.do(t, "GET", "/api/tests/"+key(tst.ID), rbac.RoleStudent, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp = e.do(t, "GET", "/api/tests/"+key(tst.ID), rbac.RoleAdmin, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestListTestsPaginates(t *testing.T) {
	e := newEnv(t)
	for _, title := range []string{"A", "B", "C"} {
		e.createTest(t, title)
	}
	resp := e.do(t, "GET", "/api/tests/?page_size=2", rbac.RoleEditor, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	p := decodeBody[Page[testbank.Test]](t, resp)
	assert.Equal(t, 3, p.Count)
	assert.Len(t, p.Results, 2)
	require.NotNil(t, p.Next)
	assert.Contains(t, *p.Next, "page=2")
	assert.Nil(t, p.Previous)

	resp = e.do(t, "GET", "/api/tests?page_size=2&page=2", rbac.RoleEditor, nil)
	p = decodeBody[Page[testbank.Test]](t, resp)
	assert.Len(t, p.Results, 1)
	assert.Nil(t, p.Next)
	assert.NotNil(t, p.Previous)
}

func TestCatalogCacheIsInvalidatedByWrites(t *testing.T) {
	e := newEnv(t)
	e.createTest(t, "Первый")

	resp := e.do(t, "GET", "/api/catalog/tests?lang=ru", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "MISS", resp.Header.Get("X-Cache"))
	miss, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var p Page[catalogTest]
	require.NoError(t, json.Unmarshal(miss, &p))
	assert.Equal(t, 1, p.Count)
	assert.Len(t, p.Results, 1)

	resp = e.do(t, "GET", "/api/catalog/tests?lang=ru", "", nil)
	assert.Equal(t, "HIT", resp.Header.Get("X-Cache"))
	hit, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, miss, hit, "a hit serves the same bytes as the miss that stored it")

	e.createTest(t, "Второй")
	resp = e.do(t, "GET", "/api/catalog/tests?lang=ru", "", nil)
	assert.Equal(t, "MISS", resp.Header.Get("X-Cache"))
	assert.Len(t, decodeBody[Page[catalogTest]](t, resp).Results, 2)
}

func TestCatalogTestsPaginates(t *testing.T) {
	e := newEnv(t)
	for _, title := range []string{"A", "B", "C"} {
		e.createTest(t, title)
	}
	resp := e.do(t, "GET", "/api/catalog/tests?page_size=2", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	p := decodeBody[Page[catalogTest]](t, resp)
	assert.Equal(t, 3, p.Count)
	assert.Len(t, p.Results, 2)
	require.NotNil(t, p.Next)

	resp = e.do(t, "GET", "/api/catalog/tests?page_size=2&page=2", "", nil)
	p = decodeBody[Page[catalogTest]](t, resp)
	assert.Len(t, p.Results, 1)
	assert.Nil(t, p.Next)
}

func TestCourseTreeAndCatalog(t *testing.T) {
	e := newEnv(t)

	resp := e.do(t, "POST", "/api/courses/categories/", rbac.RoleEditor, map[string]any{"name": "Геодезия", "name_en": "Surveying"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	cat := decodeBody[course.Category](t, resp)

	resp = e.do(t, "POST", "/api/courses/", rbac.RoleEditor, map[string]any{
		"title": "Геодезия для начинающих", "title_en": "Surveying basics", "category": cat.ID, "status": "published",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	c := decodeBody[course.Course](t, resp)

	resp = e.do(t, "POST", "/api/courses/"+key(c.ID)+"/modules/", rbac.RoleEditor, map[string]any{"title": "Введение"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	m := decodeBody[course.Module](t, resp)

	resp = e.do(t, "POST", "/api/modules/"+key(m.ID)+"/lessons/", rbac.RoleEditor, map[string]any{"title": "Урок 1", "content": "..."})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = e.do(t, "GET", "/api/courses/"+key(c.ID), "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	tree := decodeBody[course.Course](t, resp)
	require.Len(t, tree.Modules, 1)
	assert.Len(t, tree.Modules[0].Lessons, 1)

	req, err := http.NewRequest("GET", e.srv.URL+"/api/catalog/courses", nil)
	require.NoError(t, err)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	p := decodeBody[Page[catalogCourse]](t, resp)
	require.Len(t, p.Results, 1)
	assert.Equal(t, "Surveying basics", p.Results[0].Title)

	resp = e.do(t, "GET", "/api/catalog/categories?lang=kz", "", nil)
	cats := decodeBody[[]catalogCategory](t, resp)
	require.Len(t, cats, 1)
	assert.Equal(t, "Геодезия", cats[0].Name)

	// Category in use cannot be deleted.
	resp = e.do(t, "DELETE", "/api/courses/categories/"+key(cat.ID), rbac.RoleEditor, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestContactForm(t *testing.T) {
	e := newEnv(t)

	resp := e.do(t, "POST", "/api/contacts/", "", map[string]any{
		"name": "Айгуль", "email": "aigul@example.kz", "phone": "+7 701 123 45 67",
		"direction": "education", "message": "Нужен курс по охране труда",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	m := decodeBody[contact.Message](t, resp)
	assert.Equal(t, contact.Status("new"), m.Status)

	resp = e.do(t, "POST", "/api/contacts", "", map[string]any{"name": "x", "email": "nope"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = e.do(t, "PATCH", "/api/admin/contacts/"+key(m.ID), rbac.RoleEditor, map[string]any{"status": "read"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp = e.do(t, "PATCH", "/api/admin/contacts/"+key(m.ID), rbac.RoleAdmin, map[string]any{"status": "read"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = e.do(t, "GET", "/api/admin/contacts?status=read", rbac.RoleAdmin, nil)
	assert.Len(t, decodeBody[[]contact.Message](t, resp), 1)
}

func TestLicenseUploadAndDownload(t *testing.T) {
	e := newEnv(t)

	resp := e.do(t, "POST", "/api/admin/licenses", rbac.RoleEditor, map[string]any{
		"title": "Лицензия на геодезические работы", "number": "ГЛ-001",
		"category": "surveying", "issued_date": "2022-05-01",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	l := decodeBody[license.License](t, resp)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "scan.pdf")
	require.NoError(t, err)
	_, _ = fw.Write([]byte("%PDF-1.4 test"))
	require.NoError(t, mw.Close())

	req, err := http.NewRequest("POST", e.srv.URL+"/api/admin/licenses/"+key(l.ID)+"/file", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+e.tokens[rbac.RoleEditor])
	up, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer up.Body.Close()
	require.Equal(t, http.StatusOK, up.StatusCode)
	assert.Equal(t, "licenses/surveying/scan.pdf", decodeBody[license.License](t, up).FileKey)

	resp = e.do(t, "GET", "/api/licenses/"+key(l.ID)+"/file", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 test", string(b))

	resp = e.do(t, "GET", "/api/licenses?category=surveying", "", nil)
	assert.Len(t, decodeBody[[]license.License](t, resp), 1)

	resp = e.do(t, "DELETE", "/api/admin/licenses/"+key(l.ID), rbac.RoleEditor, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp = e.do(t, "GET", "/api/licenses/"+key(l.ID)+"/file", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestLoginAndPasswordChange(t *testing.T) {
	e := newEnv(t)

	resp := e.do(t, "POST", "/api/auth/login/", "", map[string]string{"username": "editor1", "password": "password-editor"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, decodeBody[map[string]string](t, resp)["access_token"])

	resp = e.do(t, "POST", "/api/auth/password", rbac.RoleEditor, map[string]string{"old_password": "wrong", "new_password": "new-password"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp = e.do(t, "POST", "/api/auth/password", rbac.RoleEditor, map[string]string{"old_password": "password-editor", "new_password": "new-password"})
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = e.do(t, "POST", "/api/auth/login", "", map[string]string{"username": "editor1", "password": "new-password"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = e.do(t, "POST", "/api/admin/users", rbac.RoleAdmin, map[string]string{"username": "editor1", "password": "whatever-123"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp = e.do(t, "POST", "/api/admin/users", rbac.RoleAdmin, map[string]string{"username": "editor2", "password": "whatever-123", "role": "root"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAttemptFlow(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	resp := e.do(t, "POST", "/api/tests", rbac.RoleEditor, map[string]any{
		"title": "Пожарная безопасность", "is_standalone": true, "passing_score": 50, "max_attempts": 1,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	tst := decodeBody[testbank.Test](t, resp)
	api, err := question.ToAPIAt(question.UIQuestion{
		Type:          question.SingleChoice,
		Text:          "Номер пожарной службы?",
		Options:       []question.Option{{Text: "101"}, {Text: "103"}},
		CorrectAnswer: question.Single("101"),
	}, 0)
	require.NoError(t, err)
	resp = e.do(t, "POST", "/api/tests/"+key(tst.ID)+"/questions", rbac.RoleEditor, api)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	qid := decodeBody[question.APIQuestion](t, resp).ID

	resp = e.do(t, "POST", "/api/exams/start", "", map[string]any{"test_id": tst.ID})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = e.do(t, "POST", "/api/exams/start/", rbac.RoleStudent, map[string]any{"test_id": tst.ID})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	a := decodeBody[attempt.Attempt](t, resp)
	assert.Equal(t, "127.0.0.1", a.IPAddress)
	assert.Equal(t, "Go-http-client/1.1", a.UserAgent)
	base := "/api/exams/" + key(a.ID)

	resp = e.do(t, "POST", base+"/save", rbac.RoleStudent, map[string]any{"answers": map[string]any{qid: "103"}})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Someone else's attempt does not exist for another student.
	u, err := e.deps.Users.Create(ctx, "student2", "x", rbac.RoleStudent, "")
	require.NoError(t, err)
	e.tokens["other"], err = e.deps.Auth.IssueJWT(u)
	require.NoError(t, err)
	resp = e.do(t, "GET", base, "other", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp = e.do(t, "POST", base+"/submit", "other", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp = e.do(t, "GET", "/api/exams", "other", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// Editors read any attempt but cannot answer for the student.
	resp = e.do(t, "GET", base, rbac.RoleEditor, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp = e.do(t, "POST", base+"/save", rbac.RoleEditor, map[string]any{"answers": map[string]any{}})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = e.do(t, "POST", base+"/submit", rbac.RoleStudent, map[string]any{"answers": map[string]any{qid: "101"}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	sub := decodeBody[attempt.Submission](t, resp)
	require.NotNil(t, sub.Result)
	assert.Equal(t, 100.0, sub.Result.Percent)
	require.NotNil(t, sub.Passed)
	assert.True(t, *sub.Passed)

	// Submitting again returns the stored result.
	resp = e.do(t, "POST", base+"/submit", rbac.RoleStudent, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	sub = decodeBody[attempt.Submission](t, resp)
	assert.Nil(t, sub.Result)
	assert.Equal(t, 100.0, *sub.Score)

	resp = e.do(t, "POST", base+"/save", rbac.RoleStudent, map[string]any{"answers": map[string]any{}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = e.do(t, "GET", "/api/exams/my_attempts?test_id="+key(tst.ID), rbac.RoleStudent, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decodeBody[[]attempt.Attempt](t, resp), 1)
	resp = e.do(t, "GET", "/api/exams/my_attempts", "other", nil)
	assert.Empty(t, decodeBody[[]attempt.Attempt](t, resp))
	resp = e.do(t, "GET", "/api/exams/test_attempts", rbac.RoleStudent, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// max_attempts is 1.
	resp = e.do(t, "POST", "/api/exams/start", rbac.RoleStudent, map[string]any{"test_id": tst.ID})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, decodeBody[map[string]string](t, resp)["detail"], "maximum attempts (1)")

	// An approved extra request opens one more.
	resp = e.do(t, "POST", "/api/exams/extra-requests", rbac.RoleStudent, map[string]any{"test_id": tst.ID, "reason": "сбой сети"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	req := decodeBody[attempt.ExtraRequest](t, resp)
	resp = e.do(t, "POST", "/api/exams/extra-requests", rbac.RoleStudent, map[string]any{"test_id": tst.ID, "reason": "ещё"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = e.do(t, "GET", "/api/admin/extra-requests?status=pending", rbac.RoleEditor, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp = e.do(t, "GET", "/api/admin/extra-requests?status=pending", rbac.RoleAdmin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decodeBody[[]attempt.ExtraRequest](t, resp), 1)
	resp = e.do(t, "PATCH", "/api/admin/extra-requests/"+key(req.ID), rbac.RoleAdmin, map[string]any{"status": "approved", "admin_response": "ok"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, attempt.Approved, decodeBody[attempt.ExtraRequest](t, resp).Status)

	resp = e.do(t, "POST", "/api/exams/start", rbac.RoleStudent, map[string]any{"test_id": tst.ID})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = e.do(t, "GET", "/api/exams?test_id="+key(tst.ID), rbac.RoleEditor, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decodeBody[[]attempt.Attempt](t, resp), 2)
}
