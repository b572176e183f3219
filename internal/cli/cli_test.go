package cli

import (
	"bytes"
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	api "github.com/unicover/unicover-lms/internal/api/http"
	authmw "github.com/unicover/unicover-lms/internal/auth/middleware"
	"github.com/unicover/unicover-lms/internal/client"
	"github.com/unicover/unicover-lms/internal/course"
	"github.com/unicover/unicover-lms/internal/db"
	"github.com/unicover/unicover-lms/internal/question"
	"github.com/unicover/unicover-lms/internal/testbank"
)

func newServer(t *testing.T) string {
	t.Helper()
	ctx := context.Background()
	h, err := db.Open(ctx, db.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = h.Close() })

	users := authmw.NewUserStore(h)
	hash, err := authmw.HashPassword("admin-pass")
	require.NoError(t, err)
	require.NoError(t, users.EnsureAdmin(ctx, "admin", hash))

	srv := httptest.NewServer(api.NewRouter(api.Deps{
		Auth:    authmw.NewAuthService("secret", time.Hour),
		Users:   users,
		Tests:   testbank.NewSQLStore(h),
		Courses: course.NewSQLStore(h),
	}))
	t.Cleanup(srv.Close)
	return srv.URL
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

const testYAML = `title: Электробезопасность
language: ru
passing_score: 70
questions:
  - type: yes_no
    text: Можно ли работать без заземления?
    correctAnswer: Нет
  - type: multiple_choice
    text: Средства защиты
    options: [Диэлектрические перчатки, Боты, Сандалии]
    correctAnswer: [Диэлектрические перчатки, Боты]
`

func TestPushListPullDelete(t *testing.T) {
	server := newServer(t)
	t.Setenv(envServer, server)

	out, err := run(t, "login", "--user", "admin", "--password", "admin-pass")
	require.NoError(t, err)
	token := string(bytes.TrimSpace([]byte(out)))
	require.NotEmpty(t, token)
	t.Setenv(envToken, token)

	file := filepath.Join(t.TempDir(), "test.yaml")
	require.NoError(t, os.WriteFile(file, []byte(testYAML), 0o644))

	out, err = run(t, "tests", "push", "-f", file)
	require.NoError(t, err, out)
	assert.Contains(t, out, "2 created, 0 updated, 0 deleted, 0 skipped, 0 failed")

	out, err = run(t, "tests", "list", "--lang", "ru")
	require.NoError(t, err)
	assert.Contains(t, out, "Электробезопасность")

	pulled := filepath.Join(t.TempDir(), "pulled.yaml")
	out, err = run(t, "tests", "pull", "1", "-o", pulled)
	require.NoError(t, err, out)
	assert.Contains(t, out, "2 questions")

	b, err := os.ReadFile(pulled)
	require.NoError(t, err)
	var got client.UITest
	require.NoError(t, yaml.Unmarshal(b, &got))
	assert.Equal(t, int64(1), got.ID)
	assert.Equal(t, 70, got.PassingScore)
	require.Len(t, got.Questions, 2)
	assert.Equal(t, question.No, got.Questions[0].CorrectAnswer.Value())
	assert.Len(t, got.Questions[1].CorrectAnswer.List(), 2)

	// Pushing the pulled file back is an update of the same questions.
	out, err = run(t, "tests", "push", "-f", pulled)
	require.NoError(t, err, out)
	assert.Contains(t, out, "0 created, 2 updated")

	out, err = run(t, "tests", "delete", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted test 1")

	out, err = run(t, "tests", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No tests found.")
}

func TestFlagsOverrideEnvironment(t *testing.T) {
	server := newServer(t)
	t.Setenv(envServer, "http://127.0.0.1:1")
	t.Setenv(envToken, "")

	_, err := run(t, "--server", server, "courses", "list")
	require.Error(t, err, "admin routes need a token")

	out, err := run(t, "--server", server, "login", "--user", "admin", "--password", "admin-pass")
	require.NoError(t, err)
	token := string(bytes.TrimSpace([]byte(out)))

	out, err = run(t, "--server", server, "--token", token, "courses", "list", "--status", "published")
	require.NoError(t, err)
	assert.Contains(t, out, "No courses found.")
}

func TestPushRejectsFileWithoutTitle(t *testing.T) {
	file := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(file, []byte("questions: []\n"), 0o644))
	_, err := run(t, "--server", "http://127.0.0.1:1", "tests", "push", "-f", file)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "title is required")
}
