package contact

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unicover/unicover-lms/internal/db"
)

func valid() Message {
	return Message{
		Name:      "Айгерим",
		Email:     "a@example.kz",
		Phone:     "+7 (701) 123-45-67",
		Direction: "Safety",
		Message:   "Нужна аттестация",
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name string
		mut  func(*Message)
		ok   bool
	}{
		{"ok", func(*Message) {}, true},
		{"no direction", func(m *Message) { m.Direction = "" }, true},
		{"missing name", func(m *Message) { m.Name = "  " }, false},
		{"bad email", func(m *Message) { m.Email = "not-an-email" }, false},
		{"display name email", func(m *Message) { m.Email = "Bob <bob@example.com>" }, false},
		{"bad phone", func(m *Message) { m.Phone = "call me" }, false},
		{"empty message", func(m *Message) { m.Message = "" }, false},
		{"unknown direction", func(m *Message) { m.Direction = "mining" }, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := valid()
			tc.mut(&m)
			m.Normalize()
			err := m.Validate()
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalid)
			}
		})
	}
}

type fakeNotifier struct {
	mu   sync.Mutex
	got  []Message
	fail error
}

func (f *fakeNotifier) Notify(_ context.Context, m Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.got = append(f.got, m)
	return f.fail
}

func newSQLStore(t *testing.T) *SQLStore {
	t.Helper()
	h, err := db.Open(context.Background(), db.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = h.Close() })
	return NewSQLStore(h)
}

func TestSubmit_PersistsAndNotifies(t *testing.T) {
	n := &fakeNotifier{}
	svc := &Service{Store: newSQLStore(t), Notifier: n}

	saved, err := svc.Submit(context.Background(), valid())
	require.NoError(t, err)
	assert.NotZero(t, saved.ID)
	assert.Equal(t, StatusNew, saved.Status)
	assert.Equal(t, Safety, saved.Direction)
	require.Len(t, n.got, 1)
	assert.Equal(t, saved.ID, n.got[0].ID)
}

func TestSubmit_NotifierFailureIsNotFatal(t *testing.T) {
	n := &fakeNotifier{fail: errors.New("telegram down")}
	svc := &Service{Store: newSQLStore(t), Notifier: n}

	_, err := svc.Submit(context.Background(), valid())
	assert.NoError(t, err)
}

func TestSubmit_InvalidIsNotStored(t *testing.T) {
	store := newSQLStore(t)
	n := &fakeNotifier{}
	svc := &Service{Store: store, Notifier: n}

	m := valid()
	m.Email = ""
	_, err := svc.Submit(context.Background(), m)
	assert.ErrorIs(t, err, ErrInvalid)
	assert.Empty(t, n.got)

	all, err := store.List(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestStore_StatusWorkflow(t *testing.T) {
	ctx := context.Background()
	s := newSQLStore(t)
	a, err := s.Create(ctx, valid())
	require.NoError(t, err)
	_, err = s.Create(ctx, valid())
	require.NoError(t, err)

	read, err := s.SetStatus(ctx, a.ID, StatusRead)
	require.NoError(t, err)
	assert.Equal(t, StatusRead, read.Status)

	_, err = s.SetStatus(ctx, a.ID, "spam")
	assert.ErrorIs(t, err, ErrInvalid)
	_, err = s.SetStatus(ctx, 999, StatusRead)
	assert.ErrorIs(t, err, ErrNotFound)

	fresh, err := s.List(ctx, StatusNew)
	require.NoError(t, err)
	assert.Len(t, fresh, 1)
	all, err := s.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestFormatNotification_EscapesHTML(t *testing.T) {
	m := valid()
	m.ID = 3
	m.Message = "<script>x</script>"
	m.Direction = Safety
	out := FormatNotification(m)
	assert.Contains(t, out, "<b>Новая заявка #3</b>")
	assert.Contains(t, out, "&lt;script&gt;")
	assert.Contains(t, out, "Промышленная безопасность")
	assert.NotContains(t, out, "Компания")
}

func TestTelegramNotifier_SendsToChat(t *testing.T) {
	var (
		path string
		body map[string]any
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":1,"date":0,"chat":{"id":42,"type":"group"}}}`))
	}))
	defer srv.Close()

	n, err := NewTelegramNotifier("123:abc", 42, srv.URL)
	require.NoError(t, err)
	m := valid()
	m.ID = 7
	require.NoError(t, n.Notify(context.Background(), m))

	assert.True(t, strings.HasSuffix(path, "/sendMessage"), path)
	text, _ := body["text"].(string)
	assert.Contains(t, text, "Новая заявка #7")
}
