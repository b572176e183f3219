//go:build integration

package testbank

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/unicover/unicover-lms/internal/db"
	"github.com/unicover/unicover-lms/internal/question"
)

func startPostgres(ctx context.Context, t *testing.T) (dsn string, terminate func()) {
	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "unicover",
			"POSTGRES_PASSWORD": "unicover",
			"POSTGRES_DB":       "unicover",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	pg, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	host, err := pg.Host(ctx)
	require.NoError(t, err)
	port, err := pg.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dsn = fmt.Sprintf("postgres://unicover:unicover@%s:%s/unicover?sslmode=disable", host, port.Port())
	t.Logf("postgres running at %s", dsn)
	terminate = func() {
		require.NoError(t, pg.Terminate(ctx))
	}
	return dsn, terminate
}

func TestSQLStore_Postgres(t *testing.T) {
	ctx := context.Background()
	dsn, terminate := startPostgres(ctx, t)
	defer terminate()

	h, err := db.Open(ctx, db.DriverPostgres, dsn)
	require.NoError(t, err)
	defer h.Close()
	s := NewSQLStore(h)

	in := NewTest()
	in.Title = "Промбезопасность"
	tt, err := s.CreateTest(ctx, in)
	require.NoError(t, err)

	q, err := s.CreateQuestion(ctx, tt.ID, question.APIQuestion{
		Type:    question.SingleChoice,
		Text:    "Выберите",
		Options: []question.Option{{Text: "a", IsCorrect: true}, {Text: "b"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, q.Order)

	ins, err := s.CreateQuestion(ctx, tt.ID, question.APIQuestion{Type: question.ShortAnswer, Text: "x", Order: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, ins.Order)
	moved, err := s.GetQuestion(ctx, tt.ID, mustID(t, q.ID))
	require.NoError(t, err)
	assert.Equal(t, 2, moved.Order)

	_, err = s.UpdateQuestion(ctx, tt.ID, mustID(t, q.ID), question.APIQuestion{Type: question.SingleChoice, Text: "Выберите",
		Options: moved.Options, Order: 1})
	require.NoError(t, err)

	list, total, err := s.ListTests(ctx, ListOpts{Q: "пром", ActiveOnly: true})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, list, 1)
	assert.Equal(t, 2, list[0].QuestionsCount)

	require.NoError(t, s.DeleteTest(ctx, tt.ID))
}
