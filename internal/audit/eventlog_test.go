package audit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unicover/unicover-lms/internal/db"
)

func TestRecordAndList(t *testing.T) {
	ctx := context.Background()
	h, err := db.Open(ctx, db.DriverSQLite, ":memory:")
	require.NoError(t, err)
	defer h.Close()
	r := NewEventRepo(h)

	require.NoError(t, r.Record(ctx, "u1", "test.created", "test:1", map[string]any{"title": "T"}))
	require.NoError(t, r.Record(ctx, "u1", "question.deleted", "question:5", nil))
	require.NoError(t, r.Record(ctx, "u2", "test.created", "test:2", map[string]any{"title": "U"}))

	all, err := r.List(ctx, 0, "", 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.JSONEq(t, `{"title":"T"}`, string(all[0].Data))
	assert.Equal(t, "null", string(all[1].Data))

	created, err := r.List(ctx, all[0].Seq, "test.created", 10)
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, "u2", created[0].Actor)
	assert.Equal(t, "test:2", created[0].Key)
}
