package storage

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFSStore_PutGetDelete(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFSStore(dir)
	require.NoError(t, err)

	key, err := s.Put("licenses/surveying/scan.pdf", strings.NewReader("%PDF-1.4"))
	require.NoError(t, err)
	assert.Equal(t, "licenses/surveying/scan.pdf", key)

	_, err = os.Stat(filepath.Join(dir, "licenses", "surveying", "scan.pdf"))
	require.NoError(t, err)

	rc, err := s.Get(key)
	require.NoError(t, err)
	b, _ := io.ReadAll(rc)
	rc.Close()
	assert.Equal(t, "%PDF-1.4", string(b))

	require.NoError(t, s.Delete(key))
	require.NoError(t, s.Delete(key))
	_, err = s.Get(key)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFSStore_KeysStayUnderBase(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFSStore(filepath.Join(dir, "blobs"))
	require.NoError(t, err)

	key, err := s.Put("../../etc/passwd", strings.NewReader("x"))
	require.NoError(t, err)
	assert.Equal(t, "etc/passwd", key)
	_, err = os.Stat(filepath.Join(dir, "blobs", "etc", "passwd"))
	assert.NoError(t, err)

	_, err = s.Put("/", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrBadKey)
}

func TestSafeName(t *testing.T) {
	for in, want := range map[string]string{
		"Лицензия ГСЛ №1.pdf":  "Лицензия_ГСЛ_1.pdf",
		`C:\Users\me\scan.pdf`: "scan.pdf",
		"../../.hidden":        "hidden",
		"???":                  "file",
		"license-2024_v2.PDF":  "license-2024_v2.PDF",
	} {
		assert.Equal(t, want, SafeName(in), in)
	}
}
