package service

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/notes-api/internal/apperror"
	"github.com/sakif/notes-api/internal/model"
)

// pngHeader is enough of a PNG for content sniffing.
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00\x1f\x15\xc4\x89")

func newTestFileService(t *testing.T, maxBytes int64) (*FileService, *testEnv, string) {
	t.Helper()
	env := newTestEnv(t)
	dir := t.TempDir()
	return NewFileService(env.db.Files(), dir, "/uploads/", maxBytes, quietLogger()), env, dir
}

func TestUpload_StoresImage(t *testing.T) {
	svc, env, dir := newTestFileService(t, 1024)
	alice := env.user(t, "alice", model.RoleUser)

	file, err := svc.Upload(context.Background(), alice, bytes.NewReader(pngHeader))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(file.URL, "/uploads/"), "url %q", file.URL)
	assert.True(t, strings.HasSuffix(file.URL, ".png"), "url %q", file.URL)

	stored, err := os.ReadFile(filepath.Join(dir, strings.TrimPrefix(file.URL, "/uploads/")))
	require.NoError(t, err)
	assert.Equal(t, pngHeader, stored)

	recorded, err := env.db.Files().GetByID(context.Background(), file.ID)
	require.NoError(t, err)
	assert.Equal(t, file.URL, recorded.URL)
}

func TestUpload_Rejects(t *testing.T) {
	svc, env, _ := newTestFileService(t, 64)
	alice := env.user(t, "alice", model.RoleUser)

	tests := []struct {
		name    string
		caller  model.Caller
		data    []byte
		wantErr error
	}{
		{"not an image", alice, []byte("#!/bin/sh\necho hi\n"), apperror.ErrValidation},
		{"empty", alice, nil, apperror.ErrValidation},
		{"too large", alice, append(append([]byte{}, pngHeader...), make([]byte, 64)...), apperror.ErrValidation},
		{"anonymous", model.Anonymous, pngHeader, apperror.ErrUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Upload(context.Background(), tt.caller, bytes.NewReader(tt.data))
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
