package service

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/sakif/notes-api/internal/auth"
	"github.com/sakif/notes-api/internal/metrics"
	"github.com/sakif/notes-api/internal/model"
	"github.com/sakif/notes-api/internal/repository/sqlite"
)

// testEnv wires every service over one in-memory database, the same way
// server.New does over the real one.
type testEnv struct {
	db      *sqlite.DB
	metrics *metrics.Metrics
	notes   *NoteService
	users   *UserService
	tags    *TagService
}

func newTestEnv(t testing.TB) *testEnv {
	t.Helper()
	db, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	m := metrics.New(prometheus.NewRegistry())
	logger := quietLogger()
	return &testEnv{
		db:      db,
		metrics: m,
		notes:   NewNoteService(db.Notes(), m, logger),
		users:   NewUserService(db.Users(), db.Files(), auth.NewPasswordServiceForTest(4), logger),
		tags:    NewTagService(db.Tags(), logger),
	}
}

// user creates an account directly in the store and returns its caller.
func (e *testEnv) user(t testing.TB, username, role string) model.Caller {
	t.Helper()
	u := &model.User{Username: username, PasswordHash: "x", Role: role}
	if err := e.db.Users().Create(context.Background(), u); err != nil {
		t.Fatalf("creating user %q: %v", username, err)
	}
	return u.Caller()
}

func (e *testEnv) note(t testing.TB, owner model.Caller, text string, private bool) *model.Note {
	t.Helper()
	n, err := e.notes.Create(context.Background(), owner, text, &private)
	if err != nil {
		t.Fatalf("creating note: %v", err)
	}
	return n
}

func (e *testEnv) tag(t testing.TB, name string) *model.Tag {
	t.Helper()
	tag := &model.Tag{Name: name}
	if err := e.db.Tags().Create(context.Background(), tag); err != nil {
		t.Fatalf("creating tag: %v", err)
	}
	return tag
}

func ids(notes []model.Note) []int64 {
	out := make([]int64, 0, len(notes))
	for _, n := range notes {
		out = append(out, n.ID)
	}
	return out
}
