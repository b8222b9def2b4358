// internal/store/store_test.go
package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/webloop/webloop/api/schemas"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir(), zaptest.NewLogger(t))
	require.NoError(t, err)
	return s
}

func sampleSequence(name string) *Sequence {
	return &Sequence{
		Name: name,
		URL:  "https://example.com/login",
		Actions: []schemas.Action{
			{Type: schemas.ActionInput, Target: "Email", Value: "user@example.com"},
			{Type: schemas.ActionClick, Target: "Sign In"},
		},
	}
}

func TestStoreSaveLoadRoundTrip(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	in := sampleSequence("login")
	require.NoError(t, s.Save(in))
	assert.False(t, in.RecordedAt.IsZero(), "save stamps the recording time")

	out, err := s.Load("login")
	require.NoError(t, err)
	assert.Equal(t, in.Name, out.Name)
	assert.Equal(t, in.URL, out.URL)
	require.Len(t, out.Actions, 2)
	assert.Equal(t, schemas.ActionInput, out.Actions[0].Type)
	assert.Equal(t, "user@example.com", out.Actions[0].ValueText())
	assert.WithinDuration(t, in.RecordedAt, out.RecordedAt, time.Second)
}

func TestStoreSaveReplacesExisting(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	require.NoError(t, s.Save(sampleSequence("seq")))

	updated := sampleSequence("seq")
	updated.Actions = updated.Actions[:1]
	require.NoError(t, s.Save(updated))

	out, err := s.Load("seq")
	require.NoError(t, err)
	assert.Len(t, out.Actions, 1)
}

func TestStoreSaveRejectsInvalidSequence(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	bad := &Sequence{
		Name:    "bad",
		Actions: []schemas.Action{{Type: "teleport", Target: "x"}},
	}
	err := s.Save(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown action type")

	_, loadErr := s.Load("bad")
	assert.ErrorIs(t, loadErr, schemas.ErrNotFound, "nothing was written")
}

func TestStoreLoadValidates(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	s, err := New(dir, zaptest.NewLogger(t))
	require.NoError(t, err)

	// A hand-edited file with a bogus action must not load.
	raw := `{"name":"tampered","actions":[{"type":"click"}]}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tampered.json"), []byte(raw), 0o644))

	_, err = s.Load("tampered")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "target")
}

func TestStoreMissingSequence(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	_, err := s.Load("ghost")
	assert.ErrorIs(t, err, schemas.ErrNotFound)

	err = s.Delete("ghost")
	assert.ErrorIs(t, err, schemas.ErrNotFound)
}

func TestStoreDeleteAndList(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	require.NoError(t, s.Save(sampleSequence("beta")))
	require.NoError(t, s.Save(sampleSequence("alpha")))

	names, err := s.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "beta"}, names, "sorted")

	require.NoError(t, s.Delete("alpha"))
	names, err = s.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"beta"}, names)
}

func TestStoreRejectsPathEscapingNames(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	for _, name := range []string{"", "../evil", "a/b", `a\b`, ".hidden"} {
		err := s.Save(&Sequence{Name: name, Actions: sampleSequence("x").Actions})
		require.Error(t, err, "name %q", name)
		var verr *schemas.ValidationError
		assert.ErrorAs(t, err, &verr, "name %q", name)
	}
}
