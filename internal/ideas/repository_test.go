package ideas

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/voice-schema/internal/models"
	"github.com/pders01/voice-schema/internal/store"
	"github.com/pders01/voice-schema/internal/testutil"
)

// clock hands out strictly increasing timestamps.
type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

func newRepo(t *testing.T) (*Repository, store.Store) {
	t.Helper()
	s := testutil.NewTempStore(t)
	c := &clock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	return NewRepository(s, WithClock(c.now)), s
}

func segs(texts ...string) []models.TranscriptSegment {
	out := make([]models.TranscriptSegment, len(texts))
	for i, text := range texts {
		out[i] = models.TranscriptSegment{ID: fmt.Sprintf("segment-%d", i), Text: text, Timestamp: int64(i)}
	}
	return out
}

func TestCreate(t *testing.T) {
	r, s := newRepo(t)

	first, err := r.Create("  Recipe planner ", "weekly meals", segs("hola"))
	require.NoError(t, err)
	assert.Equal(t, "Recipe planner", first.Title)
	assert.NotEmpty(t, first.ID)
	assert.Equal(t, first.CreatedAt, first.UpdatedAt)
	assert.Empty(t, first.Tags)
	assert.NotNil(t, first.Tags)
	assert.False(t, first.IsCompleted)

	second, err := r.Create("Garden log", "", nil)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
	assert.NotNil(t, second.TranscriptSegments)

	list := r.List()
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID, "newest first")

	// persisted through the store
	stored := store.Get(s, store.KeyIdeas, []models.Idea{})
	assert.Len(t, stored, 2)
}

func TestCreateRejectsBlankTitle(t *testing.T) {
	r, _ := newRepo(t)

	_, err := r.Create("   ", "desc", nil)
	assert.ErrorIs(t, err, models.ErrInput)
	assert.Empty(t, r.List())
}

func TestGet(t *testing.T) {
	r, _ := newRepo(t)
	idea, _ := r.Create("One", "", nil)

	got, err := r.Get(idea.ID)
	require.NoError(t, err)
	assert.Equal(t, idea, got)

	_, err = r.Get("missing")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestUpdate(t *testing.T) {
	r, _ := newRepo(t)
	idea, _ := r.Create("One", "old", nil)

	ok, err := r.Update(idea.ID, models.IdeaPatch{
		Description: models.StringPtr("new"),
		Tags:        &[]string{"a", " a ", "b", ""},
		IsCompleted: models.BoolPtr(true),
	})
	require.NoError(t, err)
	assert.True(t, ok)

	got, _ := r.Get(idea.ID)
	assert.Equal(t, "One", got.Title)
	assert.Equal(t, "new", got.Description)
	assert.Equal(t, []string{"a", "b"}, got.Tags)
	assert.True(t, got.IsCompleted)
	assert.Greater(t, got.UpdatedAt, idea.UpdatedAt)
	assert.Equal(t, idea.CreatedAt, got.CreatedAt)
}

func TestUpdateMissingLeavesCollectionUnchanged(t *testing.T) {
	r, _ := newRepo(t)
	idea, _ := r.Create("One", "", nil)
	before := r.List()

	ok, err := r.Update("missing", models.IdeaPatch{Title: models.StringPtr("x")})
	assert.False(t, ok)
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.Equal(t, before, r.List())

	ok, err = r.Update(idea.ID, models.IdeaPatch{Title: models.StringPtr("  ")})
	assert.False(t, ok)
	assert.ErrorIs(t, err, models.ErrInput)
	assert.Equal(t, before, r.List())
}

func TestDeleteIsIdempotent(t *testing.T) {
	r, _ := newRepo(t)
	a, _ := r.Create("A", "", nil)
	b, _ := r.Create("B", "", nil)

	require.NoError(t, r.Delete(a.ID))
	require.NoError(t, r.Delete(a.ID))
	require.NoError(t, r.Delete("never-existed"))

	list := r.List()
	require.Len(t, list, 1)
	assert.Equal(t, b.ID, list[0].ID)
}

func TestAddTranscriptAppendsInOrder(t *testing.T) {
	r, _ := newRepo(t)
	idea, _ := r.Create("A", "", segs("uno"))

	require.NoError(t, r.AddTranscript(idea.ID, []models.TranscriptSegment{{ID: "x", Text: "dos"}}))
	require.NoError(t, r.AddTranscript(idea.ID, []models.TranscriptSegment{{ID: "y", Text: "tres"}}))

	got, _ := r.Get(idea.ID)
	assert.Equal(t, "uno dos tres", got.Transcript())

	assert.ErrorIs(t, r.AddTranscript("missing", segs("x")), models.ErrNotFound)
}

func TestToggleCompletion(t *testing.T) {
	r, _ := newRepo(t)
	idea, _ := r.Create("A", "", nil)

	done, err := r.ToggleCompletion(idea.ID)
	require.NoError(t, err)
	assert.True(t, done)

	done, err = r.ToggleCompletion(idea.ID)
	require.NoError(t, err)
	assert.False(t, done)

	_, err = r.ToggleCompletion("missing")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestTags(t *testing.T) {
	r, _ := newRepo(t)
	idea, _ := r.Create("A", "", nil)

	require.NoError(t, r.AddTag(idea.ID, " go "))
	require.NoError(t, r.AddTag(idea.ID, "go"))
	require.NoError(t, r.AddTag(idea.ID, "cli"))
	assert.ErrorIs(t, r.AddTag(idea.ID, "  "), models.ErrInput)
	assert.ErrorIs(t, r.AddTag("missing", "x"), models.ErrNotFound)

	got, _ := r.Get(idea.ID)
	assert.Equal(t, []string{"go", "cli"}, got.Tags)

	before := got.UpdatedAt
	require.NoError(t, r.RemoveTag(idea.ID, "absent"))
	got, _ = r.Get(idea.ID)
	assert.Greater(t, got.UpdatedAt, before, "no-op removal still touches updatedAt")

	require.NoError(t, r.RemoveTag(idea.ID, "go"))
	got, _ = r.Get(idea.ID)
	assert.Equal(t, []string{"cli"}, got.Tags)
}

func TestRenameTag(t *testing.T) {
	r, _ := newRepo(t)
	a, _ := r.Create("A", "", nil)
	b, _ := r.Create("B", "", nil)
	r.AddTag(a.ID, "golang")
	r.AddTag(b.ID, "golang")
	r.AddTag(b.ID, "go")

	n, err := r.RenameTag("golang", "go")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	gotA, _ := r.Get(a.ID)
	gotB, _ := r.Get(b.ID)
	assert.Equal(t, []string{"go"}, gotA.Tags)
	assert.Equal(t, []string{"go"}, gotB.Tags)

	n, err = r.RenameTag("unused", "x")
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = r.RenameTag("go", " ")
	assert.ErrorIs(t, err, models.ErrInput)
}

func TestPrune(t *testing.T) {
	r, _ := newRepo(t)
	old, _ := r.Create("old done", "", nil)
	r.ToggleCompletion(old.ID)
	keep, _ := r.Create("old done important", "", nil)
	r.ToggleCompletion(keep.ID)
	r.AddTag(keep.ID, "important")
	open, _ := r.Create("old open", "", nil)

	cutoff := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)

	removed, err := r.Prune(cutoff, []string{"important"}, true)
	require.NoError(t, err)
	require.Len(t, removed, 1)
	assert.Equal(t, old.ID, removed[0].ID)
	assert.Len(t, r.List(), 3, "dry run keeps everything")

	removed, err = r.Prune(cutoff, []string{"important"}, false)
	require.NoError(t, err)
	assert.Len(t, removed, 1)

	var ids []string
	for _, idea := range r.List() {
		ids = append(ids, idea.ID)
	}
	assert.ElementsMatch(t, []string{keep.ID, open.ID}, ids)

	removed, err = r.Prune(time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC), nil, false)
	require.NoError(t, err)
	assert.Empty(t, removed)
}

func TestConcurrentMutationsAreSerialized(t *testing.T) {
	r, _ := newRepo(t)
	idea, _ := r.Create("A", "", nil)

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, r.AddTranscript(idea.ID, []models.TranscriptSegment{{ID: fmt.Sprint(i), Text: "x"}}))
			assert.NoError(t, r.AddTag(idea.ID, fmt.Sprintf("t%d", i)))
		}()
	}
	wg.Wait()

	got, _ := r.Get(idea.ID)
	assert.Len(t, got.TranscriptSegments, 20)
	assert.Len(t, got.Tags, 20)
}

// flakyStore fails every Load once failing is set.
type flakyStore struct {
	store.Store
	failing bool
}

var errBusy = errors.New("database is locked (SQLITE_BUSY)")

func (f *flakyStore) Load(key string, dst any) error {
	if f.failing {
		return errBusy
	}
	return f.Store.Load(key, dst)
}

func TestReadFailureNeverOverwritesLibrary(t *testing.T) {
	fs := &flakyStore{Store: testutil.NewTempStore(t)}
	r := NewRepository(fs)

	var ids []string
	for _, title := range []string{"a", "b", "c"} {
		idea, err := r.Create(title, "", nil)
		require.NoError(t, err)
		ids = append(ids, idea.ID)
	}

	fs.failing = true

	_, err := r.Create("d", "", nil)
	require.ErrorIs(t, err, errBusy)
	_, err = r.Update(ids[0], models.IdeaPatch{Title: models.StringPtr("renamed")})
	require.ErrorIs(t, err, errBusy)
	require.ErrorIs(t, r.Delete(ids[1]), errBusy)
	_, err = r.RenameTag("x", "y")
	require.ErrorIs(t, err, errBusy)
	_, err = r.Prune(time.Now(), nil, false)
	require.ErrorIs(t, err, errBusy)
	_, err = r.Get(ids[2])
	require.ErrorIs(t, err, errBusy)
	assert.Empty(t, r.List())

	fs.failing = false

	all := r.List()
	require.Len(t, all, 3)
	assert.Equal(t, "c", all[0].Title)
	assert.Equal(t, "a", all[2].Title)
}
