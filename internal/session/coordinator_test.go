package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/voice-schema/internal/capture"
	"github.com/pders01/voice-schema/internal/ideas"
	"github.com/pders01/voice-schema/internal/models"
	"github.com/pders01/voice-schema/internal/testutil"
)

const waitFor = 2 * time.Second
const tick = 2 * time.Millisecond

type fixture struct {
	rec  *testutil.FakeRecognizer
	repo *ideas.Repository
	c    *Coordinator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	rec := testutil.NewFakeRecognizer()
	engine := capture.New(context.Background(), rec, testutil.FastCaptureConfig())
	repo := ideas.NewRepository(testutil.NewTempStore(t))
	c := New(engine, repo, nil)
	t.Cleanup(func() {
		engine.Stop()
		c.Close()
	})
	return &fixture{rec: rec, repo: repo, c: c}
}

func (f *fixture) transcript(t *testing.T, id string) string {
	t.Helper()
	idea, err := f.repo.Get(id)
	require.NoError(t, err)
	return idea.Transcript()
}

func TestBoundIdeaReceivesEachSegmentOnce(t *testing.T) {
	f := newFixture(t)
	idea, err := f.repo.Create("Dictado", "", nil)
	require.NoError(t, err)

	require.NoError(t, f.c.Bind(idea.ID))
	assert.Equal(t, idea.ID, f.c.BoundIdea())
	require.NoError(t, f.c.Start())

	sess := f.rec.NextSession(t)
	sess.Final("uno")
	sess.Final("dos")
	sess.Final("tres")

	require.Eventually(t, func() bool { return len(f.c.Segments()) == 3 }, waitFor, tick)
	f.c.Stop()

	assert.Equal(t, "uno dos tres", f.transcript(t, idea.ID))
	got, _ := f.repo.Get(idea.ID)
	assert.Len(t, got.TranscriptSegments, 3)
}

func TestBindClearsTranscriptAndRejectsUnknownIdea(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.c.Start())
	sess := f.rec.NextSession(t)

	sess.Final("sin idea")
	require.Eventually(t, func() bool { return len(f.c.Segments()) == 1 }, waitFor, tick)

	err := f.c.Bind("missing")
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.Len(t, f.c.Segments(), 1)
	assert.Empty(t, f.c.BoundIdea())

	idea, _ := f.repo.Create("Nueva", "", nil)
	require.NoError(t, f.c.Bind(idea.ID))
	assert.Empty(t, f.c.Segments())

	sess.Final("con idea")
	require.Eventually(t, func() bool { return f.transcript(t, idea.ID) == "con idea" }, waitFor, tick)
}

func TestUnboundSegmentsAreNotPersisted(t *testing.T) {
	f := newFixture(t)
	idea, _ := f.repo.Create("Idea", "", nil)
	require.NoError(t, f.c.Bind(idea.ID))
	f.c.Unbind()

	require.NoError(t, f.c.Start())
	f.rec.NextSession(t).Final("perdido")
	require.Eventually(t, func() bool { return len(f.c.Segments()) == 1 }, waitFor, tick)

	assert.Empty(t, f.transcript(t, idea.ID))
}

func TestOpenShowsStoredTranscriptWithoutDuplicating(t *testing.T) {
	f := newFixture(t)
	stored := []models.TranscriptSegment{
		{ID: "segment-0", Text: "guardado", Timestamp: 1},
	}
	idea, _ := f.repo.Create("Idea", "", stored)

	opened, err := f.c.Open(idea.ID)
	require.NoError(t, err)
	assert.Equal(t, idea.ID, opened.ID)
	assert.Equal(t, stored, f.c.Segments())
	assert.Equal(t, capture.StateIdle, f.c.State())

	require.NoError(t, f.c.Start())
	f.rec.NextSession(t).Final("nuevo")
	require.Eventually(t, func() bool { return f.transcript(t, idea.ID) == "guardado nuevo" }, waitFor, tick)
	assert.Len(t, f.c.Segments(), 2)

	_, err = f.c.Open("missing")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestClearThenContinueForwardsOnlyNewSegments(t *testing.T) {
	f := newFixture(t)
	idea, _ := f.repo.Create("Idea", "", nil)
	require.NoError(t, f.c.Bind(idea.ID))
	require.NoError(t, f.c.Start())
	sess := f.rec.NextSession(t)

	sess.Final("uno")
	require.Eventually(t, func() bool { return len(f.c.Segments()) == 1 }, waitFor, tick)

	f.c.Clear()
	assert.Empty(t, f.c.Segments())

	sess.Final("dos")
	require.Eventually(t, func() bool { return f.transcript(t, idea.ID) == "uno dos" }, waitFor, tick)
}

func TestDeletedIdeaUnbinds(t *testing.T) {
	f := newFixture(t)
	idea, _ := f.repo.Create("Idea", "", nil)
	require.NoError(t, f.c.Bind(idea.ID))
	require.NoError(t, f.repo.Delete(idea.ID))

	require.NoError(t, f.c.Start())
	f.rec.NextSession(t).Final("huérfano")

	require.Eventually(t, func() bool { return f.c.BoundIdea() == "" }, waitFor, tick)
	assert.Len(t, f.c.Segments(), 1)
}

func TestSubscribeReceivesUpdates(t *testing.T) {
	f := newFixture(t)
	idea, _ := f.repo.Create("Idea", "", nil)

	var mu sync.Mutex
	var updates []Update
	unsubscribe := f.c.Subscribe(func(u Update) {
		mu.Lock()
		defer mu.Unlock()
		updates = append(updates, u)
	})
	f.c.Subscribe(func(Update) { panic("boom") })

	require.NoError(t, f.c.Bind(idea.ID))
	require.NoError(t, f.c.Start())
	f.rec.NextSession(t).Final("hola")

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(updates) == 2
	}, waitFor, tick)

	mu.Lock()
	assert.Empty(t, updates[0].Segments, "bind clears")
	assert.Equal(t, idea.ID, updates[1].IdeaID)
	assert.Equal(t, "hola", updates[1].Segments[0].Text)
	mu.Unlock()

	unsubscribe()
	f.c.Clear()

	mu.Lock()
	assert.Len(t, updates, 2)
	mu.Unlock()
}

func TestStartUnsupported(t *testing.T) {
	rec := testutil.NewFakeRecognizer()
	rec.Unsupported = true
	engine := capture.New(context.Background(), rec, testutil.FastCaptureConfig())
	c := New(engine, ideas.NewRepository(testutil.NewTempStore(t)), nil)
	defer c.Close()

	assert.ErrorIs(t, c.Start(), models.ErrRecognitionUnsupported)
	assert.Equal(t, capture.StateUnsupported, c.State())
}
