package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gekabilgi/yatirimadestek-732014e5-sub001/types"
)

func TestSessionKeyFromContext(t *testing.T) {
	_, ok := SessionKeyFromContext(context.Background())
	assert.False(t, ok)

	_, ok = SessionKeyFromContext(WithSessionKey(context.Background(), ""))
	assert.False(t, ok, "empty key means stateless")

	key, ok := SessionKeyFromContext(WithSessionKey(context.Background(), "chat-1"))
	assert.True(t, ok)
	assert.Equal(t, "chat-1", key)
}

func TestCacheSessionStoreWithoutKey(t *testing.T) {
	store := NewMemorySessionStore()
	ctx := context.Background()

	session, err := store.LoadActive(ctx)
	require.NoError(t, err)
	assert.Nil(t, session)

	_, err = store.Create(ctx)
	assert.ErrorIs(t, err, ErrNoSessionKey)
}

func TestCacheSessionStoreLifecycle(t *testing.T) {
	store := NewMemorySessionStore()
	ctx := WithSessionKey(context.Background(), "chat-1")

	created, err := store.Create(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "chat-1", created.SessionID)
	assert.Equal(t, types.StatusCollecting, created.Status)
	assert.True(t, created.Slots().IsEmpty())

	loaded, err := store.LoadActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, created.ID, loaded.ID)

	updated, err := store.UpdateSlots(ctx, created, types.Slots{Sector: "tekstil", Province: "Adana"})
	require.NoError(t, err)
	assert.Equal(t, "tekstil", updated.Sector)
	assert.Equal(t, "Adana", updated.Province)

	assert.ErrorIs(t, store.MarkCompleted(ctx, updated), ErrSessionIncomplete)

	updated, err = store.UpdateSlots(ctx, updated, types.Slots{District: "Merkez", OSBStatus: types.ZoneInside})
	require.NoError(t, err)
	require.NoError(t, store.MarkCompleted(ctx, updated))
	require.NoError(t, store.MarkCompleted(ctx, updated), "completing twice is a no-op")

	loaded, err = store.LoadActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, types.StatusCompleted, loaded.Status, "completed sessions are still returned")
	assert.NoError(t, loaded.Validate())

	other, err := store.LoadActive(WithSessionKey(context.Background(), "chat-2"))
	require.NoError(t, err)
	assert.Nil(t, other)
}

func TestCacheSessionStoreNeverOverwrites(t *testing.T) {
	store := NewMemorySessionStore()
	ctx := WithSessionKey(context.Background(), "chat-1")
	created, err := store.Create(ctx)
	require.NoError(t, err)

	first, err := store.UpdateSlots(ctx, created, types.Slots{Sector: "çorap"})
	require.NoError(t, err)
	second, err := store.UpdateSlots(ctx, created, types.Slots{Sector: "mobilya"})
	require.NoError(t, err)
	assert.Equal(t, "çorap", second.Sector)
	assert.Equal(t, first.UpdatedAt, second.UpdatedAt, "a skipped write does not touch the row")

	again, err := store.UpdateSlots(ctx, created, types.Slots{Sector: "çorap"})
	require.NoError(t, err)
	assert.Equal(t, second, again)
}

func TestCacheSessionStoreKeepsSlotOrder(t *testing.T) {
	store := NewMemorySessionStore()
	ctx := WithSessionKey(context.Background(), "chat-1")
	created, err := store.Create(ctx)
	require.NoError(t, err)

	updated, err := store.UpdateSlots(ctx, created, types.Slots{District: "Kadıköy", OSBStatus: types.ZoneOutside})
	require.NoError(t, err)
	assert.True(t, updated.Slots().IsEmpty())

	_, err = store.UpdateSlots(ctx, &types.IntakeSession{ID: "missing"}, types.Slots{Sector: "x"})
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestCacheSessionStoreOnLRU(t *testing.T) {
	core, err := NewLRUCache[[]*types.IntakeSession](1)
	require.NoError(t, err)
	store := NewCacheSessionStore(core)

	a := WithSessionKey(context.Background(), "a")
	b := WithSessionKey(context.Background(), "b")
	_, err = store.Create(a)
	require.NoError(t, err)
	_, err = store.Create(b)
	require.NoError(t, err)
	assert.Equal(t, 1, core.Len())

	evicted, err := store.LoadActive(a)
	require.NoError(t, err)
	assert.Nil(t, evicted)
	kept, err := store.LoadActive(b)
	require.NoError(t, err)
	assert.NotNil(t, kept)

	_, err = NewLRUCache[string](0)
	assert.Error(t, err)
}

type failingCache[S any] struct{}

func (failingCache[S]) Set(ctx context.Context, key string, val S) error { return errors.New("down") }
func (failingCache[S]) Get(ctx context.Context, key string) (S, bool, error) {
	var zero S
	return zero, false, errors.New("down")
}
func (failingCache[S]) Del(ctx context.Context, key string) error { return errors.New("down") }

func TestCacheSessionStoreSurfacesCacheErrors(t *testing.T) {
	store := NewCacheSessionStore(failingCache[[]*types.IntakeSession]{})
	ctx := WithSessionKey(context.Background(), "chat-1")

	_, err := store.LoadActive(ctx)
	assert.Error(t, err)
	_, err = store.Create(ctx)
	assert.Error(t, err)
}

func TestHistoryStore(t *testing.T) {
	hs := NewMemoryHistoryStore(KeepSystemLastNTrimmer{N: 2})
	ctx := WithSessionKey(context.Background(), "chat-1")

	_, err := hs.Append(context.Background(), schema.UserMessage("merhaba"))
	assert.ErrorIs(t, err, ErrNoSessionKey)

	hist, err := hs.Append(ctx, schema.SystemMessage("sys"), schema.UserMessage("merhaba"), schema.UserMessage("merhaba"))
	require.NoError(t, err)
	assert.Len(t, hist, 2, "consecutive duplicates are dropped")

	_, err = hs.Append(ctx, schema.AssistantMessage("Merhaba!", nil), schema.UserMessage("teşvik"))
	require.NoError(t, err)
	loaded, err := hs.Load(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 3)
	assert.Equal(t, schema.System, loaded[0].Role)
	assert.Equal(t, "teşvik", loaded[2].Content)

	require.NoError(t, hs.Clear(ctx))
	loaded, err = hs.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestKeepSystemLastNTrimmer(t *testing.T) {
	history := []*schema.Message{
		schema.SystemMessage("s1"),
		schema.UserMessage("u1"),
		nil,
		schema.AssistantMessage("a1", nil),
		schema.SystemMessage("s2"),
		schema.UserMessage("u2"),
	}

	got := KeepSystemLastNTrimmer{N: 2}.Trim(history)
	require.Len(t, got, 4)
	assert.Equal(t, []string{"s1", "a1", "s2", "u2"}, []string{got[0].Content, got[1].Content, got[2].Content, got[3].Content})

	got = KeepSystemLastNTrimmer{}.Trim(history)
	require.Len(t, got, 2)
	assert.Equal(t, schema.System, got[1].Role)
}

func TestSessionsAreKeyedByConversation(t *testing.T) {
	core := NewMemoryCache[[]*types.IntakeSession]()
	store := NewCacheSessionStore(core)
	ctx := WithSessionKey(context.Background(), "chat-1")

	_, err := store.Create(ctx)
	require.NoError(t, err)
	stored, ok, err := core.Get(ctx, "intake:session:chat-1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Len(t, stored, 1)

	other, err := store.LoadActive(WithSessionKey(context.Background(), "chat-2"))
	require.NoError(t, err)
	assert.Nil(t, other)
}
