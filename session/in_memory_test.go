package session

import (
	"fmt"
	"sync"
	"testing"

	"github.com/hupe1980/agenthub/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryStore_LazyCreate(t *testing.T) {
	store := NewInMemoryStore()

	sess, err := store.Get("s1")
	require.NoError(t, err)
	assert.Equal(t, "s1", sess.ID)
	assert.Empty(t, sess.History)
	assert.Equal(t, 1, store.Len())
}

func TestInMemoryStore_AppendAndHistory(t *testing.T) {
	store := NewInMemoryStore()

	task := core.NewTask("s1", "What is 17 squared?", 0)
	err := store.Append("s1", core.Exchange{
		Task:     task,
		Response: core.Response{TaskID: task.ID, Text: "289", Status: core.StatusComplete},
	})
	require.NoError(t, err)

	sess, err := store.Get("s1")
	require.NoError(t, err)
	require.Len(t, sess.History, 1)
	assert.Equal(t, "289", sess.History[0].Response.Text)
	assert.Equal(t, []string{"What is 17 squared?"}, sess.RecentTexts(3))
}

func TestInMemoryStore_AccumulateLastWriteWins(t *testing.T) {
	store := NewInMemoryStore()

	require.NoError(t, store.Accumulate("s1", "go language", "first"))
	require.NoError(t, store.Accumulate("s1", "go language", "second"))

	sess, err := store.Get("s1")
	require.NoError(t, err)
	v, ok := sess.Lookup("go language")
	require.True(t, ok)
	assert.Equal(t, "second", v)
}

func TestInMemoryStore_SessionsAreIsolated(t *testing.T) {
	store := NewInMemoryStore()

	require.NoError(t, store.Accumulate("s1", "topic", "for s1 only"))

	other, err := store.Get("s2")
	require.NoError(t, err)
	_, ok := other.Lookup("topic")
	assert.False(t, ok)
	assert.Equal(t, 2, store.Len())
}

func TestInMemoryStore_GetReturnsClone(t *testing.T) {
	store := NewInMemoryStore()
	require.NoError(t, store.Accumulate("s1", "topic", "original"))

	clone, err := store.Get("s1")
	require.NoError(t, err)
	clone.Accumulate("topic", "mutated")

	fresh, err := store.Get("s1")
	require.NoError(t, err)
	v, _ := fresh.Lookup("topic")
	assert.Equal(t, "original", v)
}

func TestInMemoryStore_ConcurrentAccess(t *testing.T) {
	store := NewInMemoryStore()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("s%d", i%4)
			_ = store.Accumulate(id, "topic", "summary")
			_, _ = store.Get(id)
			_ = store.Append(id, core.Exchange{Task: core.NewTask(id, "hi", 0)})
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 4, store.Len())
}
