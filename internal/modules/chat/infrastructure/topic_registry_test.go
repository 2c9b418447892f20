package infrastructure

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTopicRegistry_SubscribeIsIdempotent(t *testing.T) {
	r := NewTopicRegistry()
	r.Subscribe("public", "c1")
	r.Subscribe("public", "c1")

	assert.Equal(t, []string{"c1"}, r.Members("public"))
	assert.Equal(t, map[string]int{"public": 1}, r.Topics())
}

func TestTopicRegistry_UnsubscribeRemovesEmptyTopics(t *testing.T) {
	r := NewTopicRegistry()
	r.Subscribe("public", "c1")
	r.Subscribe("public", "c2")

	r.Unsubscribe("public", "c1")
	r.Unsubscribe("public", "c1")
	assert.Equal(t, []string{"c2"}, r.Members("public"))

	r.Unsubscribe("public", "c2")
	assert.Empty(t, r.Members("public"))
	assert.Empty(t, r.Topics())
	assert.Empty(t, r.TopicsOf("c2"))
}

func TestTopicRegistry_UnsubscribeAll(t *testing.T) {
	r := NewTopicRegistry()
	r.Subscribe("public", "c1")
	r.Subscribe("random", "c1")
	r.Subscribe("random", "c2")

	removed := r.UnsubscribeAll("c1")

	assert.ElementsMatch(t, []string{"public", "random"}, removed)
	assert.Empty(t, r.Members("public"))
	assert.Equal(t, []string{"c2"}, r.Members("random"))
	assert.Empty(t, r.TopicsOf("c1"))
	assert.Empty(t, r.UnsubscribeAll("c1"))
}

func TestTopicRegistry_MembersOfUnknownTopic(t *testing.T) {
	r := NewTopicRegistry()
	assert.Empty(t, r.Members("nope"))
}

func TestTopicRegistry_IgnoresBlankInput(t *testing.T) {
	r := NewTopicRegistry()
	r.Subscribe("", "c1")
	r.Subscribe("public", "")
	assert.Empty(t, r.Topics())
}

func TestTopicRegistry_SnapshotIsIsolated(t *testing.T) {
	r := NewTopicRegistry()
	r.Subscribe("public", "c1")
	snapshot := r.Members("public")

	r.Subscribe("public", "c2")
	r.Unsubscribe("public", "c1")

	assert.Equal(t, []string{"c1"}, snapshot)
}

func TestTopicRegistry_ConcurrentAccess(t *testing.T) {
	r := NewTopicRegistry()
	var wg sync.WaitGroup
	for i := range 16 {
		id := fmt.Sprintf("c%d", i)
		wg.Add(2)
		go func() {
			defer wg.Done()
			for range 100 {
				r.Subscribe("public", id)
				r.Subscribe("other", id)
				r.UnsubscribeAll(id)
			}
			r.Subscribe("public", id)
		}()
		go func() {
			defer wg.Done()
			for range 100 {
				_ = r.Members("public")
				_ = r.Topics()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, r.Members("public"), 16)
	assert.Empty(t, r.Members("other"))
}
