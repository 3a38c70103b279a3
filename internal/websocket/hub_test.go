package websocket

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockClient is a test double for Client that captures sent messages
type mockClient struct {
	id       string
	topic    string
	messages [][]byte
	mu       sync.Mutex
	closed   bool
}

func newMockClient(id, topic string) *mockClient {
	return &mockClient{
		id:       id,
		topic:    topic,
		messages: make([][]byte, 0),
	}
}

func (m *mockClient) ID() string {
	return m.id
}

func (m *mockClient) Topic() string {
	return m.topic
}

func (m *mockClient) Send(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClientClosed
	}
	m.messages = append(m.messages, data)
	return nil
}

func (m *mockClient) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *mockClient) GetMessages() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := make([][]byte, len(m.messages))
	copy(copied, m.messages)
	return copied
}

func (m *mockClient) messageCount() func() bool {
	return func() bool { return len(m.GetMessages()) > 0 }
}

func TestHub_RegisterUnregister(t *testing.T) {
	hub := NewHub()

	client1 := newMockClient("client-1", "stl")
	client2 := newMockClient("client-2", "stl")
	client3 := newMockClient("client-3", "lra")

	hub.Register(client1)
	hub.Register(client2)
	hub.Register(client3)

	assert.Equal(t, 2, hub.ClientCount("stl"))
	assert.Equal(t, 1, hub.ClientCount("lra"))
	assert.Equal(t, 0, hub.ClientCount(TopicAll))
	assert.Equal(t, 3, hub.TotalClientCount())

	hub.Unregister(client1)
	assert.Equal(t, 1, hub.ClientCount("stl"))

	hub.Unregister(client2)
	hub.Unregister(client3)
	assert.Equal(t, 0, hub.TotalClientCount())
}

func TestHub_Broadcast_TopicIsolation(t *testing.T) {
	hub := NewHub()

	stlA := newMockClient("stl-a", "stl")
	stlB := newMockClient("stl-b", "stl")
	lra := newMockClient("lra", "lra")

	hub.Register(stlA)
	hub.Register(stlB)
	hub.Register(lra)

	hub.Broadcast("stl", CollectionRecorded(map[string]interface{}{"customerId": "C-1"}))

	assert.Eventually(t, stlA.messageCount(), time.Second, 5*time.Millisecond)
	assert.Eventually(t, stlB.messageCount(), time.Second, 5*time.Millisecond)

	time.Sleep(10 * time.Millisecond)
	assert.Len(t, lra.GetMessages(), 0, "lra subscriber should not receive stl events")
}

func TestHub_Broadcast_AllTopicReceivesEverything(t *testing.T) {
	hub := NewHub()

	watcher := newMockClient("watcher", TopicAll)
	hub.Register(watcher)

	hub.Broadcast("stl", CollectionRecorded(map[string]interface{}{"customerId": "C-1"}))
	hub.Broadcast("lra", CollectionRecorded(map[string]interface{}{"customerId": "C-2"}))

	assert.Eventually(t, func() bool { return len(watcher.GetMessages()) == 2 }, time.Second, 5*time.Millisecond)
}

func TestHub_Broadcast_AllTopicNotDuplicated(t *testing.T) {
	hub := NewHub()

	watcher := newMockClient("watcher", TopicAll)
	hub.Register(watcher)

	hub.Broadcast(TopicAll, CustomerInvalidated(map[string]interface{}{"customerId": "C-1"}))

	assert.Eventually(t, watcher.messageCount(), time.Second, 5*time.Millisecond)
	time.Sleep(10 * time.Millisecond)
	assert.Len(t, watcher.GetMessages(), 1)
}

func TestHub_ConcurrentAccess(t *testing.T) {
	hub := NewHub()
	topics := []string{"stl", "lra", TopicAll}

	var wg sync.WaitGroup
	clientCount := 48

	clients := make([]*mockClient, clientCount)
	for i := 0; i < clientCount; i++ {
		clients[i] = newMockClient(fmt.Sprintf("client-%d", i), topics[i%len(topics)])
	}

	for i := 0; i < clientCount; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			hub.Register(clients[idx])
		}(i)
	}
	wg.Wait()

	assert.Equal(t, clientCount, hub.TotalClientCount())

	for i := 0; i < clientCount; i++ {
		wg.Add(2)
		go func(idx int) {
			defer wg.Done()
			hub.Broadcast(topics[idx%2], CollectionRecorded(map[string]interface{}{"n": idx}))
		}(i)
		go func(idx int) {
			defer wg.Done()
			hub.Unregister(clients[idx])
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 0, hub.TotalClientCount())
}

func TestHub_UnregisterNonexistent(t *testing.T) {
	hub := NewHub()

	require.NotPanics(t, func() {
		hub.Unregister(newMockClient("client-1", "stl"))
	})
}

func TestHub_BroadcastToEmptyTopic(t *testing.T) {
	hub := NewHub()

	require.NotPanics(t, func() {
		hub.Broadcast("lra", CollectionRecorded(map[string]interface{}{"customerId": "C-1"}))
	})
}
