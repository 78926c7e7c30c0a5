package hub

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// fakeConn records writes and blocks reads until closed.
type fakeConn struct {
	mu     sync.Mutex
	writes [][]byte
	closed chan struct{}
	once   sync.Once
	wrote  chan struct{}
}

func newFakeConn() *fakeConn {
	return &fakeConn{closed: make(chan struct{}), wrote: make(chan struct{}, 64)}
}

func (f *fakeConn) SetReadLimit(int64) {}
func (f *fakeConn) SetReadDeadline(time.Time) error { return nil }
func (f *fakeConn) SetWriteDeadline(time.Time) error { return nil }
func (f *fakeConn) SetPongHandler(func(string) error) {}
func (f *fakeConn) ReadMessage() (int, []byte, error) { <-f.closed; return 0, nil, errors.New("closed") }
func (f *fakeConn) Close() error { f.once.Do(func() { close(f.closed) }); return nil }
func (f *fakeConn) WriteMessage(t int, data []byte) error {
	if t != websocket.TextMessage {
		return nil
	}
	f.mu.Lock()
	f.writes = append(f.writes, data)
	f.mu.Unlock()
	f.wrote <- struct{}{}
	return nil
}

func (f *fakeConn) messages() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.writes))
	for i, w := range f.writes {
		out[i] = string(w)
	}
	return out
}

func runHub(t *testing.T, h *Hub) (stop func()) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = h.Run(ctx)
	}()
	require.Eventually(t, h.IsRunning, time.Second, 5*time.Millisecond)
	return func() {
		cancel()
		wg.Wait()
	}
}

func connect(t *testing.T, h *Hub, filter Filter) (*fakeConn, *sync.WaitGroup) {
	t.Helper()
	conn := newFakeConn()
	client, err := NewClient(h, conn, filter)
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		client.Run()
	}()
	return conn, &wg
}

func waitWrites(t *testing.T, c *fakeConn, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-c.wrote:
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for write %d", i+1)
		}
	}
}

func TestBroadcastReachesMatchingClients(t *testing.T) {
	defer goleak.VerifyNone(t)

	h := New("test")
	stop := runHub(t, h)

	all, allDone := connect(t, h, nil)
	clicks, clicksDone := connect(t, h, ParseFilter("multimodal:click"))
	require.Eventually(t, func() bool { return h.ClientCount() == 2 }, time.Second, 5*time.Millisecond)

	h.Broadcast(NewMessage("multimodal:swipe", []byte(`"swipe"`)))
	h.Broadcast(NewMessage("multimodal:click", []byte(`"click"`)))

	waitWrites(t, all, 2)
	waitWrites(t, clicks, 1)

	assert.Equal(t, []string{`"swipe"`, `"click"`}, all.messages())
	assert.Equal(t, []string{`"click"`}, clicks.messages())
	assert.Equal(t, uint64(3), h.GetStats().Delivered)

	stop()
	allDone.Wait()
	clicksDone.Wait()
	assert.Equal(t, 0, h.ClientCount())
}

func TestClientDisconnect(t *testing.T) {
	defer goleak.VerifyNone(t)

	h := New("test")
	stop := runHub(t, h)
	defer stop()

	conn, done := connect(t, h, nil)
	require.Eventually(t, func() bool { return h.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	conn.Close()
	done.Wait()

	require.Eventually(t, func() bool { return h.ClientCount() == 0 }, time.Second, 5*time.Millisecond)
}

func TestNewClientAfterStop(t *testing.T) {
	defer goleak.VerifyNone(t)

	h := New("test")
	stop := runHub(t, h)
	stop()

	_, err := NewClient(h, newFakeConn(), nil)
	assert.ErrorIs(t, err, ErrHubClosed)
}

func TestRunTwice(t *testing.T) {
	defer goleak.VerifyNone(t)

	h := New("test")
	stop := runHub(t, h)
	defer stop()

	assert.ErrorIs(t, h.Run(context.Background()), ErrHubRunning)
}

func TestBroadcastJSON(t *testing.T) {
	h := New("test")

	require.NoError(t, h.BroadcastJSON("t", map[string]int{"a": 1}))
	msg := <-h.broadcast
	assert.Equal(t, "t", msg.Topic)
	assert.JSONEq(t, `{"a":1}`, string(msg.Data))

	assert.Error(t, h.BroadcastJSON("t", make(chan int)))
}

func TestBroadcastDropsWhenFull(t *testing.T) {
	h := New("test")
	for i := 0; i < cap(h.broadcast)+5; i++ {
		h.Broadcast(NewMessage("t", nil))
	}
	assert.Equal(t, uint64(5), h.GetStats().Dropped)
}

func TestFilter(t *testing.T) {
	tests := []struct {
		filter string
		topic  string
		want   bool
	}{
		{"", "anything", true},
		{"multimodal:click", "multimodal:click", true},
		{"multimodal:click", "multimodal:swipe", false},
		{"multimodal:*", "multimodal:swipe", true},
		{"voice:*, multimodal:click", "voice:command:executed", true},
		{"voice:*", "eye:command:executed", false},
	}

	for _, tt := range tests {
		t.Run(tt.filter+"/"+tt.topic, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseFilter(tt.filter).Match(tt.topic))
		})
	}
}
