// Package sse pushes report-update notifications to open browser tabs.
package sse

import (
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
)

const (
	// WriteTimeout bounds a single write so a stale tab cannot stall a publish.
	WriteTimeout = 2 * time.Second

	// TypeConnected is sent once to every new subscriber.
	TypeConnected = "connected"
	// TypeReportUpdated tells pages to reload.
	TypeReportUpdated = "report-updated"
)

// Event is the JSON payload of one server-sent message.
type Event struct {
	Type     string `json:"type"`
	File     string `json:"file,omitempty"`
	ClientID string `json:"clientId,omitempty"`
	Seq      uint64 `json:"seq,omitempty"`
}

// Client represents a connected browser.
type Client struct {
	ID      string
	writer  http.ResponseWriter
	flusher http.Flusher
	done    chan struct{}
	once    sync.Once
	mu      sync.Mutex // serializes writes
	closed  bool       // set under mu once the handler has returned
}

// Done is closed once the client has been removed.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

func (c *Client) close() {
	c.once.Do(func() { close(c.done) })
}

// finish waits for any write in flight and refuses later ones. The
// ResponseWriter must not be touched after the handler returns.
func (c *Client) finish() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

// errClientClosed is returned by send after the client's handler returned.
var errClientClosed = errors.New("client closed")

func (c *Client) send(message []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errClientClosed
	}
	if _, err := c.writer.Write(message); err != nil {
		return err
	}
	c.flusher.Flush()
	return nil
}

// Broadcaster fans events out to every subscribed client.
type Broadcaster struct {
	clients map[string]*Client
	mu      sync.RWMutex
	nextID  int
	seq     atomic.Uint64
}

// NewBroadcaster creates an empty Broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		clients: make(map[string]*Client),
	}
}

// Subscribe registers w as a client. w must support flushing.
func (b *Broadcaster) Subscribe(w http.ResponseWriter) (*Client, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("streaming not supported")
	}

	b.mu.Lock()
	b.nextID++
	client := &Client{
		ID:      fmt.Sprintf("client-%d", b.nextID),
		writer:  w,
		flusher: flusher,
		done:    make(chan struct{}),
	}
	b.clients[client.ID] = client
	count := len(b.clients)
	b.mu.Unlock()

	log.Debug().Str("clientId", client.ID).Int("totalClients", count).Msg("SSE client connected")
	return client, nil
}

// Unsubscribe removes client. It is safe to call more than once.
func (b *Broadcaster) Unsubscribe(client *Client) {
	b.mu.Lock()
	_, existed := b.clients[client.ID]
	delete(b.clients, client.ID)
	count := len(b.clients)
	b.mu.Unlock()

	client.close()
	if existed {
		log.Debug().Str("clientId", client.ID).Int("totalClients", count).Msg("SSE client disconnected")
	}
}

// ClientCount returns the number of connected clients.
func (b *Broadcaster) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

// ReportUpdated publishes a reload notice for file.
func (b *Broadcaster) ReportUpdated(file string) {
	b.Publish(Event{Type: TypeReportUpdated, File: file})
}

// Publish sends ev to every client concurrently and drops clients whose
// write fails or times out. Seq is assigned here.
func (b *Broadcaster) Publish(ev Event) {
	ev.Seq = b.seq.Add(1)
	payload, err := json.Marshal(ev)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal SSE event")
		return
	}
	message := []byte(fmt.Sprintf("data: %s\n\n", payload))

	b.mu.RLock()
	clients := make([]*Client, 0, len(b.clients))
	for _, c := range b.clients {
		clients = append(clients, c)
	}
	b.mu.RUnlock()

	if len(clients) == 0 {
		return
	}

	dead := make(chan *Client, len(clients))
	var wg sync.WaitGroup
	for _, c := range clients {
		wg.Add(1)
		go func(c *Client) {
			defer wg.Done()
			if !b.write(c, message) {
				dead <- c
			}
		}(c)
	}
	wg.Wait()
	close(dead)

	for c := range dead {
		b.Unsubscribe(c)
	}
}

// write reports whether the message reached the client.
func (b *Broadcaster) write(c *Client, message []byte) bool {
	result := make(chan error, 1)
	go func() {
		result <- c.send(message)
	}()

	select {
	case err := <-result:
		if err != nil {
			log.Debug().Str("clientId", c.ID).Err(err).Msg("SSE write failed, dropping client")
			return false
		}
		return true
	case <-time.After(WriteTimeout):
		log.Warn().Str("clientId", c.ID).Dur("timeout", WriteTimeout).Msg("SSE write timed out, dropping client")
		return false
	case <-c.done:
		return true
	}
}

// ServeHTTP streams events to the requester until it disconnects.
func (b *Broadcaster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	client, err := b.Subscribe(w)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	defer b.Unsubscribe(client)

	hello, _ := json.Marshal(Event{Type: TypeConnected, ClientID: client.ID})
	if err := client.send([]byte(fmt.Sprintf("data: %s\n\n", hello))); err != nil {
		return
	}

	select {
	case <-r.Context().Done():
	case <-client.done:
	}

	client.finish()
}
