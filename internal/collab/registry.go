// Package collab relays live editor events between the sockets editing the
// same page. Each (site, page) has one room goroutine that owns its roster.
package collab

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"SiteForge/internal/domain"
	"SiteForge/internal/metrics"
	"SiteForge/internal/ports"
)

const defaultInboxSize = 64

// Conn is the outbound half of an editor socket. Send must not block; it
// reports false when the message was dropped.
type Conn interface {
	Send(payload []byte) bool
}

type roomKey struct {
	site string
	page string
}

func (k roomKey) String() string {
	return k.site + "/" + k.page
}

// roomEntry is guarded by Registry.mu except for inbox sends and the close,
// which take the entry's own mu so a full inbox only stalls its own room.
type roomEntry struct {
	room *room
	refs int

	mu     sync.Mutex
	closed bool
}

func (e *roomEntry) send(ev event) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.closed {
		e.room.inbox <- ev
	}
}

func (e *roomEntry) sendAndClose(ev event) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.room.inbox <- ev
	e.closed = true
	close(e.room.inbox)
}

func (e *roomEntry) close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.closed {
		e.closed = true
		close(e.room.inbox)
	}
}

// Registry addresses rooms by (site, page), creating a room on first attach
// and discarding it on last detach.
type Registry struct {
	mu    sync.Mutex
	rooms map[roomKey]*roomEntry

	inboxSize int
	logger    *slog.Logger
	metrics   *metrics.Metrics
	wg        sync.WaitGroup
}

// NewRegistry builds an empty registry.
func NewRegistry(logger *slog.Logger, m *metrics.Metrics) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		rooms:     map[roomKey]*roomEntry{},
		inboxSize: defaultInboxSize,
		logger:    logger,
		metrics:   m,
	}
}

// Session is one attached socket.
type Session struct {
	ID string

	registry *Registry
	key      roomKey
	entry    *roomEntry
	once     sync.Once
}

// Attach joins conn to the room of (site, page) under a display name.
func (r *Registry) Attach(site, page, name string, conn Conn) *Session {
	key := roomKey{site: site, page: page}
	s := &Session{ID: uuid.NewString(), registry: r, key: key}

	r.mu.Lock()
	entry, ok := r.rooms[key]
	if !ok {
		entry = &roomEntry{room: newRoom(key, r.inboxSize, r.logger)}
		r.rooms[key] = entry
		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			entry.room.run()
			r.metrics.RoomClosed()
		}()
		r.metrics.RoomOpened()
		r.logger.Debug("room opened", "room", key.String())
	}
	entry.refs++
	s.entry = entry
	r.mu.Unlock()

	entry.send(event{kind: eventAttach, id: s.ID, name: name, conn: conn})
	r.metrics.SocketAttached()
	return s
}

// Receive relays a client message from this session to the other sockets.
func (s *Session) Receive(payload []byte) {
	s.registry.deliver(s.key, event{kind: eventClient, id: s.ID, payload: append([]byte(nil), payload...)})
}

// Detach removes the session. It is safe to call more than once.
func (s *Session) Detach() {
	s.once.Do(func() {
		s.registry.detach(s)
	})
}

func (r *Registry) detach(s *Session) {
	r.mu.Lock()
	entry, ok := r.rooms[s.key]
	if !ok || entry != s.entry {
		r.mu.Unlock()
		return
	}
	entry.refs--
	last := entry.refs == 0
	if last {
		delete(r.rooms, s.key)
	}
	r.mu.Unlock()

	r.metrics.SocketDetached()
	ev := event{kind: eventDetach, id: s.ID}
	if !last {
		entry.send(ev)
		return
	}
	entry.sendAndClose(ev)
	r.logger.Debug("room closed", "room", s.key.String())
}

// Broadcast relays payload verbatim to every socket of the room. It is a
// no-op when nobody is editing the page.
func (r *Registry) Broadcast(site, page string, payload []byte) {
	r.deliver(roomKey{site: site, page: page}, event{kind: eventBroadcast, payload: append([]byte(nil), payload...)})
}

func (r *Registry) deliver(key roomKey, ev event) {
	r.mu.Lock()
	entry, ok := r.rooms[key]
	r.mu.Unlock()

	if ok {
		entry.send(ev)
	}
}

// Rooms reports the number of active rooms.
func (r *Registry) Rooms() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rooms)
}

// Close discards every room and waits for their goroutines to exit.
func (r *Registry) Close() {
	r.mu.Lock()
	entries := make([]*roomEntry, 0, len(r.rooms))
	for key, entry := range r.rooms {
		delete(r.rooms, key)
		entries = append(entries, entry)
	}
	r.mu.Unlock()

	for _, entry := range entries {
		entry.close()
	}
	r.wg.Wait()
}

// LocalNotifier delivers remote-save messages to rooms of this process.
type LocalNotifier struct {
	registry *Registry
}

var _ ports.SaveNotifier = (*LocalNotifier)(nil)

// NewLocalNotifier wraps a registry.
func NewLocalNotifier(registry *Registry) *LocalNotifier {
	return &LocalNotifier{registry: registry}
}

func (n *LocalNotifier) NotifySaved(_ context.Context, site, page, versionTag string) error {
	n.registry.Broadcast(site, page, domain.NewRemoteSave(site, page, versionTag))
	return nil
}
