package collab

import (
	"encoding/json"
	"log/slog"
)

// Palette is the fixed colour cycle handed to editors as they join.
var Palette = []string{
	"#ef4444", "#f97316", "#eab308", "#22c55e",
	"#06b6d4", "#3b82f6", "#8b5cf6", "#ec4899",
}

// User is one roster entry.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

type rosterMessage struct {
	Type  string `json:"type"`
	Self  *User  `json:"self,omitempty"`
	Users []User `json:"users"`
}

type eventKind int

const (
	eventAttach eventKind = iota
	eventDetach
	eventClient
	eventBroadcast
)

type event struct {
	kind    eventKind
	id      string
	name    string
	conn    Conn
	payload []byte
}

type member struct {
	user User
	conn Conn
}

// room owns the roster of one (site, page). Only its run goroutine touches
// members, order and nextColor.
type room struct {
	key       roomKey
	inbox     chan event
	members   map[string]*member
	order     []string
	nextColor int
	logger    *slog.Logger
}

func newRoom(key roomKey, inboxSize int, logger *slog.Logger) *room {
	return &room{
		key:     key,
		inbox:   make(chan event, inboxSize),
		members: map[string]*member{},
		logger:  logger,
	}
}

func (r *room) run() {
	for ev := range r.inbox {
		switch ev.kind {
		case eventAttach:
			r.attach(ev)
		case eventDetach:
			r.detach(ev.id)
		case eventClient:
			r.relay(ev.id, ev.payload)
		case eventBroadcast:
			for _, id := range r.order {
				r.send(r.members[id], ev.payload)
			}
		}
	}
}

func (r *room) attach(ev event) {
	user := User{ID: ev.id, Name: ev.name, Color: Palette[r.nextColor%len(Palette)]}
	r.nextColor++
	r.members[ev.id] = &member{user: user, conn: ev.conn}
	r.order = append(r.order, ev.id)

	users := r.roster()
	r.send(r.members[ev.id], encode(rosterMessage{Type: "users", Self: &user, Users: users}))
	r.fanOut(ev.id, encode(rosterMessage{Type: "users", Users: users}))
}

func (r *room) detach(id string) {
	if _, ok := r.members[id]; !ok {
		return
	}
	delete(r.members, id)
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	if len(r.order) > 0 {
		r.fanOut("", encode(rosterMessage{Type: "users", Users: r.roster()}))
	}
}

// relay stamps a client message with its sender and forwards it to everyone
// else. Anything that is not a JSON object is dropped.
func (r *room) relay(from string, payload []byte) {
	sender, ok := r.members[from]
	if !ok {
		return
	}
	var msg map[string]any
	if err := json.Unmarshal(payload, &msg); err != nil || msg == nil {
		r.logger.Debug("drop non-object client message", "room", r.key.String(), "from", from)
		return
	}
	msg["user"] = sender.user.Name
	msg["color"] = sender.user.Color
	msg["from"] = sender.user.ID
	r.fanOut(from, encode(msg))
}

func (r *room) fanOut(except string, payload []byte) {
	if payload == nil {
		return
	}
	for _, id := range r.order {
		if id == except {
			continue
		}
		r.send(r.members[id], payload)
	}
}

func (r *room) send(m *member, payload []byte) {
	if m == nil || payload == nil {
		return
	}
	if !m.conn.Send(payload) {
		r.logger.Warn("drop message for slow socket", "room", r.key.String(), "socket", m.user.ID)
	}
}

func (r *room) roster() []User {
	users := make([]User, 0, len(r.order))
	for _, id := range r.order {
		users = append(users, r.members[id].user)
	}
	return users
}

func encode(v any) []byte {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return raw
}
