package httpapi

import (
	"crypto/subtle"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"SiteForge/internal/domain"
	"SiteForge/internal/infrastructure/notify"
	"SiteForge/internal/usecase"
)

const (
	socketSendBuffer = 64
	socketReadLimit  = 64 << 10
	socketWriteWait  = 10 * time.Second
	socketPongWait   = 60 * time.Second
	socketPingPeriod = socketPongWait * 9 / 10
	maxDisplayName   = 40
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// Editors connect from the published site's origin.
	CheckOrigin: func(*http.Request) bool { return true },
}

// socketConn is the room-facing half of a websocket. Send never blocks: a
// full buffer drops the message.
type socketConn struct {
	out  chan []byte
	done chan struct{}
	once sync.Once
}

func newSocketConn() *socketConn {
	return &socketConn{out: make(chan []byte, socketSendBuffer), done: make(chan struct{})}
}

func (c *socketConn) Send(payload []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.out <- payload:
		return true
	default:
		return false
	}
}

func (c *socketConn) close() {
	c.once.Do(func() { close(c.done) })
}

func (s *Server) handleSocket(w http.ResponseWriter, r *http.Request) {
	site, page := chi.URLParam(r, "site"), chi.URLParam(r, "page")
	if err := validateRoom(site, page); err != nil {
		s.writeError(w, r, err)
		return
	}

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		s.logger.Debug("websocket upgrade failed", "error", err)
		return
	}

	conn := newSocketConn()
	session := s.rooms.Attach(site, page, s.displayName(r.URL.Query().Get("name")), conn)
	log := s.logger.With("room", site+"/"+page, "socket", session.ID)
	log.Debug("socket attached")

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		s.writeLoop(ws, conn)
	}()

	ws.SetReadLimit(socketReadLimit)
	_ = ws.SetReadDeadline(time.Now().Add(socketPongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(socketPongWait))
	})
	for {
		kind, payload, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debug("socket read failed", "error", err)
			}
			break
		}
		if kind == websocket.TextMessage {
			session.Receive(payload)
		}
	}

	session.Detach()
	conn.close()
	<-writerDone
	_ = ws.Close()
	log.Debug("socket detached")
}

func (s *Server) writeLoop(ws *websocket.Conn, conn *socketConn) {
	ticker := time.NewTicker(socketPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case msg := <-conn.out:
			_ = ws.SetWriteDeadline(time.Now().Add(socketWriteWait))
			if err := ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				conn.close()
				_ = ws.Close()
				return
			}
		case <-ticker.C:
			_ = ws.SetWriteDeadline(time.Now().Add(socketWriteWait))
			if err := ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				conn.close()
				_ = ws.Close()
				return
			}
		case <-conn.done:
			_ = ws.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(socketWriteWait))
			return
		}
	}
}

// handleBroadcast relays a raw JSON body to every socket of a room.
func (s *Server) handleBroadcast(w http.ResponseWriter, r *http.Request) {
	if s.internalToken != "" {
		got := r.Header.Get(notify.InternalTokenHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(s.internalToken)) != 1 {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized", Message: "missing or invalid internal token"})
			return
		}
	}

	site, page := chi.URLParam(r, "site"), chi.URLParam(r, "page")
	if err := validateRoom(site, page); err != nil {
		s.writeError(w, r, err)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBroadcastBody))
	if err != nil || !json.Valid(body) {
		s.writeError(w, r, &domain.ValidationError{Field: "body", Reason: "must be a JSON document"})
		return
	}

	s.rooms.Broadcast(site, page, body)
	w.WriteHeader(http.StatusNoContent)
}

func validateRoom(site, page string) error {
	if err := usecase.ValidateName("site", site); err != nil {
		return err
	}
	return usecase.ValidateName("page", page)
}

func (s *Server) displayName(raw string) string {
	name := strings.Join(strings.Fields(s.clean(raw)), " ")
	if name == "" {
		return "Anonymous"
	}
	if utf8.RuneCountInString(name) > maxDisplayName {
		name = string([]rune(name)[:maxDisplayName])
	}
	return name
}
