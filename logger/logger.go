package logger

import (
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"github.com/gorilla/websocket"
)

var stream = &logStream{
	clients:    make(map[*websocket.Conn]bool),
	register:   make(chan *websocket.Conn),
	unregister: make(chan *websocket.Conn),
	messages:   make(chan []byte),
}

// Init initializes the global structured logger. Log lines go to stdout and,
// when viewers are connected, to the WebSocket log stream.
func Init(debug bool) {
	go stream.run()

	logLevel := slog.LevelInfo
	if debug {
		logLevel = slog.LevelDebug
	}

	handler := slog.NewTextHandler(io.MultiWriter(os.Stdout, stream), &slog.HandlerOptions{
		Level:     logLevel,
		AddSource: debug,
	})

	logger := slog.New(handler)
	slog.SetDefault(logger)

	// Route the standard log package through slog so third-party libraries
	// end up in the same stream.
	log.SetFlags(0)
	log.SetOutput(slog.NewLogLogger(logger.Handler(), slog.LevelInfo).Writer())
}

// logStream fans log lines out to connected WebSocket viewers.
type logStream struct {
	clients    map[*websocket.Conn]bool
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	messages   chan []byte
	mu         sync.Mutex
}

func (s *logStream) run() {
	for {
		select {
		case client := <-s.register:
			s.mu.Lock()
			s.clients[client] = true
			s.mu.Unlock()
		case client := <-s.unregister:
			s.mu.Lock()
			if _, ok := s.clients[client]; ok {
				delete(s.clients, client)
				client.Close()
			}
			s.mu.Unlock()
		case message := <-s.messages:
			msgCopy := make([]byte, len(message))
			copy(msgCopy, message)

			s.mu.Lock()
			for client := range s.clients {
				if err := client.WriteMessage(websocket.TextMessage, msgCopy); err != nil {
					// Unregister from another goroutine to avoid deadlocking
					// against our own channel.
					go func(c *websocket.Conn) { s.unregister <- c }(client)
				}
			}
			s.mu.Unlock()
		}
	}
}

func (s *logStream) Write(p []byte) (n int, err error) {
	s.mu.Lock()
	hasViewers := len(s.clients) > 0
	s.mu.Unlock()
	if hasViewers {
		s.messages <- p
	}
	return len(p), nil
}

// StreamHandler upgrades a connection to a live log viewer.
func StreamHandler(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("Failed to upgrade WebSocket", "error", err)
		return
	}
	stream.register <- conn
}
