package fanout

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/nguyentantai21042004/announce-flow/internal/logger"
)

// sendBuffer is how many frames a viewer may lag behind before it is dropped
const sendBuffer = 64

type implHub struct {
	logger   logger.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[string]*client
	closed  bool
}

// New creates a Hub
func New(log logger.Logger) Hub {
	return &implHub{
		logger: log,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[string]*client),
	}
}
