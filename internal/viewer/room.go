package viewer

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"
)

const (
	socketBufferSize  = 1024
	messageBufferSize = 16
	forwardBufferSize = 16
)

// Room fans messages out to all connected websocket clients. Every send is
// best-effort: the acquisition loop must never wait on a browser, so a
// full buffer anywhere along the path drops the message instead of
// blocking. The next pose or plot tick supersedes it anyway.
type Room struct {
	// forward holds outgoing messages to be fanned out to all clients.
	forward chan []byte
	// join is for clients wishing to join the room.
	join chan *client
	// leave is for clients wishing to leave the room.
	leave chan *client
	// clients holds all current clients in this room.
	clients map[*client]bool

	// onJoin, when set, produces the greeting messages (scene, current
	// pose, buffer snapshots) sent to a newly joined client.
	onJoin func() [][]byte
}

// NewRoom makes a room that is ready to go; call Run in its own goroutine.
func NewRoom(onJoin func() [][]byte) *Room {
	return &Room{
		forward: make(chan []byte, forwardBufferSize),
		join:    make(chan *client),
		leave:   make(chan *client),
		clients: make(map[*client]bool),
		onJoin:  onJoin,
	}
}

// Run owns the client set. It exits never; run it in a goroutine.
func (r *Room) Run() {
	for {
		select {
		case c := <-r.join:
			r.clients[c] = true
			log.Println("viewer: client joined")
			if r.onJoin != nil {
				for _, msg := range r.onJoin() {
					c.trySend(msg)
				}
			}
		case c := <-r.leave:
			delete(r.clients, c)
			close(c.send)
			log.Println("viewer: client left")
		case msg := <-r.forward:
			for c := range r.clients {
				c.trySend(msg)
			}
		}
	}
}

// Forward enqueues a message for broadcast, dropping it when the room is
// backlogged. Safe to call from the acquisition goroutine.
func (r *Room) Forward(msg []byte) {
	select {
	case r.forward <- msg:
	default:
	}
}

var upgrader = &websocket.Upgrader{
	ReadBufferSize:  socketBufferSize,
	WriteBufferSize: socketBufferSize,
	// The viewer is served from the same host; accept local tools too.
	CheckOrigin: func(*http.Request) bool { return true },
}

// ServeHTTP upgrades the connection and runs the client pumps.
func (r *Room) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	socket, err := upgrader.Upgrade(w, req, nil)
	if err != nil {
		log.Printf("viewer: websocket upgrade: %v", err)
		return
	}
	c := &client{
		socket: socket,
		send:   make(chan []byte, messageBufferSize),
		room:   r,
	}
	r.join <- c
	defer func() { r.leave <- c }()
	go c.write()
	c.read()
}
