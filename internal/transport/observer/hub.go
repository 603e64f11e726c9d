package observer

import (
	"encoding/json"
	"sync"

	"antmania.dev/internal/protocol"
)

// Per-connection send queue. A follower that stays this far behind
// the live stream is disconnected as a slow consumer.
const clientQueue = 256

const (
	kickSlow = "slow"
	kickOver = "over"
)

// Hub buffers a run's record stream and fans it out to observer
// connections. Append runs on the simulation goroutine and never
// blocks: the backlog is a fixed ring that evicts its oldest record,
// and a follower whose queue is full gets kicked instead of waited on.
type Hub struct {
	mu         sync.Mutex
	runID      string
	buf        [][]byte
	head       int
	n          int
	next       uint64 // seq of the next record to arrive
	over       bool   // RUN_END has been appended
	clients    map[*client]struct{}
	maxClients int
}

type client struct {
	sid  string
	out  chan []byte
	kick string // set under Hub.mu before out is closed
}

func NewHub(backlog, maxClients int) *Hub {
	if backlog <= 0 {
		backlog = 4096
	}
	if maxClients <= 0 {
		maxClients = 8
	}
	return &Hub{
		buf:        make([][]byte, backlog),
		clients:    make(map[*client]struct{}),
		maxClients: maxClients,
	}
}

// Append implements the engine's event sink.
func (h *Hub) Append(rec protocol.Record) {
	b, err := json.Marshal(rec)
	if err != nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if rs, ok := rec.(*protocol.RunStart); ok {
		h.runID = rs.RunID
	}
	h.push(b)

	for c := range h.clients {
		select {
		case c.out <- b:
		default:
			c.kick = kickSlow
			close(c.out)
			delete(h.clients, c)
		}
	}

	if _, ok := rec.(*protocol.RunEnd); ok {
		h.over = true
		for c := range h.clients {
			c.kick = kickOver
			close(c.out)
			delete(h.clients, c)
		}
	}
}

func (h *Hub) push(b []byte) {
	if h.n == len(h.buf) {
		h.buf[h.head] = nil
		h.head = (h.head + 1) % len(h.buf)
		h.n--
	}
	h.buf[(h.head+h.n)%len(h.buf)] = b
	h.n++
	h.next++
}

type subscription struct {
	Hello   protocol.HelloMsg
	Backlog [][]byte
	C       *client // non-nil only when following a live run
	RunOver bool
}

// subscribe snapshots the backlog from sub.FromSeq (clamped to what
// the ring still holds) and, for a follow request on a live run,
// registers a client so later appends land on its queue with no gap.
func (h *Hub) subscribe(sid string, sub protocol.SubscribeMsg) (subscription, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	oldest := h.next - uint64(h.n)
	from := sub.FromSeq
	if from < oldest {
		from = oldest
	}
	if from > h.next {
		from = h.next
	}
	backlog := make([][]byte, 0, h.next-from)
	for seq := from; seq < h.next; seq++ {
		backlog = append(backlog, h.buf[(h.head+int(seq-oldest))%len(h.buf)])
	}

	var last uint64
	if h.next > 0 {
		last = h.next - 1
	}
	s := subscription{
		Hello: protocol.HelloMsg{
			Type:            protocol.TypeHello,
			ProtocolVersion: protocol.Version,
			RunID:           h.runID,
			LastSeq:         last,
		},
		Backlog: backlog,
		RunOver: h.over,
	}

	if sub.Follow && !h.over {
		if len(h.clients) >= h.maxClients {
			return subscription{}, false
		}
		c := &client{sid: sid, out: make(chan []byte, clientQueue)}
		h.clients[c] = struct{}{}
		s.C = c
	}
	return s, true
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
}

func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}
