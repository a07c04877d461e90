package server

import "sync"

// hub tracks live connections and which board each one has joined.
type hub struct {
	mu     sync.RWMutex
	conns  map[string]*conn
	boards map[string]map[*conn]struct{}
	locks  map[string]*sync.Mutex
}

func newHub() *hub {
	return &hub{
		conns:  make(map[string]*conn),
		boards: make(map[string]map[*conn]struct{}),
		locks:  make(map[string]*sync.Mutex),
	}
}

func (h *hub) add(c *conn) {
	h.mu.Lock()
	h.conns[c.id] = c
	h.mu.Unlock()
}

func (h *hub) remove(c *conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(c)
	delete(h.conns, c.id)
}

// join moves c to canvasID's group.
func (h *hub) join(c *conn, canvasID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(c)
	group, ok := h.boards[canvasID]
	if !ok {
		group = make(map[*conn]struct{})
		h.boards[canvasID] = group
	}
	group[c] = struct{}{}
	c.board = canvasID
}

// leave removes c from its group, if any.
func (h *hub) leave(c *conn) {
	h.mu.Lock()
	h.leaveLocked(c)
	h.mu.Unlock()
}

func (h *hub) leaveLocked(c *conn) {
	if c.board == "" {
		return
	}
	if group, ok := h.boards[c.board]; ok {
		delete(group, c)
		if len(group) == 0 {
			delete(h.boards, c.board)
		}
	}
	c.board = ""
}

// boardOf returns the board c has joined.
func (h *hub) boardOf(c *conn) string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return c.board
}

// members returns the connections on canvasID, except the one with id skip.
func (h *hub) members(canvasID, skip string) []*conn {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]*conn, 0, len(h.boards[canvasID]))
	for c := range h.boards[canvasID] {
		if c.id != skip {
			out = append(out, c)
		}
	}
	return out
}

// userConns returns every connection authenticated as userID.
func (h *hub) userConns(userID string) []*conn {
	h.mu.RLock()
	defer h.mu.RUnlock()
	var out []*conn
	for _, c := range h.conns {
		if c.user == userID {
			out = append(out, c)
		}
	}
	return out
}

// lock returns the mutex serializing store writes for canvasID.
func (h *hub) lock(canvasID string) *sync.Mutex {
	h.mu.Lock()
	defer h.mu.Unlock()
	m, ok := h.locks[canvasID]
	if !ok {
		m = &sync.Mutex{}
		h.locks[canvasID] = m
	}
	return m
}

func (h *hub) closeAll() {
	h.mu.RLock()
	conns := make([]*conn, 0, len(h.conns))
	for _, c := range h.conns {
		conns = append(conns, c)
	}
	h.mu.RUnlock()
	for _, c := range conns {
		c.close()
	}
}
