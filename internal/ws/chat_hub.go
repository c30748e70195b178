package ws

import (
	"sync"

	"github.com/goccy/go-json"
)

// ChatHub keeps the connected clients of each chat.
type ChatHub struct {
	mu    sync.RWMutex
	rooms map[uint]map[*Client]struct{}
}

func NewChatHub() *ChatHub {
	return &ChatHub{rooms: make(map[uint]map[*Client]struct{})}
}

func (h *ChatHub) Join(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room := h.rooms[c.ChatID]
	if room == nil {
		room = make(map[*Client]struct{})
		h.rooms[c.ChatID] = room
	}
	room[c] = struct{}{}
}

// Leave removes c and drops the room once it is empty.
func (h *ChatHub) Leave(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if room := h.rooms[c.ChatID]; room != nil {
		delete(room, c)
		if len(room) == 0 {
			delete(h.rooms, c.ChatID)
		}
	}
}

func (h *ChatHub) ClientCount(chatID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[chatID])
}

// Broadcast sends payload to every client connected to chatID and returns
// how many accepted the frame.
func (h *ChatHub) Broadcast(chatID uint, payload interface{}) int {
	data, err := json.Marshal(payload)
	if err != nil {
		return 0
	}
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.rooms[chatID]))
	for c := range h.rooms[chatID] {
		clients = append(clients, c)
	}
	h.mu.RUnlock()
	sent := 0
	for _, c := range clients {
		if c.offer(data) {
			sent++
		}
	}
	return sent
}
