package ws

import (
	"sync"
)

// Client is one websocket connection of an authenticated user.
type Client struct {
	UserID uint
	ChatID uint
	Send   chan []byte

	once sync.Once
}

func NewClient(userID, chatID uint) *Client {
	return &Client{UserID: userID, ChatID: chatID, Send: make(chan []byte, 256)}
}

// Close closes Send; safe to call more than once.
func (c *Client) Close() {
	c.once.Do(func() { close(c.Send) })
}

// offer queues data without blocking; slow clients drop frames.
func (c *Client) offer(data []byte) bool {
	defer func() { recover() }() // Send closed between snapshot and write
	select {
	case c.Send <- data:
		return true
	default:
		return false
	}
}
