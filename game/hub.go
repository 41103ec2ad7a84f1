package game

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const pingInterval = 30 * time.Second

// Hub is the Transport rooms write to. It knows every live connection by id.
type Hub struct {
	locker        sync.RWMutex
	conns         map[string]*Conn
	tickerCreator PeriodicTickerChannelCreator
}

func NewHub(tickerCreator PeriodicTickerChannelCreator) *Hub {
	if tickerCreator == nil {
		tg := NewTickerGen()
		tickerCreator = &tg
	}
	return &Hub{
		conns:         make(map[string]*Conn),
		tickerCreator: tickerCreator,
	}
}

func (h *Hub) Register(c *Conn) {
	h.locker.Lock()
	h.conns[c.id] = c
	h.locker.Unlock()
}

func (h *Hub) Unregister(id string) {
	h.locker.Lock()
	delete(h.conns, id)
	h.locker.Unlock()
}

func (h *Hub) Count() int {
	h.locker.RLock()
	defer h.locker.RUnlock()
	return len(h.conns)
}

func (h *Hub) Send(to string, event OutboundEvent) {
	h.Broadcast([]string{to}, event)
}

// Broadcast marshals event once and queues it on every listed connection
// that is still registered.
func (h *Hub) Broadcast(to []string, event OutboundEvent) {
	data, err := event.Marshal()
	if err != nil {
		log.Error().Err(err).Str("event", event.Event).Msg("failed to marshal outbound event")
		return
	}

	h.locker.RLock()
	targets := make([]*Conn, 0, len(to))
	for _, id := range to {
		if c, ok := h.conns[id]; ok {
			targets = append(targets, c)
		}
	}
	h.locker.RUnlock()

	for _, c := range targets {
		c.Send(data)
	}
}

// KeepAlive pings every connection on a fixed interval until ctx is done.
func (h *Hub) KeepAlive(ctx context.Context, started chan struct{}) {
	ticker := h.tickerCreator.Create(pingInterval)
	close(started)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker:
			h.locker.RLock()
			for _, c := range h.conns {
				c.Ping()
			}
			h.locker.RUnlock()
		}
	}
}

// CloseAll drops every connection.
func (h *Hub) CloseAll() {
	h.locker.RLock()
	defer h.locker.RUnlock()
	for _, c := range h.conns {
		c.Close()
	}
}
