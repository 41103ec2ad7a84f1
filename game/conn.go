package game

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// Conn is one client connection. ReadPump and WritePump each run on their
// own goroutine; everything else only touches the channels.
type Conn struct {
	id          string
	ctx         context.Context
	cancelCtx   context.CancelFunc
	rateLimiter *rate.Limiter
	inbox       chan []byte
	pingChan    chan struct{}
	closeOnce   sync.Once
}

func NewConn(id string) *Conn {
	ctx, cancel := context.WithCancel(context.Background())
	return &Conn{
		id:          id,
		ctx:         ctx,
		cancelCtx:   cancel,
		rateLimiter: rate.NewLimiter(1, 5),
		inbox:       make(chan []byte, 256),
		pingChan:    make(chan struct{}, 1),
	}
}

func (c *Conn) ID() string { return c.id }

// Send queues a frame. A client too slow to drain its inbox is dropped
// rather than allowed to stall the room that is writing to it.
func (c *Conn) Send(data []byte) {
	select {
	case <-c.ctx.Done():
	case c.inbox <- data:
	default:
		log.Warn().Str("conn", c.id).Msg("outbound buffer full, closing connection")
		c.Close()
	}
}

func (c *Conn) Ping() {
	select {
	case c.pingChan <- struct{}{}:
	default:
	}
}

func (c *Conn) Close() {
	c.closeOnce.Do(c.cancelCtx)
}

// ReadPump decodes frames and hands them to the dispatcher in arrival order.
// When the socket fails the dispatcher is told the connection is gone.
func (c *Conn) ReadPump(socket WebsocketConnection, dispatcher Dispatcher) {
	defer func() {
		c.Close()
		socket.Close()
		dispatcher.Disconnect(c.id)
	}()

	for {
		data, err := socket.Read()
		if err != nil {
			return
		}
		if c.ctx.Err() != nil {
			return
		}

		if !c.rateLimiter.Allow() {
			c.sendError(ErrRateLimited)
			continue
		}

		var event InboundEvent
		if err := json.Unmarshal(data, &event); err != nil || event.Event == "" {
			c.sendError(ErrBadPayload)
			continue
		}

		dispatcher.Dispatch(c.ctx, c.id, event)
	}
}

func (c *Conn) WritePump(socket WebsocketConnection) {
	defer socket.Close()
	for {
		select {
		case <-c.ctx.Done():
			c.drain(socket)
			return
		case data := <-c.inbox:
			if err := socket.Write(data); err != nil {
				c.Close()
				return
			}
		case <-c.pingChan:
			if err := socket.Ping(); err != nil {
				c.Close()
				return
			}
		}
	}
}

// drain writes whatever is already queued, so a closing notice still reaches
// the client.
func (c *Conn) drain(socket WebsocketConnection) {
	for {
		select {
		case data := <-c.inbox:
			if socket.Write(data) != nil {
				return
			}
		default:
			return
		}
	}
}

func (c *Conn) sendError(err error) {
	data, merr := MakeEventError(err).Marshal()
	if merr != nil {
		return
	}
	c.Send(data)
}
