package game

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	evaluationTimeout = 15 * time.Second
	disconnectTimeout = 5 * time.Second
)

type membership struct {
	code     string
	playerID string
}

// Coordinator binds connections to rooms. A connection is in at most one room
// at a time.
type Coordinator struct {
	locker    sync.Mutex
	members   map[string]membership
	registry  *Registry
	transport Transport
	evaluator PromptEvaluator
}

func NewCoordinator(registry *Registry, transport Transport, evaluator PromptEvaluator) *Coordinator {
	return &Coordinator{
		members:   make(map[string]membership),
		registry:  registry,
		transport: transport,
		evaluator: evaluator,
	}
}

// Dispatch applies one client event. Failures are reported to connID only.
func (c *Coordinator) Dispatch(ctx context.Context, connID string, event InboundEvent) {
	if err := c.handle(ctx, connID, event); err != nil {
		log.Debug().Str("conn", connID).Str("event", event.Event).Err(err).Msg("event rejected")
		c.transport.Send(connID, MakeEventError(err))
	}
}

func (c *Coordinator) Disconnect(connID string) {
	ctx, cancel := context.WithTimeout(context.Background(), disconnectTimeout)
	defer cancel()
	c.leave(ctx, connID)
}

func (c *Coordinator) handle(ctx context.Context, connID string, event InboundEvent) error {
	switch event.Event {
	case EventCreateRoom:
		var info PlayerInfo
		if err := event.Decode(&info); err != nil {
			return err
		}
		actor, playerID, err := c.registry.CreateRoom(connID, info)
		if err != nil {
			return err
		}
		c.leave(ctx, connID)
		c.bind(connID, actor.Code(), playerID)
		return nil

	case EventJoinRoom:
		var payload joinRoomPayload
		if err := event.Decode(&payload); err != nil {
			return err
		}
		actor, err := c.registry.GetRoom(payload.RoomCode)
		if err != nil {
			return err
		}
		// already seated here, joining again only repeats the acknowledgment
		if m, ok := c.membership(connID); ok && m.code == actor.Code() {
			c.transport.Send(connID, MakeEventRoomJoined(m.code, m.playerID))
			return nil
		}
		// the old room is only left once the new one has accepted us
		playerID, err := actor.Join(ctx, connID, PlayerInfo{DisplayName: payload.DisplayName, Avatar: payload.Avatar})
		if err != nil {
			return err
		}
		c.leave(ctx, connID)
		c.bind(connID, actor.Code(), playerID)
		return nil

	case EventGetRoomData:
		var payload getRoomDataPayload
		if err := event.Decode(&payload); err != nil {
			return err
		}
		code := payload.RoomCode
		if strings.TrimSpace(code) == "" {
			m, ok := c.membership(connID)
			if !ok {
				return ErrNotInRoom
			}
			code = m.code
		}
		actor, err := c.registry.GetRoom(code)
		if err != nil {
			return err
		}
		snapshot, err := actor.Snapshot(ctx)
		if err != nil {
			return err
		}
		c.transport.Send(connID, MakeEventRoomData(snapshot))
		return nil

	case EventToggleReady:
		return c.inRoom(connID, func(actor *RoomActor, playerID string) error {
			return actor.ToggleReady(ctx, playerID)
		})

	case EventStartGame:
		return c.inRoom(connID, func(actor *RoomActor, playerID string) error {
			return actor.StartGame(ctx, playerID)
		})

	case EventSubmitPrompt:
		var payload submitPromptPayload
		if err := event.Decode(&payload); err != nil {
			return err
		}
		return c.inRoom(connID, func(actor *RoomActor, playerID string) error {
			return actor.SubmitPrompt(ctx, playerID, payload.Text)
		})

	case EventSubmitVote:
		var payload submitVotePayload
		if err := event.Decode(&payload); err != nil {
			return err
		}
		return c.inRoom(connID, func(actor *RoomActor, playerID string) error {
			return actor.SubmitVote(ctx, playerID, payload.TargetPlayerID)
		})

	case EventAdvanceRound:
		return c.inRoom(connID, func(actor *RoomActor, playerID string) error {
			return actor.AdvanceRound(ctx, playerID)
		})

	case EventLeaveRoom:
		if !c.leave(ctx, connID) {
			return ErrNotInRoom
		}
		return nil

	case EventEvaluatePrompt:
		var payload evaluatePromptPayload
		if err := event.Decode(&payload); err != nil {
			return err
		}
		return c.evaluate(ctx, connID, payload)
	}
	return ErrUnknownEvent
}

func (c *Coordinator) evaluate(ctx context.Context, connID string, payload evaluatePromptPayload) error {
	if strings.TrimSpace(payload.Text) == "" || strings.TrimSpace(payload.Challenge) == "" {
		return ErrMissingFields
	}
	ctx, cancel := context.WithTimeout(ctx, evaluationTimeout)
	defer cancel()

	score, err := c.evaluator.Evaluate(ctx, payload.Text, payload.Challenge, payload.LevelID)
	if err != nil {
		log.Warn().Str("conn", connID).Err(err).Msg("prompt evaluation failed")
		return fmt.Errorf("%w: %w", ErrEvaluationFailed, err)
	}
	c.transport.Send(connID, MakeEventEvaluation(score))
	return nil
}

// inRoom runs fn against the connection's current room. Bindings to rooms
// that no longer exist are dropped on the way.
func (c *Coordinator) inRoom(connID string, fn func(actor *RoomActor, playerID string) error) error {
	m, ok := c.membership(connID)
	if !ok {
		return ErrNotInRoom
	}
	actor, err := c.registry.GetRoom(m.code)
	if err != nil {
		c.unbind(connID, m)
		return ErrNotInRoom
	}
	err = fn(actor, m.playerID)
	if errors.Is(err, ErrRoomClosed) {
		c.unbind(connID, m)
		return ErrNotInRoom
	}
	return err
}

// leave disconnects connID from its room, if any, and reports whether it was
// in one.
func (c *Coordinator) leave(ctx context.Context, connID string) bool {
	c.locker.Lock()
	m, ok := c.members[connID]
	delete(c.members, connID)
	c.locker.Unlock()
	if !ok {
		return false
	}

	actor, err := c.registry.GetRoom(m.code)
	if err != nil {
		return true
	}
	if err := actor.Disconnect(ctx, m.playerID); err != nil {
		log.Warn().Str("room", m.code).Str("player", m.playerID).Err(err).Msg("failed to leave room")
	}
	return true
}

func (c *Coordinator) membership(connID string) (membership, bool) {
	c.locker.Lock()
	defer c.locker.Unlock()
	m, ok := c.members[connID]
	return m, ok
}

func (c *Coordinator) bind(connID, code, playerID string) {
	c.locker.Lock()
	c.members[connID] = membership{code: code, playerID: playerID}
	c.locker.Unlock()
}

func (c *Coordinator) unbind(connID string, m membership) {
	c.locker.Lock()
	if c.members[connID] == m {
		delete(c.members, connID)
	}
	c.locker.Unlock()
}

// Members reports how many connections are currently in a room.
func (c *Coordinator) Members() int {
	c.locker.Lock()
	defer c.locker.Unlock()
	return len(c.members)
}
