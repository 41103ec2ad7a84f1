package game

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const maxCodeAttempts = 32

// Reasons carried by roomClosed when the registry ends a room.
const (
	ReasonRemoved        = "removed"
	ReasonServerShutdown = "server-shutdown"
)

type RegistryDeps struct {
	IdGen         UniqueIdGenerator
	Words         SubjectWordPicker
	Generator     ArtifactGenerator
	Transport     Transport
	TickerCreator PeriodicTickerChannelCreator
	Clock         func() time.Time
	NewPlayerID   func() string
}

// Registry maps room codes to running room actors. The map is the only state
// shared across rooms.
type Registry struct {
	locker   sync.RWMutex
	rooms    map[string]*RoomActor
	settings Settings
	maxRooms int

	idGen         UniqueIdGenerator
	words         SubjectWordPicker
	generator     ArtifactGenerator
	transport     Transport
	tickerCreator PeriodicTickerChannelCreator
	clock         func() time.Time
	newPlayerID   func() string
}

func NewRegistry(settings Settings, maxRooms int, deps RegistryDeps) *Registry {
	reg := &Registry{
		rooms:         make(map[string]*RoomActor),
		settings:      settings,
		maxRooms:      maxRooms,
		idGen:         deps.IdGen,
		words:         deps.Words,
		generator:     deps.Generator,
		transport:     deps.Transport,
		tickerCreator: deps.TickerCreator,
		clock:         deps.Clock,
		newPlayerID:   deps.NewPlayerID,
	}
	if reg.idGen == nil {
		reg.idGen = NewCodeGen()
	}
	if reg.tickerCreator == nil {
		tg := NewTickerGen()
		reg.tickerCreator = &tg
	}
	if reg.clock == nil {
		reg.clock = time.Now
	}
	if reg.newPlayerID == nil {
		reg.newPlayerID = uuid.NewString
	}
	return reg
}

// CreateRoom starts a LOBBY room hosted by the player on hostConnID.
func (reg *Registry) CreateRoom(hostConnID string, host PlayerInfo) (*RoomActor, string, error) {
	reg.locker.Lock()
	defer reg.locker.Unlock()

	if len(reg.rooms) >= reg.maxRooms {
		return nil, "", ErrTooManyRooms
	}

	code := ""
	for range maxCodeAttempts {
		candidate := reg.idGen.Generate()
		if _, taken := reg.rooms[candidate]; !taken {
			code = candidate
			break
		}
	}
	if code == "" {
		log.Error().Int("rooms", len(reg.rooms)).Msg("could not find a free room code")
		return nil, "", ErrCodeSpaceExhausted
	}

	room, err := NewRoom(code, hostConnID, host, reg.settings, RoomDeps{
		Words:       reg.words,
		Clock:       reg.clock,
		NewPlayerID: reg.newPlayerID,
		Placeholder: reg.generator.Fallback,
	})
	if err != nil {
		return nil, "", err
	}

	actor := NewRoomActor(room, reg.transport, reg.generator, reg)
	reg.rooms[code] = actor
	go actor.GameLoop()

	log.Info().Str("room", code).Str("player", room.hostID).Msg("room created")
	return actor, room.hostID, nil
}

// GetRoom looks a room up by code, case-insensitively.
func (reg *Registry) GetRoom(code string) (*RoomActor, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	reg.locker.RLock()
	actor, ok := reg.rooms[code]
	reg.locker.RUnlock()
	if !ok {
		return nil, ErrRoomNotFound
	}
	return actor, nil
}

func (reg *Registry) RemoveRoom(code string) {
	reg.locker.Lock()
	actor, ok := reg.rooms[code]
	delete(reg.rooms, code)
	count := len(reg.rooms)
	reg.locker.Unlock()

	if !ok {
		return
	}
	actor.Stop(ReasonRemoved)
	log.Info().Str("room", code).Int("rooms", count).Msg("room removed")
}

func (reg *Registry) Count() int {
	reg.locker.RLock()
	defer reg.locker.RUnlock()
	return len(reg.rooms)
}

// Run forwards a tick to every room each second until ctx is done.
func (reg *Registry) Run(ctx context.Context, started chan struct{}) {
	ticker := reg.tickerCreator.Create(time.Second)
	close(started)

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker:
			reg.locker.RLock()
			for _, actor := range reg.rooms {
				actor.Tick(now)
			}
			reg.locker.RUnlock()
		}
	}
}

// CloseAll stops every room with reason and waits for their loops to exit or
// ctx to expire.
func (reg *Registry) CloseAll(ctx context.Context, reason string) {
	reg.locker.RLock()
	actors := make([]*RoomActor, 0, len(reg.rooms))
	for _, actor := range reg.rooms {
		actors = append(actors, actor)
	}
	reg.locker.RUnlock()

	for _, actor := range actors {
		actor.Stop(reason)
	}
	for _, actor := range actors {
		select {
		case <-actor.Done():
		case <-ctx.Done():
			return
		}
	}
}
