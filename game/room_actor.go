package game

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

type roomRemover interface {
	RemoveRoom(code string)
}

type roomRequest struct {
	apply func(r *Room) error
	reply chan error
}

// RoomActor owns a Room and applies everything addressed to it on a single
// goroutine. Other goroutines only talk to it through channels.
type RoomActor struct {
	room *Room
	code string

	requests        chan roomRequest
	artifactResults chan artifactResult
	ticks           chan time.Time
	stop            chan string
	done            chan struct{}

	ctx       context.Context
	cancelCtx context.CancelFunc
	stopOnce  sync.Once

	transport         Transport
	generator         ArtifactGenerator
	parent            roomRemover
	generationTimeout time.Duration
}

func NewRoomActor(room *Room, transport Transport, generator ArtifactGenerator, parent roomRemover) *RoomActor {
	ctx, cancel := context.WithCancel(context.Background())
	return &RoomActor{
		room:              room,
		code:              room.code,
		requests:          make(chan roomRequest, 64),
		artifactResults:   make(chan artifactResult, room.settings.MaxPlayers),
		ticks:             make(chan time.Time, 1),
		stop:              make(chan string, 1),
		done:              make(chan struct{}),
		ctx:               ctx,
		cancelCtx:         cancel,
		transport:         transport,
		generator:         generator,
		parent:            parent,
		generationTimeout: room.settings.GenerationTimeout,
	}
}

func (a *RoomActor) Code() string { return a.code }

// Done is closed once the game loop has exited.
func (a *RoomActor) Done() <-chan struct{} { return a.done }

// Tick never blocks. A room that is still busy with the previous tick just
// skips this one.
func (a *RoomActor) Tick(now time.Time) {
	select {
	case a.ticks <- now:
	default:
	}
}

// Stop asks the game loop to close the room with the given reason.
func (a *RoomActor) Stop(reason string) {
	a.stopOnce.Do(func() {
		a.stop <- reason
	})
}

func (a *RoomActor) GameLoop() {
	defer close(a.done)
	defer a.cancelCtx()

	a.flush()

	for {
		select {
		case req := <-a.requests:
			err := req.apply(a.room)
			a.flush()
			req.reply <- err

		case res := <-a.artifactResults:
			if err := a.room.commitArtifact(res); err != nil {
				log.Warn().Str("room", a.code).Str("player", res.playerID).Int("round", res.roundIndex).Err(err).Msg("discarding artifact")
			}
			a.flush()

		case now := <-a.ticks:
			expired := a.room.tick(now)
			a.flush()
			if expired {
				a.parent.RemoveRoom(a.code)
				return
			}

		case reason := <-a.stop:
			a.room.close(reason)
			a.flush()
			a.parent.RemoveRoom(a.code)
			return
		}
	}
}

func (a *RoomActor) flush() {
	tasks, jobs := a.room.drain()
	for _, task := range tasks {
		if len(task.to) == 1 {
			a.transport.Send(task.to[0], task.event)
			continue
		}
		a.transport.Broadcast(task.to, task.event)
	}
	for _, job := range jobs {
		go a.runArtifactJob(job)
	}
}

func (a *RoomActor) runArtifactJob(job artifactJob) {
	ctx, cancel := context.WithTimeout(a.ctx, a.generationTimeout)
	defer cancel()

	artifact := a.generator.Generate(ctx, job.subjectWord, job.text)
	if artifact == "" {
		artifact = a.generator.Fallback(job.subjectWord)
	}

	select {
	case a.artifactResults <- artifactResult{roundIndex: job.roundIndex, playerID: job.playerID, artifact: artifact}:
	case <-a.ctx.Done():
	}
}

func (a *RoomActor) exec(ctx context.Context, apply func(r *Room) error) error {
	req := roomRequest{apply: apply, reply: make(chan error, 1)}
	select {
	case a.requests <- req:
	case <-a.ctx.Done():
		return ErrRoomClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-req.reply:
		return err
	case <-a.done:
		// the loop may have answered just before exiting
		select {
		case err := <-req.reply:
			return err
		default:
			return ErrRoomClosed
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Join adds a new player bound to connID and returns its id.
func (a *RoomActor) Join(ctx context.Context, connID string, info PlayerInfo) (string, error) {
	var playerID string
	err := a.exec(ctx, func(r *Room) error {
		p, err := r.join(connID, info)
		if err != nil {
			return err
		}
		playerID = p.id
		return nil
	})
	return playerID, err
}

func (a *RoomActor) ToggleReady(ctx context.Context, playerID string) error {
	return a.exec(ctx, func(r *Room) error { return r.toggleReady(playerID) })
}

func (a *RoomActor) StartGame(ctx context.Context, playerID string) error {
	return a.exec(ctx, func(r *Room) error { return r.startGame(playerID) })
}

func (a *RoomActor) SubmitPrompt(ctx context.Context, playerID, text string) error {
	return a.exec(ctx, func(r *Room) error { return r.submitPrompt(playerID, text) })
}

func (a *RoomActor) SubmitVote(ctx context.Context, playerID, targetID string) error {
	return a.exec(ctx, func(r *Room) error { return r.submitVote(playerID, targetID) })
}

func (a *RoomActor) AdvanceRound(ctx context.Context, playerID string) error {
	return a.exec(ctx, func(r *Room) error { return r.requestAdvance(playerID) })
}

// Disconnect marks the player gone. A room that already shut down is not an
// error here.
func (a *RoomActor) Disconnect(ctx context.Context, playerID string) error {
	err := a.exec(ctx, func(r *Room) error { return r.handleDisconnect(playerID) })
	if errors.Is(err, ErrRoomClosed) {
		return nil
	}
	return err
}

func (a *RoomActor) Snapshot(ctx context.Context) (RoomSnapshot, error) {
	var snapshot RoomSnapshot
	err := a.exec(ctx, func(r *Room) error {
		snapshot = r.snapshot()
		return nil
	})
	return snapshot, err
}
