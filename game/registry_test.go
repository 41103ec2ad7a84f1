package game

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type testRegistry struct {
	reg       *Registry
	transport *recordingTransport
	generator *MockArtifactGenerator
	idGen     *MockUniqueIdGenerator
	ticker    chan time.Time
	clock     *fakeClock
}

func newTestRegistry(t *testing.T, settings Settings, maxRooms int) *testRegistry {
	t.Helper()
	tr := &testRegistry{
		transport: &recordingTransport{},
		generator: &MockArtifactGenerator{},
		idGen:     &MockUniqueIdGenerator{},
		ticker:    make(chan time.Time),
		clock:     newFakeClock(),
	}
	tr.generator.On("Fallback", mock.Anything).Return("placeholder").Maybe()
	tickerCreator := &MockPeriodicTickerChannelCreator{}
	tickerCreator.On("Create", time.Second).Return(tr.ticker)

	tr.reg = NewRegistry(settings, maxRooms, RegistryDeps{
		IdGen:         tr.idGen,
		Words:         NewWordBank([]string{"lighthouse", "dragon", "volcano"}),
		Generator:     tr.generator,
		Transport:     tr.transport,
		TickerCreator: tickerCreator,
		Clock:         tr.clock.Now,
		NewPlayerID:   idSequence("alice", "bob", "carol", "dave"),
	})
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		tr.reg.CloseAll(ctx, "test-over")
	})
	return tr
}

func eventuallyGets(t *testing.T, rt *recordingTransport, to, name string) OutboundEvent {
	t.Helper()
	var event OutboundEvent
	require.Eventually(t, func() bool {
		var ok bool
		event, ok = rt.lastFor(to, name)
		return ok
	}, time.Second, 5*time.Millisecond, "%s never received %s", to, name)
	return event
}

func TestRegistryCreateRoom(t *testing.T) {
	t.Parallel()
	tr := newTestRegistry(t, DefaultSettings(), 10)
	tr.idGen.On("Generate").Return("AB12").Once()
	tr.idGen.On("Generate").Return("AB12").Once()
	tr.idGen.On("Generate").Return("CD34").Once()

	actor, hostID, err := tr.reg.CreateRoom("c-alice", PlayerInfo{DisplayName: "Alice"})
	require.NoError(t, err)
	assert.Equal(t, "AB12", actor.Code())
	assert.Equal(t, "alice", hostID)

	created := eventuallyGets(t, tr.transport, "c-alice", EventRoomCreated)
	assert.Equal(t, membershipPayload{RoomCode: "AB12", PlayerID: "alice"}, created.Data)
	state := eventuallyGets(t, tr.transport, "c-alice", EventRoomState)
	assert.Equal(t, PhaseLobby, state.Data.(RoomSnapshot).Phase)

	t.Run("collision retries", func(t *testing.T) {
		actor, hostID, err := tr.reg.CreateRoom("c-bob", PlayerInfo{DisplayName: "Bob"})
		require.NoError(t, err)
		assert.Equal(t, "CD34", actor.Code())
		assert.Equal(t, "bob", hostID)
		assert.Equal(t, 2, tr.reg.Count())
		tr.idGen.AssertNumberOfCalls(t, "Generate", 3)
	})

	t.Run("lookup ignores case and spaces", func(t *testing.T) {
		found, err := tr.reg.GetRoom(" ab12 ")
		require.NoError(t, err)
		assert.Same(t, actor, found)

		_, err = tr.reg.GetRoom("ZZZZ")
		assert.ErrorIs(t, err, ErrRoomNotFound)
	})
}

func TestRegistryCodeSpaceExhausted(t *testing.T) {
	t.Parallel()
	tr := newTestRegistry(t, DefaultSettings(), 10)
	tr.idGen.On("Generate").Return("AB12")

	_, _, err := tr.reg.CreateRoom("c-alice", PlayerInfo{DisplayName: "Alice"})
	require.NoError(t, err)

	_, _, err = tr.reg.CreateRoom("c-bob", PlayerInfo{DisplayName: "Bob"})
	assert.ErrorIs(t, err, ErrCodeSpaceExhausted)
	assert.Equal(t, KindResourceExhaustion, KindOf(err))
	tr.idGen.AssertNumberOfCalls(t, "Generate", 1+maxCodeAttempts)
	assert.Equal(t, 1, tr.reg.Count())
}

func TestRegistryTooManyRooms(t *testing.T) {
	t.Parallel()
	tr := newTestRegistry(t, DefaultSettings(), 1)
	tr.idGen.On("Generate").Return("AB12").Once()

	_, _, err := tr.reg.CreateRoom("c-alice", PlayerInfo{DisplayName: "Alice"})
	require.NoError(t, err)

	_, _, err = tr.reg.CreateRoom("c-bob", PlayerInfo{DisplayName: "Bob"})
	assert.ErrorIs(t, err, ErrTooManyRooms)
	tr.idGen.AssertNumberOfCalls(t, "Generate", 1)
}

func TestRegistryCreateRoomRejectsBadName(t *testing.T) {
	t.Parallel()
	tr := newTestRegistry(t, DefaultSettings(), 10)
	tr.idGen.On("Generate").Return("AB12")

	_, _, err := tr.reg.CreateRoom("c-alice", PlayerInfo{DisplayName: "   "})
	assert.ErrorIs(t, err, ErrInvalidName)
	assert.Zero(t, tr.reg.Count())
}

func TestRegistryRemoveRoom(t *testing.T) {
	t.Parallel()
	tr := newTestRegistry(t, DefaultSettings(), 10)
	tr.idGen.On("Generate").Return("AB12").Once()

	actor, _, err := tr.reg.CreateRoom("c-alice", PlayerInfo{DisplayName: "Alice"})
	require.NoError(t, err)

	tr.reg.RemoveRoom("AB12")
	tr.reg.RemoveRoom("AB12")

	select {
	case <-actor.Done():
	case <-time.After(time.Second):
		t.Fatal("room loop did not stop")
	}
	assert.Zero(t, tr.reg.Count())
	closed := eventuallyGets(t, tr.transport, "c-alice", EventRoomClosed)
	assert.Equal(t, roomClosedPayload{RoomCode: "AB12", Reason: "removed"}, closed.Data)

	_, err = actor.Snapshot(context.Background())
	assert.ErrorIs(t, err, ErrRoomClosed)
}

func TestRegistryRunExpiresRooms(t *testing.T) {
	t.Parallel()
	settings := DefaultSettings()
	settings.LobbyTimeout = time.Minute
	tr := newTestRegistry(t, settings, 10)
	tr.idGen.On("Generate").Return("AB12").Once()
	tr.idGen.On("Generate").Return("CD34").Once()

	_, _, err := tr.reg.CreateRoom("c-alice", PlayerInfo{DisplayName: "Alice"})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	started := make(chan struct{})
	go tr.reg.Run(ctx, started)
	<-started

	// a room created later is still young at the same tick
	tr.clock.Advance(45 * time.Second)
	_, _, err = tr.reg.CreateRoom("c-bob", PlayerInfo{DisplayName: "Bob"})
	require.NoError(t, err)

	tr.ticker <- tr.clock.Now().Add(30 * time.Second)
	closed := eventuallyGets(t, tr.transport, "c-alice", EventRoomClosed)
	assert.Equal(t, roomClosedPayload{RoomCode: "AB12", Reason: "lobby-timeout"}, closed.Data)

	assert.Eventually(t, func() bool { return tr.reg.Count() == 1 }, time.Second, 5*time.Millisecond)
	_, err = tr.reg.GetRoom("CD34")
	assert.NoError(t, err)
	_, found := tr.transport.lastFor("c-bob", EventRoomClosed)
	assert.False(t, found)
}

func TestRegistryCloseAll(t *testing.T) {
	t.Parallel()
	tr := newTestRegistry(t, DefaultSettings(), 10)
	tr.idGen.On("Generate").Return("AB12").Once()
	tr.idGen.On("Generate").Return("CD34").Once()

	a, _, err := tr.reg.CreateRoom("c-alice", PlayerInfo{DisplayName: "Alice"})
	require.NoError(t, err)
	b, _, err := tr.reg.CreateRoom("c-bob", PlayerInfo{DisplayName: "Bob"})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	tr.reg.CloseAll(ctx, ReasonServerShutdown)

	for _, actor := range []*RoomActor{a, b} {
		select {
		case <-actor.Done():
		default:
			t.Fatalf("room %s still running", actor.Code())
		}
	}
	assert.Zero(t, tr.reg.Count())
	closed := eventuallyGets(t, tr.transport, "c-bob", EventRoomClosed)
	assert.Equal(t, roomClosedPayload{RoomCode: "CD34", Reason: "server-shutdown"}, closed.Data)
}
