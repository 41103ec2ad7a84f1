package game

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func AssertSnapshotEq(t *testing.T, expected, actual any, msgAndArgs ...any) {
	t.Helper()
	diff := cmp.Diff(expected, actual)
	if diff != "" {
		assert.Fail(t, "snapshot mismatch (-want +got):\n"+diff, msgAndArgs...)
	}
}

func TestSnapshotVisibility(t *testing.T) {
	t.Parallel()
	room, clock := newTestRoom(t, DefaultSettings(), 2)

	t.Run("lobby", func(t *testing.T) {
		require.NoError(t, room.toggleReady("alice"))
		AssertSnapshotEq(t, RoomSnapshot{
			Code:   "AB12",
			Phase:  PhaseLobby,
			HostID: "alice",
			Players: []PlayerView{
				{ID: "alice", DisplayName: "Alice", Connected: true, Ready: true, IsHost: true},
				{ID: "bob", DisplayName: "Bob", Connected: true},
			},
			TotalRounds: 3,
			Rounds:      []RoundView{},
		}, room.snapshot())
	})

	t.Run("collecting hides submission text", func(t *testing.T) {
		require.NoError(t, room.toggleReady("bob"))
		require.NoError(t, room.startGame("alice"))
		require.NoError(t, room.submitPrompt("alice", "secret idea"))

		s := room.snapshot()
		assert.Equal(t, clock.Now().Add(DefaultSettings().SubmissionDuration).UnixMilli(), s.Deadline)
		assert.True(t, s.Players[0].HasSubmitted)
		assert.False(t, s.Players[1].HasSubmitted)
		AssertSnapshotEq(t, []RoundView{{Index: 0, SubjectWord: "lighthouse", SubmissionCount: 1}}, s.Rounds)
	})

	t.Run("voting shows artifacts but hides votes", func(t *testing.T) {
		require.NoError(t, room.submitPrompt("bob", "other idea"))
		require.NoError(t, room.commitArtifact(artifactResult{roundIndex: 0, playerID: "alice", artifact: "img-a"}))
		require.NoError(t, room.commitArtifact(artifactResult{roundIndex: 0, playerID: "bob", artifact: "img-b"}))
		require.NoError(t, room.submitVote("alice", "bob"))

		s := room.snapshot()
		assert.Equal(t, PhaseVoting, s.Phase)
		assert.True(t, s.Players[0].HasVoted)
		AssertSnapshotEq(t, []RoundView{{
			Index:           0,
			SubjectWord:     "lighthouse",
			SubmissionCount: 2,
			VoteCount:       1,
			Submissions: []SubmissionView{
				{PlayerID: "alice", Text: "secret idea", Artifact: "img-a"},
				{PlayerID: "bob", Text: "other idea", Artifact: "img-b"},
			},
		}}, s.Rounds)
	})

	t.Run("results reveal votes", func(t *testing.T) {
		require.NoError(t, room.submitVote("bob", "alice"))

		s := room.snapshot()
		assert.Equal(t, PhaseResults, s.Phase)
		round := s.Rounds[0]
		assert.Equal(t, map[string]string{"alice": "bob", "bob": "alice"}, round.Votes)
		assert.Equal(t, map[string]int{"alice": 1, "bob": 1}, round.Tally)
		assert.Empty(t, round.Winners)
	})

	t.Run("past rounds stay revealed", func(t *testing.T) {
		require.NoError(t, room.advanceRound())

		s := room.snapshot()
		require.Len(t, s.Rounds, 2)
		assert.Equal(t, 1, s.CurrentRound)
		assert.Len(t, s.Rounds[0].Submissions, 2)
		assert.Len(t, s.Rounds[0].Votes, 2)
		AssertSnapshotEq(t, RoundView{Index: 1, SubjectWord: "dragon"}, s.Rounds[1])
		assert.False(t, s.Players[0].HasSubmitted)
	})
}

func TestSnapshotIsACopy(t *testing.T) {
	t.Parallel()
	room, _ := newTestRoom(t, DefaultSettings(), 2)
	startTestGame(t, room)
	commitAll(t, room, submitAll(t, room))
	require.NoError(t, room.submitVote("alice", "bob"))
	require.NoError(t, room.submitVote("bob", "alice"))

	s := room.snapshot()
	s.Rounds[0].Votes["alice"] = "alice"
	s.Rounds[0].Tally["bob"] = 99
	assert.Equal(t, "bob", room.currentRound().votes["alice"])
	assert.Equal(t, 1, room.currentRound().result.Tally["bob"])
}
