package game

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWinners(t *testing.T) {
	t.Parallel()
	testCases := []struct {
		desc  string
		votes map[string]string
		want  []string
	}{
		{desc: "no votes", votes: map[string]string{}, want: nil},
		{desc: "unique top", votes: map[string]string{"a": "b", "c": "b", "b": "a"}, want: []string{"b"}},
		{desc: "full tie", votes: map[string]string{"a": "b", "b": "a"}, want: nil},
		{desc: "tie for the top", votes: map[string]string{"a": "b", "b": "c", "c": "a", "d": "b", "e": "c"}, want: nil},
		{desc: "single vote", votes: map[string]string{"a": "b"}, want: []string{"b"}},
	}
	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			assert.Equal(t, tc.want, Winners(Tally(tc.votes)))
		})
	}
}

func TestTally(t *testing.T) {
	t.Parallel()
	assert.Equal(t, map[string]int{"b": 2, "a": 1}, Tally(map[string]string{"a": "b", "c": "b", "b": "a"}))
	assert.Empty(t, Tally(nil))
}

func TestPhaseGraph(t *testing.T) {
	t.Parallel()
	all := []Phase{PhaseLobby, PhaseCollecting, PhaseGenerating, PhaseVoting, PhaseResults, PhaseFinished}
	allowed := map[[2]Phase]bool{
		{PhaseLobby, PhaseCollecting}:      true,
		{PhaseCollecting, PhaseGenerating}: true,
		{PhaseGenerating, PhaseVoting}:     true,
		{PhaseVoting, PhaseResults}:        true,
		{PhaseResults, PhaseCollecting}:    true,
		{PhaseResults, PhaseFinished}:      true,
	}
	for _, from := range all {
		assert.True(t, from.Valid())
		for _, to := range all {
			assert.Equal(t, allowed[[2]Phase{from, to}], from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}
	assert.False(t, Phase(42).Valid())
	assert.Equal(t, "Phase(42)", Phase(42).String())
}

func TestPhaseJSON(t *testing.T) {
	t.Parallel()
	data, err := json.Marshal(map[string]Phase{"phase": PhaseVoting})
	require.NoError(t, err)
	assert.JSONEq(t, `{"phase":"VOTING"}`, string(data))

	var decoded map[string]Phase
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, PhaseVoting, decoded["phase"])

	_, err = json.Marshal(Phase(9))
	assert.Error(t, err)
	assert.Error(t, json.Unmarshal([]byte(`"NAPPING"`), new(Phase)))
}

func TestErrorKinds(t *testing.T) {
	t.Parallel()
	assert.Equal(t, KindValidation, KindOf(ErrWrongPhase))
	assert.Equal(t, KindResourceExhaustion, KindOf(ErrCodeSpaceExhausted))
	assert.Equal(t, KindCollaborator, KindOf(ErrEvaluationFailed))
	assert.Equal(t, KindConsistency, KindOf(ErrStaleResult))
	assert.Equal(t, KindConsistency, KindOf(assert.AnError))
	assert.Equal(t, "unknown-error", CodeOf(assert.AnError))
	assert.Equal(t, "room-full", CodeOf(ErrRoomFull))

	event := MakeEventError(ErrEvaluationFailed)
	assert.Equal(t, errorPayload{Code: "evaluation-failed", Message: "try again"}, event.Data)
	event = MakeEventError(ErrSelfVote)
	assert.Equal(t, errorPayload{Code: "self-vote"}, event.Data)
}
