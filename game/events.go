package game

import (
	"encoding/json"

	"github.com/Devraj-sh/Promptbattle/evaluator"
)

// Inbound event names
const (
	EventCreateRoom     = "createRoom"
	EventJoinRoom       = "joinRoom"
	EventGetRoomData    = "getRoomData"
	EventToggleReady    = "toggleReady"
	EventStartGame      = "startGame"
	EventSubmitPrompt   = "submitPrompt"
	EventSubmitVote     = "submitVote"
	EventAdvanceRound   = "advanceRound"
	EventLeaveRoom      = "leaveRoom"
	EventEvaluatePrompt = "evaluatePrompt"
)

// Outbound event names
const (
	EventConnected   = "connected"
	EventRoomCreated = "roomCreated"
	EventRoomJoined  = "roomJoined"
	EventRoomState   = "roomState"
	EventRoomData    = "roomData"
	EventRoomClosed  = "roomClosed"
	EventEvaluation  = "evaluation"
	EventError       = "error"
)

type InboundEvent struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Decode unmarshals the payload into v. A missing payload decodes as {}.
func (e InboundEvent) Decode(v any) error {
	if len(e.Data) == 0 || string(e.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(e.Data, v); err != nil {
		return ErrBadPayload
	}
	return nil
}

type OutboundEvent struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

func (e OutboundEvent) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

type joinRoomPayload struct {
	RoomCode    string `json:"roomCode"`
	DisplayName string `json:"displayName"`
	Avatar      string `json:"avatar"`
}

type getRoomDataPayload struct {
	RoomCode string `json:"roomCode"`
}

type submitPromptPayload struct {
	Text string `json:"text"`
}

type submitVotePayload struct {
	TargetPlayerID string `json:"targetPlayerId"`
}

type evaluatePromptPayload struct {
	Text      string `json:"text"`
	Challenge string `json:"challenge"`
	LevelID   *int   `json:"levelId,omitempty"`
}

type membershipPayload struct {
	RoomCode string `json:"roomCode"`
	PlayerID string `json:"playerId"`
}

type roomClosedPayload struct {
	RoomCode string `json:"roomCode"`
	Reason   string `json:"reason"`
}

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
}

func MakeEventConnected(connID string) OutboundEvent {
	return OutboundEvent{Event: EventConnected, Data: map[string]string{"connectionId": connID}}
}

func MakeEventRoomCreated(code, playerID string) OutboundEvent {
	return OutboundEvent{Event: EventRoomCreated, Data: membershipPayload{RoomCode: code, PlayerID: playerID}}
}

func MakeEventRoomJoined(code, playerID string) OutboundEvent {
	return OutboundEvent{Event: EventRoomJoined, Data: membershipPayload{RoomCode: code, PlayerID: playerID}}
}

func MakeEventRoomState(snapshot RoomSnapshot) OutboundEvent {
	return OutboundEvent{Event: EventRoomState, Data: snapshot}
}

func MakeEventRoomData(snapshot RoomSnapshot) OutboundEvent {
	return OutboundEvent{Event: EventRoomData, Data: snapshot}
}

func MakeEventRoomClosed(code, reason string) OutboundEvent {
	return OutboundEvent{Event: EventRoomClosed, Data: roomClosedPayload{RoomCode: code, Reason: reason}}
}

func MakeEventEvaluation(score evaluator.Score) OutboundEvent {
	return OutboundEvent{Event: EventEvaluation, Data: score}
}

func MakeEventError(err error) OutboundEvent {
	payload := errorPayload{Code: CodeOf(err)}
	if KindOf(err) == KindCollaborator {
		payload.Message = "try again"
	}
	return OutboundEvent{Event: EventError, Data: payload}
}
