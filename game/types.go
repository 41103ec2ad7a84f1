package game

import (
	"fmt"
	"time"
)

const (
	MaxDisplayNameLength = 24
	MaxPromptLength      = 500
	MaxAvatarLength      = 64
)

// Settings are the per-room game rules. Every room created by a registry
// shares the registry's settings.
type Settings struct {
	MaxPlayers  int
	MinPlayers  int
	TotalRounds int
	RoundPoints int

	SubmissionDuration time.Duration
	GenerationTimeout  time.Duration
	VotingDuration     time.Duration
	ResultsDuration    time.Duration

	IdleTimeout       time.Duration
	LobbyTimeout      time.Duration
	FinishedRetention time.Duration
}

func DefaultSettings() Settings {
	return Settings{
		MaxPlayers:         8,
		MinPlayers:         2,
		TotalRounds:        3,
		RoundPoints:        1,
		SubmissionDuration: 60 * time.Second,
		GenerationTimeout:  20 * time.Second,
		VotingDuration:     30 * time.Second,
		ResultsDuration:    8 * time.Second,
		IdleTimeout:        2 * time.Minute,
		LobbyTimeout:       time.Hour,
		FinishedRetention:  5 * time.Minute,
	}
}

func (s Settings) Validate() error {
	switch {
	case s.MinPlayers < 2:
		return fmt.Errorf("min players must be at least 2")
	case s.MaxPlayers < s.MinPlayers:
		return fmt.Errorf("max players (%d) cannot be below min players (%d)", s.MaxPlayers, s.MinPlayers)
	case s.TotalRounds < 1:
		return fmt.Errorf("total rounds must be at least 1")
	case s.RoundPoints < 0:
		return fmt.Errorf("round points cannot be negative")
	case s.SubmissionDuration <= 0, s.VotingDuration <= 0, s.GenerationTimeout <= 0:
		return fmt.Errorf("phase durations must be positive")
	case s.ResultsDuration < 0, s.IdleTimeout < 0, s.LobbyTimeout < 0, s.FinishedRetention < 0:
		return fmt.Errorf("timeouts cannot be negative")
	}
	return nil
}

// generationDeadline bounds the whole GENERATING phase. Each call already
// has its own timeout, this only catches generators that ignore their
// context.
func (s Settings) generationDeadline() time.Duration {
	return s.GenerationTimeout + 5*time.Second
}

// PlayerInfo is what a participant supplies when creating or joining.
type PlayerInfo struct {
	DisplayName string `json:"displayName"`
	Avatar      string `json:"avatar"`
}

type Player struct {
	id          string
	connID      string
	displayName string
	avatar      string
	connected   bool
	ready       bool
	score       int
}

type RoundResult struct {
	Tally   map[string]int
	Winners []string
	Points  int
}

type Round struct {
	subjectWord string
	submissions map[string]string
	artifacts   map[string]string
	votes       map[string]string
	result      *RoundResult
}

func newRound(subject string) *Round {
	return &Round{
		subjectWord: subject,
		submissions: make(map[string]string),
		artifacts:   make(map[string]string),
		votes:       make(map[string]string),
	}
}

// dataSendTask is one outbound event addressed to a set of player ids.
type dataSendTask struct {
	to    []string
	event OutboundEvent
}

// artifactJob is everything a generation call needs, copied out of the room
// so the call can run without holding it.
type artifactJob struct {
	roundIndex  int
	playerID    string
	subjectWord string
	text        string
}

type artifactResult struct {
	roundIndex int
	playerID   string
	artifact   string
}
