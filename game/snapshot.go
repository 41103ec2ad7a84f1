package game

type PlayerView struct {
	ID           string `json:"id"`
	DisplayName  string `json:"displayName"`
	Avatar       string `json:"avatar,omitempty"`
	Connected    bool   `json:"connected"`
	Ready        bool   `json:"ready"`
	Score        int    `json:"score"`
	IsHost       bool   `json:"isHost"`
	HasSubmitted bool   `json:"hasSubmitted"`
	HasVoted     bool   `json:"hasVoted"`
}

type SubmissionView struct {
	PlayerID string `json:"playerId"`
	Text     string `json:"text"`
	Artifact string `json:"artifact,omitempty"`
}

type RoundView struct {
	Index           int               `json:"index"`
	SubjectWord     string            `json:"subjectWord"`
	SubmissionCount int               `json:"submissionCount"`
	VoteCount       int               `json:"voteCount"`
	Submissions     []SubmissionView  `json:"submissions,omitempty"`
	Votes           map[string]string `json:"votes,omitempty"`
	Tally           map[string]int    `json:"tally,omitempty"`
	Winners         []string          `json:"winners,omitempty"`
	Points          int               `json:"points"`
}

// RoomSnapshot is the read-only projection sent to clients. Submission text
// stays hidden until COLLECTING ends and votes until VOTING ends.
type RoomSnapshot struct {
	Code         string       `json:"code"`
	Phase        Phase        `json:"phase"`
	HostID       string       `json:"hostId"`
	Players      []PlayerView `json:"players"`
	CurrentRound int          `json:"currentRound"`
	TotalRounds  int          `json:"totalRounds"`
	Deadline     int64        `json:"deadline,omitempty"`
	Rounds       []RoundView  `json:"rounds"`
}

func (r *Room) snapshot() RoomSnapshot {
	s := RoomSnapshot{
		Code:         r.code,
		Phase:        r.phase,
		HostID:       r.hostID,
		Players:      make([]PlayerView, 0, len(r.players)),
		CurrentRound: r.currentRoundIndex,
		TotalRounds:  r.settings.TotalRounds,
		Rounds:       make([]RoundView, 0, len(r.rounds)),
	}
	if !r.deadline.IsZero() {
		s.Deadline = r.deadline.UnixMilli()
	}

	current := r.currentRound()
	for _, p := range r.players {
		view := PlayerView{
			ID:          p.id,
			DisplayName: p.displayName,
			Avatar:      p.avatar,
			Connected:   p.connected,
			Ready:       p.ready,
			Score:       p.score,
			IsHost:      p.id == r.hostID,
		}
		if current != nil && r.phase != PhaseLobby {
			_, view.HasSubmitted = current.submissions[p.id]
			_, view.HasVoted = current.votes[p.id]
		}
		s.Players = append(s.Players, view)
	}

	for i, round := range r.rounds {
		live := i == r.currentRoundIndex && r.phase != PhaseFinished
		s.Rounds = append(s.Rounds, r.roundView(i, round, live))
	}
	return s
}

func (r *Room) roundView(index int, round *Round, live bool) RoundView {
	view := RoundView{
		Index:           index,
		SubjectWord:     round.subjectWord,
		SubmissionCount: len(round.submissions),
		VoteCount:       len(round.votes),
	}

	revealSubmissions := !live || r.phase != PhaseCollecting
	revealVotes := !live || r.phase == PhaseResults

	if revealSubmissions {
		for _, p := range r.players {
			text, ok := round.submissions[p.id]
			if !ok {
				continue
			}
			view.Submissions = append(view.Submissions, SubmissionView{
				PlayerID: p.id,
				Text:     text,
				Artifact: round.artifacts[p.id],
			})
		}
	}

	if revealVotes && round.result != nil {
		view.Votes = make(map[string]string, len(round.votes))
		for voter, target := range round.votes {
			view.Votes[voter] = target
		}
		view.Tally = make(map[string]int, len(round.result.Tally))
		for id, count := range round.result.Tally {
			view.Tally[id] = count
		}
		view.Winners = append([]string(nil), round.result.Winners...)
		view.Points = round.result.Points
	}
	return view
}
