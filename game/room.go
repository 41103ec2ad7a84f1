package game

import (
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const fallbackSubject = "mystery"

// RoomDeps are the room's non-game collaborators. Zero values get sane
// defaults.
type RoomDeps struct {
	Words       SubjectWordPicker
	Clock       func() time.Time
	NewPlayerID func() string
	Placeholder func(subjectWord string) string
}

// Room is the authoritative state of one game. It is not safe for concurrent
// use; its actor is the only caller.
type Room struct {
	// Identity / metadata
	code      string
	phase     Phase
	hostID    string
	createdAt time.Time
	settings  Settings

	// Players, in join order
	players []*Player

	// Rounds
	currentRoundIndex int
	rounds            []*Round
	subjects          []string

	// Timing
	deadline   time.Time
	emptySince time.Time
	finishedAt time.Time
	closed     bool

	// Collaborators
	words       SubjectWordPicker
	now         func() time.Time
	newPlayerID func() string
	placeholder func(string) string

	// Effects produced by the last handled event
	dirty  bool
	outbox []dataSendTask
	jobs   []artifactJob
}

// NewRoom builds a LOBBY room whose sole player and host is the creator.
func NewRoom(code, hostConnID string, host PlayerInfo, settings Settings, deps RoomDeps) (*Room, error) {
	info, err := normalizeInfo(host)
	if err != nil {
		return nil, err
	}
	r := &Room{
		code:        code,
		phase:       PhaseLobby,
		settings:    settings,
		players:     make([]*Player, 0, settings.MaxPlayers),
		words:       deps.Words,
		now:         deps.Clock,
		newPlayerID: deps.NewPlayerID,
		placeholder: deps.Placeholder,
	}
	if r.words == nil {
		r.words = NewWordBank(nil)
	}
	if r.now == nil {
		r.now = time.Now
	}
	if r.newPlayerID == nil {
		r.newPlayerID = uuid.NewString
	}
	if r.placeholder == nil {
		r.placeholder = func(string) string { return "" }
	}
	r.createdAt = r.now()

	p := r.addPlayer(hostConnID, info)
	r.hostID = p.id
	r.sendTo(p, MakeEventRoomCreated(r.code, p.id))
	r.dirty = true
	return r, nil
}

func normalizeInfo(info PlayerInfo) (PlayerInfo, error) {
	name := strings.TrimSpace(info.DisplayName)
	if name == "" || utf8.RuneCountInString(name) > MaxDisplayNameLength {
		return PlayerInfo{}, ErrInvalidName
	}
	avatar := strings.TrimSpace(info.Avatar)
	if utf8.RuneCountInString(avatar) > MaxAvatarLength {
		avatar = string([]rune(avatar)[:MaxAvatarLength])
	}
	return PlayerInfo{DisplayName: name, Avatar: avatar}, nil
}

func (r *Room) Code() string { return r.code }

func (r *Room) Phase() Phase { return r.phase }

func (r *Room) addPlayer(connID string, info PlayerInfo) *Player {
	p := &Player{
		id:          r.newPlayerID(),
		connID:      connID,
		displayName: info.DisplayName,
		avatar:      info.Avatar,
		connected:   true,
	}
	r.players = append(r.players, p)
	r.emptySince = time.Time{}
	return p
}

func (r *Room) dropOldestDisconnected() {
	for i, p := range r.players {
		if !p.connected {
			r.players = append(r.players[:i], r.players[i+1:]...)
			return
		}
	}
}

func (r *Room) player(id string) *Player {
	for _, p := range r.players {
		if p.id == id {
			return p
		}
	}
	return nil
}

func (r *Room) connectedCount() int {
	n := 0
	for _, p := range r.players {
		if p.connected {
			n++
		}
	}
	return n
}

func (r *Room) currentRound() *Round {
	if len(r.rounds) == 0 {
		return nil
	}
	return r.rounds[r.currentRoundIndex]
}

func (r *Room) join(connID string, info PlayerInfo) (*Player, error) {
	if r.phase != PhaseLobby {
		return nil, ErrGameAlreadyStarted
	}
	info, err := normalizeInfo(info)
	if err != nil {
		return nil, err
	}
	if r.connectedCount() >= r.settings.MaxPlayers {
		return nil, ErrRoomFull
	}
	// lobby churn leaves disconnected entries behind, keep the roster bounded
	if len(r.players) >= 2*r.settings.MaxPlayers {
		r.dropOldestDisconnected()
	}

	p := r.addPlayer(connID, info)
	if host := r.player(r.hostID); host == nil || !host.connected {
		r.hostID = p.id
	}
	r.sendTo(p, MakeEventRoomJoined(r.code, p.id))
	r.dirty = true
	log.Info().Str("room", r.code).Str("player", p.id).Str("name", p.displayName).Msg("player joined")
	return p, nil
}

func (r *Room) toggleReady(playerID string) error {
	p := r.player(playerID)
	if p == nil {
		return ErrUnknownPlayer
	}
	if r.phase != PhaseLobby {
		return ErrNotInLobby
	}
	p.ready = !p.ready
	r.dirty = true
	return nil
}

func (r *Room) startGame(requesterID string) error {
	if r.player(requesterID) == nil {
		return ErrUnknownPlayer
	}
	if r.phase != PhaseLobby {
		return ErrGameAlreadyStarted
	}
	if requesterID != r.hostID {
		return ErrNotHost
	}
	if r.connectedCount() < r.settings.MinPlayers {
		return ErrNotEnoughPlayers
	}
	for _, p := range r.players {
		if p.connected && !p.ready {
			return ErrNotAllReady
		}
	}

	r.subjects = r.pickSubjects()
	r.currentRoundIndex = 0
	r.rounds = append(r.rounds, newRound(r.subjects[0]))
	r.transition(PhaseCollecting)
	r.deadline = r.now().Add(r.settings.SubmissionDuration)
	return nil
}

func (r *Room) pickSubjects() []string {
	total := r.settings.TotalRounds
	picked := r.words.Pick(total)
	subjects := make([]string, 0, total)
	for _, w := range picked {
		if w = strings.TrimSpace(w); w != "" {
			subjects = append(subjects, w)
		}
	}
	if len(subjects) == 0 {
		subjects = append(subjects, fallbackSubject)
	}
	// cycle when the bank ran short
	for i := 0; len(subjects) < total; i++ {
		subjects = append(subjects, subjects[i])
	}
	return subjects[:total]
}

func (r *Room) submitPrompt(playerID, text string) error {
	p := r.player(playerID)
	if p == nil {
		return ErrUnknownPlayer
	}
	if r.phase != PhaseCollecting {
		return ErrWrongPhase
	}
	round := r.currentRound()
	if _, done := round.submissions[playerID]; done {
		return ErrAlreadySubmitted
	}
	text = strings.TrimSpace(text)
	if text == "" || utf8.RuneCountInString(text) > MaxPromptLength {
		return ErrInvalidPrompt
	}

	round.submissions[playerID] = text
	r.dirty = true
	if r.allSubmitted() {
		r.closeSubmissions()
	}
	return nil
}

func (r *Room) allSubmitted() bool {
	round := r.currentRound()
	for _, p := range r.players {
		if !p.connected {
			continue
		}
		if _, ok := round.submissions[p.id]; !ok {
			return false
		}
	}
	return true
}

// closeSubmissions freezes the round's submissions and queues one generation
// job per submission, in join order.
func (r *Room) closeSubmissions() {
	r.transition(PhaseGenerating)
	round := r.currentRound()
	for _, p := range r.players {
		text, ok := round.submissions[p.id]
		if !ok {
			continue
		}
		r.jobs = append(r.jobs, artifactJob{
			roundIndex:  r.currentRoundIndex,
			playerID:    p.id,
			subjectWord: round.subjectWord,
			text:        text,
		})
	}
	r.deadline = r.now().Add(r.settings.generationDeadline())
	if len(round.submissions) == 0 {
		r.beginVoting()
	}
}

func (r *Room) commitArtifact(res artifactResult) error {
	round := r.currentRound()
	if r.phase != PhaseGenerating || round == nil || res.roundIndex != r.currentRoundIndex {
		return ErrStaleResult
	}
	if _, submitted := round.submissions[res.playerID]; !submitted {
		return ErrStaleResult
	}
	if _, done := round.artifacts[res.playerID]; done {
		return ErrStaleResult
	}

	artifact := res.artifact
	if artifact == "" {
		artifact = r.placeholder(round.subjectWord)
	}
	round.artifacts[res.playerID] = artifact
	r.dirty = true
	if len(round.artifacts) == len(round.submissions) {
		r.beginVoting()
	}
	return nil
}

func (r *Room) beginVoting() {
	r.transition(PhaseVoting)
	r.deadline = r.now().Add(r.settings.VotingDuration)
	if r.votingComplete() {
		r.finishVoting()
	}
}

// hasTarget reports whether the player can cast a vote at all, i.e. someone
// else submitted this round.
func (r *Room) hasTarget(playerID string) bool {
	for author := range r.currentRound().submissions {
		if author != playerID {
			return true
		}
	}
	return false
}

func (r *Room) votingComplete() bool {
	round := r.currentRound()
	for _, p := range r.players {
		if !p.connected || !r.hasTarget(p.id) {
			continue
		}
		if _, voted := round.votes[p.id]; !voted {
			return false
		}
	}
	return true
}

func (r *Room) submitVote(voterID, targetID string) error {
	if r.player(voterID) == nil {
		return ErrUnknownPlayer
	}
	if r.phase != PhaseVoting {
		return ErrWrongPhase
	}
	if voterID == targetID {
		return ErrSelfVote
	}
	round := r.currentRound()
	if _, voted := round.votes[voterID]; voted {
		return ErrDuplicateVote
	}
	if _, ok := round.submissions[targetID]; !ok {
		return ErrUnknownTarget
	}

	round.votes[voterID] = targetID
	r.dirty = true
	if r.votingComplete() {
		r.finishVoting()
	}
	return nil
}

func (r *Room) finishVoting() {
	round := r.currentRound()
	tally := Tally(round.votes)
	winners := Winners(tally)
	points := 0
	if len(winners) > 0 {
		points = r.settings.RoundPoints
		for _, id := range winners {
			if p := r.player(id); p != nil {
				p.score += points
			}
		}
	}
	round.result = &RoundResult{Tally: tally, Winners: winners, Points: points}

	r.transition(PhaseResults)
	r.deadline = r.now().Add(r.settings.ResultsDuration)
	log.Info().Str("room", r.code).Int("round", r.currentRoundIndex).Strs("winners", winners).Msg("round scored")
}

func (r *Room) advanceRound() error {
	if r.phase != PhaseResults {
		return ErrNotInResults
	}
	if r.currentRoundIndex+1 < r.settings.TotalRounds {
		r.currentRoundIndex++
		r.rounds = append(r.rounds, newRound(r.subjects[r.currentRoundIndex]))
		r.transition(PhaseCollecting)
		r.deadline = r.now().Add(r.settings.SubmissionDuration)
		return nil
	}
	r.transition(PhaseFinished)
	r.finishedAt = r.now()
	r.deadline = time.Time{}
	return nil
}

// requestAdvance is the host skipping the results screen.
func (r *Room) requestAdvance(requesterID string) error {
	if r.player(requesterID) == nil {
		return ErrUnknownPlayer
	}
	if requesterID != r.hostID {
		return ErrNotHost
	}
	return r.advanceRound()
}

func (r *Room) handleDisconnect(playerID string) error {
	p := r.player(playerID)
	if p == nil {
		return ErrUnknownPlayer
	}
	if !p.connected {
		return nil
	}
	p.connected = false
	p.ready = false
	r.dirty = true
	log.Info().Str("room", r.code).Str("player", p.id).Msg("player disconnected")

	if r.hostID == p.id {
		r.transferHost()
	}

	if r.connectedCount() == 0 {
		r.emptySince = r.now()
		return nil
	}

	switch r.phase {
	case PhaseCollecting:
		if r.allSubmitted() {
			r.closeSubmissions()
		}
	case PhaseVoting:
		if r.votingComplete() {
			r.finishVoting()
		}
	}
	return nil
}

// transferHost hands host privileges to the next connected player after the
// current host in join order. With nobody connected the host stays put.
func (r *Room) transferHost() {
	start := 0
	for i, p := range r.players {
		if p.id == r.hostID {
			start = i
			break
		}
	}
	n := len(r.players)
	for step := 1; step < n; step++ {
		candidate := r.players[(start+step)%n]
		if candidate.connected {
			r.hostID = candidate.id
			log.Info().Str("room", r.code).Str("host", candidate.id).Msg("host transferred")
			return
		}
	}
}

// tick applies deadline-driven transitions and reports whether the room
// should be destroyed.
func (r *Room) tick(now time.Time) bool {
	if reason := r.expiryReason(now); reason != "" {
		r.close(reason)
		return true
	}
	if r.deadline.IsZero() || now.Before(r.deadline) {
		return false
	}

	switch r.phase {
	case PhaseCollecting:
		log.Info().Str("room", r.code).Msg("submission deadline passed")
		r.closeSubmissions()
	case PhaseGenerating:
		r.fillMissingArtifacts()
	case PhaseVoting:
		log.Info().Str("room", r.code).Msg("voting deadline passed")
		r.finishVoting()
	case PhaseResults:
		r.advanceRound()
	}
	return false
}

func (r *Room) fillMissingArtifacts() {
	round := r.currentRound()
	for _, p := range r.players {
		if _, submitted := round.submissions[p.id]; !submitted {
			continue
		}
		if _, done := round.artifacts[p.id]; done {
			continue
		}
		log.Warn().Str("room", r.code).Str("player", p.id).Msg("artifact still pending at deadline, using placeholder")
		round.artifacts[p.id] = r.placeholder(round.subjectWord)
	}
	r.dirty = true
	r.beginVoting()
}

func (r *Room) expiryReason(now time.Time) string {
	switch {
	case r.connectedCount() == 0 && !r.emptySince.IsZero() && now.Sub(r.emptySince) >= r.settings.IdleTimeout:
		return "idle"
	case r.phase == PhaseLobby && now.Sub(r.createdAt) >= r.settings.LobbyTimeout:
		return "lobby-timeout"
	case r.phase == PhaseFinished && now.Sub(r.finishedAt) >= r.settings.FinishedRetention:
		return "finished"
	}
	return ""
}

func (r *Room) close(reason string) {
	if r.closed {
		return
	}
	r.closed = true
	r.deadline = time.Time{}
	if to := r.connectedConns(); len(to) > 0 {
		r.outbox = append(r.outbox, dataSendTask{to: to, event: MakeEventRoomClosed(r.code, reason)})
	}
	log.Info().Str("room", r.code).Str("reason", reason).Msg("room closed")
}

func (r *Room) transition(to Phase) {
	if !r.phase.CanTransitionTo(to) {
		log.Error().Str("room", r.code).Stringer("from", r.phase).Stringer("to", to).Err(ErrBadPhaseEdge).Msg("refusing phase transition")
		return
	}
	log.Info().Str("room", r.code).Stringer("from", r.phase).Stringer("to", to).Int("round", r.currentRoundIndex).Msg("phase transition")
	r.phase = to
	r.dirty = true
}

func (r *Room) connectedConns() []string {
	conns := make([]string, 0, len(r.players))
	for _, p := range r.players {
		if p.connected {
			conns = append(conns, p.connID)
		}
	}
	return conns
}

func (r *Room) sendTo(p *Player, event OutboundEvent) {
	r.outbox = append(r.outbox, dataSendTask{to: []string{p.connID}, event: event})
}

// broadcastState queues one roomState for every connected player.
func (r *Room) broadcastState() {
	if to := r.connectedConns(); len(to) > 0 {
		r.outbox = append(r.outbox, dataSendTask{to: to, event: MakeEventRoomState(r.snapshot())})
	}
}

// drain hands the accumulated effects to the caller. A dirty room gets its
// single post-transition broadcast appended here.
func (r *Room) drain() ([]dataSendTask, []artifactJob) {
	if r.dirty && !r.closed {
		r.broadcastState()
	}
	r.dirty = false
	tasks, jobs := r.outbox, r.jobs
	r.outbox, r.jobs = nil, nil
	return tasks, jobs
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
