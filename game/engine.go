package game

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"

	"github.com/brainduel/gameserver/logger"
	"github.com/brainduel/gameserver/models"
	"github.com/brainduel/gameserver/network"
	"github.com/brainduel/gameserver/room"
	"github.com/brainduel/gameserver/session"
)

// ErrRoomNotJoinable is returned when a join hits a missing, full, or
// already started room.
var ErrRoomNotJoinable = errors.New("room not found or full")

// Power-up kinds as they appear on the wire.
const (
	PowerUpFiftyFifty = "fiftyFifty"
	PowerUpFreeze     = "freeze"
	PowerUpDouble     = "double"
)

const (
	basePoints       = 100
	maxTimeBonus     = 50
	streakBonusStep  = 20
	defaultFreezeDur = 3 * time.Second
)

// Engine owns all room and player mutation. Every operation resolves the
// room by code, takes that room's lock, and runs to completion, so
// mutation within one room is serialized while rooms stay independent.
type Engine struct {
	rooms       *room.Manager
	source      QuestionSource
	broadcaster room.Broadcaster
	freeze      time.Duration

	// OnGenerationFallback is invoked when the reserve question set
	// substitutes a failed generation. Wired to metrics by the server.
	OnGenerationFallback func()
}

func NewEngine(rooms *room.Manager, source QuestionSource, broadcaster room.Broadcaster, freeze time.Duration) *Engine {
	if freeze <= 0 {
		freeze = defaultFreezeDur
	}
	return &Engine{
		rooms:       rooms,
		source:      source,
		broadcaster: broadcaster,
		freeze:      freeze,
	}
}

// CreateRoom allocates a room with the requesting session as host and
// acknowledges with the room code.
func (e *Engine) CreateRoom(sess *session.Session, req models.CreateRoomRequest) *room.Room {
	topic := req.Topic
	if topic == "" {
		topic = "General"
	}
	name := req.Username
	if name == "" {
		name = "Host"
	}
	avatar := req.Avatar
	if avatar == "" {
		avatar = "😀"
	}

	sess.Name = name
	sess.Avatar = avatar

	host := room.NewPlayer(sess, name, avatar)
	r := e.rooms.CreateRoom(topic, req.GameMode, host, e.broadcaster)

	sess.Send(network.EventRoomCreated, r.Code)
	logger.Log.Infof("Room %s created by %s (mode: %s)", r.Code, name, r.GameMode)
	return r
}

// JoinRoom seats the session as guest and starts the game: the room
// flips to playing and both identities are recorded before the
// generation call goes out, so racing submissions hit the readiness gate
// and are ignored.
func (e *Engine) JoinRoom(ctx context.Context, sess *session.Session, req models.JoinRoomRequest) error {
	name := req.Username
	if name == "" {
		name = "Guest"
	}
	avatar := req.Avatar
	if avatar == "" {
		avatar = "😀"
	}

	r, ok := e.rooms.GetRoom(req.RoomCode)
	if !ok {
		return ErrRoomNotJoinable
	}

	sess.Name = name
	sess.Avatar = avatar
	guest := room.NewPlayer(sess, name, avatar)

	r.Lock()
	if r.Status != room.StatusWaiting || !r.SeatGuest(guest) {
		r.Unlock()
		return ErrRoomNotJoinable
	}
	r.Status = room.StatusPlaying
	r.Touch()
	r.Unlock()

	logger.Log.Infof("Game started in room %s: %s vs %s (%s)",
		r.Code, r.Host().Name, name, r.GameMode)

	e.startGame(ctx, r)
	return nil
}

// startGame announces the match and installs a fresh question batch,
// then deals each player their first question. Generation runs without
// the room lock; the room is not answerable until the batch lands.
func (e *Engine) startGame(ctx context.Context, r *room.Room) {
	host, guest := r.Host(), r.Guest()
	r.Broadcast(network.EventGameStart, models.GameStartPayload{
		RoomCode:        r.Code,
		Topic:           r.Topic,
		GameMode:        r.GameMode,
		TimePerQuestion: r.TimePerQuestion,
		Names:           models.NamePair{Host: host.Name, Guest: guest.Name},
		Avatars:         models.NamePair{Host: host.Avatar, Guest: guest.Avatar},
	})

	questions, err := e.source.Generate(ctx, r.Topic, r.QuestionCount)
	if err != nil {
		logger.Log.Warnf("Question generation failed for room %s, using reserve set: %v", r.Code, err)
		questions = reserveQuestions()
		if e.OnGenerationFallback != nil {
			e.OnGenerationFallback()
		}
	}

	r.Lock()
	defer r.Unlock()
	r.SetQuestions(questions)
	for _, p := range r.Players() {
		e.sendNextQuestionLocked(r, p)
	}
}

// SubmitAnswer scores one answer for the submitting player and advances
// their independent cursor. The opponent is never blocked on it.
func (e *Engine) SubmitAnswer(sess *session.Session, req models.SubmitAnswerRequest) {
	r, ok := e.rooms.GetRoom(req.RoomCode)
	if !ok {
		return
	}

	r.Lock()
	defer r.Unlock()
	r.Touch()

	if r.Status != room.StatusPlaying || !r.Ready() {
		return
	}
	p, ok := r.PlayerByID(sess.ID)
	if !ok || p.Done() {
		return
	}

	now := time.Now()
	if p.Frozen(now) {
		sess.Send(network.EventStillFrozen, nil)
		return
	}
	p.FrozenUntil = time.Time{}

	if p.QuestionIndex >= len(r.Questions) {
		return
	}
	q := r.Questions[p.QuestionIndex]

	correct := req.AnswerIndex == q.CorrectIndex
	timeRemaining := math.Max(0, req.TimeRemaining)
	timeUsed := float64(r.TimePerQuestion) - timeRemaining
	p.AnswerTimes = append(p.AnswerTimes, timeUsed)
	p.TotalTime += timeUsed

	points := 0
	if correct {
		p.CorrectAnswers++

		timeBonus := int(math.Round(timeRemaining * (maxTimeBonus / float64(r.TimePerQuestion))))
		points = basePoints + timeBonus + p.Streak*streakBonusStep
		if p.DoubleActive {
			points *= 2
			p.DoubleActive = false
		}

		p.Score += points
		p.Streak++
		if p.Streak > p.BestStreak {
			p.BestStreak = p.Streak
		}
	} else {
		p.Streak = 0
		// A pending double is consumed even on a miss.
		p.DoubleActive = false

		if r.GameMode == "sudden_death" {
			p.Status = room.PlayerEliminated
			sess.Send(network.EventEliminated, nil)
			// The survivor wins by default; if both are out the game is
			// over anyway. Either way this answer is terminal and the
			// cursor does not advance.
			e.endGameLocked(r)
			return
		}
	}

	sess.Send(network.EventAnswerResult, models.AnswerResultPayload{
		IsCorrect:    correct,
		CorrectIndex: q.CorrectIndex,
		Points:       points,
		Streak:       p.Streak,
		Stats: models.AnswerStats{
			CorrectAnswers: p.CorrectAnswers,
			AvgTime:        p.AvgTime(),
			BestStreak:     p.BestStreak,
		},
	})

	p.QuestionIndex++

	e.broadcastScoresLocked(r)

	if p.QuestionIndex >= len(r.Questions) {
		p.Status = room.PlayerFinished
		sess.Send(network.EventPlayerFinished, nil)

		if e.allDoneLocked(r) {
			e.endGameLocked(r)
		} else if opp := r.Opponent(p); opp != nil {
			opp.Session.Send(network.EventOpponentFinished, models.OpponentFinishedPayload{
				OpponentName: p.Name,
			})
		}
		return
	}

	e.sendNextQuestionLocked(r, p)
}

// UsePowerUp resolves a power-up against the player's current question.
// Each charge is single-use and only spendable while still playing.
func (e *Engine) UsePowerUp(sess *session.Session, req models.PowerUpRequest) {
	r, ok := e.rooms.GetRoom(req.RoomCode)
	if !ok {
		return
	}

	r.Lock()
	defer r.Unlock()
	r.Touch()

	if r.Status != room.StatusPlaying || !r.Ready() {
		return
	}
	p, ok := r.PlayerByID(sess.ID)
	if !ok || p.Done() {
		return
	}
	if p.QuestionIndex >= len(r.Questions) {
		return
	}
	q := r.Questions[p.QuestionIndex]

	switch req.Type {
	case PowerUpFiftyFifty:
		if p.PowerUps.FiftyFifty <= 0 {
			return
		}
		p.PowerUps.FiftyFifty--

		var wrong []int
		for i := range q.Options {
			if i != q.CorrectIndex {
				wrong = append(wrong, i)
			}
		}
		rand.Shuffle(len(wrong), func(i, j int) {
			wrong[i], wrong[j] = wrong[j], wrong[i]
		})
		eliminated := wrong[:2]

		sess.Send(network.EventPowerUpResult, models.PowerUpResultPayload{
			Type:              PowerUpFiftyFifty,
			EliminatedIndices: eliminated,
			Remaining:         p.PowerUps.FiftyFifty,
		})

	case PowerUpFreeze:
		if p.PowerUps.Freeze <= 0 {
			return
		}
		p.PowerUps.Freeze--

		// Re-freezing overwrites the deadline, it does not stack.
		if opp := r.Opponent(p); opp != nil {
			opp.FrozenUntil = time.Now().Add(e.freeze)
			opp.Session.Send(network.EventFrozen, models.FrozenPayload{
				DurationMS: e.freeze.Milliseconds(),
			})
		}

		sess.Send(network.EventPowerUpResult, models.PowerUpResultPayload{
			Type:      PowerUpFreeze,
			Remaining: p.PowerUps.Freeze,
		})

	case PowerUpDouble:
		if p.PowerUps.Double <= 0 {
			return
		}
		p.PowerUps.Double--
		p.DoubleActive = true

		sess.Send(network.EventPowerUpResult, models.PowerUpResultPayload{
			Type:      PowerUpDouble,
			Remaining: p.PowerUps.Double,
		})
	}
}

// SendReaction relays a reaction to the other occupant. No state change.
func (e *Engine) SendReaction(sess *session.Session, req models.ReactionRequest) {
	r, ok := e.rooms.GetRoom(req.RoomCode)
	if !ok {
		return
	}
	p, ok := r.PlayerByID(sess.ID)
	if !ok {
		return
	}
	if opp := r.Opponent(p); opp != nil {
		opp.Session.Send(network.EventReactionReceived, req.Type)
	}
}

// SendChat relays a chat line with the sender's display name. No state
// change.
func (e *Engine) SendChat(sess *session.Session, req models.ChatRequest) {
	r, ok := e.rooms.GetRoom(req.RoomCode)
	if !ok {
		return
	}
	p, ok := r.PlayerByID(sess.ID)
	if !ok {
		return
	}
	if opp := r.Opponent(p); opp != nil {
		opp.Session.Send(network.EventChatReceived, models.ChatReceivedPayload{
			Message: req.Message,
			From:    p.Name,
		})
	}
}

// RequestRematch records the request and, once both occupants have asked,
// resets the room and deals a fresh game.
func (e *Engine) RequestRematch(ctx context.Context, sess *session.Session, req models.RematchRequest) {
	r, ok := e.rooms.GetRoom(req.RoomCode)
	if !ok {
		return
	}

	r.Lock()
	r.Touch()
	p, found := r.PlayerByID(sess.ID)
	if !found {
		r.Unlock()
		return
	}

	r.RematchRequests[sess.ID] = struct{}{}
	opp := r.Opponent(p)

	start := len(r.RematchRequests) >= 2
	if start {
		r.RematchRequests = make(map[string]struct{})
		for _, pl := range r.Players() {
			pl.ResetForRematch()
		}
		r.Status = room.StatusPlaying
		r.ClearQuestions()
	}
	r.Unlock()

	if opp != nil {
		opp.Session.Send(network.EventRematchRequested, nil)
	}

	if start {
		logger.Log.Infof("Starting rematch in room %s", r.Code)
		e.startGame(ctx, r)
	}
}

// sendNextQuestionLocked deals the player's current question privately,
// with progress and power-up context. Callers hold the room lock.
func (e *Engine) sendNextQuestionLocked(r *room.Room, p *room.Player) {
	if p.Eliminated() || p.QuestionIndex >= len(r.Questions) {
		return
	}
	p.Session.Send(network.EventNewQuestion, models.NewQuestionPayload{
		Question:       r.Questions[p.QuestionIndex],
		TotalQuestions: len(r.Questions),
		CurrentIndex:   p.QuestionIndex + 1,
		TimeLimit:      r.TimePerQuestion,
		PowerUps:       p.PowerUps,
	})
}

func (e *Engine) broadcastScoresLocked(r *room.Room) {
	var payload models.ScoreUpdatePayload
	if host := r.Host(); host != nil {
		payload.Score.Host = host.Score
		payload.Streaks.Host = host.Streak
	}
	if guest := r.Guest(); guest != nil {
		payload.Score.Guest = guest.Score
		payload.Streaks.Guest = guest.Streak
	}
	r.Broadcast(network.EventScoreUpdate, payload)
}

func (e *Engine) allDoneLocked(r *room.Room) bool {
	for _, p := range r.Players() {
		if !p.Done() {
			return false
		}
	}
	return true
}

// endGameLocked broadcasts the terminal aggregate and closes the room to
// further submissions. Callers hold the room lock.
func (e *Engine) endGameLocked(r *room.Room) {
	if r.Status == room.StatusFinished {
		return
	}

	payload := models.GameOverPayload{}
	if host := r.Host(); host != nil {
		payload.Scores.Host = host.Score
		payload.Stats.Host = finalStats(host)
	}
	if guest := r.Guest(); guest != nil {
		payload.Scores.Guest = guest.Score
		payload.Stats.Guest = finalStats(guest)
	}

	r.Broadcast(network.EventGameOver, payload)
	r.Status = room.StatusFinished
	logger.Log.Infof("Game over in room %s", r.Code)
}

func finalStats(p *room.Player) models.PlayerFinalStats {
	return models.PlayerFinalStats{
		CorrectAnswers: p.CorrectAnswers,
		TotalQuestions: p.QuestionIndex,
		AvgTime:        math.Round(p.AvgTime()*10) / 10,
		BestStreak:     p.BestStreak,
		Eliminated:     p.Eliminated(),
	}
}
