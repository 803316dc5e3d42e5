package room

import (
	"time"

	"github.com/brainduel/gameserver/models"
	"github.com/brainduel/gameserver/session"
)

// PlayerStatus is a player's position in the game lifecycle. Eliminated
// implies finished; both are terminal.
type PlayerStatus int

const (
	PlayerActive PlayerStatus = iota
	PlayerFinished
	PlayerEliminated
)

// Player is one participant's game state within a room. All mutable
// fields are guarded by the owning room's lock.
type Player struct {
	Session *session.Session
	Name    string
	Avatar  string

	Status        PlayerStatus
	QuestionIndex int

	Score          int
	Streak         int
	BestStreak     int
	CorrectAnswers int

	TotalTime   float64
	AnswerTimes []float64

	PowerUps     models.PowerUps
	DoubleActive bool
	FrozenUntil  time.Time
}

func NewPlayer(sess *session.Session, name, avatar string) *Player {
	p := &Player{
		Session: sess,
		Name:    name,
		Avatar:  avatar,
	}
	p.resetGameState()
	return p
}

// Done reports whether the player can no longer answer (finished or
// eliminated).
func (p *Player) Done() bool {
	return p.Status != PlayerActive
}

func (p *Player) Eliminated() bool {
	return p.Status == PlayerEliminated
}

// Frozen reports whether a freeze power-up is still blocking the player.
func (p *Player) Frozen(now time.Time) bool {
	return !p.FrozenUntil.IsZero() && now.Before(p.FrozenUntil)
}

// AvgTime is the mean answer time, 0 when nothing was answered.
func (p *Player) AvgTime() float64 {
	if len(p.AnswerTimes) == 0 {
		return 0
	}
	return p.TotalTime / float64(len(p.AnswerTimes))
}

// ResetForRematch restores every mutable field to its start-of-game value.
// Identity (session, name, avatar) survives.
func (p *Player) ResetForRematch() {
	p.resetGameState()
}

func (p *Player) resetGameState() {
	p.Status = PlayerActive
	p.QuestionIndex = 0
	p.Score = 0
	p.Streak = 0
	p.BestStreak = 0
	p.CorrectAnswers = 0
	p.TotalTime = 0
	p.AnswerTimes = nil
	p.PowerUps = models.PowerUps{FiftyFifty: 1, Freeze: 1, Double: 1}
	p.DoubleActive = false
	p.FrozenUntil = time.Time{}
}
