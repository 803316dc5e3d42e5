package models

// Question is one generated multiple-choice question. The slice a room
// holds is shared by both players and never mutated during a game.
type Question struct {
	Question     string   `json:"question"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correctIndex"`
}

// Valid reports whether a generated question is playable: exactly four
// options and an in-range answer index.
func (q Question) Valid() bool {
	return len(q.Options) == 4 && q.CorrectIndex >= 0 && q.CorrectIndex < 4
}

// PowerUps is a player's remaining charges per kind.
type PowerUps struct {
	FiftyFifty int `json:"fiftyFifty"`
	Freeze     int `json:"freeze"`
	Double     int `json:"double"`
}

// --- inbound payloads ---

type CreateRoomRequest struct {
	Topic    string `json:"topic"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
	GameMode string `json:"gameMode"`
}

type JoinRoomRequest struct {
	RoomCode string `json:"roomCode"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
}

type PowerUpRequest struct {
	RoomCode string `json:"roomCode"`
	Type     string `json:"type"`
}

type SubmitAnswerRequest struct {
	RoomCode      string  `json:"roomCode"`
	AnswerIndex   int     `json:"answerIndex"`
	TimeRemaining float64 `json:"timeRemaining"`
}

type ReactionRequest struct {
	RoomCode string `json:"roomCode"`
	Type     string `json:"type"`
}

type ChatRequest struct {
	RoomCode string `json:"roomCode"`
	Message  string `json:"message"`
}

type RematchRequest struct {
	RoomCode string `json:"roomCode"`
}

// --- outbound payloads ---

type NamePair struct {
	Host  string `json:"host"`
	Guest string `json:"guest"`
}

type ScorePair struct {
	Host  int `json:"host"`
	Guest int `json:"guest"`
}

type GameStartPayload struct {
	RoomCode        string   `json:"roomCode"`
	Topic           string   `json:"topic"`
	GameMode        string   `json:"gameMode"`
	TimePerQuestion int      `json:"timePerQuestion"`
	Names           NamePair `json:"names"`
	Avatars         NamePair `json:"avatars"`
}

type NewQuestionPayload struct {
	Question
	TotalQuestions int      `json:"totalQuestions"`
	CurrentIndex   int      `json:"currentIndex"`
	TimeLimit      int      `json:"timeLimit"`
	PowerUps       PowerUps `json:"powerUps"`
}

type AnswerStats struct {
	CorrectAnswers int     `json:"correctAnswers"`
	AvgTime        float64 `json:"avgTime"`
	BestStreak     int     `json:"bestStreak"`
}

type AnswerResultPayload struct {
	IsCorrect    bool        `json:"isCorrect"`
	CorrectIndex int         `json:"correctIndex"`
	Points       int         `json:"points"`
	Streak       int         `json:"streak"`
	Stats        AnswerStats `json:"stats"`
}

type ScoreUpdatePayload struct {
	Score   ScorePair `json:"score"`
	Streaks ScorePair `json:"streaks"`
}

type OpponentFinishedPayload struct {
	OpponentName string `json:"opponentName"`
}

type PlayerFinalStats struct {
	CorrectAnswers int     `json:"correctAnswers"`
	TotalQuestions int     `json:"totalQuestions"`
	AvgTime        float64 `json:"avgTime"`
	BestStreak     int     `json:"bestStreak"`
	Eliminated     bool    `json:"eliminated"`
}

type FinalStatsPair struct {
	Host  PlayerFinalStats `json:"host"`
	Guest PlayerFinalStats `json:"guest"`
}

type GameOverPayload struct {
	Scores ScorePair      `json:"scores"`
	Stats  FinalStatsPair `json:"stats"`
}

type PowerUpResultPayload struct {
	Type              string `json:"type"`
	EliminatedIndices []int  `json:"eliminatedIndices,omitempty"`
	Remaining         int    `json:"remaining"`
}

type FrozenPayload struct {
	DurationMS int64 `json:"duration"`
}

type ChatReceivedPayload struct {
	Message string `json:"message"`
	From    string `json:"from"`
}
