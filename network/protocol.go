package network

// Inbound events (client -> server).
const (
	EventCreateRoom     = "create_room"
	EventJoinRoom       = "join_room"
	EventUsePowerUp     = "use_powerup"
	EventSubmitAnswer   = "submit_answer"
	EventSendReaction   = "send_reaction"
	EventSendChat       = "send_chat"
	EventRequestRematch = "request_rematch"
)

// Outbound events (server -> client).
const (
	EventRoomCreated      = "room_created"
	EventGameStart        = "game_start"
	EventNewQuestion      = "new_question"
	EventAnswerResult     = "answer_result"
	EventScoreUpdate      = "score_update"
	EventPlayerFinished   = "player_finished"
	EventOpponentFinished = "opponent_finished"
	EventGameOver         = "game_over"
	EventReactionReceived = "reaction_received"
	EventChatReceived     = "chat_received"
	EventRematchRequested = "rematch_requested"
	EventPowerUpResult    = "powerup_result"
	EventFrozen           = "frozen"
	EventStillFrozen      = "still_frozen"
	EventEliminated       = "eliminated"
	EventError            = "error"
)
