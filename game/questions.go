package game

import (
	"context"

	"github.com/brainduel/gameserver/models"
)

// QuestionSource produces a batch of questions for a topic. Implemented
// by genai.Client; any error makes the engine fall back to the reserve
// set so a game can always start.
type QuestionSource interface {
	Generate(ctx context.Context, topic string, count int) ([]models.Question, error)
}

// reserveQuestions is the fixed fallback batch used when generation
// fails. Availability over quality: a short degraded game beats no game.
func reserveQuestions() []models.Question {
	return []models.Question{
		{
			Question:     "What is the capital of France?",
			Options:      []string{"Lyon", "Paris", "Marseille", "Nice"},
			CorrectIndex: 1,
		},
		{
			Question:     "What is 7 x 8?",
			Options:      []string{"54", "56", "58", "64"},
			CorrectIndex: 1,
		},
	}
}
