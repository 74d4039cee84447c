package db

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/mindcare-id/mindcare/internal/services"
)

type seedQuestion struct {
	text     string
	category services.Category
}

// The standard DASS-21 item set, seven items per subscale.
var dassQuestions = []seedQuestion{
	{"I found it hard to wind down", services.CategoryStress},
	{"I tended to over-react to situations", services.CategoryStress},
	{"I felt that I was using a lot of nervous energy", services.CategoryStress},
	{"I found myself getting agitated", services.CategoryStress},
	{"I found it difficult to relax", services.CategoryStress},
	{"I was intolerant of anything that kept me from getting on with what I was doing", services.CategoryStress},
	{"I felt that I was rather touchy", services.CategoryStress},

	{"I was aware of dryness of my mouth", services.CategoryAnxiety},
	{"I experienced breathing difficulty (e.g. excessively rapid breathing, breathlessness in the absence of physical exertion)", services.CategoryAnxiety},
	{"I experienced trembling (e.g. in the hands)", services.CategoryAnxiety},
	{"I was worried about situations in which I might panic and make a fool of myself", services.CategoryAnxiety},
	{"I felt I was close to panic", services.CategoryAnxiety},
	{"I felt scared without any good reason", services.CategoryAnxiety},
	{"I felt my heart absent or missing a beat", services.CategoryAnxiety},

	{"I couldn't seem to experience any positive feeling at all", services.CategoryDepression},
	{"I found it difficult to work up the initiative to do things", services.CategoryDepression},
	{"I felt that I had nothing to look forward to", services.CategoryDepression},
	{"I felt down-hearted and blue", services.CategoryDepression},
	{"I was unable to become enthusiastic about anything", services.CategoryDepression},
	{"I felt I wasn't worth much as a person", services.CategoryDepression},
	{"I felt that life was meaningless", services.CategoryDepression},
}

// SeedQuestions populates the question bank with the DASS-21 items when the
// bank is empty. An already-populated bank, including one the counselors have
// edited down, is left alone.
func (s *SQLiteStore) SeedQuestions() error {
	n, err := s.CountQuestions()
	if err != nil {
		return fmt.Errorf("count questions: %w", err)
	}
	if n > 0 {
		return nil
	}
	for i, sq := range dassQuestions {
		q := &services.Question{
			ID:       fmt.Sprintf("dass%02d", i+1),
			Text:     sq.text,
			Category: sq.category,
			Order:    i + 1,
		}
		if err := s.InsertQuestion(q); err != nil {
			return fmt.Errorf("seed question %d: %w", i+1, err)
		}
	}
	s.log.Info("seeded question bank", zap.Int("questions", len(dassQuestions)))
	return nil
}
