package service

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/nqkhanh/edutest/config"
	"github.com/nqkhanh/edutest/internal/apperr"
	"github.com/nqkhanh/edutest/internal/dto"
	"github.com/nqkhanh/edutest/internal/model"
	"github.com/nqkhanh/edutest/internal/repository"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"
)

// EssayReviewer drafts a suggested score and feedback for one essay answer.
// Suggestions are advisory; grades are only ever written through ManualGrade.
type EssayReviewer interface {
	ScoreAndFeedback(question *model.Question, answer string) (feedback string, score int, err error)
}

type geminiReviewer struct {
	client *genai.GenerativeModel
}

func NewEssayReviewer(cfg *config.Config) (EssayReviewer, error) {
	if cfg.GeminiApiKey == "" {
		log.Warn().Msg("GEMINI_API_KEY is not set. Essay review suggestions will be unavailable.")
		return &geminiReviewer{client: nil}, nil
	}
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GeminiApiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Gemini client: %w", err)
	}
	return &geminiReviewer{client: client.GenerativeModel("gemini-1.5-flash")}, nil
}

func parseScoreAndFeedback(raw string) (scoreStr string, feedback string, err error) {
	scorePrefix := "Score:"
	feedbackPrefix := "Feedback:"

	scoreIndex := strings.Index(raw, scorePrefix)
	if scoreIndex == -1 {
		return "", raw, fmt.Errorf("response does not contain 'Score:' prefix")
	}

	endOfScoreLine := strings.Index(raw[scoreIndex:], "\n")
	if endOfScoreLine == -1 {
		scoreStr = strings.TrimSpace(raw[scoreIndex+len(scorePrefix):])
	} else {
		scoreStr = strings.TrimSpace(raw[scoreIndex+len(scorePrefix) : scoreIndex+endOfScoreLine])
	}
	if parts := strings.Fields(scoreStr); len(parts) > 0 {
		scoreStr = parts[0]
	}

	feedbackIndex := strings.Index(raw, feedbackPrefix)
	if feedbackIndex != -1 && feedbackIndex > scoreIndex {
		feedback = strings.TrimSpace(raw[feedbackIndex+len(feedbackPrefix):])
	} else if endOfScoreLine != -1 {
		feedback = strings.TrimSpace(raw[scoreIndex+endOfScoreLine+1:])
	}
	return scoreStr, feedback, nil
}

func (g *geminiReviewer) ScoreAndFeedback(question *model.Question, answer string) (string, int, error) {
	if g.client == nil {
		return "", 0, fmt.Errorf("gemini client not initialized")
	}

	var prompt strings.Builder
	prompt.WriteString("You are an experienced teacher grading a student's essay answer on a written test.\n\n")
	prompt.WriteString("Essay Question:\n---\n")
	prompt.WriteString(question.Prompt)
	prompt.WriteString("\n---\n\nStudent's Answer:\n---\n")
	prompt.WriteString(answer)
	prompt.WriteString("\n---\n\n")
	prompt.WriteString("Evaluate the answer for relevance to the question, accuracy of content, clarity of argument, and completeness.\n")
	prompt.WriteString(fmt.Sprintf(`Format your response strictly as:
Score: [an integer from 0 to %d]
Feedback:
[Your feedback: strengths, specific weaknesses, and how the answer could be improved]
`, question.Points))

	resp, err := g.client.GenerateContent(context.Background(), genai.Text(prompt.String()))
	if err != nil {
		log.Error().Err(err).Uint("questionID", question.ID).Msg("Gemini API error during essay review")
		return "", 0, err
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", 0, fmt.Errorf("gemini returned no content")
	}

	raw := ""
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			raw += string(txt)
		}
	}
	if raw == "" {
		return "", 0, fmt.Errorf("gemini returned no text content")
	}

	scoreStr, feedback, err := parseScoreAndFeedback(raw)
	if err != nil {
		log.Warn().Err(err).Str("rawResponse", raw).Msg("Failed to parse essay review response")
		return "", 0, err
	}
	parsed, err := strconv.ParseFloat(scoreStr, 64)
	if err != nil {
		return "", 0, fmt.Errorf("could not parse score value %q from AI response", scoreStr)
	}

	score := int(math.Round(parsed))
	if score > question.Points {
		score = question.Points
	}
	if score < 0 {
		score = 0
	}
	return feedback, score, nil
}

// ReviewAssistService produces AI-drafted grading suggestions for the essay
// answers of a submitted attempt.
type ReviewAssistService interface {
	SuggestEssayGrades(adminID, resultID uint) ([]dto.EssayReviewSuggestionDTO, error)
}

type reviewAssistService struct {
	resultRepo repository.ResultRepository
	reviewer   EssayReviewer
}

func NewReviewAssistService(resultRepo repository.ResultRepository, reviewer EssayReviewer) ReviewAssistService {
	return &reviewAssistService{resultRepo: resultRepo, reviewer: reviewer}
}

func (s *reviewAssistService) SuggestEssayGrades(adminID, resultID uint) ([]dto.EssayReviewSuggestionDTO, error) {
	result, err := s.resultRepo.FindByIDWithDetails(resultID)
	if err != nil {
		return nil, fmt.Errorf("%w: result not found", apperr.ErrNotFound)
	}
	if result.Test.CreatedByID != adminID {
		return nil, fmt.Errorf("%w: not authorized to review this result", apperr.ErrForbidden)
	}
	if result.Status == model.StatusInProgress {
		return nil, fmt.Errorf("%w: attempt has not been submitted yet", apperr.ErrInvalid)
	}

	answersByQuestion := make(map[uint]string, len(result.Answers))
	for _, a := range result.Answers {
		answersByQuestion[a.QuestionID] = a.Value
	}

	suggestions := []dto.EssayReviewSuggestionDTO{}
	for i := range result.Test.Questions {
		q := &result.Test.Questions[i]
		if q.Type != model.QuestionEssay {
			continue
		}
		answer, ok := answersByQuestion[q.ID]
		if !ok || strings.TrimSpace(answer) == "" {
			continue
		}

		feedback, score, err := s.reviewer.ScoreAndFeedback(q, answer)
		if err != nil {
			log.Warn().Err(err).Uint("questionID", q.ID).Uint("resultID", resultID).
				Msg("SuggestEssayGrades: skipping question, reviewer failed")
			continue
		}
		suggestions = append(suggestions, dto.EssayReviewSuggestionDTO{
			QuestionID:      q.ID,
			Prompt:          q.Prompt,
			Answer:          answer,
			SuggestedPoints: score,
			MaxPoints:       q.Points,
			Feedback:        feedback,
		})
	}
	return suggestions, nil
}
