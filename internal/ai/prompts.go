package ai

import (
	"encoding/json"
	"fmt"
	"strings"
)

// System instructions for the three exam-facing generation tasks.
const (
	clarificationSystem = "You are an academic assistant helping students with test questions. " +
		"Provide clear, helpful responses to clarifying questions about academic tasks. " +
		"Keep responses concise but informative. Use markdown formatting for better readability."

	followUpSystem = "You are an academic test generator. Based on the original question, " +
		"generate 2 follow-up questions that build upon the same theme but explore different aspects. " +
		"Each follow-up should be answerable in 10 minutes and 250 words. " +
		"Return only the questions, one per line."

	gradingSystem = "You are an expert academic grader. Grade the student's answer to the given " +
		"question on a scale of 0-25 points. Consider accuracy, depth of analysis, use of evidence, " +
		"and clarity of argument. Respond with ONLY a JSON object of the form " +
		`{"score": <int 0-25>, "summary": "<string>", "strengths": ["<string>"], "improvements": ["<string>"]}` +
		" and no other text."
)

// FollowUpCount is the fixed number of lazily generated follow-up prompts.
const FollowUpCount = 2

// defaultFollowUps is the canned pair used when generation fails or
// returns an unusable shape. Restores the exam to a working three-question
// state instead of blocking progression on the upstream.
var defaultFollowUps = []string{
	"Based on your previous analysis, what alternative outcomes might have occurred if different conditions were present?",
	"How might the concepts you discussed apply to a different time period or geographical region?",
}

// ClarificationPrompt builds the user prompt for a clarification turn.
func ClarificationPrompt(question, taskContext string) (prompt, system string) {
	return fmt.Sprintf("Task context: %s\n\nStudent question: %s", taskContext, question), clarificationSystem
}

// FollowUpPrompt builds the user prompt for follow-up generation.
func FollowUpPrompt(seedQuestion string) (prompt, system string) {
	return fmt.Sprintf(
		"Original question: %s\n\nGenerate 2 follow-up questions that explore related but different aspects of this topic.",
		seedQuestion,
	), followUpSystem
}

// GradingPrompt builds the user prompt for grading one answer.
func GradingPrompt(question, answer string) (prompt, system string) {
	return fmt.Sprintf(
		"Question: %s\n\nStudent Answer: %s\n\nProvide a score from 0-25 points.",
		question, answer,
	), gradingSystem
}

// ParseFollowUps extracts exactly FollowUpCount questions from raw model
// output. Any unusable shape degrades to the canned defaults.
func ParseFollowUps(raw string) []string {
	var questions []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "0123456789.)- ")
		if line == "" {
			continue
		}
		questions = append(questions, line)
		if len(questions) == FollowUpCount {
			break
		}
	}

	if len(questions) != FollowUpCount {
		return DefaultFollowUps()
	}
	return questions
}

// DefaultFollowUps returns a copy of the canned follow-up pair.
func DefaultFollowUps() []string {
	out := make([]string, len(defaultFollowUps))
	copy(out, defaultFollowUps)
	return out
}

// Grade is the structured result of grading one answer.
type Grade struct {
	Score        int      `json:"score"`
	Summary      string   `json:"summary"`
	Strengths    []string `json:"strengths"`
	Improvements []string `json:"improvements"`
}

// ParseGrade decodes a grading response, tolerating markdown code fences,
// and clamps the score into [0, maxScore] defensively regardless of what
// the model returned.
func ParseGrade(raw string, maxScore int) (Grade, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var g Grade
	if err := json.Unmarshal([]byte(cleaned), &g); err != nil {
		return Grade{}, fmt.Errorf("decode grade: %w", err)
	}

	g.Score = ClampScore(g.Score, maxScore)
	return g, nil
}

// ClampScore bounds a score into [0, maxScore].
func ClampScore(score, maxScore int) int {
	if score < 0 {
		return 0
	}
	if score > maxScore {
		return maxScore
	}
	return score
}
