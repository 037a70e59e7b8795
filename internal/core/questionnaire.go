package core

import (
	"fmt"
	"strconv"
	"strings"

	"healthtrack-bot/pkg"
)

// answerMax is the highest accepted answer value; every item is answered on
// a 0..answerMax scale.
const answerMax = 4

// checkinQuestions is the fixed wellbeing check-in served by /checkin. Each
// item asks for a 0-4 rating, so the total score ranges over [0, 24].
var checkinQuestions = []pkg.Question{
	{Ordinal: 0, Prompt: "Over the last week, how would you rate your overall energy? (0 = none, 4 = excellent)"},
	{Ordinal: 1, Prompt: "How well have you been sleeping? (0 = very poorly, 4 = very well)"},
	{Ordinal: 2, Prompt: "How would you rate your appetite? (0 = very poor, 4 = very good)"},
	{Ordinal: 3, Prompt: "How often did you feel calm and relaxed? (0 = never, 4 = all the time)"},
	{Ordinal: 4, Prompt: "How much physical discomfort or pain did you have? (0 = constant, 4 = none)"},
	{Ordinal: 5, Prompt: "How active were you (walks, exercise, daily movement)? (0 = not at all, 4 = very active)"},
}

// checkinBands partitions [0, 24] into feedback ranges. Bands are checked in
// ascending order and the first inclusive match wins.
var checkinBands = []pkg.ScoreBand{
	{Min: 0, Max: 8, Feedback: "Your wellbeing score is on the low side. Consider discussing how you feel with a healthcare professional."},
	{Min: 9, Max: 16, Feedback: "Your wellbeing score is moderate. Keep an eye on sleep, activity and stress over the coming week."},
	{Min: 17, Max: 24, Feedback: "Your wellbeing score looks good. Keep up whatever you are doing!"},
}

// Questionnaire is the stateless definition of the question sequence,
// validation rule and scoring table. It is shared read-only by all sessions.
type Questionnaire struct {
	questions []pkg.Question
	bands     []pkg.ScoreBand
}

// NewQuestionnaire returns the built-in wellbeing check-in.
func NewQuestionnaire() *Questionnaire {
	return &Questionnaire{questions: checkinQuestions, bands: checkinBands}
}

// NewQuestionnaireFrom builds a questionnaire from an explicit question
// sequence and band table.
func NewQuestionnaireFrom(questions []pkg.Question, bands []pkg.ScoreBand) *Questionnaire {
	return &Questionnaire{questions: questions, bands: bands}
}

// Questions returns the ordered question sequence.
func (q *Questionnaire) Questions() []pkg.Question { return q.questions }

// Len returns the number of questions.
func (q *Questionnaire) Len() int { return len(q.questions) }

// Question returns the question at the given 0-based index.
func (q *Questionnaire) Question(index int) (pkg.Question, bool) {
	if index < 0 || index >= len(q.questions) {
		return pkg.Question{}, false
	}
	return q.questions[index], true
}

// ValidateAnswer parses raw as an integer answer for the question at the
// given index and returns the normalized value, or ErrValidation if the
// input is not a whole number within [0, 4].
func (q *Questionnaire) ValidateAnswer(index int, raw string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a whole number", ErrValidation, raw)
	}
	if v < 0 || v > answerMax {
		return 0, fmt.Errorf("%w: %d is outside [0, %d]", ErrValidation, v, answerMax)
	}
	return v, nil
}

// Score sums the accepted answers and resolves the matching feedback band.
// A score that no band covers is an authoring bug in the band table and is
// reported as ErrConfiguration; callers must fall back to a generic message
// rather than surface it.
func (q *Questionnaire) Score(answers []pkg.Answer) (pkg.QuestionnaireResult, error) {
	total := 0
	for _, a := range answers {
		total += a.Value
	}
	for _, b := range q.bands {
		if total >= b.Min && total <= b.Max {
			return pkg.QuestionnaireResult{
				Total:    total,
				Max:      answerMax * len(q.questions),
				Feedback: b.Feedback,
				Answers:  answers,
			}, nil
		}
	}
	return pkg.QuestionnaireResult{}, fmt.Errorf("%w: score %d", ErrConfiguration, total)
}
