package catalog

import (
	"errors"
	"fmt"
)

// Question is a single questionnaire item. Option A always counts toward
// the first letter of the dimension, option B toward the second.
type Question struct {
	ID        int    `json:"id"`
	Title     string `json:"title"`
	Dimension string `json:"dimension"`
	OptionA   string `json:"option_a"`
	OptionB   string `json:"option_b"`
}

// Answer is one submitted choice for a question.
type Answer struct {
	QuestionID int    `json:"question_id"`
	Selected   string `json:"selected"`
}

// ErrInvalidSubmission marks submissions that fail shape validation.
var ErrInvalidSubmission = errors.New("catalog: invalid submission")

var questions = []Question{
	{ID: 1, Dimension: "EI", Title: "When it's time for a walk?",
		OptionA: "Bolts out the door immediately", OptionB: "Thinks it over for a moment first"},
	{ID: 2, Dimension: "EI", Title: "Meeting a stranger?",
		OptionA: "Approaches them eagerly", OptionB: "Watches carefully from a distance"},
	{ID: 3, Dimension: "EI", Title: "Given a new toy?",
		OptionA: "Starts playing with it right away", OptionB: "Sniffs it thoroughly first"},
	{ID: 4, Dimension: "SN", Title: "Play style at the park?",
		OptionA: "Explores everywhere", OptionB: "Stays close to the owner"},
	{ID: 5, Dimension: "SN", Title: "In a new environment?",
		OptionA: "Explores with curiosity", OptionB: "Waits until it feels familiar"},
	{ID: 6, Dimension: "SN", Title: "How does playtime go?",
		OptionA: "A new game every time", OptionB: "Repeats a favorite game"},
	{ID: 7, Dimension: "TF", Title: "During training?",
		OptionA: "Focuses on the treats", OptionB: "Focuses on the praise"},
	{ID: 8, Dimension: "TF", Title: "When the owner is sad?",
		OptionA: "Brings over a toy", OptionB: "Quietly stays close"},
	{ID: 9, Dimension: "TF", Title: "Facing a problem?",
		OptionA: "Looks for a way to solve it", OptionB: "Watches the owner's reaction"},
	{ID: 10, Dimension: "JP", Title: "Daily routine?",
		OptionA: "Different every day", OptionB: "Sticks to a schedule"},
	{ID: 11, Dimension: "JP", Title: "Learning a new command?",
		OptionA: "Tries things spontaneously", OptionB: "Learns step by step"},
	{ID: 12, Dimension: "JP", Title: "Playtime?",
		OptionA: "Wants to play any time", OptionB: "Prefers set play times"},
}

// Questions returns the twelve questionnaire items in order.
func Questions() []Question {
	out := make([]Question, len(questions))
	copy(out, questions)
	return out
}

// Score turns a full set of answers into a four-letter Pawna code.
// Exactly twelve answers are required, each with a known question id and
// a selection of "A" or "B". Per dimension the majority letter wins and
// ties fall to the B side, so all-A scores WTIL and all-B scores DILP.
func Score(answers []Answer) (string, error) {
	if len(answers) != len(questions) {
		return "", fmt.Errorf("%w: expected %d answers, got %d", ErrInvalidSubmission, len(questions), len(answers))
	}

	counts := map[byte]int{}
	for _, a := range answers {
		if a.QuestionID < 1 || a.QuestionID > len(questions) {
			return "", fmt.Errorf("%w: unknown question id %d", ErrInvalidSubmission, a.QuestionID)
		}
		dim := questions[a.QuestionID-1].Dimension
		switch a.Selected {
		case "A":
			counts[dim[0]]++
		case "B":
			counts[dim[1]]++
		default:
			return "", fmt.Errorf("%w: selection must be A or B, got %q", ErrInvalidSubmission, a.Selected)
		}
	}

	code := make([]byte, 0, 4)
	code = append(code, pick(counts, 'E', 'I', 'W', 'D'))
	code = append(code, pick(counts, 'S', 'N', 'T', 'I'))
	code = append(code, pick(counts, 'T', 'F', 'I', 'L'))
	code = append(code, pick(counts, 'J', 'P', 'L', 'P'))
	return string(code), nil
}

func pick(counts map[byte]int, first, second, firstCode, secondCode byte) byte {
	if counts[first] > counts[second] {
		return firstCode
	}
	return secondCode
}
