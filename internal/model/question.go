package model

// Choice identifies one of the four answer options.
type Choice string

const (
	ChoiceA Choice = "A"
	ChoiceB Choice = "B"
	ChoiceC Choice = "C"
	ChoiceD Choice = "D"
)

// Choices lists the valid option ids in display order.
var Choices = [4]Choice{ChoiceA, ChoiceB, ChoiceC, ChoiceD}

// Valid reports whether c is one of A, B, C or D.
func (c Choice) Valid() bool {
	switch c {
	case ChoiceA, ChoiceB, ChoiceC, ChoiceD:
		return true
	}
	return false
}

// Option is one labeled choice of a question.
type Option struct {
	ID          Choice `json:"id"`
	Text        string `json:"text"`
	Description string `json:"description,omitempty"`
}

// Question is a question as seen by the exam runtime. The answer key is
// deliberately absent; Ordinal is the only correlation key for scoring.
type Question struct {
	Ordinal int      `json:"ordinal"`
	Prompt  string   `json:"prompt"`
	Options []Option `json:"options"`
}

// QuestionRecord is a stored question including its answer key.
type QuestionRecord struct {
	ID      int
	Prompt  string
	ChoiceA string
	ChoiceB string
	ChoiceC string
	ChoiceD string
	Answer  Choice
}

// Public strips the answer key and assigns the 1-based ordinal.
func (q *QuestionRecord) Public(ordinal int) Question {
	return Question{
		Ordinal: ordinal,
		Prompt:  q.Prompt,
		Options: []Option{
			{ID: ChoiceA, Text: q.ChoiceA},
			{ID: ChoiceB, Text: q.ChoiceB},
			{ID: ChoiceC, Text: q.ChoiceC},
			{ID: ChoiceD, Text: q.ChoiceD},
		},
	}
}

// SeedQuestion is one entry of the question seed file.
type SeedQuestion struct {
	Question string `json:"question"`
	ChoiceA  string `json:"choiceA"`
	ChoiceB  string `json:"choiceB"`
	ChoiceC  string `json:"choiceC"`
	ChoiceD  string `json:"choiceD"`
	Answer   Choice `json:"answer"`
}
