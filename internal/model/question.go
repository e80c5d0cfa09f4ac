package model

// QuestionKind is the discriminator selecting the answer shape and validation
// rules of a questionnaire question.
type QuestionKind string

const (
	QuestionKindShortText    QuestionKind = "short_text"
	QuestionKindLongText     QuestionKind = "long_text"
	QuestionKindNumber       QuestionKind = "number"
	QuestionKindSlider       QuestionKind = "slider"
	QuestionKindSingleChoice QuestionKind = "single_choice"
	QuestionKindMultiChoice  QuestionKind = "multi_choice"
	QuestionKindMatrix       QuestionKind = "matrix"
	QuestionKindBoolean      QuestionKind = "boolean"
)

// Question is a single questionnaire entry as delivered by the hackathon backend.
// Kind-specific fields are only meaningful for the matching Kind.
type Question struct {
	ID          string       `json:"id"`
	Key         string       `json:"key"`
	Label       string       `json:"label"`
	Description string       `json:"description,omitempty"`
	Order       int          `json:"order"`
	Required    bool         `json:"required"`
	System      bool         `json:"system"`
	Kind        QuestionKind `json:"kind"`

	// short_text, long_text
	MaxLength *int `json:"max_length,omitempty"`

	// number (optional bounds), slider (required bounds)
	Min       *float64 `json:"min,omitempty"`
	Max       *float64 `json:"max,omitempty"`
	Step      *float64 `json:"step,omitempty"`
	ShowValue bool     `json:"show_value,omitempty"`

	// single_choice, multi_choice
	Options       []Option `json:"options,omitempty"`
	Randomize     bool     `json:"randomize,omitempty"`
	MaxSelections *int     `json:"max_selections,omitempty"`

	// matrix
	Rows []MatrixRow `json:"rows,omitempty"`
}

// Option is one selectable choice of a choice question.
type Option struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// MatrixRow is one numeric sub-row of a matrix question.
type MatrixRow struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// HasOption reports whether optionID is declared on the question.
func (q *Question) HasOption(optionID string) bool {
	for _, o := range q.Options {
		if o.ID == optionID {
			return true
		}
	}
	return false
}
