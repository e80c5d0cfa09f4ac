package model

// Answer holds the live value of one question. Which field is in use is decided
// by the question kind:
//   - short_text, long_text, number, single_choice: Text
//   - slider: Number (nil means no value)
//   - multi_choice: Choices
//   - matrix: Matrix
//   - boolean: Bool (nil means no value)
type Answer struct {
	Text    string             `json:"text,omitempty"`
	Number  *float64           `json:"number,omitempty"`
	Bool    *bool              `json:"bool,omitempty"`
	Choices []string           `json:"choices,omitempty"`
	Matrix  map[string]float64 `json:"matrix,omitempty"`
}

// TextAnswer builds an Answer for the text-backed kinds.
func TextAnswer(s string) Answer { return Answer{Text: s} }

// NumberAnswer builds an Answer for slider questions.
func NumberAnswer(n float64) Answer { return Answer{Number: &n} }

// BoolAnswer builds an Answer for boolean questions.
func BoolAnswer(b bool) Answer { return Answer{Bool: &b} }

// ChoicesAnswer builds an Answer for multi choice questions.
func ChoicesAnswer(ids ...string) Answer {
	if ids == nil {
		ids = []string{}
	}
	return Answer{Choices: ids}
}

// Clone returns a deep copy of the answer.
func (a Answer) Clone() Answer {
	out := Answer{Text: a.Text}
	if a.Number != nil {
		n := *a.Number
		out.Number = &n
	}
	if a.Bool != nil {
		b := *a.Bool
		out.Bool = &b
	}
	if a.Choices != nil {
		out.Choices = append([]string{}, a.Choices...)
	}
	if a.Matrix != nil {
		out.Matrix = make(map[string]float64, len(a.Matrix))
		for k, v := range a.Matrix {
			out.Matrix[k] = v
		}
	}
	return out
}

// SubmissionRow is the normalized, backend-ready representation of one
// question's answer. It is built only at submit time.
type SubmissionRow struct {
	QuestionID string             `json:"question_id"`
	Kind       QuestionKind       `json:"kind"`
	Key        string             `json:"key"`
	Text       *string            `json:"value_text,omitempty"`
	Number     *float64           `json:"value_number,omitempty"`
	Bool       *bool              `json:"value_bool,omitempty"`
	OptionID   *string            `json:"option_id,omitempty"`
	OptionIDs  []string           `json:"option_ids,omitempty"`
	Matrix     map[string]float64 `json:"value_matrix,omitempty"`
}

// SubmitResponsesRequest is the payload sent to the hackathon backend when a
// participant completes the registration questionnaire.
type SubmitResponsesRequest struct {
	ParticipantID string          `json:"participant_id"`
	Rows          []SubmissionRow `json:"responses"`
}
