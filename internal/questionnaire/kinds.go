package questionnaire

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/hackmate/hackathon-console/internal/model"
)

// kindSpec holds every kind-dependent decision of the engine. Adding a kind
// means adding one entry to kinds; nothing else switches on model.QuestionKind.
type kindSpec struct {
	// seed returns the default answer before any user interaction.
	seed func(q *model.Question) model.Answer
	// decode parses a JSON value sent by a client.
	decode func(q *model.Question, raw json.RawMessage) (model.Answer, error)
	// answered is the kind-specific "has a meaningful value" predicate.
	answered func(q *model.Question, a model.Answer) bool
	// check runs the kind rules after the required check passed. It returns
	// the first failing rule only.
	check func(q *model.Question, a model.Answer) *FieldError
	// fill writes the kind-appropriate value slots of a submission row.
	fill func(q *model.Question, a model.Answer, row *model.SubmissionRow)
	// fromRow rebuilds the answer carried by a submission row.
	fromRow func(q *model.Question, row model.SubmissionRow) model.Answer
}

var kinds = map[model.QuestionKind]kindSpec{
	model.QuestionKindShortText: {
		seed:     seedText,
		decode:   decodeText,
		answered: answeredText,
		check:    checkLength,
		fill:     fillText,
		fromRow:  textFromRow,
	},
	model.QuestionKindLongText: {
		seed:     seedText,
		decode:   decodeText,
		answered: answeredText,
		check:    checkLength,
		fill:     fillText,
		fromRow:  textFromRow,
	},
	model.QuestionKindNumber: {
		seed:     seedText,
		decode:   decodeNumberInput,
		answered: answeredText,
		check:    checkNumberInput,
		fill:     fillNumberInput,
		fromRow:  numberInputFromRow,
	},
	model.QuestionKindSlider: {
		seed:     seedSlider,
		decode:   decodeSlider,
		answered: func(_ *model.Question, a model.Answer) bool { return a.Number != nil },
		check:    noCheck,
		fill: func(_ *model.Question, a model.Answer, row *model.SubmissionRow) {
			row.Number = clonePtr(a.Number)
		},
		fromRow: func(_ *model.Question, row model.SubmissionRow) model.Answer {
			return model.Answer{Number: clonePtr(row.Number)}
		},
	},
	model.QuestionKindSingleChoice: {
		seed:     seedText,
		decode:   decodeSingleChoice,
		answered: answeredText,
		check:    noCheck,
		fill: func(_ *model.Question, a model.Answer, row *model.SubmissionRow) {
			if a.Text != "" {
				id := a.Text
				row.OptionID = &id
			}
		},
		fromRow: func(_ *model.Question, row model.SubmissionRow) model.Answer {
			if row.OptionID == nil {
				return model.Answer{}
			}
			return model.TextAnswer(*row.OptionID)
		},
	},
	model.QuestionKindMultiChoice: {
		seed:     func(*model.Question) model.Answer { return model.ChoicesAnswer() },
		decode:   decodeMultiChoice,
		answered: func(_ *model.Question, a model.Answer) bool { return len(a.Choices) > 0 },
		check:    checkSelectionCap,
		fill: func(_ *model.Question, a model.Answer, row *model.SubmissionRow) {
			row.OptionIDs = append([]string{}, a.Choices...)
		},
		fromRow: func(_ *model.Question, row model.SubmissionRow) model.Answer {
			return model.ChoicesAnswer(append([]string{}, row.OptionIDs...)...)
		},
	},
	model.QuestionKindMatrix: {
		seed:     func(*model.Question) model.Answer { return model.Answer{Matrix: map[string]float64{}} },
		decode:   decodeMatrix,
		answered: answeredMatrix,
		check:    noCheck,
		fill: func(_ *model.Question, a model.Answer, row *model.SubmissionRow) {
			row.Matrix = model.Answer{Matrix: a.Matrix}.Clone().Matrix
			if row.Matrix == nil {
				row.Matrix = map[string]float64{}
			}
		},
		fromRow: func(_ *model.Question, row model.SubmissionRow) model.Answer {
			return model.Answer{Matrix: row.Matrix}.Clone()
		},
	},
	model.QuestionKindBoolean: {
		seed:     func(*model.Question) model.Answer { return model.Answer{} },
		decode:   decodeBoolean,
		answered: func(_ *model.Question, a model.Answer) bool { return a.Bool != nil },
		check:    noCheck,
		fill: func(_ *model.Question, a model.Answer, row *model.SubmissionRow) {
			row.Bool = clonePtr(a.Bool)
		},
		fromRow: func(_ *model.Question, row model.SubmissionRow) model.Answer {
			return model.Answer{Bool: clonePtr(row.Bool)}
		},
	},
}

func specFor(q *model.Question) (kindSpec, error) {
	spec, ok := kinds[q.Kind]
	if !ok {
		return kindSpec{}, fmt.Errorf("question %q: %w %q", q.ID, ErrUnknownKind, q.Kind)
	}
	return spec, nil
}

// ─── Seeding ────────────────────────────────────────────────────────────

func seedText(*model.Question) model.Answer { return model.Answer{} }

// seedSlider starts the slider at the midpoint of its range, rounded half up
// to a whole unit.
func seedSlider(q *model.Question) model.Answer {
	var min, max float64
	if q.Min != nil {
		min = *q.Min
	}
	if q.Max != nil {
		max = *q.Max
	}
	return model.NumberAnswer(math.Floor((min+max)/2 + 0.5))
}

// ─── Answered predicates ────────────────────────────────────────────────

func answeredText(_ *model.Question, a model.Answer) bool {
	return strings.TrimSpace(a.Text) != ""
}

func answeredMatrix(q *model.Question, a model.Answer) bool {
	for _, r := range q.Rows {
		v, ok := a.Matrix[r.Key]
		if !ok || math.IsNaN(v) {
			return false
		}
	}
	return true
}

// ─── Kind rules ─────────────────────────────────────────────────────────

func noCheck(*model.Question, model.Answer) *FieldError { return nil }

func checkLength(q *model.Question, a model.Answer) *FieldError {
	if q.MaxLength != nil && utf8.RuneCountInString(a.Text) > *q.MaxLength {
		return tooLongError(q.ID, *q.MaxLength)
	}
	return nil
}

func checkNumberInput(q *model.Question, a model.Answer) *FieldError {
	raw := strings.TrimSpace(a.Text)
	if raw == "" {
		return nil
	}
	n, ok := parseFinite(raw)
	if !ok {
		return numericError(q.ID)
	}
	if q.Min != nil && n < *q.Min {
		return belowMinError(q.ID, *q.Min)
	}
	if q.Max != nil && n > *q.Max {
		return aboveMaxError(q.ID, *q.Max)
	}
	return nil
}

func checkSelectionCap(q *model.Question, a model.Answer) *FieldError {
	if q.MaxSelections != nil && len(a.Choices) > *q.MaxSelections {
		return tooManyChoicesError(q.ID, *q.MaxSelections)
	}
	return nil
}

// ─── Row building ───────────────────────────────────────────────────────

func fillText(_ *model.Question, a model.Answer, row *model.SubmissionRow) {
	text := a.Text
	row.Text = &text
}

func textFromRow(_ *model.Question, row model.SubmissionRow) model.Answer {
	if row.Text == nil {
		return model.Answer{}
	}
	return model.TextAnswer(*row.Text)
}

func fillNumberInput(_ *model.Question, a model.Answer, row *model.SubmissionRow) {
	if n, ok := parseFinite(strings.TrimSpace(a.Text)); ok {
		row.Number = &n
	}
}

func numberInputFromRow(_ *model.Question, row model.SubmissionRow) model.Answer {
	if row.Number == nil {
		return model.Answer{}
	}
	return model.TextAnswer(formatNumber(*row.Number))
}

// ─── Decoding ───────────────────────────────────────────────────────────

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

func decodeText(_ *model.Question, raw json.RawMessage) (model.Answer, error) {
	if isNull(raw) {
		return model.Answer{}, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return model.Answer{}, fmt.Errorf("%w: expected a string", ErrInvalidValue)
	}
	return model.TextAnswer(s), nil
}

// decodeNumberInput keeps the raw text so that unparseable input survives
// until validation reports it.
func decodeNumberInput(q *model.Question, raw json.RawMessage) (model.Answer, error) {
	if isNull(raw) {
		return model.Answer{}, nil
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return model.TextAnswer(formatNumber(n)), nil
	}
	return decodeText(q, raw)
}

func decodeSlider(_ *model.Question, raw json.RawMessage) (model.Answer, error) {
	if isNull(raw) || bytes.Equal(bytes.TrimSpace(raw), []byte(`""`)) {
		return model.Answer{}, nil
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err != nil {
		return model.Answer{}, fmt.Errorf("%w: expected a number", ErrInvalidValue)
	}
	return model.NumberAnswer(n), nil
}

func decodeSingleChoice(q *model.Question, raw json.RawMessage) (model.Answer, error) {
	a, err := decodeText(q, raw)
	if err != nil {
		return a, err
	}
	if a.Text != "" && !q.HasOption(a.Text) {
		return model.Answer{}, fmt.Errorf("%w %q", ErrUnknownOption, a.Text)
	}
	return a, nil
}

func decodeMultiChoice(q *model.Question, raw json.RawMessage) (model.Answer, error) {
	if isNull(raw) {
		return model.ChoicesAnswer(), nil
	}
	var ids []string
	if err := json.Unmarshal(raw, &ids); err != nil {
		return model.Answer{}, fmt.Errorf("%w: expected a list of option ids", ErrInvalidValue)
	}
	seen := make(map[string]struct{}, len(ids))
	choices := make([]string, 0, len(ids))
	for _, id := range ids {
		if !q.HasOption(id) {
			return model.Answer{}, fmt.Errorf("%w %q", ErrUnknownOption, id)
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		choices = append(choices, id)
	}
	return model.ChoicesAnswer(choices...), nil
}

func decodeMatrix(q *model.Question, raw json.RawMessage) (model.Answer, error) {
	if isNull(raw) {
		return model.Answer{Matrix: map[string]float64{}}, nil
	}
	var values map[string]float64
	if err := json.Unmarshal(raw, &values); err != nil {
		return model.Answer{}, fmt.Errorf("%w: expected an object of numbers", ErrInvalidValue)
	}
	known := make(map[string]struct{}, len(q.Rows))
	for _, r := range q.Rows {
		known[r.Key] = struct{}{}
	}
	for k := range values {
		if _, ok := known[k]; !ok {
			return model.Answer{}, fmt.Errorf("%w: unknown row %q", ErrInvalidValue, k)
		}
	}
	if values == nil {
		values = map[string]float64{}
	}
	return model.Answer{Matrix: values}, nil
}

func decodeBoolean(_ *model.Question, raw json.RawMessage) (model.Answer, error) {
	if isNull(raw) {
		return model.Answer{}, nil
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err != nil {
		return model.Answer{}, fmt.Errorf("%w: expected a boolean", ErrInvalidValue)
	}
	return model.BoolAnswer(b), nil
}

// ─── Helpers ────────────────────────────────────────────────────────────

func parseFinite(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
