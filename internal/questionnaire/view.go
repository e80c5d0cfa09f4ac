package questionnaire

import (
	"hash/fnv"
	"math/rand/v2"

	"github.com/hackmate/hackathon-console/internal/model"
)

// View is the render model of a questionnaire session. It is derived from
// the engine state on every call and holds no state of its own.
type View struct {
	Index     int           `json:"index"`
	Total     int           `json:"total"`
	IsFirst   bool          `json:"is_first"`
	IsLast    bool          `json:"is_last"`
	Question  *QuestionView `json:"question,omitempty"`
	Nav       []NavItem     `json:"nav"`
	Progress  Progress      `json:"progress"`
	CanSubmit bool          `json:"can_submit"`
	Status    Status        `json:"status"`
	Message   string        `json:"message,omitempty"`
	Errors    []FieldError  `json:"errors,omitempty"`
}

// QuestionView is the question under the cursor with its live value.
type QuestionView struct {
	model.Question
	Options  []OptionView `json:"options,omitempty"`
	Value    model.Answer `json:"value"`
	Answered bool         `json:"answered"`
	Error    *FieldError  `json:"error,omitempty"`
}

// OptionView is one choice control in display order.
type OptionView struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	Selected bool   `json:"selected"`
	Disabled bool   `json:"disabled"`
}

// NavItem is one entry of the side navigation.
type NavItem struct {
	Index      int    `json:"index"`
	QuestionID string `json:"question_id"`
	Label      string `json:"label"`
	Required   bool   `json:"required"`
	Answered   bool   `json:"answered"`
	Current    bool   `json:"current"`
	HasError   bool   `json:"has_error"`
}

// View renders the current state.
func (e *Engine) View() View {
	e.clampIndex()

	v := View{
		Index:     e.index,
		Total:     len(e.questions),
		IsFirst:   e.IsFirst(),
		IsLast:    e.IsLast(),
		Nav:       make([]NavItem, 0, len(e.questions)),
		Progress:  e.Progress(),
		CanSubmit: e.CanSubmit() && e.status != StatusSubmitting && e.status != StatusSuccess,
		Status:    e.status,
		Message:   e.Message(),
		Errors:    e.Errors(),
	}

	for i := range e.questions {
		q := &e.questions[i]
		_, hasErr := e.errors[q.ID]
		v.Nav = append(v.Nav, NavItem{
			Index:      i,
			QuestionID: q.ID,
			Label:      q.Label,
			Required:   q.Required,
			Answered:   kinds[q.Kind].answered(q, e.answers[q.ID]),
			Current:    i == e.index,
			HasError:   hasErr,
		})
	}

	if q, ok := e.Current(); ok {
		v.Question = e.questionView(&q)
	}
	return v
}

func (e *Engine) questionView(q *model.Question) *QuestionView {
	a := e.answers[q.ID]
	qv := &QuestionView{
		Question: *q,
		Value:    a.Clone(),
		Answered: kinds[q.Kind].answered(q, a),
	}
	qv.Question.Options = nil
	if fe, ok := e.errors[q.ID]; ok {
		qv.Error = &fe
	}

	if len(q.Options) == 0 {
		return qv
	}

	selected := make(map[string]bool)
	switch q.Kind {
	case model.QuestionKindSingleChoice:
		if a.Text != "" {
			selected[a.Text] = true
		}
	case model.QuestionKindMultiChoice:
		for _, id := range a.Choices {
			selected[id] = true
		}
	}
	capReached := q.Kind == model.QuestionKindMultiChoice &&
		q.MaxSelections != nil && len(a.Choices) >= *q.MaxSelections

	for _, o := range e.displayOptions(q) {
		qv.Options = append(qv.Options, OptionView{
			ID:       o.ID,
			Label:    o.Label,
			Selected: selected[o.ID],
			Disabled: capReached && !selected[o.ID],
		})
	}
	return qv
}

// displayOptions returns the options in display order. Randomized lists are
// shuffled with a seed derived from the session and the question id, so the
// order is stable for the lifetime of a session.
func (e *Engine) displayOptions(q *model.Question) []model.Option {
	opts := make([]model.Option, len(q.Options))
	copy(opts, q.Options)
	if !q.Randomize {
		return opts
	}
	h := fnv.New64a()
	h.Write([]byte(q.ID))
	r := rand.New(rand.NewPCG(e.seed, h.Sum64()))
	r.Shuffle(len(opts), func(i, j int) { opts[i], opts[j] = opts[j], opts[i] })
	return opts
}
