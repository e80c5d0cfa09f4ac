package questionnaire

import (
	"time"

	"github.com/hackmate/hackathon-console/internal/model"
)

// Snapshot is the serializable state of a session, used to keep a wizard
// alive between requests.
type Snapshot struct {
	Questions []model.Question        `json:"questions"`
	Answers   map[string]model.Answer `json:"answers"`
	Errors    []FieldError            `json:"errors,omitempty"`
	Index     int                     `json:"index"`
	Status    Status                  `json:"status"`
	Message   string                  `json:"message,omitempty"`
	SuccessAt *time.Time              `json:"success_at,omitempty"`
	Seed      uint64                  `json:"seed"`
}

// Snapshot captures the current state.
func (e *Engine) Snapshot() Snapshot {
	s := Snapshot{
		Questions: e.Questions(),
		Answers:   e.Answers(),
		Errors:    e.Errors(),
		Index:     e.index,
		Status:    e.status,
		Message:   e.message,
		Seed:      e.seed,
	}
	if !e.successAt.IsZero() {
		t := e.successAt
		s.SuccessAt = &t
	}
	return s
}

// Restore rebuilds an engine from a snapshot. Answers and errors of unknown
// questions are dropped and the index is clamped.
func Restore(s Snapshot, opts ...Option) (*Engine, error) {
	opts = append([]Option{WithSeed(s.Seed)}, opts...)
	e, err := New(s.Questions, opts...)
	if err != nil {
		return nil, err
	}

	for id, a := range s.Answers {
		if _, ok := e.find(id); ok {
			e.answers[id] = a.Clone()
		}
	}
	for _, fe := range s.Errors {
		if _, ok := e.find(fe.QuestionID); ok {
			e.errors[fe.QuestionID] = fe
		}
	}

	e.index = s.Index
	e.clampIndex()
	if s.Status != "" {
		e.status = s.Status
	}
	e.message = s.Message
	if s.SuccessAt != nil {
		e.successAt = *s.SuccessAt
	}
	return e, nil
}
