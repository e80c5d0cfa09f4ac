package model

import "encoding/json"

// AnswerRequest sets the value of a single question. Value is interpreted by
// the question kind.
type AnswerRequest struct {
	Value json.RawMessage `json:"value"`
}

// NavigateRequest moves the wizard by one step or jumps to an index.
type NavigateRequest struct {
	Direction string `json:"direction" binding:"omitempty,oneof=next prev"`
	Index     *int   `json:"index" binding:"omitempty,min=0"`
}
