package domain

import "encoding/json"

// PromptExchange is one few-shot example: a user message and the structured
// response the model should have produced for it.
type PromptExchange struct {
	User     string
	Response string
}

// ResponseSchema constrains a structured language model call. Schema is a
// JSON Schema document; for planning it is built per request from the set of
// valid document names.
type ResponseSchema struct {
	Name        string
	Description string
	Schema      json.RawMessage
}

// StructuredRequest is a schema-constrained language model call.
type StructuredRequest struct {
	SystemPrompt string
	UserPrompt   string
	FewShot      []PromptExchange
	Schema       ResponseSchema
}

// StructuredCompletion carries the model's raw structured payload. Callers
// parse-then-validate into their typed model.
type StructuredCompletion struct {
	Payload json.RawMessage
	Cost    float64
}
