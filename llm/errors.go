package llm

import "errors"

// ErrNoChoices is returned when a model response has no choices.
var ErrNoChoices = errors.New("model returned no choices")
