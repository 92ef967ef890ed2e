package response

import (
	"encoding/json"
	"fmt"
)

// Envelope is the client-side view of Response, with Data left raw so the
// caller can decode it into its own type.
type Envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// Decode parses body as a standard envelope and decodes Data into target.
// Bodies that are not wrapped in an envelope are decoded into target directly.
func Decode(body []byte, target interface{}) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		// bare arrays and scalars
		if target == nil {
			return nil, fmt.Errorf("failed to decode response: %w", err)
		}
		if err := json.Unmarshal(body, target); err != nil {
			return nil, fmt.Errorf("failed to decode response: %w", err)
		}
		return &Envelope{Success: true, Data: body}, nil
	}

	payload := env.Data
	if len(payload) == 0 || string(payload) == "null" {
		payload = body
	}

	if target != nil {
		if err := json.Unmarshal(payload, target); err != nil {
			return &env, fmt.Errorf("failed to decode response data: %w", err)
		}
	}
	return &env, nil
}
