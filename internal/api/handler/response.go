package handler

import "github.com/minicrm/lead-api/internal/core/domain"

// Envelope is the uniform JSON body returned by every endpoint.
type Envelope struct {
	Success bool                `json:"success"`
	Message string              `json:"message,omitempty"`
	Count   *int                `json:"count,omitempty"`
	Data    any                 `json:"data,omitempty"`
	Errors  []domain.FieldError `json:"errors,omitempty"`
}

func ok(data any) Envelope {
	return Envelope{Success: true, Data: data}
}

func okMessage(message string, data any) Envelope {
	return Envelope{Success: true, Message: message, Data: data}
}

func okList(data any, count int) Envelope {
	return Envelope{Success: true, Count: &count, Data: data}
}

// Fail builds an error envelope. Field errors are attached when present.
func Fail(message string, fields ...domain.FieldError) Envelope {
	return Envelope{Success: false, Message: message, Errors: fields}
}
