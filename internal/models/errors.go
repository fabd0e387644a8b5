package models

import "errors"

var (
	ErrConfiguration          = errors.New("configuration error")
	ErrInput                  = errors.New("invalid input")
	ErrNotFound               = errors.New("idea not found")
	ErrService                = errors.New("generation service error")
	ErrRecognitionUnsupported = errors.New("speech recognition not supported")
)

// UserMessage maps an error to a short message suitable for display.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrConfiguration):
		return "Configure your API key before generating a schema."
	case errors.Is(err, ErrInput):
		return "Nothing to process: " + err.Error()
	case errors.Is(err, ErrNotFound):
		return "That idea no longer exists."
	case errors.Is(err, ErrRecognitionUnsupported):
		return "Speech recognition is not available on this machine."
	case errors.Is(err, ErrService):
		return "The generation service failed, please retry: " + err.Error()
	default:
		return "Unexpected error: " + err.Error()
	}
}
