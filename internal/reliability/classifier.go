package reliability

import "strings"

// TranscriptionKind classifies a speech-to-text provider failure.
type TranscriptionKind int

const (
	TranscriptionProviderError TranscriptionKind = iota
	TranscriptionAudioTooShort
	TranscriptionBadRequest
)

// ClassifyTranscription maps a provider HTTP status and response body to a
// failure kind. The provider reports too-short recordings inside the error
// body rather than with a dedicated status, so the body is inspected first.
func ClassifyTranscription(status int, body string) TranscriptionKind {
	lower := strings.ToLower(body)
	switch {
	case strings.Contains(lower, "too short") ||
		strings.Contains(lower, "audio_too_short") ||
		strings.Contains(lower, "duration"):
		return TranscriptionAudioTooShort
	case status == 400 || status == 422:
		return TranscriptionBadRequest
	default:
		return TranscriptionProviderError
	}
}
