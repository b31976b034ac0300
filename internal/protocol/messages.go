package protocol

import "time"

// SpeechRequest asks the runtime to synthesize a line of dialogue.
type SpeechRequest struct {
	SessionID   string `json:"session_id"`
	CharacterID string `json:"character_id,omitempty"`
	Text        string `json:"text"`
}

// AudioChunk carries one slice of the synthesized container stream.
type AudioChunk struct {
	SessionID string `json:"session_id"`
	Sequence  int    `json:"sequence"`
	Data      []byte `json:"data"`
	Final     bool   `json:"final"`
}

// SpeechStatus reports the terminal outcome of a request.
type SpeechStatus struct {
	SessionID string    `json:"session_id"`
	Completed bool      `json:"completed"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

const (
	SubjectSpeechRequest = "speech.request"
	SubjectSpeechAudio   = "speech.audio"
	SubjectSpeechDone    = "speech.done"
)
