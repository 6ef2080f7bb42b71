package coalesce

import "encoding/json"

// Frame type discriminators for the text frames sent to subscribers.
const (
	frameHeaders = "headers"
	frameDone    = "done"
	frameError   = "error"
)

// HeadersFrame announces the origin's status line and header snapshot.
// It is sent exactly once per subscriber per session.
type HeadersFrame struct {
	Type    string            `json:"type"`
	Status  int               `json:"status"`
	Headers map[string]string `json:"headers"`
}

// DoneFrame signals that the body was delivered in full.
type DoneFrame struct {
	Type string `json:"type"`
}

// ErrorFrame signals that body delivery was aborted. Message is bounded
// to maxFailureReason bytes.
type ErrorFrame struct {
	Type    string `json:"type"`
	Status  int    `json:"status"`
	Message string `json:"message"`
}

func encodeHeadersFrame(status int, headers map[string]string) []byte {
	b, _ := json.Marshal(HeadersFrame{Type: frameHeaders, Status: status, Headers: headers})
	return b
}

func encodeDoneFrame() []byte {
	b, _ := json.Marshal(DoneFrame{Type: frameDone})
	return b
}

func encodeErrorFrame(status int, message string) []byte {
	b, _ := json.Marshal(ErrorFrame{Type: frameError, Status: status, Message: truncate(message, maxFailureReason)})
	return b
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}
