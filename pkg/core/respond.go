package core

import (
	"net/http"

	"github.com/joeydtaylor/steeze-social/pkg/codec"
)

// Result lets a handler choose the success status.
type Result struct {
	Status int
	Body   any
}

// Message is the body of every error response.
type Message struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, payload []byte, status int) {
	w.Header().Set("Content-Type", codec.JSON.ContentType())
	w.WriteHeader(status)
	if len(payload) > 0 && string(payload) != "null" {
		_, _ = w.Write(payload)
		return
	}
	_, _ = w.Write([]byte(`{}`))
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	b, _ := codec.JSON.Marshal(Message{Message: msg})
	writeJSON(w, b, status)
}

func statusIf(s, def int) int {
	if s > 0 {
		return s
	}
	return def
}
