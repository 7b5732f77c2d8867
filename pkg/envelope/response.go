package envelope

import (
	"encoding/json"
	"net/http"

	"github.com/artpar/zacre/domain/apperr"
)

// Status values carried in every envelope.
const (
	StatusSuccess  = "success"
	StatusError    = "error"
	StatusRedirect = "redirect"
)

// ContentType is the media type of envelope responses.
const ContentType = "application/json"

// Item is the single-resource success envelope.
type Item[T any] struct {
	Status  string `json:"status"`
	Item    T      `json:"item"`
	Message string `json:"message,omitempty"`
}

// Items is the collection success envelope.
type Items[T any] struct {
	Status string `json:"status"`
	Items  []T    `json:"items"`
}

// List is the paginated success envelope.
type List[T any] struct {
	Status string `json:"status"`
	Page[T]
}

// Message is a success envelope without a payload.
type Message struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Redirect tells the client to navigate after showing message.
type Redirect struct {
	Status  string `json:"status"`
	URL     string `json:"url"`
	Message string `json:"message,omitempty"`
}

// Error is the failure envelope.
type Error struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// WriteJSON writes v as JSON with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", ContentType)
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// WriteItem writes a single-resource success envelope.
func WriteItem[T any](w http.ResponseWriter, status int, item T) {
	WriteJSON(w, status, Item[T]{Status: StatusSuccess, Item: item})
}

// WriteItems writes a collection success envelope.
func WriteItems[T any](w http.ResponseWriter, items []T) {
	if items == nil {
		items = []T{}
	}
	WriteJSON(w, http.StatusOK, Items[T]{Status: StatusSuccess, Items: items})
}

// WriteList writes a paginated success envelope.
func WriteList[T any](w http.ResponseWriter, page Page[T]) {
	WriteJSON(w, http.StatusOK, List[T]{Status: StatusSuccess, Page: page})
}

// WriteMessage writes a success envelope with only a message.
func WriteMessage(w http.ResponseWriter, msg string) {
	WriteJSON(w, http.StatusOK, Message{Status: StatusSuccess, Message: msg})
}

// WriteRedirect writes a client-side redirect directive with status 200.
func WriteRedirect(w http.ResponseWriter, url, msg string) {
	WriteJSON(w, http.StatusOK, Redirect{Status: StatusRedirect, URL: url, Message: msg})
}

// WriteError writes the failure envelope. Status and message come from
// the classified error; unclassified errors become a generic 500.
func WriteError(w http.ResponseWriter, err error) {
	WriteJSON(w, apperr.StatusOf(err), Error{
		Status:  StatusError,
		Message: apperr.MessageOf(err, "An unknown error occurred"),
	})
}

// WriteErrorMessage writes the failure envelope with an explicit status.
func WriteErrorMessage(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, Error{Status: StatusError, Message: msg})
}
