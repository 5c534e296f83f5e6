// Package respond holds the JSON helpers shared by the HTTP handlers.
package respond

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ErrBadBody is returned by Decode for unreadable or invalid JSON.
var ErrBadBody = errors.New("invalid request body")

// JSON writes v with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("encode response: %v", err)
	}
}

// Message writes a {"message": msg} body.
func Message(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, map[string]string{"message": msg})
}

// ServerError logs err and writes a generic 500.
func ServerError(w http.ResponseWriter, r *http.Request, err error) {
	log.Printf("%s %s: %v", r.Method, r.URL.Path, err)
	Message(w, http.StatusInternalServerError, "Server error")
}

// Decode reads a JSON body into dst.
func Decode(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return ErrBadBody
	}
	return nil
}

// Validate checks dst against its validate struct tags.
func Validate(dst interface{}) error {
	return validate.Struct(dst)
}
