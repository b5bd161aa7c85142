package ledgerclient

import (
	"errors"
	"fmt"
	"net/http"
)

type errorBody struct {
	Error string `json:"error"`
}

// APIError is a non-2xx response of the nunc API.
type APIError struct {
	Status int
	Code   string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("nunc api: status %d", e.Status)
	}
	return fmt.Sprintf("nunc api: status %d: %s", e.Status, e.Code)
}

func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// IsValidation reports a rejected post text: empty, too_long or url_blocked.
func IsValidation(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusBadRequest {
		return false
	}

	switch apiErr.Code {
	case "empty", "too_long", "url_blocked":
		return true
	}
	return false
}
