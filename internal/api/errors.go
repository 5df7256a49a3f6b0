package api

import (
	"errors"

	"github.com/labstack/echo/v5"

	"github.com/samcharles93/nnetio/internal/kio"
)

// ErrorBody is the payload of every error response.
type ErrorBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
	Want    string `json:"want,omitempty"`
	Got     string `json:"got,omitempty"`
	Offset  *int64 `json:"offset,omitempty"`
}

type errorResponse struct {
	Error ErrorBody `json:"error"`
}

func writeError(c *echo.Context, status int, kind, msg string) error {
	return c.JSON(status, errorResponse{Error: ErrorBody{Kind: kind, Message: msg}})
}

// writeLoadError reports a model that failed to parse, carrying the
// mismatch details when the decoder supplied them.
func writeLoadError(c *echo.Context, status int, err error) error {
	body := ErrorBody{Kind: "other", Message: err.Error()}
	if k := kio.KindOf(err); k != 0 {
		body.Kind = k.String()
	}
	var fe *kio.FormatError
	if errors.As(err, &fe) {
		body.Want = fe.Want
		body.Got = fe.Got
		off := fe.Offset
		body.Offset = &off
	}
	return c.JSON(status, errorResponse{Error: body})
}
