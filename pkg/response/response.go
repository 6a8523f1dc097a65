// Package response writes the JSON envelopes every endpoint answers with:
//
//	{"status":"success","data":...}
//	{"status":"success","results":10,"total":42,"totalPages":5,"currentPage":1,"data":[...]}
//	{"status":"error","message":"Order not found"}
package response

import (
	"encoding/json"
	"net/http"

	"github.com/gebeta-app/gebeta/pkg/apperror"
	"github.com/gebeta-app/gebeta/pkg/logger"
	"github.com/gebeta-app/gebeta/pkg/orm"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Body is the standard envelope.
type Body struct {
	Status  string            `json:"status"`
	Message string            `json:"message,omitempty"`
	Data    any               `json:"data,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// PageBody is the envelope for paginated listings.
type PageBody struct {
	Status      string `json:"status"`
	Results     int    `json:"results"`
	Total       int64  `json:"total"`
	TotalPages  int    `json:"totalPages"`
	CurrentPage int    `json:"currentPage"`
	Data        any    `json:"data"`
}

// JSON writes v with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

// Success sends a 200 envelope with data.
func Success(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, Body{Status: StatusSuccess, Data: data})
}

// Created sends a 201 envelope with data.
func Created(w http.ResponseWriter, data any) {
	JSON(w, http.StatusCreated, Body{Status: StatusSuccess, Data: data})
}

// Message sends a 200 envelope carrying only a message.
func Message(w http.ResponseWriter, message string) {
	JSON(w, http.StatusOK, Body{Status: StatusSuccess, Message: message})
}

// Paginated sends one page of results plus its pagination metadata.
// results is the number of items on this page.
func Paginated(w http.ResponseWriter, data any, results int, p orm.Pagination) {
	JSON(w, http.StatusOK, PageBody{
		Status:      StatusSuccess,
		Results:     results,
		Total:       p.Total,
		TotalPages:  p.TotalPages,
		CurrentPage: p.Page,
		Data:        data,
	})
}

// Error sends an error envelope with the given status and message.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, Body{Status: StatusError, Message: message})
}

// ValidationError sends a 400 with the field-level error map.
func ValidationError(w http.ResponseWriter, errs map[string]string) {
	JSON(w, http.StatusBadRequest, Body{
		Status:  StatusError,
		Message: "Validation failed",
		Errors:  errs,
	})
}

// Fail maps err onto the error envelope. Classified errors surface their
// message; anything else is logged with the request id and answered with a
// generic 500.
func Fail(w http.ResponseWriter, r *http.Request, err error) {
	if appErr, ok := apperror.As(err); ok && appErr.Kind != apperror.KindInternal {
		JSON(w, appErr.Status(), Body{
			Status:  StatusError,
			Message: appErr.Message,
			Errors:  appErr.Fields,
		})
		return
	}

	logger.WithCtx(r.Context()).Error("request failed",
		"method", r.Method,
		"path", r.URL.Path,
		"error", err,
	)
	Error(w, http.StatusInternalServerError, "Internal Server Error")
}

func Unauthorized(w http.ResponseWriter, message string) {
	Error(w, http.StatusUnauthorized, message)
}

func Forbidden(w http.ResponseWriter) {
	Error(w, http.StatusForbidden, "You do not have permission to perform this action")
}

func NotFound(w http.ResponseWriter) {
	Error(w, http.StatusNotFound, "Route not found")
}
