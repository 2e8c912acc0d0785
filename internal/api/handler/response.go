package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Response is the uniform envelope every endpoint returns: a success flag,
// an optional message, an optional typed payload, an optional error code,
// and a timestamp.
type Response struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	ErrorCode string      `json:"errorCode,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// OK renders a 200 success envelope.
func OK(c echo.Context, data interface{}, message string) error {
	return c.JSON(http.StatusOK, Response{
		Success:   true,
		Message:   message,
		Data:      data,
		Timestamp: time.Now().UTC(),
	})
}

// Created renders a 201 success envelope.
func Created(c echo.Context, data interface{}, message string) error {
	return c.JSON(http.StatusCreated, Response{
		Success:   true,
		Message:   message,
		Data:      data,
		Timestamp: time.Now().UTC(),
	})
}

// Fail renders an error envelope with the given status and error code.
func Fail(c echo.Context, status int, errorCode, message string) error {
	return c.JSON(status, Response{
		Success:   false,
		Message:   message,
		ErrorCode: errorCode,
		Timestamp: time.Now().UTC(),
	})
}
