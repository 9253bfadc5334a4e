package api

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/Adivarma1619/insurance-rag-bot/types"
)

// ErrorHandler translates staged pipeline errors, validation errors, and
// fiber errors into JSON responses. Every pipeline failure reports which
// stage failed and the underlying cause.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var staged *types.Error
	if errors.As(err, &staged) {
		apiErr := NewError(statusForKind(staged.Kind), staged.Error())
		return c.Status(apiErr.Code).JSON(apiErr)
	}

	if valErr, ok := err.(ValidationError); ok {
		return c.Status(valErr.Status).JSON(valErr)
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		apiErr := NewError(fiberErr.Code, fiberErr.Message)
		return c.Status(apiErr.Code).JSON(apiErr)
	}

	if apiErr, ok := err.(Error); ok {
		return c.Status(apiErr.Code).JSON(apiErr)
	}

	apiErr := NewError(fiber.StatusInternalServerError, err.Error())
	curTime := time.Now()
	fmt.Printf("%s Request failed with code %d and message: %s\n", &curTime, apiErr.Code, apiErr.Message)
	return c.Status(apiErr.Code).JSON(apiErr)
}

func statusForKind(kind types.Kind) int {
	switch kind {
	case types.KindInput:
		return fiber.StatusBadRequest
	case types.KindState:
		// Build the knowledge base first; retrying the request is pointless.
		return fiber.StatusBadRequest
	case types.KindProvider:
		return fiber.StatusBadGateway
	case types.KindConfig:
		return fiber.StatusInternalServerError
	}
	return fiber.StatusInternalServerError
}

type Error struct {
	Code    int    `json:"code"`
	Message string `json:"error"`
}

// Error implements the error interface
func (e Error) Error() string {
	return e.Message
}

func NewError(code int, err string) Error {
	return Error{
		Code:    code,
		Message: err,
	}
}

type ValidationError struct {
	Status int               `json:"status"`
	Errors map[string]string `json:"errors"`
}

func (e ValidationError) Error() string {
	return "validation failed"
}

func NewValidationError(errors map[string]string) ValidationError {
	return ValidationError{
		Status: fiber.StatusUnprocessableEntity,
		Errors: errors,
	}
}

func ErrBadRequest() Error {
	return Error{
		Code:    fiber.StatusBadRequest,
		Message: "invalid JSON request",
	}
}

func ErrNotFound[T any](arg T, resource string) Error {
	return Error{
		Code:    fiber.StatusNotFound,
		Message: fmt.Sprintf("%s with %v not found", resource, arg),
	}
}
