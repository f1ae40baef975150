package utils

import "github.com/gofiber/fiber/v2"

// Respond sends a JSON response with the specified status code.
func Respond(c *fiber.Ctx, status int, data interface{}) error {
	return c.Status(status).JSON(data)
}

// Success sends a successful JSON response.
func Success(c *fiber.Ctx, data interface{}) error {
	return Respond(c, fiber.StatusOK, data)
}

// Created sends a JSON response with status 201.
func Created(c *fiber.Ctx, data interface{}) error {
	return Respond(c, fiber.StatusCreated, data)
}

// Error sends {"error": message} with the given status.
func Error(c *fiber.Ctx, status int, message string) error {
	return Respond(c, status, fiber.Map{"error": message})
}

// BadRequest sends a JSON error response with status 400.
func BadRequest(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusBadRequest, message)
}

// ValidationFailed sends status 400 with per-field messages.
func ValidationFailed(c *fiber.Ctx, fields map[string]string) error {
	return Respond(c, fiber.StatusBadRequest, fiber.Map{
		"error":  "validation failed",
		"fields": fields,
	})
}

// Unauthorized sends a JSON error response with status 401.
func Unauthorized(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusUnauthorized, message)
}

// Forbidden sends a JSON error response with status 403.
func Forbidden(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusForbidden, message)
}

// NotFound sends a JSON error response with status 404.
func NotFound(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusNotFound, message)
}

// Conflict sends a JSON error response with status 409.
func Conflict(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusConflict, message)
}

// ServiceUnavailable sends status 503 and marks the request as safe to retry.
func ServiceUnavailable(c *fiber.Ctx, message string) error {
	return Respond(c, fiber.StatusServiceUnavailable, fiber.Map{
		"error":     message,
		"retryable": true,
	})
}

// InternalError sends a JSON error response with status 500.
func InternalError(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusInternalServerError, message)
}
