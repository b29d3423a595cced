package common

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Envelope is the uniform body of every API response.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

func OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Envelope{Success: true, Data: data})
}

// Created answers 201 and points Location at the new resource.
func Created(c *gin.Context, location string, data any) {
	c.Header("Location", location)
	c.JSON(http.StatusCreated, Envelope{Success: true, Data: data})
}

func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Fail translates err through the default error mapper and aborts.
func Fail(c *gin.Context, err error) {
	info := DefaultMapper.Map(err)
	if info.Status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	Abort(c, info.Status, info.Code, info.Message)
}

func Abort(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, Envelope{Success: false, Error: code, Message: message})
}
