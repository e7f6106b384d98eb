// Package api holds the response envelope every endpoint returns.
//
// On the wire a response is exactly one of
//
//	{"status": "ok", "data": <T>}
//	{"status": "error", "message": <string>}
//
// and decoders select the shape from "status" before reading anything else.
package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

type Status string

const (
	StatusOK    Status = "ok"
	StatusError Status = "error"
)

var ErrUnknownStatus = errors.New("api: unknown response status")

// Response is a success/error envelope. Data is only meaningful when Status
// is StatusOK and Message only when it is StatusError.
type Response[T any] struct {
	Status  Status
	Data    T
	Message string
}

func Success[T any](data T) Response[T] {
	return Response[T]{Status: StatusOK, Data: data}
}

// Error builds the error variant. Callers should not pass an empty message.
func Error[T any](message string) Response[T] {
	return Response[T]{Status: StatusError, Message: message}
}

func (r Response[T]) IsOK() bool { return r.Status == StatusOK }

// Result returns the payload, or the error message as an error.
func (r Response[T]) Result() (T, error) {
	var zero T
	switch r.Status {
	case StatusOK:
		return r.Data, nil
	case StatusError:
		return zero, errors.New(r.Message)
	default:
		return zero, fmt.Errorf("%w: %q", ErrUnknownStatus, r.Status)
	}
}

type okWire[T any] struct {
	Status Status `json:"status"`
	Data   T      `json:"data"`
}

type errorWire struct {
	Status  Status `json:"status"`
	Message string `json:"message"`
}

func (r Response[T]) MarshalJSON() ([]byte, error) {
	switch r.Status {
	case StatusOK:
		return json.Marshal(okWire[T]{Status: r.Status, Data: r.Data})
	case StatusError:
		return json.Marshal(errorWire{Status: r.Status, Message: r.Message})
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStatus, r.Status)
	}
}

func (r *Response[T]) UnmarshalJSON(b []byte) error {
	var head struct {
		Status  *Status          `json:"status"`
		Data    json.RawMessage  `json:"data"`
		Message *json.RawMessage `json:"message"`
	}
	if err := json.Unmarshal(b, &head); err != nil {
		return err
	}
	if head.Status == nil {
		return fmt.Errorf("%w: missing status", ErrUnknownStatus)
	}

	switch *head.Status {
	case StatusOK:
		// a present "data": null is still a success carrying the zero value
		if head.Data == nil {
			return errors.New("api: ok response without data")
		}
		var data T
		if !bytes.Equal(head.Data, []byte("null")) {
			if err := json.Unmarshal(head.Data, &data); err != nil {
				return fmt.Errorf("api: data: %w", err)
			}
		}
		*r = Response[T]{Status: StatusOK, Data: data}
	case StatusError:
		if head.Message == nil {
			return errors.New("api: error response without message")
		}
		var msg string
		if err := json.Unmarshal(*head.Message, &msg); err != nil {
			return fmt.Errorf("api: message: %w", err)
		}
		*r = Response[T]{Status: StatusError, Message: msg}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownStatus, *head.Status)
	}
	return nil
}
