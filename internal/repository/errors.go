// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios. For
// example, ErrAccountNotFound indicates that a referenced owner does
// not exist, while ErrInvalidConfidence signals that a prediction
// write was rejected before persistence because its confidence score
// fell outside the accepted range.
package repository

import "errors"

// ErrAccountNotFound is returned when an operation references a user
// account that does not exist. Handlers should translate this into an
// HTTP 404 response.
var ErrAccountNotFound = errors.New("account not found")

// ErrPredictionNotFound is returned when a prediction id does not
// reference an existing ledger record.
var ErrPredictionNotFound = errors.New("prediction not found")

// ErrFeedbackNotFound is returned when a feedback id does not reference
// an existing feedback record.
var ErrFeedbackNotFound = errors.New("feedback not found")

// ErrInvalidConfidence is returned when a prediction write carries a
// confidence score outside [0,1]. The record is rejected before any
// row is inserted.
var ErrInvalidConfidence = errors.New("confidence out of range")
