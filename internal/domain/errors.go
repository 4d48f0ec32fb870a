package domain

import "errors"

var (
	// ErrSubmissionNotFound is returned when a submission cannot be found by ID.
	ErrSubmissionNotFound = errors.New("submission not found")

	// ErrProblemNotFound is returned when the referenced problem does not exist.
	ErrProblemNotFound = errors.New("problem not found")

	// ErrMissingUserName is returned when a submission carries no user name.
	ErrMissingUserName = errors.New("user name cannot be empty")

	// ErrPayloadTooLarge is returned when the source code exceeds the size limit.
	ErrPayloadTooLarge = errors.New("source code payload exceeds maximum size (1MB)")

	// ErrEmptySourceCode is returned when source code is empty.
	ErrEmptySourceCode = errors.New("source code cannot be empty")

	// ErrQueueFull is returned when a bounded submission queue refuses a new item.
	ErrQueueFull = errors.New("submission queue is full")

	// ErrQueueClosed is returned when publishing to a queue that has been closed.
	ErrQueueClosed = errors.New("submission queue is closed")

	// ErrPublishFailed is returned when the submission could not be handed to the queue.
	ErrPublishFailed = errors.New("failed to enqueue submission")

	// ErrInvalidTransition is returned when a status change would revert the lifecycle.
	ErrInvalidTransition = errors.New("invalid status transition")
)
