package investments

import (
	"errors"
	"time"
)

// Status marks whether an investment still participates in profit sharing.
type Status string

const (
	StatusActive Status = "active"
	StatusClosed Status = "closed"
)

// Investment is a partner's capital stake.
type Investment struct {
	ID            int64
	Name          string
	Capital       float64
	CurrentReturn float64
	Status        Status
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// InvestmentInput is the write shape.
type InvestmentInput struct {
	Name          string
	Capital       float64
	CurrentReturn float64
	Status        Status
	ActorID       int64
}

var (
	// ErrNotFound indicates a missing investment.
	ErrNotFound = errors.New("investments: not found")
	// ErrInvalidCapital indicates a non-positive capital amount.
	ErrInvalidCapital = errors.New("investments: capital must be > 0")
	// ErrInvalidStatus indicates an unknown status value.
	ErrInvalidStatus = errors.New("investments: status must be active or closed")
)
