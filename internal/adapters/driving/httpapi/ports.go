package httpapi

import (
	"errors"
	"fmt"

	"github.com/custodia-labs/sercha-server/internal/core/ports/driving"
)

// ErrMissingPort is returned when a required driving port is not provided.
var ErrMissingPort = errors.New("httpapi: missing driving port")

// Ports aggregates the driving ports served over HTTP.
type Ports struct {
	Users     driving.UserService
	Notebooks driving.NotebookService
	Documents driving.DocumentService
	Query     driving.QueryService
	Queue     driving.QueueService
}

// Validate ensures every port is set.
func (p *Ports) Validate() error {
	switch {
	case p.Users == nil:
		return fmt.Errorf("%w: users", ErrMissingPort)
	case p.Notebooks == nil:
		return fmt.Errorf("%w: notebooks", ErrMissingPort)
	case p.Documents == nil:
		return fmt.Errorf("%w: documents", ErrMissingPort)
	case p.Query == nil:
		return fmt.Errorf("%w: query", ErrMissingPort)
	case p.Queue == nil:
		return fmt.Errorf("%w: queue", ErrMissingPort)
	}
	return nil
}
