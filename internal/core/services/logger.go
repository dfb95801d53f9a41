package services

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/vncsmyrnk/evote/internal/core/domain"
)

// ResolveLogger returns logger, or the process default when nil.
func ResolveLogger(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default()
}

var domainErrors = []error{
	domain.ErrVoterNotFound,
	domain.ErrElectionNotFound,
	domain.ErrAlreadyVoted,
	domain.ErrStorageFault,
}

// storageErr passes recognised domain errors through and tags anything else
// as a storage fault.
func storageErr(op string, err error) error {
	for _, known := range domainErrors {
		if errors.Is(err, known) {
			return err
		}
	}
	return fmt.Errorf("%s: %w: %w", op, domain.ErrStorageFault, err)
}
