package domain

import (
	"errors"
	"fmt"
)

// --- Domain Specific Errors ---

var (
	// ErrReferentMissing indicates that an attach/detach target vanished mid-operation.
	// It is a data-consistency fault and is always surfaced to the caller.
	ErrReferentMissing = errors.New("referent missing")
	// ErrDrinkNotFound indicates that no drink matches the referenced identifier.
	ErrDrinkNotFound = fmt.Errorf("%w: drink not found", ErrReferentMissing)
	// ErrUserNotFound indicates that no user matches the referenced email.
	ErrUserNotFound = fmt.Errorf("%w: user not found", ErrReferentMissing)

	// ErrInvalidArgument indicates that the caller supplied an unusable argument.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrInvalidIdentifier indicates a malformed opaque identifier.
	ErrInvalidIdentifier = fmt.Errorf("%w: malformed identifier", ErrInvalidArgument)
	// ErrInvalidKind indicates an unknown reference kind.
	ErrInvalidKind = fmt.Errorf("%w: unknown reference kind", ErrInvalidArgument)
	// ErrDisallowedField indicates a field that cannot be written by a bulk update.
	ErrDisallowedField = fmt.Errorf("%w: field cannot be updated", ErrInvalidArgument)
	// ErrUseAttachDetach indicates a direct write to a reference-set field.
	ErrUseAttachDetach = fmt.Errorf("%w: reference sets must be changed through attach/detach", ErrInvalidArgument)
	// ErrInvalidSampleSize indicates a non-positive sample size.
	ErrInvalidSampleSize = fmt.Errorf("%w: sample size must be positive", ErrInvalidArgument)
	// ErrInvalidRating indicates a rating outside of the 1-5 range.
	ErrInvalidRating = fmt.Errorf("%w: rating must be between %d and %d", ErrInvalidArgument, MinRating, MaxRating)

	// ErrMalformedDocument indicates that a persisted document failed to decode.
	ErrMalformedDocument = errors.New("malformed document")

	// ErrAlreadyExists indicates a unique-key collision in the store.
	ErrAlreadyExists = errors.New("entity already exists")
	// ErrConcurrentUpdate indicates a compare-and-set that kept losing to other writers.
	ErrConcurrentUpdate = errors.New("entity was modified concurrently")
)
