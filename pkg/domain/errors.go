package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrStoreUnavailable reports a transport or connection failure talking to the result store.
	ErrStoreUnavailable = errors.New("result store unavailable")
	// ErrIntegrity reports a store response that violates an invariant.
	ErrIntegrity = errors.New("result store integrity violation")
	// ErrMissingMetadata reports an absent required metadata document.
	ErrMissingMetadata = errors.New("metadata missing")
	// ErrMalformedMetadata reports a metadata document that is present but empty or unparseable.
	ErrMalformedMetadata = errors.New("metadata malformed")
	// ErrUnknownPrerequisite reports a descriptor prerequisite key with no lookup entry.
	ErrUnknownPrerequisite = errors.New("unknown prerequisite")
	// ErrSystemNotFound reports a system id with no identity row.
	ErrSystemNotFound = errors.New("system not found")
)

// MetadataError ties a metadata failure to the system and document it came from.
type MetadataError struct {
	System   string
	Document string
	Err      error
}

func (e *MetadataError) Error() string {
	return fmt.Sprintf("system %s: %s: %v", e.System, e.Document, e.Err)
}

func (e *MetadataError) Unwrap() error { return e.Err }

// PrerequisiteError names the key that failed to resolve.
type PrerequisiteError struct {
	System string
	Key    string
}

func (e *PrerequisiteError) Error() string {
	return fmt.Sprintf("system %s: %s %q", e.System, ErrUnknownPrerequisite, e.Key)
}

func (e *PrerequisiteError) Is(target error) bool { return target == ErrUnknownPrerequisite }

// IntegrityError describes the offending shape returned by the store.
type IntegrityError struct {
	Detail string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("%s: %s", ErrIntegrity, e.Detail)
}

func (e *IntegrityError) Is(target error) bool { return target == ErrIntegrity }

// UnavailableError wraps the underlying driver failure.
type UnavailableError struct {
	Op  string
	Err error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrStoreUnavailable, e.Op, e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

func (e *UnavailableError) Is(target error) bool { return target == ErrStoreUnavailable }
