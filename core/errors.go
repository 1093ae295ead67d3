// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package core

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by a core operation wraps exactly
// one of these, so callers can branch with errors.Is.
var (
	// ErrInvalidRequest indicates missing or contradictory caller input.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrNotFound indicates the referenced note or embedding does not exist for the owner.
	ErrNotFound = errors.New("not found")

	// ErrUpstreamFormat indicates the text generation service returned output that failed validation.
	ErrUpstreamFormat = errors.New("upstream format error")

	// ErrUpstreamFailure indicates an external capability or store call failed.
	ErrUpstreamFailure = errors.New("upstream failure")
)

var (
	// ErrEmptyID indicates an identifier was blank.
	ErrEmptyID = fmt.Errorf("%w: note id cannot be empty", ErrInvalidRequest)

	// ErrEmptyOwner indicates the Owner field is empty.
	ErrEmptyOwner = fmt.Errorf("%w: owner cannot be empty", ErrInvalidRequest)

	// ErrEmptyTranscript indicates a transcript is empty.
	ErrEmptyTranscript = fmt.Errorf("%w: transcript cannot be empty", ErrInvalidRequest)

	// ErrInvalidRole indicates a conversation turn carries an unknown role.
	ErrInvalidRole = fmt.Errorf("%w: role must be user or assistant", ErrInvalidRequest)
)

// Kind names an error category for the request layer.
type Kind string

const (
	KindNone            Kind = ""
	KindInvalidRequest  Kind = "InvalidRequest"
	KindNotFound        Kind = "NotFound"
	KindUpstreamFormat  Kind = "UpstreamFormatError"
	KindUpstreamFailure Kind = "UpstreamFailure"
)

// KindOf classifies err. Errors that carry no kind are reported as
// upstream failures since they can only come from a collaborator.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrInvalidRequest):
		return KindInvalidRequest
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrUpstreamFormat):
		return KindUpstreamFormat
	default:
		return KindUpstreamFailure
	}
}

// Invalid builds an ErrInvalidRequest with a formatted detail.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidRequest, fmt.Sprintf(format, args...))
}

// NotFound builds an ErrNotFound with a formatted detail.
func NotFound(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// Upstream tags err as an upstream failure unless it is already
// classified. A nil err stays nil.
func Upstream(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrInvalidRequest) || errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrUpstreamFormat) || errors.Is(err, ErrUpstreamFailure) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrUpstreamFailure, err)
}
