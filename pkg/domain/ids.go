package domain

import (
	"github.com/google/uuid"

	dErrors "atelier/pkg/domain-errors"
)

// UserID identifies an account issued by the hosted auth service.
type UserID uuid.UUID

// ImageID identifies a saved image in the archive.
type ImageID uuid.UUID

// TransactionID identifies a credit ledger entry.
type TransactionID uuid.UUID

func (id UserID) String() string        { return uuid.UUID(id).String() }
func (id ImageID) String() string       { return uuid.UUID(id).String() }
func (id TransactionID) String() string { return uuid.UUID(id).String() }

func (id UserID) IsNil() bool        { return uuid.UUID(id) == uuid.Nil }
func (id ImageID) IsNil() bool       { return uuid.UUID(id) == uuid.Nil }
func (id TransactionID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// IDs travel as canonical UUID strings in JSON.

func (id UserID) MarshalText() ([]byte, error)        { return uuid.UUID(id).MarshalText() }
func (id ImageID) MarshalText() ([]byte, error)       { return uuid.UUID(id).MarshalText() }
func (id TransactionID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

func (id *UserID) UnmarshalText(b []byte) error        { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *ImageID) UnmarshalText(b []byte) error       { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *TransactionID) UnmarshalText(b []byte) error { return (*uuid.UUID)(id).UnmarshalText(b) }

// ParseUserID parses a user ID at a trust boundary.
func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID(s, "user_id")
	return UserID(u), err
}

// ParseImageID parses an archive image ID at a trust boundary.
func ParseImageID(s string) (ImageID, error) {
	u, err := parseUUID(s, "image_id")
	return ImageID(u), err
}

// ParseTransactionID parses a ledger transaction ID.
func ParseTransactionID(s string) (TransactionID, error) {
	u, err := parseUUID(s, "transaction_id")
	return TransactionID(u), err
}

// NewImageID returns a random image ID.
func NewImageID() ImageID { return ImageID(uuid.New()) }

// NewTransactionID returns a random ledger transaction ID.
func NewTransactionID() TransactionID { return TransactionID(uuid.New()) }

func parseUUID(s, field string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, field+" cannot be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+field+" format")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, field+" cannot be nil")
	}
	return u, nil
}
