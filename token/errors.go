package token

import "errors"

var (
	ErrInvalidInstruction          = errors.New("invalid token instruction")
	ErrInvalidAccountData          = errors.New("invalid token account data")
	ErrIncorrectProgramId          = errors.New("incorrect program id for token account")
	ErrUninitializedState          = errors.New("state is uninitialized")
	ErrAlreadyInUse                = errors.New("account or token already in use")
	ErrMintMismatch                = errors.New("account not associated with this mint")
	ErrOwnerMismatch               = errors.New("owner does not match")
	ErrFixedSupply                 = errors.New("fixed supply, token mint authority is absent")
	ErrOverflow                    = errors.New("operation overflowed")
	ErrExtensionAlreadyInitialized = errors.New("extension already initialized on this account")
	ErrExtensionNotFound           = errors.New("extension not found in account data")
	ErrAuthorityTypeNotSupported   = errors.New("authority type not supported")
	ErrInvalidAssociatedAddress    = errors.New("associated address does not match seed derivation")
	ErrImmutableOwner              = errors.New("account owner is immutable")
)
