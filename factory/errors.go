package factory

import "fmt"

const ErrorCodeOffset = 6000

// Error is a program error with an anchor compatible number. Errors are
// sentinels, compare them with errors.Is.
type Error struct {
	Kind    string
	Name    string
	Code    int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: Error Code: %s. Error Number: %d. Error Message: %s.", e.Kind, e.Name, e.Code, e.Message)
}

func protocolError(n int, name, msg string) *Error {
	return &Error{Kind: "ProtocolError", Name: name, Code: ErrorCodeOffset + n, Message: msg}
}

func buyingError(n int, name, msg string) *Error {
	return &Error{Kind: "BuyingError", Name: name, Code: ErrorCodeOffset + n, Message: msg}
}

func frameworkError(code int, name, msg string) *Error {
	return &Error{Kind: "AnchorError", Name: name, Code: code, Message: msg}
}

var (
	ErrProtocolLocked         = protocolError(0, "ProtocolLocked", "Protocol is locked")
	ErrUnauthorizedAdmin      = protocolError(1, "UnauthorizedAdmin", "You are not authorized to perform this action")
	ErrInstructionsNotCorrect = protocolError(2, "InstructionsNotCorrect", "Instructions are not correct")
	ErrInvalidBalancePostMint = protocolError(3, "InvalidBalancePostMint", "Invalid balance after minting")

	ErrSoldOut = buyingError(0, "SoldOut", "The collection is sold out")
)

var (
	ErrInstructionFallbackNotFound  = frameworkError(101, "InstructionFallbackNotFound", "Fallback functions are not supported")
	ErrConstraintSeeds              = frameworkError(2006, "ConstraintSeeds", "A seeds constraint was violated")
	ErrConstraintAddress            = frameworkError(2012, "ConstraintAddress", "An address constraint was violated")
	ErrAccountDiscriminatorMismatch = frameworkError(3002, "AccountDiscriminatorMismatch", "8 byte discriminator did not match what was expected")
	ErrAccountDidNotDeserialize     = frameworkError(3003, "AccountDidNotDeserialize", "Failed to deserialize the account")
	ErrAccountDidNotSerialize       = frameworkError(3004, "AccountDidNotSerialize", "Failed to serialize the account")
	ErrAccountNotEnoughKeys         = frameworkError(3005, "AccountNotEnoughKeys", "Not enough account keys given to the instruction")
	ErrAccountOwnedByWrongProgram   = frameworkError(3007, "AccountOwnedByWrongProgram", "The given account is owned by a different program than expected")
	ErrInvalidProgramId             = frameworkError(3008, "InvalidProgramId", "Program ID was not as expected")
	ErrAccountNotSigner             = frameworkError(3010, "AccountNotSigner", "The given account did not sign")
	ErrAccountNotInitialized        = frameworkError(3012, "AccountNotInitialized", "The program expected this account to be already initialized")
)
