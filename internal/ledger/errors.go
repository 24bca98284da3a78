package ledger

import "errors"

// Every operation failure is a precondition violation the caller must
// correct, never a transient fault. Callers discriminate with errors.Is
// against these sentinels; operations wrap them with the offending
// identifiers via fmt.Errorf("%w: ...").
var (
	// ErrParticipantNotFound is returned when an address has no record.
	ErrParticipantNotFound = errors.New("participant not found")

	// ErrTokenNotFound is returned when a token id does not exist.
	ErrTokenNotFound = errors.New("token not found")

	// ErrTransferNotFound is returned when a transfer id does not exist.
	ErrTransferNotFound = errors.New("transfer not found")

	// ErrInvalidAddress is returned when the reserved empty address is
	// used where a participant address is required.
	ErrInvalidAddress = errors.New("invalid address")

	// ErrAlreadyRegistered is returned when an address already has a
	// registration record, regardless of its status.
	ErrAlreadyRegistered = errors.New("address already registered")

	// ErrInvalidRole is returned when registration requests a role that
	// cannot be self-registered (None or Admin).
	ErrInvalidRole = errors.New("role cannot be self-registered")

	// ErrAlreadyFinalized is returned when approving or rejecting a
	// participant whose status is no longer Pending.
	ErrAlreadyFinalized = errors.New("approval already finalized")

	// ErrNotApproved is returned when the caller's registration has not
	// been approved.
	ErrNotApproved = errors.New("participant not approved")

	// ErrUnauthorized is returned when the caller lacks the Admin role
	// required for the operation.
	ErrUnauthorized = errors.New("caller not authorized")

	// ErrNotOwner is returned when the caller does not own the token.
	ErrNotOwner = errors.New("caller does not own token")

	// ErrNotRecipient is returned when the caller is not the transfer's
	// named recipient.
	ErrNotRecipient = errors.New("caller is not the transfer recipient")

	// ErrRoleNotPermitted is returned when the caller's role does not
	// permit the operation (minting the given kind, or transferring to
	// the given recipient role).
	ErrRoleNotPermitted = errors.New("role not permitted")

	// ErrRecipientNotEligible is returned when the transfer recipient is
	// not an approved participant.
	ErrRecipientNotEligible = errors.New("recipient not eligible")

	// ErrUnexpectedParents is returned when minting a raw material with a
	// non-empty parent list.
	ErrUnexpectedParents = errors.New("raw material cannot have parents")

	// ErrMissingParents is returned when minting a product with an empty
	// parent list.
	ErrMissingParents = errors.New("product requires parents")

	// ErrParentNotOwned is returned when a product's parent token is not
	// currently owned by the creator.
	ErrParentNotOwned = errors.New("parent token not owned by creator")

	// ErrTransferAlreadyPending is returned when a token already has an
	// outstanding pending transfer.
	ErrTransferAlreadyPending = errors.New("transfer already pending for token")

	// ErrTransferNotPending is returned when accepting or rejecting a
	// transfer that is no longer pending.
	ErrTransferNotPending = errors.New("transfer not pending")
)

// Code returns a stable machine-readable code for a ledger error, or the
// empty string if err is not one of the ledger sentinels. The API layer
// puts these on the wire.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrParticipantNotFound),
		errors.Is(err, ErrTokenNotFound),
		errors.Is(err, ErrTransferNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidAddress):
		return "invalid_address"
	case errors.Is(err, ErrAlreadyRegistered):
		return "already_registered"
	case errors.Is(err, ErrInvalidRole):
		return "invalid_role"
	case errors.Is(err, ErrAlreadyFinalized):
		return "already_finalized"
	case errors.Is(err, ErrNotApproved):
		return "not_approved"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrNotOwner):
		return "not_owner"
	case errors.Is(err, ErrNotRecipient):
		return "not_recipient"
	case errors.Is(err, ErrRoleNotPermitted):
		return "role_not_permitted"
	case errors.Is(err, ErrRecipientNotEligible):
		return "recipient_not_eligible"
	case errors.Is(err, ErrUnexpectedParents):
		return "unexpected_parents"
	case errors.Is(err, ErrMissingParents):
		return "missing_parents"
	case errors.Is(err, ErrParentNotOwned):
		return "parent_not_owned"
	case errors.Is(err, ErrTransferAlreadyPending):
		return "transfer_already_pending"
	case errors.Is(err, ErrTransferNotPending):
		return "transfer_not_pending"
	default:
		return ""
	}
}
