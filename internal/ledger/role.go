package ledger

// Address is an opaque participant identity key. The empty address is
// reserved and never identifies a participant.
type Address string

// ZeroAddress is the reserved empty address.
const ZeroAddress Address = ""

// IsZero returns true if the address is the reserved empty address.
func (a Address) IsZero() bool {
	return a == ZeroAddress
}

// Role is the closed enumeration of participant roles. Wire values match
// the original contract encoding.
type Role uint8

const (
	RoleNone     Role = 0
	RoleProducer Role = 1
	RoleFactory  Role = 2
	RoleRetailer Role = 3
	RoleConsumer Role = 4
	RoleAdmin    Role = 5
)

// String returns the role name.
func (r Role) String() string {
	switch r {
	case RoleNone:
		return "none"
	case RoleProducer:
		return "producer"
	case RoleFactory:
		return "factory"
	case RoleRetailer:
		return "retailer"
	case RoleConsumer:
		return "consumer"
	case RoleAdmin:
		return "admin"
	default:
		return "unknown"
	}
}

// IsValid returns true if the role is a recognized role.
func (r Role) IsValid() bool {
	return r <= RoleAdmin
}

// Registrable returns true if the role may be requested through
// self-service registration. Admin accounts are provisioned out-of-band
// and None is not a role.
func (r Role) Registrable() bool {
	switch r {
	case RoleProducer, RoleFactory, RoleRetailer, RoleConsumer:
		return true
	default:
		return false
	}
}

// chainNext is the fixed production-chain adjacency table:
// Producer -> Factory -> Retailer -> Consumer.
var chainNext = map[Role]Role{
	RoleProducer: RoleFactory,
	RoleFactory:  RoleRetailer,
	RoleRetailer: RoleConsumer,
}

// NextInChain returns the only role a participant with role r may transfer
// custody to, and whether such a role exists. Admin is exempt from the
// chain and never appears here.
func NextInChain(r Role) (Role, bool) {
	next, ok := chainNext[r]
	return next, ok
}

// CanTransferTo reports whether a sender with role from may hand custody to
// a recipient with role to. Admin may transfer to any approved participant;
// every other role may only move goods forward along the chain.
func CanTransferTo(from, to Role) bool {
	if from == RoleAdmin {
		return true
	}
	next, ok := chainNext[from]
	return ok && next == to
}

// Status is the participant approval lifecycle state. Approved and
// Rejected are terminal.
type Status uint8

const (
	StatusPending  Status = 0
	StatusApproved Status = 1
	StatusRejected Status = 2
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusApproved:
		return "approved"
	case StatusRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// ParseStatus maps a status name back to its value.
func ParseStatus(s string) (Status, bool) {
	switch s {
	case "pending":
		return StatusPending, true
	case "approved":
		return StatusApproved, true
	case "rejected":
		return StatusRejected, true
	default:
		return 0, false
	}
}

// IsValid returns true if the status is a recognized status.
func (s Status) IsValid() bool {
	return s <= StatusRejected
}

// Terminal returns true once the status can no longer change.
func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}
