package models

import "fmt"

// Mechanism is the auction format. It is fixed at creation.
type Mechanism uint8

const (
	SealedBid Mechanism = iota
	English
	Dutch
	Batch
)

var mechanismSlugs = [...]string{
	"sealed-bid",
	"english",
	"dutch",
	"batch",
}

var mechanismNames = [...]string{
	"Sealed Bid",
	"English",
	"Dutch",
	"Batch",
}

func (m Mechanism) String() string {
	if int(m) >= len(mechanismSlugs) {
		return fmt.Sprintf("mechanism(%d)", m)
	}
	return mechanismSlugs[m]
}

// DisplayName is the human readable name of the mechanism
func (m Mechanism) DisplayName() string {
	if int(m) >= len(mechanismNames) {
		return m.String()
	}
	return mechanismNames[m]
}

func (m Mechanism) MarshalText() ([]byte, error) {
	if int(m) >= len(mechanismSlugs) {
		return nil, UnknownEnumError{"mechanism", m.String()}
	}
	return []byte(m.String()), nil
}

func (m *Mechanism) UnmarshalText(b []byte) error {
	parsed, err := ParseMechanism(string(b))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// ParseMechanism parses the slug form ("sealed-bid", "english", "dutch", "batch")
func ParseMechanism(s string) (Mechanism, error) {
	for i, slug := range mechanismSlugs {
		if slug == s {
			return Mechanism(i), nil
		}
	}
	return 0, UnknownEnumError{"mechanism", s}
}

// Status is the lifecycle state of an auction as seen by the client.
// It is always derived, see DeriveStatus.
type Status uint8

const (
	Pending Status = iota
	Active
	Ended
	RevealPhase
	Settled
	Cancelled
)

var statusSlugs = [...]string{
	"pending",
	"active",
	"ended",
	"reveal",
	"settled",
	"cancelled",
}

func (s Status) String() string {
	if int(s) >= len(statusSlugs) {
		return fmt.Sprintf("status(%d)", s)
	}
	return statusSlugs[s]
}

func (s Status) MarshalText() ([]byte, error) {
	if int(s) >= len(statusSlugs) {
		return nil, UnknownEnumError{"status", s.String()}
	}
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(b []byte) error {
	parsed, err := ParseStatus(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseStatus parses the slug form of a status
func ParseStatus(s string) (Status, error) {
	for i, slug := range statusSlugs {
		if slug == s {
			return Status(i), nil
		}
	}
	return 0, UnknownEnumError{"status", s}
}

// EventKind is an external event that moves an auction along its lifecycle
type EventKind uint8

const (
	BidConfirmed EventKind = iota
	WinnerRevealed
	AuctionCancelled
	ItemClaimed
	RefundClaimed
	BidRevealed
)

var eventKinds = [...]string{
	"BidConfirmed",
	"WinnerRevealed",
	"AuctionCancelled",
	"ItemClaimed",
	"RefundClaimed",
	"BidRevealed",
}

func (k EventKind) String() string {
	if int(k) >= len(eventKinds) {
		return fmt.Sprintf("event(%d)", k)
	}
	return eventKinds[k]
}
