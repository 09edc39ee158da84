package market

import "fmt"

// HolderKind tags the identity space a Holder belongs to. Company names,
// AI fund names and the reserved ledger slots all live in separate kinds,
// so a fund sharing a name with a company can never collide in the
// ownership map.
type HolderKind int

const (
	KindPlayer HolderKind = iota
	KindMarketQueue
	KindEscrow
	KindAI
)

// Holder identifies one entry in a company's ownership ledger.
type Holder struct {
	Kind HolderKind
	Name string
}

// Player is the human participant.
func Player() Holder { return Holder{Kind: KindPlayer} }

// MarketQueue is the placeholder holder that absorbs queued buy pressure
// until the player claims it.
func MarketQueue() Holder { return Holder{Kind: KindMarketQueue} }

// Escrow parks shares reserved by queued sell/dump orders until each lot
// is released back to the public float.
func Escrow() Holder { return Holder{Kind: KindEscrow} }

// AI identifies a named AI shareholder (another company's treasury or a
// seeded CEO stake).
func AI(name string) Holder { return Holder{Kind: KindAI, Name: name} }

func (h Holder) IsAI() bool { return h.Kind == KindAI }

func (h Holder) String() string {
	switch h.Kind {
	case KindPlayer:
		return "player"
	case KindMarketQueue:
		return "Market Queue"
	case KindEscrow:
		return "escrow"
	case KindAI:
		return h.Name
	default:
		return fmt.Sprintf("holder(%d)", int(h.Kind))
	}
}
