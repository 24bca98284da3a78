package testutil

import (
	"testing"

	"github.com/jcmxo/98-pfm-traza-2025/internal/ledger"
)

// Chain names the participants and tokens of a seeded supply chain.
type Chain struct {
	Admin    ledger.Address
	Producer ledger.Address
	Factory  ledger.Address
	Retailer ledger.Address
	Consumer ledger.Address

	Grain ledger.TokenID
	Flour ledger.TokenID
	Bread ledger.TokenID
}

// SeedChain populates the store with a small complete supply chain:
// five approved participants, a grain -> flour -> bread lineage, bread
// already in retail custody and offered to the consumer.
func SeedChain(t *testing.T, store ledger.Store) Chain {
	t.Helper()

	chain := Chain{
		Admin:    "0xadmin",
		Producer: "0xfarm",
		Factory:  "0xmill",
		Retailer: "0xshop",
		Consumer: "0xeater",
	}

	b := NewBuilder(t, store).
		WithParticipant(chain.Admin, ledger.RoleAdmin, Approved(), Named("admin")).
		WithParticipant(chain.Producer, ledger.RoleProducer, Approved(), Named("farm")).
		WithParticipant(chain.Factory, ledger.RoleFactory, Approved(), Named("mill")).
		WithParticipant(chain.Retailer, ledger.RoleRetailer, Approved(), Named("shop")).
		WithParticipant(chain.Consumer, ledger.RoleConsumer, Approved(), Named("eater")).
		WithRawMaterial("grain", chain.Producer).
		WithAcceptedTransfer("grain", chain.Producer, chain.Factory).
		WithProduct("flour", chain.Factory, []string{"grain"}).
		WithProduct("bread", chain.Factory, []string{"flour"}).
		WithAcceptedTransfer("bread", chain.Factory, chain.Retailer).
		WithPendingTransfer("bread", chain.Retailer, chain.Consumer, Message("fresh today")).
		Build()

	chain.Grain = b.TokenID("grain")
	chain.Flour = b.TokenID("flour")
	chain.Bread = b.TokenID("bread")
	return chain
}
