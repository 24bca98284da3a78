package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jcmxo/98-pfm-traza-2025/internal/ledger"
)

func TestBuilder_Participants(t *testing.T) {
	store := ledger.NewMemoryStore()
	defer func() { _ = store.Close() }()

	NewBuilder(t, store).
		WithParticipant("0xa", ledger.RoleProducer, Approved(), Named("alice")).
		WithParticipant("0xb", ledger.RoleFactory).
		WithParticipant("0xc", ledger.RoleRetailer, Rejected()).
		Build()

	a, err := store.Participants().Get("0xa")
	require.NoError(t, err)
	require.Equal(t, ledger.StatusApproved, a.Status)
	require.Equal(t, "alice", a.Name)

	b, err := store.Participants().Get("0xb")
	require.NoError(t, err)
	require.Equal(t, ledger.StatusPending, b.Status, "participants default to pending")
	require.Equal(t, "0xb", b.Name, "name defaults to the address")

	c, err := store.Participants().Get("0xc")
	require.NoError(t, err)
	require.Equal(t, ledger.StatusRejected, c.Status)
}

func TestBuilder_TokensResolveParentsByName(t *testing.T) {
	store := ledger.NewMemoryStore()
	defer func() { _ = store.Close() }()

	b := NewBuilder(t, store).
		WithRawMaterial("hops", "0xfarm").
		WithRawMaterial("barley", "0xfarm").
		WithProduct("beer", "0xbrewery", []string{"barley", "hops"}, Description("pale ale")).
		Build()

	beer, err := store.Tokens().Get(b.TokenID("beer"))
	require.NoError(t, err)
	require.Equal(t, ledger.KindProduct, beer.Kind)
	require.Equal(t, "pale ale", beer.Description)
	require.Equal(t, []ledger.TokenID{b.TokenID("barley"), b.TokenID("hops")}, beer.Parents,
		"parents keep declaration order")
}

func TestBuilder_AcceptedTransferMovesCustody(t *testing.T) {
	store := ledger.NewMemoryStore()
	defer func() { _ = store.Close() }()

	b := NewBuilder(t, store).
		WithRawMaterial("ore", "0xmine").
		WithAcceptedTransfer("ore", "0xmine", "0xsmelter").
		Build()

	tok, err := store.Tokens().Get(b.TokenID("ore"))
	require.NoError(t, err)
	require.Equal(t, ledger.Address("0xsmelter"), tok.Owner)
}

func TestBuilder_PendingAndRejectedLeaveCustody(t *testing.T) {
	store := ledger.NewMemoryStore()
	defer func() { _ = store.Close() }()

	b := NewBuilder(t, store).
		WithRawMaterial("wool", "0xfarm").
		WithRejectedTransfer("wool", "0xfarm", "0xweaver").
		WithPendingTransfer("wool", "0xfarm", "0xweaver", Message("second try")).
		Build()

	tok, err := store.Tokens().Get(b.TokenID("wool"))
	require.NoError(t, err)
	require.Equal(t, ledger.Address("0xfarm"), tok.Owner)

	pending, err := store.Transfers().PendingForToken(b.TokenID("wool"))
	require.NoError(t, err)
	require.Equal(t, "second try", pending.Message)
}
