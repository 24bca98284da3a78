package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/jcmxo/98-pfm-traza-2025/internal/ledger"
)

func TestTraceability_UnknownToken(t *testing.T) {
	e := newTestEngine(t)

	_, err := e.Traceability(context.Background(), 42)
	require.ErrorIs(t, err, ledger.ErrTokenNotFound)
}

func TestTraceability_RawMaterialIsItsOwnTrace(t *testing.T) {
	e := newTestEngine(t)
	seedChain(t, e)
	ctx := context.Background()

	wheat, err := e.Mint(ctx, addrProducer, ledger.KindRawMaterial, "Wheat", "", "", nil)
	require.NoError(t, err)

	trace, err := e.Traceability(ctx, wheat.ID)
	require.NoError(t, err)
	require.Equal(t, []ledger.TokenID{wheat.ID}, trace)
}

// A product with two parentless raw materials traces to the two parents
// ascending by id, then the product itself.
func TestTraceability_TwoParents(t *testing.T) {
	e := newTestEngine(t)
	seedChain(t, e)
	ctx := context.Background()

	bread := mintProduct(t, e, "Bread", "Wheat", "Water")

	trace, err := e.Traceability(ctx, bread)
	require.NoError(t, err)
	require.Equal(t, []ledger.TokenID{1, 2, bread}, trace)
}

// A diamond: two products sharing a raw material, folded into one. The
// shared ancestor appears exactly once.
func TestTraceability_DiamondDeduplicates(t *testing.T) {
	e := newTestEngine(t)
	seedChain(t, e)
	ctx := context.Background()

	grain, err := e.Mint(ctx, addrProducer, ledger.KindRawMaterial, "Grain", "", "", nil)
	require.NoError(t, err)
	handOver(t, e, addrProducer, addrFactory, grain.ID)

	flour, err := e.Mint(ctx, addrFactory, ledger.KindProduct, "Flour", "", "", []ledger.TokenID{grain.ID})
	require.NoError(t, err)
	bran, err := e.Mint(ctx, addrFactory, ledger.KindProduct, "Bran", "", "", []ledger.TokenID{grain.ID})
	require.NoError(t, err)

	mix, err := e.Mint(ctx, addrFactory, ledger.KindProduct, "Mix", "", "", []ledger.TokenID{flour.ID, bran.ID})
	require.NoError(t, err)

	trace, err := e.Traceability(ctx, mix.ID)
	require.NoError(t, err)
	require.Equal(t, []ledger.TokenID{grain.ID, flour.ID, bran.ID, mix.ID}, trace)
}

func TestTraceability_CachedResultStable(t *testing.T) {
	e := newTestEngine(t)
	seedChain(t, e)
	ctx := context.Background()

	bread := mintProduct(t, e, "Bread", "Wheat", "Water")

	first, err := e.Traceability(ctx, bread)
	require.NoError(t, err)
	second, err := e.Traceability(ctx, bread)
	require.NoError(t, err)
	require.Equal(t, first, second, "ancestry is immutable so repeated queries agree")
}

// mintProduct mints raw materials for the factory and folds them into a
// product, returning the product id.
func mintProduct(t *testing.T, e *Engine, name string, rawNames ...string) ledger.TokenID {
	t.Helper()
	ctx := context.Background()

	parents := make([]ledger.TokenID, 0, len(rawNames))
	for _, raw := range rawNames {
		tok, err := e.Mint(ctx, addrProducer, ledger.KindRawMaterial, raw, "", "", nil)
		require.NoError(t, err)
		handOver(t, e, addrProducer, addrFactory, tok.ID)
		parents = append(parents, tok.ID)
	}

	prod, err := e.Mint(ctx, addrFactory, ledger.KindProduct, name, "", "", parents)
	require.NoError(t, err)
	return prod.ID
}

// handOver moves a token between two approved participants.
func handOver(t *testing.T, e *Engine, from, to ledger.Address, id ledger.TokenID) {
	t.Helper()
	ctx := context.Background()

	tr, err := e.CreateTransfer(ctx, from, id, to, "")
	require.NoError(t, err)
	_, err = e.Accept(ctx, to, tr.ID)
	require.NoError(t, err)
}

// Property: however the graph is grown, a trace never contains
// duplicates, ends at the queried token, only lists ancestors, and every
// parent precedes its child.
func TestTraceability_Properties(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		e := New(ledger.NewMemoryStore(), Options{DisableTraceCache: true})
		defer e.Close()
		ctx := context.Background()

		_, err := e.ProvisionAdmin(ctx, addrAdmin, "admin")
		require.NoError(rt, err)
		_, err = e.Register(ctx, addrProducer, ledger.RoleProducer, "farm", "")
		require.NoError(rt, err)
		_, err = e.SetApproval(ctx, addrAdmin, addrProducer, true)
		require.NoError(rt, err)
		_, err = e.Register(ctx, addrFactory, ledger.RoleFactory, "mill", "")
		require.NoError(rt, err)
		_, err = e.SetApproval(ctx, addrAdmin, addrFactory, true)
		require.NoError(rt, err)

		// Grow a random DAG: raw materials at the factory, then
		// products over random subsets of existing tokens.
		nRaw := rapid.IntRange(1, 4).Draw(rt, "raw")
		var ids []ledger.TokenID
		for range nRaw {
			tok, err := e.Mint(ctx, addrProducer, ledger.KindRawMaterial, "raw", "", "", nil)
			require.NoError(rt, err)
			tr, err := e.CreateTransfer(ctx, addrProducer, tok.ID, addrFactory, "")
			require.NoError(rt, err)
			_, err = e.Accept(ctx, addrFactory, tr.ID)
			require.NoError(rt, err)
			ids = append(ids, tok.ID)
		}

		nProd := rapid.IntRange(0, 5).Draw(rt, "products")
		for range nProd {
			k := rapid.IntRange(1, len(ids)).Draw(rt, "parents")
			picked := make(map[ledger.TokenID]struct{}, k)
			parents := make([]ledger.TokenID, 0, k)
			for len(parents) < k {
				id := ids[rapid.IntRange(0, len(ids)-1).Draw(rt, "pick")]
				if _, dup := picked[id]; dup {
					continue
				}
				picked[id] = struct{}{}
				parents = append(parents, id)
			}
			tok, err := e.Mint(ctx, addrFactory, ledger.KindProduct, "prod", "", "", parents)
			require.NoError(rt, err)
			ids = append(ids, tok.ID)
		}

		target := ids[rapid.IntRange(0, len(ids)-1).Draw(rt, "target")]
		trace, err := e.Traceability(ctx, target)
		require.NoError(rt, err)
		require.NotEmpty(rt, trace)
		require.Equal(rt, target, trace[len(trace)-1], "queried token comes last")

		pos := make(map[ledger.TokenID]int, len(trace))
		for i, id := range trace {
			_, dup := pos[id]
			require.False(rt, dup, "trace must not contain duplicates")
			pos[id] = i
		}

		for _, id := range trace {
			tok, err := e.Token(ctx, id)
			require.NoError(rt, err)
			for _, parent := range tok.Parents {
				pp, ok := pos[parent]
				require.True(rt, ok, "ancestor %d of %d missing from trace", parent, id)
				require.Less(rt, pp, pos[id], "parent must precede child")
			}
		}
	})
}

// Property: tokens never appear in their own ancestry beyond the final
// position, which with parent-precedes-child ordering implies acyclicity.
func TestProvenanceGraph_AcyclicByConstruction(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		store := ledger.NewMemoryStore()
		e := New(store, Options{DisableTraceCache: true})
		defer e.Close()
		ctx := context.Background()

		_, err := e.ProvisionAdmin(ctx, addrAdmin, "admin")
		require.NoError(rt, err)
		_, err = e.Register(ctx, addrFactory, ledger.RoleFactory, "mill", "")
		require.NoError(rt, err)
		_, err = e.SetApproval(ctx, addrAdmin, addrFactory, true)
		require.NoError(rt, err)

		// Admin mints the raw bases directly to keep the setup short.
		base, err := e.Mint(ctx, addrAdmin, ledger.KindRawMaterial, "base", "", "", nil)
		require.NoError(rt, err)
		tr, err := e.CreateTransfer(ctx, addrAdmin, base.ID, addrFactory, "")
		require.NoError(rt, err)
		_, err = e.Accept(ctx, addrFactory, tr.ID)
		require.NoError(rt, err)

		ids := []ledger.TokenID{base.ID}
		steps := rapid.IntRange(1, 8).Draw(rt, "steps")
		for range steps {
			parent := ids[rapid.IntRange(0, len(ids)-1).Draw(rt, "parent")]
			tok, err := e.Mint(ctx, addrFactory, ledger.KindProduct, "step", "", "", []ledger.TokenID{parent})
			require.NoError(rt, err)
			ids = append(ids, tok.ID)
		}

		// No token lists itself or any later token as a parent.
		for _, id := range ids {
			tok, err := e.Token(ctx, id)
			require.NoError(rt, err)
			for _, parent := range tok.Parents {
				require.Less(rt, parent, id, "parents always predate their children")
			}
		}
	})
}
