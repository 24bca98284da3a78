package engine

import (
	"container/heap"
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"github.com/jcmxo/98-pfm-traza-2025/internal/ledger"
)

// Traceability returns the full ancestry of a token plus the token
// itself, ordered from the deepest ancestor down to the queried token.
// A token reachable through multiple paths appears exactly once. The
// order is a deterministic reverse topological sort of the ancestor
// subgraph with ties broken by ascending id, so the queried token is
// always last.
//
// Ancestry is immutable after minting, so results are served through a
// read-through cache.
func (e *Engine) Traceability(ctx context.Context, id ledger.TokenID) ([]ledger.TokenID, error) {
	ctx, span := e.tracer.Start(ctx, "ledger.traceability")
	defer span.End()
	span.SetAttributes(attribute.Int64("token.id", int64(id)))

	return e.traceCache.Get(ctx, fmt.Sprintf("trace:%d", id), id, e.traceTTL)
}

// loadTrace computes the traceability ordering under the read lock.
func (e *Engine) loadTrace(ctx context.Context, id ledger.TokenID) ([]ledger.TokenID, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	tokens := e.store.Tokens()

	root, err := tokens.Get(id)
	if err != nil {
		return nil, err
	}

	// Collect the reachable-ancestor subgraph with an explicit
	// worklist; recursion would impose a depth bound the graph does
	// not have.
	parentsOf := map[ledger.TokenID][]ledger.TokenID{id: root.Parents}
	work := make([]ledger.TokenID, len(root.Parents))
	copy(work, root.Parents)

	for len(work) > 0 {
		cur := work[len(work)-1]
		work = work[:len(work)-1]
		if _, seen := parentsOf[cur]; seen {
			continue
		}
		tok, err := tokens.Get(cur)
		if err != nil {
			return nil, err
		}
		parentsOf[cur] = tok.Parents
		work = append(work, tok.Parents...)
	}

	// Kahn's algorithm over the subgraph. A node is ready once all of
	// its parents have been emitted; the min-heap frontier makes the
	// tie order ascending by id.
	remaining := make(map[ledger.TokenID]int, len(parentsOf))
	childrenOf := make(map[ledger.TokenID][]ledger.TokenID, len(parentsOf))
	for node, parents := range parentsOf {
		distinct := make(map[ledger.TokenID]struct{}, len(parents))
		for _, p := range parents {
			if _, dup := distinct[p]; dup {
				continue
			}
			distinct[p] = struct{}{}
			childrenOf[p] = append(childrenOf[p], node)
		}
		remaining[node] = len(distinct)
	}

	frontier := &tokenIDHeap{}
	heap.Init(frontier)
	for node, deps := range remaining {
		if deps == 0 {
			heap.Push(frontier, node)
		}
	}

	order := make([]ledger.TokenID, 0, len(parentsOf))
	for frontier.Len() > 0 {
		cur := heap.Pop(frontier).(ledger.TokenID)
		order = append(order, cur)
		for _, child := range childrenOf[cur] {
			remaining[child]--
			if remaining[child] == 0 {
				heap.Push(frontier, child)
			}
		}
	}

	return order, nil
}

// tokenIDHeap is a min-heap of token ids.
type tokenIDHeap []ledger.TokenID

func (h tokenIDHeap) Len() int           { return len(h) }
func (h tokenIDHeap) Less(i, j int) bool { return h[i] < h[j] }
func (h tokenIDHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *tokenIDHeap) Push(x any)        { *h = append(*h, x.(ledger.TokenID)) }
func (h *tokenIDHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
