package api

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jcmxo/98-pfm-traza-2025/internal/engine"
	"github.com/jcmxo/98-pfm-traza-2025/internal/ledger"
)

const (
	adminAddr    = "0xadmin"
	producerAddr = "0xfarm"
	factoryAddr  = "0xmill"
)

func newTestHandler(t *testing.T) (http.Handler, *engine.Engine) {
	t.Helper()
	e := engine.New(ledger.NewMemoryStore(), engine.Options{})
	t.Cleanup(func() { _ = e.Close() })

	_, err := e.ProvisionAdmin(context.Background(), adminAddr, "admin")
	require.NoError(t, err)

	return NewHandler(e).Routes(), e
}

func doJSON(t *testing.T, h http.Handler, method, path, caller string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if caller != "" {
		req.Header.Set(CallerHeader, caller)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), "body: %s", rec.Body.String())
	return v
}

// registerApproved registers an address and approves it as admin.
func registerApproved(t *testing.T, h http.Handler, addr string, role int) {
	t.Helper()
	rec := doJSON(t, h, http.MethodPost, "/participants", addr, RegisterRequest{Role: role, Name: addr})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = doJSON(t, h, http.MethodPost, "/participants/"+addr+"/approval", adminAddr, ApprovalRequest{Approved: true})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestRegister_CreatesParticipant(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := doJSON(t, h, http.MethodPost, "/participants", producerAddr, RegisterRequest{Role: 1, Name: "Farm"})
	require.Equal(t, http.StatusCreated, rec.Code)

	got := decode[ParticipantResponse](t, rec)
	require.Equal(t, producerAddr, got.Address)
	require.Equal(t, 1, got.Role)
	require.Equal(t, "producer", got.RoleName)
	require.Equal(t, 0, got.Status, "registration starts pending")
}

func TestRegister_RequiresCallerHeader(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := doJSON(t, h, http.MethodPost, "/participants", "", RegisterRequest{Role: 1})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "missing_caller", decode[ErrorResponse](t, rec).Code)
}

func TestRegister_AdminRoleRejected(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := doJSON(t, h, http.MethodPost, "/participants", producerAddr, RegisterRequest{Role: 5})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Equal(t, "invalid_role", decode[ErrorResponse](t, rec).Code)
}

func TestRegister_Duplicate(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := doJSON(t, h, http.MethodPost, "/participants", producerAddr, RegisterRequest{Role: 1})
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = doJSON(t, h, http.MethodPost, "/participants", producerAddr, RegisterRequest{Role: 1})
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, "already_registered", decode[ErrorResponse](t, rec).Code)
}

func TestSetApproval_NonAdminForbidden(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := doJSON(t, h, http.MethodPost, "/participants", producerAddr, RegisterRequest{Role: 1})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/participants/"+producerAddr+"/approval", producerAddr, ApprovalRequest{Approved: true})
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, "unauthorized", decode[ErrorResponse](t, rec).Code)
}

func TestGetParticipant_NotFound(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := doJSON(t, h, http.MethodGet, "/participants/0xghost", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "not_found", decode[ErrorResponse](t, rec).Code)
}

func TestListParticipants_StatusFilter(t *testing.T) {
	h, _ := newTestHandler(t)
	registerApproved(t, h, producerAddr, 1)

	rec := doJSON(t, h, http.MethodPost, "/participants", factoryAddr, RegisterRequest{Role: 2})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/participants?status=pending", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[ListParticipantsResponse](t, rec)
	require.Equal(t, 1, got.Total)
	require.Equal(t, factoryAddr, got.Participants[0].Address)

	rec = doJSON(t, h, http.MethodGet, "/participants?status=bogus", "", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMint_Lifecycle(t *testing.T) {
	h, _ := newTestHandler(t)
	registerApproved(t, h, producerAddr, 1)

	rec := doJSON(t, h, http.MethodPost, "/tokens", producerAddr, MintRequest{Kind: 0, Name: "Wheat"})
	require.Equal(t, http.StatusCreated, rec.Code)
	tok := decode[TokenResponse](t, rec)
	require.Equal(t, uint64(1), tok.ID)
	require.Equal(t, producerAddr, tok.Owner)
	require.Equal(t, "raw_material", tok.KindName)

	rec = doJSON(t, h, http.MethodGet, "/tokens/1", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodGet, fmt.Sprintf("/tokens?owner=%s", producerAddr), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	owned := decode[TokenIDsResponse](t, rec)
	require.Equal(t, []uint64{1}, owned.TokenIDs)
}

func TestMint_Unapproved(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := doJSON(t, h, http.MethodPost, "/participants", producerAddr, RegisterRequest{Role: 1})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/tokens", producerAddr, MintRequest{Kind: 0, Name: "Wheat"})
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, "not_approved", decode[ErrorResponse](t, rec).Code)
}

func TestMint_InvalidKind(t *testing.T) {
	h, _ := newTestHandler(t)
	registerApproved(t, h, producerAddr, 1)

	rec := doJSON(t, h, http.MethodPost, "/tokens", producerAddr, MintRequest{Kind: 7})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "invalid_kind", decode[ErrorResponse](t, rec).Code)
}

func TestTransfer_FullFlow(t *testing.T) {
	h, _ := newTestHandler(t)
	registerApproved(t, h, producerAddr, 1)
	registerApproved(t, h, factoryAddr, 2)

	rec := doJSON(t, h, http.MethodPost, "/tokens", producerAddr, MintRequest{Kind: 0, Name: "Wheat"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/transfers", producerAddr, CreateTransferRequest{TokenID: 1, To: factoryAddr, Message: "harvest"})
	require.Equal(t, http.StatusCreated, rec.Code)
	tr := decode[TransferResponse](t, rec)
	require.Equal(t, uint64(1), tr.ID)
	require.Equal(t, "pending", tr.StatusName)

	rec = doJSON(t, h, http.MethodGet, fmt.Sprintf("/transfers?pending_for=%s", factoryAddr), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, []uint64{1}, decode[TransferIDsResponse](t, rec).TransferIDs)

	rec = doJSON(t, h, http.MethodPost, "/transfers/1/accept", factoryAddr, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "accepted", decode[TransferResponse](t, rec).StatusName)

	// Custody moved.
	rec = doJSON(t, h, http.MethodGet, "/tokens/1", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, factoryAddr, decode[TokenResponse](t, rec).Owner)

	// A second decision conflicts.
	rec = doJSON(t, h, http.MethodPost, "/transfers/1/accept", factoryAddr, nil)
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, "transfer_not_pending", decode[ErrorResponse](t, rec).Code)

	// History covers both sides.
	rec = doJSON(t, h, http.MethodGet, fmt.Sprintf("/transfers?for=%s", producerAddr), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, []uint64{1}, decode[TransferIDsResponse](t, rec).TransferIDs)
}

func TestTransfer_ChainViolation(t *testing.T) {
	h, _ := newTestHandler(t)
	registerApproved(t, h, producerAddr, 1)
	registerApproved(t, h, "0xshop", 3)

	rec := doJSON(t, h, http.MethodPost, "/tokens", producerAddr, MintRequest{Kind: 0, Name: "Wheat"})
	require.Equal(t, http.StatusCreated, rec.Code)

	// Producer must hand to a factory, not a retailer.
	rec = doJSON(t, h, http.MethodPost, "/transfers", producerAddr, CreateTransferRequest{TokenID: 1, To: "0xshop"})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Equal(t, "role_not_permitted", decode[ErrorResponse](t, rec).Code)
}

func TestTrace_Endpoint(t *testing.T) {
	h, _ := newTestHandler(t)
	registerApproved(t, h, producerAddr, 1)
	registerApproved(t, h, factoryAddr, 2)

	for _, name := range []string{"Wheat", "Water"} {
		rec := doJSON(t, h, http.MethodPost, "/tokens", producerAddr, MintRequest{Kind: 0, Name: name})
		require.Equal(t, http.StatusCreated, rec.Code)
	}
	for id := 1; id <= 2; id++ {
		rec := doJSON(t, h, http.MethodPost, "/transfers", producerAddr, CreateTransferRequest{TokenID: uint64(id), To: factoryAddr})
		require.Equal(t, http.StatusCreated, rec.Code)
		rec = doJSON(t, h, http.MethodPost, fmt.Sprintf("/transfers/%d/accept", id), factoryAddr, nil)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := doJSON(t, h, http.MethodPost, "/tokens", factoryAddr, MintRequest{Kind: 1, Name: "Bread", Parents: []uint64{1, 2}})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/tokens/3/trace", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	trace := decode[TraceResponse](t, rec)
	require.Equal(t, []uint64{1, 2, 3}, trace.Trace)

	rec = doJSON(t, h, http.MethodGet, "/tokens/99/trace", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPathID_Invalid(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := doJSON(t, h, http.MethodGet, "/tokens/abc", "", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "invalid_id", decode[ErrorResponse](t, rec).Code)
}

func TestHealth(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := doJSON(t, h, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", decode[HealthResponse](t, rec).Status)
}

func TestRequestID_Echoed(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := doJSON(t, h, http.MethodGet, "/health", "", nil)
	require.NotEmpty(t, rec.Header().Get("X-Request-Id"), "a request id should be assigned")

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-Id", "caller-chosen")
	rec2 := httptest.NewRecorder()
	h.ServeHTTP(rec2, req)
	require.Equal(t, "caller-chosen", rec2.Header().Get("X-Request-Id"))
}

func TestStreamEvents_DeliversMint(t *testing.T) {
	h, e := newTestHandler(t)
	registerApproved(t, h, producerAddr, 1)

	srv := httptest.NewServer(h)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/events", nil)
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)

	// First frame is the connected handshake.
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	require.Equal(t, "event: connected", strings.TrimSpace(line))
	for strings.TrimSpace(line) != "" {
		line, err = reader.ReadString('\n')
		require.NoError(t, err)
	}

	_, err = e.Mint(context.Background(), producerAddr, ledger.KindRawMaterial, "Wheat", "", "", nil)
	require.NoError(t, err)

	line, err = reader.ReadString('\n')
	require.NoError(t, err)
	require.Equal(t, "event: TokenMinted", strings.TrimSpace(line))

	line, err = reader.ReadString('\n')
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(line, "data: "), "payload line should follow the event line")
	require.Contains(t, line, `"token_id":1`)
}
