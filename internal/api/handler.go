// Package api exposes the ledger engine over HTTP. It provides REST
// endpoints for registry, minting and custody operations, and SSE for
// event streaming. The caller's address arrives in the X-Caller-Address
// header; authentication itself belongs to the trust layer in front.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jcmxo/98-pfm-traza-2025/internal/engine"
	"github.com/jcmxo/98-pfm-traza-2025/internal/ledger"
	"github.com/jcmxo/98-pfm-traza-2025/internal/log"
)

// CallerHeader carries the authenticated caller address.
const CallerHeader = "X-Caller-Address"

// Handler provides HTTP endpoints for ledger operations.
type Handler struct {
	engine *engine.Engine
}

// NewHandler creates a new API handler wrapping the given engine.
func NewHandler(e *engine.Engine) *Handler {
	return &Handler{engine: e}
}

// Routes returns an http.Handler with all API routes registered.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(requestLogger)

	r.Post("/participants", h.Register)
	r.Get("/participants", h.ListParticipants)
	r.Get("/participants/{address}", h.GetParticipant)
	r.Post("/participants/{address}/approval", h.SetApproval)

	r.Post("/tokens", h.Mint)
	r.Get("/tokens", h.ListTokens)
	r.Get("/tokens/{id}", h.GetToken)
	r.Get("/tokens/{id}/trace", h.Trace)

	r.Post("/transfers", h.CreateTransfer)
	r.Get("/transfers", h.ListTransfers)
	r.Get("/transfers/{id}", h.GetTransfer)
	r.Post("/transfers/{id}/accept", h.AcceptTransfer)
	r.Post("/transfers/{id}/reject", h.RejectTransfer)

	r.Get("/events", h.StreamEvents)
	r.Get("/health", h.Health)

	return r
}

// === Request/Response Types ===

// RegisterRequest is the request body for registering a participant.
type RegisterRequest struct {
	// Role uses the wire encoding: 1=producer, 2=factory, 3=retailer, 4=consumer.
	Role     int    `json:"role"`
	Name     string `json:"name,omitempty"`
	Metadata string `json:"metadata,omitempty"`
}

// ApprovalRequest is the request body for an approval decision.
type ApprovalRequest struct {
	Approved bool `json:"approved"`
}

// ParticipantResponse is the response body for a single participant.
type ParticipantResponse struct {
	Address      string    `json:"address"`
	Role         int       `json:"role"`
	RoleName     string    `json:"role_name"`
	Status       int       `json:"status"`
	StatusName   string    `json:"status_name"`
	Name         string    `json:"name,omitempty"`
	Metadata     string    `json:"metadata,omitempty"`
	RegisteredAt time.Time `json:"registered_at"`
}

// ListParticipantsResponse is the response body for listing participants.
type ListParticipantsResponse struct {
	Participants []ParticipantResponse `json:"participants"`
	Total        int                   `json:"total"`
}

// MintRequest is the request body for minting a token.
type MintRequest struct {
	// Kind uses the wire encoding: 0=raw_material, 1=product.
	Kind        int      `json:"kind"`
	Name        string   `json:"name,omitempty"`
	Description string   `json:"description,omitempty"`
	Metadata    string   `json:"metadata,omitempty"`
	Parents     []uint64 `json:"parents,omitempty"`
}

// TokenResponse is the response body for a single token.
type TokenResponse struct {
	ID        uint64    `json:"id"`
	Owner     string    `json:"owner"`
	Kind      int       `json:"kind"`
	KindName  string    `json:"kind_name"`
	Name      string    `json:"name,omitempty"`
	Desc      string    `json:"description,omitempty"`
	Metadata  string    `json:"metadata,omitempty"`
	Parents   []uint64  `json:"parents,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// TokenIDsResponse is the response body for token id listings.
type TokenIDsResponse struct {
	TokenIDs []uint64 `json:"token_ids"`
	Total    int      `json:"total"`
}

// TraceResponse is the response body for a traceability query.
type TraceResponse struct {
	TokenID uint64   `json:"token_id"`
	Trace   []uint64 `json:"trace"`
}

// CreateTransferRequest is the request body for a custody offer.
type CreateTransferRequest struct {
	TokenID uint64 `json:"token_id"`
	To      string `json:"to"`
	Message string `json:"message,omitempty"`
}

// TransferResponse is the response body for a single transfer.
type TransferResponse struct {
	ID         uint64    `json:"id"`
	TokenID    uint64    `json:"token_id"`
	From       string    `json:"from"`
	To         string    `json:"to"`
	Status     int       `json:"status"`
	StatusName string    `json:"status_name"`
	Message    string    `json:"message,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// TransferIDsResponse is the response body for transfer id listings.
type TransferIDsResponse struct {
	TransferIDs []uint64 `json:"transfer_ids"`
	Total       int      `json:"total"`
}

// ErrorResponse is the response body for errors.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// HealthResponse is the response body for the health check.
type HealthResponse struct {
	Status string `json:"status"`
}

// === Handlers ===

// Register creates a pending registration for the caller.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_json", "invalid JSON body")
		return
	}

	p, err := h.engine.Register(r.Context(), caller, ledger.Role(req.Role), req.Name, req.Metadata) // #nosec G115 -- bounds-checked by Registrable
	if err != nil {
		h.writeLedgerError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, participantToResponse(p))
}

// SetApproval finalizes a pending registration; caller must be an admin.
func (h *Handler) SetApproval(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	target := ledger.Address(chi.URLParam(r, "address"))

	var req ApprovalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_json", "invalid JSON body")
		return
	}

	p, err := h.engine.SetApproval(r.Context(), caller, target, req.Approved)
	if err != nil {
		h.writeLedgerError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, participantToResponse(p))
}

// GetParticipant returns one registration record.
func (h *Handler) GetParticipant(w http.ResponseWriter, r *http.Request) {
	addr := ledger.Address(chi.URLParam(r, "address"))

	p, err := h.engine.Participant(r.Context(), addr)
	if err != nil {
		h.writeLedgerError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, participantToResponse(p))
}

// ListParticipants lists registrations, optionally filtered by status.
func (h *Handler) ListParticipants(w http.ResponseWriter, r *http.Request) {
	var filter ledger.ListFilter
	if s := r.URL.Query().Get("status"); s != "" {
		status, ok := ledger.ParseStatus(s)
		if !ok {
			h.writeError(w, http.StatusBadRequest, "invalid_status", "unknown status filter")
			return
		}
		filter.Status = &status
	}

	participants, err := h.engine.Participants(r.Context(), filter)
	if err != nil {
		h.writeLedgerError(w, err)
		return
	}

	resp := ListParticipantsResponse{
		Participants: make([]ParticipantResponse, 0, len(participants)),
		Total:        len(participants),
	}
	for _, p := range participants {
		resp.Participants = append(resp.Participants, participantToResponse(p))
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// Mint creates a token owned by the caller.
func (h *Handler) Mint(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	var req MintRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_json", "invalid JSON body")
		return
	}

	kind := ledger.TokenKind(req.Kind) // #nosec G115
	if !kind.IsValid() {
		h.writeError(w, http.StatusBadRequest, "invalid_kind", "unknown token kind")
		return
	}

	parents := make([]ledger.TokenID, len(req.Parents))
	for i, p := range req.Parents {
		parents[i] = ledger.TokenID(p)
	}

	tok, err := h.engine.Mint(r.Context(), caller, kind, req.Name, req.Description, req.Metadata, parents)
	if err != nil {
		h.writeLedgerError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, tokenToResponse(tok))
}

// GetToken returns one token record.
func (h *Handler) GetToken(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	tok, err := h.engine.Token(r.Context(), ledger.TokenID(id))
	if err != nil {
		h.writeLedgerError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, tokenToResponse(tok))
}

// ListTokens lists the ids of tokens owned by the given owner.
func (h *Handler) ListTokens(w http.ResponseWriter, r *http.Request) {
	owner := r.URL.Query().Get("owner")
	if owner == "" {
		h.writeError(w, http.StatusBadRequest, "missing_owner", "owner query parameter is required")
		return
	}

	ids, err := h.engine.TokensOwnedBy(r.Context(), ledger.Address(owner))
	if err != nil {
		h.writeLedgerError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, TokenIDsResponse{TokenIDs: tokenIDsToWire(ids), Total: len(ids)})
}

// Trace returns the full ancestry of a token, deepest ancestor first.
func (h *Handler) Trace(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	trace, err := h.engine.Traceability(r.Context(), ledger.TokenID(id))
	if err != nil {
		h.writeLedgerError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, TraceResponse{TokenID: id, Trace: tokenIDsToWire(trace)})
}

// CreateTransfer offers custody of a token to another participant.
func (h *Handler) CreateTransfer(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	var req CreateTransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_json", "invalid JSON body")
		return
	}

	tr, err := h.engine.CreateTransfer(r.Context(), caller, ledger.TokenID(req.TokenID), ledger.Address(req.To), req.Message)
	if err != nil {
		h.writeLedgerError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, transferToResponse(tr))
}

// GetTransfer returns one transfer record.
func (h *Handler) GetTransfer(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	tr, err := h.engine.Transfer(r.Context(), ledger.TransferID(id))
	if err != nil {
		h.writeLedgerError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, transferToResponse(tr))
}

// ListTransfers lists transfer ids for a participant: ?pending_for=addr
// returns the pending inbox, ?for=addr the full history.
func (h *Handler) ListTransfers(w http.ResponseWriter, r *http.Request) {
	var (
		ids []ledger.TransferID
		err error
	)
	switch {
	case r.URL.Query().Get("pending_for") != "":
		ids, err = h.engine.PendingTransfersFor(r.Context(), ledger.Address(r.URL.Query().Get("pending_for")))
	case r.URL.Query().Get("for") != "":
		ids, err = h.engine.TransfersFor(r.Context(), ledger.Address(r.URL.Query().Get("for")))
	default:
		h.writeError(w, http.StatusBadRequest, "missing_filter", "pending_for or for query parameter is required")
		return
	}
	if err != nil {
		h.writeLedgerError(w, err)
		return
	}

	wire := make([]uint64, len(ids))
	for i, id := range ids {
		wire[i] = uint64(id)
	}
	h.writeJSON(w, http.StatusOK, TransferIDsResponse{TransferIDs: wire, Total: len(wire)})
}

// AcceptTransfer finalizes a pending transfer and moves custody.
func (h *Handler) AcceptTransfer(w http.ResponseWriter, r *http.Request) {
	h.finalizeTransfer(w, r, true)
}

// RejectTransfer finalizes a pending transfer without moving custody.
func (h *Handler) RejectTransfer(w http.ResponseWriter, r *http.Request) {
	h.finalizeTransfer(w, r, false)
}

func (h *Handler) finalizeTransfer(w http.ResponseWriter, r *http.Request, accept bool) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	var (
		tr  *ledger.Transfer
		err error
	)
	if accept {
		tr, err = h.engine.Accept(r.Context(), caller, ledger.TransferID(id))
	} else {
		tr, err = h.engine.Reject(r.Context(), caller, ledger.TransferID(id))
	}
	if err != nil {
		h.writeLedgerError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, transferToResponse(tr))
}

// Health reports service liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// === Helpers ===

// caller extracts the authenticated caller address or writes a 401.
func (h *Handler) caller(w http.ResponseWriter, r *http.Request) (ledger.Address, bool) {
	addr := r.Header.Get(CallerHeader)
	if addr == "" {
		h.writeError(w, http.StatusUnauthorized, "missing_caller", CallerHeader+" header is required")
		return "", false
	}
	return ledger.Address(addr), true
}

// pathID parses the numeric {id} route parameter or writes a 400.
func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_id", "id must be a positive integer")
		return 0, false
	}
	return id, true
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error(log.CatAPI, "failed to encode JSON response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, code, message string) {
	h.writeJSON(w, status, ErrorResponse{Error: message, Code: code})
}

// writeLedgerError maps a ledger sentinel to its HTTP status and wire code.
func (h *Handler) writeLedgerError(w http.ResponseWriter, err error) {
	code := ledger.Code(err)
	if code == "" {
		log.ErrorErr(log.CatAPI, "internal error", err)
		h.writeError(w, http.StatusInternalServerError, "internal", "internal error")
		return
	}
	h.writeError(w, statusFor(err), code, err.Error())
}

// statusFor picks the HTTP status for a ledger error: 404 for absences,
// 403 for authorization failures, 409 for state-machine conflicts, 422
// for domain-rule violations.
func statusFor(err error) int {
	switch {
	case errors.Is(err, ledger.ErrParticipantNotFound),
		errors.Is(err, ledger.ErrTokenNotFound),
		errors.Is(err, ledger.ErrTransferNotFound):
		return http.StatusNotFound
	case errors.Is(err, ledger.ErrUnauthorized),
		errors.Is(err, ledger.ErrNotApproved),
		errors.Is(err, ledger.ErrNotOwner),
		errors.Is(err, ledger.ErrNotRecipient):
		return http.StatusForbidden
	case errors.Is(err, ledger.ErrAlreadyRegistered),
		errors.Is(err, ledger.ErrAlreadyFinalized),
		errors.Is(err, ledger.ErrTransferAlreadyPending),
		errors.Is(err, ledger.ErrTransferNotPending):
		return http.StatusConflict
	default:
		return http.StatusUnprocessableEntity
	}
}

func participantToResponse(p *ledger.Participant) ParticipantResponse {
	return ParticipantResponse{
		Address:      string(p.Address),
		Role:         int(p.Role),
		RoleName:     p.Role.String(),
		Status:       int(p.Status),
		StatusName:   p.Status.String(),
		Name:         p.Name,
		Metadata:     p.Metadata,
		RegisteredAt: p.RegisteredAt,
	}
}

func tokenToResponse(t *ledger.Token) TokenResponse {
	return TokenResponse{
		ID:        uint64(t.ID),
		Owner:     string(t.Owner),
		Kind:      int(t.Kind),
		KindName:  t.Kind.String(),
		Name:      t.Name,
		Desc:      t.Description,
		Metadata:  t.Metadata,
		Parents:   tokenIDsToWire(t.Parents),
		CreatedAt: t.CreatedAt,
	}
}

func transferToResponse(t *ledger.Transfer) TransferResponse {
	return TransferResponse{
		ID:         uint64(t.ID),
		TokenID:    uint64(t.TokenID),
		From:       string(t.From),
		To:         string(t.To),
		Status:     int(t.Status),
		StatusName: t.Status.String(),
		Message:    t.Message,
		CreatedAt:  t.CreatedAt,
	}
}

func tokenIDsToWire(ids []ledger.TokenID) []uint64 {
	if len(ids) == 0 {
		return nil
	}
	wire := make([]uint64, len(ids))
	for i, id := range ids {
		wire[i] = uint64(id)
	}
	return wire
}
