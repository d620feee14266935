// Package httpapi exposes the claims pool over REST.
package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/opencover/claims_layer/internal/app/dao"
	"github.com/opencover/claims_layer/internal/app/domain/member"
	"github.com/opencover/claims_layer/internal/app/metrics"
	"github.com/opencover/claims_layer/internal/app/storage"
	"github.com/opencover/claims_layer/pkg/logger"
)

// handler bundles the HTTP endpoints for the pool.
type handler struct {
	pool    *dao.Pool
	journal storage.EventStore
	log     *logger.Logger
	audit   *auditLog
}

// NewHandler returns a router exposing the pool REST API. Mutating routes
// require caller attribution via the auth middleware.
func NewHandler(pool *dao.Pool, journal storage.EventStore, auth Auth, log *logger.Logger) http.Handler {
	if log == nil {
		log = logger.NewDefault("httpapi")
	}
	h := &handler{pool: pool, journal: journal, log: log, audit: newAuditLog(0)}

	r := mux.NewRouter()
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/health", h.health).Methods(http.MethodGet)
	r.HandleFunc("/audit", h.auditTrail).Methods(http.MethodGet)

	r.HandleFunc("/analytics", h.analytics).Methods(http.MethodGet)
	r.HandleFunc("/premium", h.premiumQuote).Methods(http.MethodGet)
	r.HandleFunc("/claims", h.listClaims).Methods(http.MethodGet)
	r.HandleFunc("/claims/{id}", h.getClaim).Methods(http.MethodGet)
	r.HandleFunc("/claims/{id}/events", h.claimEvents).Methods(http.MethodGet)
	r.HandleFunc("/events", h.listEvents).Methods(http.MethodGet)
	r.HandleFunc("/members/{address}", h.getMember).Methods(http.MethodGet)
	r.HandleFunc("/stake/{address}", h.getStake).Methods(http.MethodGet)

	attributed := r.NewRoute().Subrouter()
	attributed.Use(auth.Middleware(), h.audit.middleware)
	attributed.HandleFunc("/roles", h.assignRole).Methods(http.MethodPost)
	attributed.HandleFunc("/stake/deposit", h.deposit).Methods(http.MethodPost)
	attributed.HandleFunc("/stake/withdraw", h.withdraw).Methods(http.MethodPost)
	attributed.HandleFunc("/claims", h.submitClaim).Methods(http.MethodPost)
	attributed.HandleFunc("/claims/{id}/votes", h.vote).Methods(http.MethodPost)
	attributed.HandleFunc("/claims/{id}/execute", h.executeClaim).Methods(http.MethodPost)
	attributed.HandleFunc("/claims/{id}/challenge", h.challengeClaim).Methods(http.MethodPost)

	return metrics.InstrumentHandler(r)
}

func (h *handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) auditTrail(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.audit.list())
}

// --- registry ---------------------------------------------------------------

func (h *handler) assignRole(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Target string `json:"target"`
		Role   string `json:"role"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	err := h.pool.AssignRole(r.Context(), CallerFrom(r.Context()), payload.Target, member.Role(payload.Role))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"target": payload.Target, "role": payload.Role})
}

func (h *handler) getMember(w http.ResponseWriter, r *http.Request) {
	address := mux.Vars(r)["address"]
	participant, err := h.pool.Participant(r.Context(), address)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, participant)
}

// --- staking ----------------------------------------------------------------

func (h *handler) deposit(w http.ResponseWriter, r *http.Request) {
	amount, err := decodeAmount(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := h.pool.Deposit(r.Context(), CallerFrom(r.Context()), amount); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"staked": amount.String()})
}

func (h *handler) withdraw(w http.ResponseWriter, r *http.Request) {
	amount, err := decodeAmount(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := h.pool.Withdraw(r.Context(), CallerFrom(r.Context()), amount); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"withdrawn": amount.String()})
}

func (h *handler) getStake(w http.ResponseWriter, r *http.Request) {
	address := mux.Vars(r)["address"]
	staked := h.pool.StakeOf(r.Context(), address)
	writeJSON(w, http.StatusOK, map[string]string{"address": address, "staked": staked.String()})
}

// --- claims -----------------------------------------------------------------

func (h *handler) submitClaim(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Description string `json:"description"`
		Amount      string `json:"amount"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	amount, err := parseAmount(payload.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	record, err := h.pool.SubmitClaim(r.Context(), CallerFrom(r.Context()), payload.Description, amount)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, record)
}

func (h *handler) listClaims(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.pool.Claims(r.Context()))
}

func (h *handler) getClaim(w http.ResponseWriter, r *http.Request) {
	id, err := claimID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	record, err := h.pool.Claim(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (h *handler) vote(w http.ResponseWriter, r *http.Request) {
	id, err := claimID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var payload struct {
		Approve bool `json:"approve"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := h.pool.Vote(r.Context(), CallerFrom(r.Context()), id, payload.Approve); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"claim_id": id, "approve": payload.Approve})
}

func (h *handler) executeClaim(w http.ResponseWriter, r *http.Request) {
	id, err := claimID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	record, err := h.pool.ExecuteClaim(r.Context(), CallerFrom(r.Context()), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (h *handler) challengeClaim(w http.ResponseWriter, r *http.Request) {
	id, err := claimID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := h.pool.ChallengeClaim(r.Context(), CallerFrom(r.Context()), id); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"claim_id": id, "status": "disputed"})
}

// --- analytics --------------------------------------------------------------

func (h *handler) analytics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.pool.Analytics(r.Context()))
}

func (h *handler) premiumQuote(w http.ResponseWriter, r *http.Request) {
	insured, err := parseAmount(r.URL.Query().Get("insured_value"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	premium := h.pool.CalculatePremium(r.Context(), insured)
	writeJSON(w, http.StatusOK, map[string]string{
		"insured_value": insured.String(),
		"premium":       premium.String(),
		"rate":          strconv.Itoa(h.pool.PremiumRate(r.Context())),
	})
}

// --- journal ----------------------------------------------------------------

func (h *handler) listEvents(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid limit %q", raw))
			return
		}
		limit = parsed
	}
	evs, err := h.journal.ListEvents(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, evs)
}

func (h *handler) claimEvents(w http.ResponseWriter, r *http.Request) {
	id, err := claimID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	evs, err := h.journal.ListClaimEvents(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, evs)
}

// --- helpers ----------------------------------------------------------------

func claimID(r *http.Request) (uint64, error) {
	raw := mux.Vars(r)["id"]
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid claim id %q", raw)
	}
	return id, nil
}

func decodeAmount(body io.Reader) (*big.Int, error) {
	var payload struct {
		Amount string `json:"amount"`
	}
	if err := decodeJSON(body, &payload); err != nil {
		return nil, err
	}
	return parseAmount(payload.Amount)
}

func parseAmount(raw string) (*big.Int, error) {
	if raw == "" {
		return new(big.Int), nil
	}
	amount, ok := new(big.Int).SetString(raw, 10)
	if !ok || amount.Sign() < 0 {
		return nil, fmt.Errorf("invalid amount %q", raw)
	}
	return amount, nil
}

func decodeJSON(body io.Reader, dst any) error {
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, dao.ErrUnauthorized):
		writeError(w, http.StatusForbidden, err)
	case errors.Is(err, dao.ErrClaimNotFound), errors.Is(err, dao.ErrUnknownMember):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, dao.ErrInvalidRole), errors.Is(err, dao.ErrBelowMinimumStake),
		errors.Is(err, dao.ErrInsufficientStake):
		writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, dao.ErrVotingClosed), errors.Is(err, dao.ErrVotingStillOpen),
		errors.Is(err, dao.ErrAlreadyExecuted), errors.Is(err, dao.ErrNotExecuted),
		errors.Is(err, dao.ErrChallengeWindowClosed):
		writeError(w, http.StatusConflict, err)
	case errors.Is(err, dao.ErrTransferFailed):
		writeError(w, http.StatusBadGateway, err)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
