package httpserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	ledgererrors "daobank/contexts/governance-core/ledger-service/domain/errors"
	treasuryservice "daobank/contexts/governance-core/treasury-service"
	treasuryerrors "daobank/contexts/governance-core/treasury-service/domain/errors"
	treasuryhttp "daobank/contexts/governance-core/treasury-service/transport/http"
	_ "daobank/internal/platform/httpserver/docs"
	"daobank/internal/platform/metrics"

	httpSwagger "github.com/swaggo/http-swagger"
)

type Server struct {
	mux      *http.ServeMux
	logger   *slog.Logger
	addr     string
	treasury treasuryservice.Module
}

func New(
	treasury treasuryservice.Module,
	logger *slog.Logger,
	addr string,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:      http.NewServeMux(),
		logger:   logger,
		addr:     addr,
		treasury: treasury,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	return http.ListenAndServe(s.addr, s.mux)
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	s.mux.Handle("GET /metrics", metrics.Handler())

	s.mux.HandleFunc("POST /v1/treasuries", s.handleOpenTreasury)
	s.mux.HandleFunc("DELETE /v1/treasuries/{treasury_id}", s.handleCloseTreasury)
	s.mux.HandleFunc("GET /v1/treasuries/{treasury_id}", s.handleGetTreasury)
	s.mux.HandleFunc("GET /v1/treasuries/{treasury_id}/balance", s.handleTreasuryBalance)
	s.mux.HandleFunc("GET /v1/treasuries/count", s.handleTreasuryCount)
	s.mux.HandleFunc("GET /v1/orgs/{org_id}/treasury", s.handleTreasuryForOrg)

	s.mux.HandleFunc("POST /v1/treasuries/{treasury_id}/spends", s.handleProposeSpend)
	s.mux.HandleFunc("GET /v1/treasuries/{treasury_id}/spends", s.handleListSpends)
	s.mux.HandleFunc("GET /v1/treasuries/{treasury_id}/spends/{spend_id}", s.handleGetSpend)
	s.mux.HandleFunc("POST /v1/treasuries/{treasury_id}/spends/{spend_id}/vote", s.handleTriggerSpendVote)
	s.mux.HandleFunc("POST /v1/treasuries/{treasury_id}/spends/{spend_id}/sudo-approve", s.handleSudoApproveSpend)

	s.mux.HandleFunc("POST /v1/treasuries/{treasury_id}/memberships", s.handleProposeMembership)
	s.mux.HandleFunc("GET /v1/treasuries/{treasury_id}/memberships", s.handleListMemberships)
	s.mux.HandleFunc("GET /v1/treasuries/{treasury_id}/memberships/{proposal_id}", s.handleGetMembership)
	s.mux.HandleFunc("POST /v1/treasuries/{treasury_id}/memberships/{proposal_id}/vote", s.handleTriggerMembershipVote)
}

func (s *Server) handleOpenTreasury(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get("X-User-Id")
	if userID == "" {
		writeTreasuryError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	var req treasuryhttp.OpenTreasuryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeTreasuryError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.treasury.Handler.OpenTreasuryHandler(r.Context(), userID, req)
	if err != nil {
		writeTreasuryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleCloseTreasury(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get("X-User-Id")
	if userID == "" {
		writeTreasuryError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	treasuryID, ok := pathID(w, r, "treasury_id")
	if !ok {
		return
	}
	if err := s.treasury.Handler.CloseTreasuryHandler(r.Context(), userID, treasuryID); err != nil {
		writeTreasuryDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetTreasury(w http.ResponseWriter, r *http.Request) {
	treasuryID, ok := pathID(w, r, "treasury_id")
	if !ok {
		return
	}
	resp, err := s.treasury.Handler.GetTreasuryHandler(r.Context(), treasuryID)
	if err != nil {
		writeTreasuryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleTreasuryBalance(w http.ResponseWriter, r *http.Request) {
	treasuryID, ok := pathID(w, r, "treasury_id")
	if !ok {
		return
	}
	resp, err := s.treasury.Handler.TreasuryBalanceHandler(r.Context(), treasuryID)
	if err != nil {
		writeTreasuryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleTreasuryCount(w http.ResponseWriter, r *http.Request) {
	resp, err := s.treasury.Handler.TreasuryCountHandler(r.Context())
	if err != nil {
		writeTreasuryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleTreasuryForOrg(w http.ResponseWriter, r *http.Request) {
	orgID, ok := pathID(w, r, "org_id")
	if !ok {
		return
	}
	resp, err := s.treasury.Handler.TreasuryForOrgHandler(r.Context(), orgID)
	if err != nil {
		writeTreasuryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleProposeSpend(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get("X-User-Id")
	if userID == "" {
		writeTreasuryError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}
	treasuryID, ok := pathID(w, r, "treasury_id")
	if !ok {
		return
	}

	var req treasuryhttp.ProposeSpendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeTreasuryError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.treasury.Handler.ProposeSpendHandler(r.Context(), userID, treasuryID, req)
	if err != nil {
		writeTreasuryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListSpends(w http.ResponseWriter, r *http.Request) {
	treasuryID, ok := pathID(w, r, "treasury_id")
	if !ok {
		return
	}
	resp, err := s.treasury.Handler.ListSpendsHandler(r.Context(), treasuryID)
	if err != nil {
		writeTreasuryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetSpend(w http.ResponseWriter, r *http.Request) {
	treasuryID, ok := pathID(w, r, "treasury_id")
	if !ok {
		return
	}
	spendID, ok := pathID(w, r, "spend_id")
	if !ok {
		return
	}
	resp, err := s.treasury.Handler.GetSpendHandler(r.Context(), treasuryID, spendID)
	if err != nil {
		writeTreasuryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleTriggerSpendVote(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get("X-User-Id")
	if userID == "" {
		writeTreasuryError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}
	treasuryID, ok := pathID(w, r, "treasury_id")
	if !ok {
		return
	}
	spendID, ok := pathID(w, r, "spend_id")
	if !ok {
		return
	}
	resp, err := s.treasury.Handler.TriggerSpendVoteHandler(r.Context(), userID, treasuryID, spendID)
	if err != nil {
		writeTreasuryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSudoApproveSpend(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get("X-User-Id")
	if userID == "" {
		writeTreasuryError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}
	treasuryID, ok := pathID(w, r, "treasury_id")
	if !ok {
		return
	}
	spendID, ok := pathID(w, r, "spend_id")
	if !ok {
		return
	}
	resp, err := s.treasury.Handler.SudoApproveSpendHandler(r.Context(), userID, treasuryID, spendID)
	if err != nil {
		writeTreasuryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleProposeMembership(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get("X-User-Id")
	if userID == "" {
		writeTreasuryError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}
	treasuryID, ok := pathID(w, r, "treasury_id")
	if !ok {
		return
	}

	var req treasuryhttp.ProposeMembershipRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeTreasuryError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.treasury.Handler.ProposeMembershipHandler(r.Context(), userID, treasuryID, req)
	if err != nil {
		writeTreasuryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListMemberships(w http.ResponseWriter, r *http.Request) {
	treasuryID, ok := pathID(w, r, "treasury_id")
	if !ok {
		return
	}
	resp, err := s.treasury.Handler.ListMembershipsHandler(r.Context(), treasuryID)
	if err != nil {
		writeTreasuryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetMembership(w http.ResponseWriter, r *http.Request) {
	treasuryID, ok := pathID(w, r, "treasury_id")
	if !ok {
		return
	}
	proposalID, ok := pathID(w, r, "proposal_id")
	if !ok {
		return
	}
	resp, err := s.treasury.Handler.GetMembershipHandler(r.Context(), treasuryID, proposalID)
	if err != nil {
		writeTreasuryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleTriggerMembershipVote(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get("X-User-Id")
	if userID == "" {
		writeTreasuryError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}
	treasuryID, ok := pathID(w, r, "treasury_id")
	if !ok {
		return
	}
	proposalID, ok := pathID(w, r, "proposal_id")
	if !ok {
		return
	}
	resp, err := s.treasury.Handler.TriggerMembershipVoteHandler(r.Context(), userID, treasuryID, proposalID)
	if err != nil {
		writeTreasuryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeTreasuryDomainError(w http.ResponseWriter, err error) {
	metrics.IncCounter(metrics.MetricHTTPRequestsFailed)
	switch {
	case errors.Is(err, treasuryerrors.ErrTreasuryNotFound),
		errors.Is(err, treasuryerrors.ErrSpendNotFound),
		errors.Is(err, treasuryerrors.ErrProposalNotFound),
		errors.Is(err, treasuryerrors.ErrNoTreasuryForOrg):
		writeTreasuryError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, treasuryerrors.ErrOrgAlreadyHasTreasury),
		errors.Is(err, treasuryerrors.ErrConflict),
		errors.Is(err, treasuryerrors.ErrAlreadyFinalized),
		errors.Is(err, treasuryerrors.ErrInvalidStateForVote):
		writeTreasuryError(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, treasuryerrors.ErrDepositBelowMinimum):
		writeTreasuryError(w, http.StatusUnprocessableEntity, "deposit_below_minimum", err.Error())
	case errors.Is(err, treasuryerrors.ErrNotAMember),
		errors.Is(err, treasuryerrors.ErrNotAuthorized):
		writeTreasuryError(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, ledgererrors.ErrInsufficientBalance):
		writeTreasuryError(w, http.StatusUnprocessableEntity, "insufficient_balance", err.Error())
	case errors.Is(err, ledgererrors.ErrBelowExistentialDeposit),
		errors.Is(err, ledgererrors.ErrLivenessViolation):
		writeTreasuryError(w, http.StatusUnprocessableEntity, "existential_deposit", err.Error())
	default:
		writeTreasuryError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeTreasuryError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, treasuryhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (uint64, bool) {
	value, err := strconv.ParseUint(r.PathValue(name), 10, 64)
	if err != nil {
		writeTreasuryError(w, http.StatusBadRequest, "invalid_id", name+" must be an unsigned integer")
		return 0, false
	}
	return value, true
}
