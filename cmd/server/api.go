package main

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"royalty-engine/internal/chain"
	"royalty-engine/internal/domain"
	"royalty-engine/internal/observability"
	"royalty-engine/internal/service"
	"royalty-engine/internal/storage"
)

// api is the HTTP layer over the service facade.
type api struct {
	svc       *service.Service
	logger    *log.Logger
	startedAt time.Time
}

func newAPI(svc *service.Service, logger *log.Logger) *api {
	return &api{svc: svc, logger: logger, startedAt: time.Now()}
}

// routes builds the HTTP mux.
func (a *api) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", observability.Handler())
	mux.HandleFunc("GET /status", a.handleStatus)

	mux.HandleFunc("POST /v1/royalties/calculate", a.handleCalculate)
	mux.HandleFunc("POST /v1/payouts", a.handlePayout)
	mux.HandleFunc("POST /v1/rights", a.handleRights)
	mux.HandleFunc("GET /v1/transactions/{id}", a.handleGetTransaction)
	mux.HandleFunc("GET /v1/transactions", a.handleListTransactions)

	return mux
}

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// writeError maps domain errors to HTTP status codes.
func (a *api) writeError(w http.ResponseWriter, err error) {
	var verr *domain.ValidationError
	var cerr *domain.ConfigurationError
	var serr *chain.SubmissionError

	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: verr.Error(), Field: verr.Field})
	case errors.Is(err, domain.ErrUnsupportedChain):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, storage.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "transaction not found"})
	case errors.As(err, &cerr):
		a.logger.Printf("api: configuration error: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: cerr.Error()})
	case errors.As(err, &serr):
		a.logger.Printf("api: chain submission error: %v", err)
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: "chain submission failed"})
	default:
		a.logger.Printf("api: internal error: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed request body: " + err.Error()})
		return false
	}
	return true
}

type statusResponse struct {
	Status string `json:"status"`
	Uptime string `json:"uptime"`
}

func (a *api) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{
		Status: "running",
		Uptime: time.Since(a.startedAt).String(),
	})
}

type calculateRequest struct {
	Platform  string          `json:"platform"`
	Format    string          `json:"format"`
	Price     decimal.Decimal `json:"price"`
	PageCount int             `json:"pageCount"`
	Genre     string          `json:"genre"`
}

func (a *api) handleCalculate(w http.ResponseWriter, r *http.Request) {
	var req calculateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := a.svc.CalculateRoyalties(domain.RoyaltyRequest{
		Platform:  domain.Platform(req.Platform),
		Format:    domain.Format(req.Format),
		Price:     req.Price,
		PageCount: req.PageCount,
		Genre:     req.Genre,
	})
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type payoutRequest struct {
	ManuscriptID     string          `json:"manuscriptId"`
	UserID           string          `json:"userId"`
	Amount           decimal.Decimal `json:"amount"`
	Chain            string          `json:"chain"`
	RecipientAddress string          `json:"recipientAddress"`
	RoyaltyShare     decimal.Decimal `json:"royaltyShare"`
}

// transactionResponse is the wire form of a transaction record.
type transactionResponse struct {
	ID               string          `json:"id"`
	UserID           string          `json:"userId"`
	ManuscriptID     string          `json:"manuscriptId,omitempty"`
	TxHash           string          `json:"txHash"`
	Chain            string          `json:"chain"`
	Type             string          `json:"type"`
	Amount           decimal.Decimal `json:"amount"`
	Status           string          `json:"status"`
	FailureReason    string          `json:"failureReason,omitempty"`
	PlatformFee      decimal.Decimal `json:"platformFee"`
	RoyaltyShare     decimal.Decimal `json:"royaltyShare"`
	RecipientAddress string          `json:"recipientAddress,omitempty"`
	FeeTxHash        string          `json:"feeTxHash,omitempty"`
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`
}

func toTransactionResponse(tx *domain.Transaction) transactionResponse {
	return transactionResponse{
		ID:               tx.ID,
		UserID:           tx.UserID,
		ManuscriptID:     tx.ManuscriptID,
		TxHash:           tx.TxHash,
		Chain:            string(tx.Chain),
		Type:             string(tx.Type),
		Amount:           tx.Amount,
		Status:           string(tx.Status),
		FailureReason:    string(tx.FailureReason),
		PlatformFee:      tx.Metadata.PlatformFee,
		RoyaltyShare:     tx.Metadata.RoyaltyShare,
		RecipientAddress: tx.Metadata.RecipientAddress,
		FeeTxHash:        tx.Metadata.FeeTxHash,
		CreatedAt:        tx.CreatedAt,
		UpdatedAt:        tx.UpdatedAt,
	}
}

func (a *api) handlePayout(w http.ResponseWriter, r *http.Request) {
	var req payoutRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	tx, err := a.svc.ProcessRoyaltyPayout(r.Context(), domain.PayoutRequest{
		ManuscriptID:     req.ManuscriptID,
		UserID:           req.UserID,
		Amount:           req.Amount,
		Chain:            domain.Chain(req.Chain),
		RecipientAddress: req.RecipientAddress,
		RoyaltyShare:     req.RoyaltyShare,
	})
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, toTransactionResponse(tx))
}

type rightsRequest struct {
	ManuscriptID  string `json:"manuscriptId"`
	UserID        string `json:"userId"`
	Chain         string `json:"chain"`
	Title         string `json:"title"`
	Collaborators []struct {
		UserID        string          `json:"userId"`
		WalletAddress string          `json:"walletAddress"`
		RoyaltyShare  decimal.Decimal `json:"royaltyShare"`
	} `json:"collaborators"`
}

func (a *api) handleRights(w http.ResponseWriter, r *http.Request) {
	var req rightsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	collaborators := make([]domain.Collaborator, len(req.Collaborators))
	for i, c := range req.Collaborators {
		collaborators[i] = domain.Collaborator{
			UserID:        c.UserID,
			WalletAddress: c.WalletAddress,
			RoyaltyShare:  c.RoyaltyShare,
		}
	}

	tx, err := a.svc.SecureRights(r.Context(), domain.RegistrationRequest{
		ManuscriptID:  req.ManuscriptID,
		UserID:        req.UserID,
		Chain:         domain.Chain(req.Chain),
		Title:         req.Title,
		Collaborators: collaborators,
	})
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, toTransactionResponse(tx))
}

func (a *api) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	tx, err := a.svc.GetTransactionStatus(r.Context(), r.PathValue("id"))
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionResponse(tx))
}

func (a *api) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := a.svc.ListTransactions(r.Context(), r.URL.Query().Get("userId"))
	if err != nil {
		a.writeError(w, err)
		return
	}

	out := make([]transactionResponse, len(txs))
	for i, tx := range txs {
		out[i] = toTransactionResponse(tx)
	}
	writeJSON(w, http.StatusOK, out)
}
