package gateway

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/diptomoy-das/vital-docs-share/internal/registry"
	"github.com/diptomoy-das/vital-docs-share/internal/wallet"
	"github.com/diptomoy-das/vital-docs-share/pkg/logger"
	"github.com/diptomoy-das/vital-docs-share/pkg/repository"
	"github.com/diptomoy-das/vital-docs-share/pkg/types"
)

// Handlers handles HTTP requests for the registry gateway
type Handlers struct {
	registry *registry.Client
	session  *wallet.Session
	index    *repository.DocumentIndex
	metrics  *Metrics
	logger   *logger.Logger
}

// NewHandlers creates new HTTP handlers. The document index may be nil when
// the service runs without a database.
func NewHandlers(reg *registry.Client, session *wallet.Session, index *repository.DocumentIndex, metrics *Metrics, log *logger.Logger) *Handlers {
	return &Handlers{
		registry: reg,
		session:  session,
		index:    index,
		metrics:  metrics,
		logger:   log,
	}
}

// RegisterRoutes registers HTTP routes
func (h *Handlers) RegisterRoutes(router *mux.Router) {
	// Wallet session routes
	router.HandleFunc("/wallet/connect", h.ConnectWallet).Methods("POST")
	router.HandleFunc("/wallet/session", h.SessionStatus).Methods("GET")
	router.HandleFunc("/wallet/balance", h.WalletBalance).Methods("GET")

	// Document routes
	router.HandleFunc("/documents", h.RegisterDocument).Methods("POST")
	router.HandleFunc("/documents", h.ListDocuments).Methods("GET")
	router.HandleFunc("/documents/indexed", h.ListIndexedDocuments).Methods("GET")
	router.HandleFunc("/documents/{documentID}", h.GetDocument).Methods("GET")

	// Access routes
	router.HandleFunc("/grants", h.GrantAccess).Methods("POST")
	router.HandleFunc("/documents/{documentID}/grants/{facility}", h.RevokeAccess).Methods("DELETE")
	router.HandleFunc("/documents/{documentID}/access/{facility}", h.CheckAccess).Methods("GET")
}

// ConnectWallet establishes the wallet session
func (h *Handlers) ConnectWallet(w http.ResponseWriter, r *http.Request) {
	identity, err := h.session.Connect(r.Context())
	if err != nil {
		h.writeVitalError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"identity": identity,
		"status":   h.session.Status(),
	})
}

// SessionStatus returns the current session snapshot
func (h *Handlers) SessionStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.session.Status())
}

// WalletBalance returns the connected identity's native balance
func (h *Handlers) WalletBalance(w http.ResponseWriter, r *http.Request) {
	balance, err := h.session.Balance(r.Context())
	if err != nil {
		h.writeVitalError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"identity": h.session.Status().Identity,
		"balance":  balance.String(),
	})
}

type registerDocumentRequest struct {
	ContentID      string `json:"content_id"`
	DocumentType   string `json:"document_type"`
	EncryptionHash string `json:"encryption_hash"`
}

// RegisterDocument handles document registration and persists the result
// into the caller's document index
func (h *Handlers) RegisterDocument(w http.ResponseWriter, r *http.Request) {
	if !h.authorizedForSession(w, r) {
		return
	}

	var req registerDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON payload")
		return
	}

	result, err := h.registry.RegisterDocument(r.Context(), req.ContentID, req.DocumentType, req.EncryptionHash)
	if err != nil {
		h.metrics.RecordTransaction(string(types.OpRegisterDocument), false)
		h.writeVitalError(w, err)
		return
	}
	h.metrics.RecordTransaction(string(types.OpRegisterDocument), true)

	if h.index != nil && result.SubjectID != nil {
		if doc, derr := h.registry.Document(r.Context(), *result.SubjectID); derr == nil {
			if ierr := h.index.Save(doc, result.TransactionHash); ierr != nil {
				h.logger.WithError(ierr).Warn("Failed to persist document into index")
			}
		}
	}

	writeJSON(w, http.StatusCreated, result)
}

// ListDocuments returns the connected identity's document ids from the
// registry
func (h *Handlers) ListDocuments(w http.ResponseWriter, r *http.Request) {
	ids, err := h.registry.UserDocuments(r.Context())
	if err != nil {
		h.writeVitalError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"document_ids": ids,
	})
}

// ListIndexedDocuments returns the caller's persisted document list
func (h *Handlers) ListIndexedDocuments(w http.ResponseWriter, r *http.Request) {
	if h.index == nil {
		writeError(w, http.StatusNotImplemented, "no_index", "Document index is not configured")
		return
	}

	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "No authenticated identity")
		return
	}

	docs, err := h.index.ListByOwner(identity)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "index_error", "Failed to list indexed documents")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"documents": docs,
	})
}

// GetDocument returns one document's registry metadata
func (h *Handlers) GetDocument(w http.ResponseWriter, r *http.Request) {
	documentID, ok := h.pathInt64(w, r, "documentID")
	if !ok {
		return
	}

	doc, err := h.registry.Document(r.Context(), documentID)
	if err != nil {
		h.writeVitalError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, doc)
}

type grantAccessRequest struct {
	DocumentIDs []int64  `json:"document_ids"`
	Facilities  []string `json:"facilities"`
}

// GrantAccess handles batch access grants
func (h *Handlers) GrantAccess(w http.ResponseWriter, r *http.Request) {
	if !h.authorizedForSession(w, r) {
		return
	}

	var req grantAccessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON payload")
		return
	}

	facilities := make([]types.Identity, 0, len(req.Facilities))
	for _, f := range req.Facilities {
		facilities = append(facilities, types.NormalizeIdentity(f))
	}

	result, err := h.registry.GrantAccess(r.Context(), req.DocumentIDs, facilities)
	if err != nil {
		h.metrics.RecordTransaction(string(types.OpGrantAccess), false)
		h.writeVitalError(w, err)
		return
	}
	h.metrics.RecordTransaction(string(types.OpGrantAccess), true)

	writeJSON(w, http.StatusOK, result)
}

// RevokeAccess handles single-pair revocation
func (h *Handlers) RevokeAccess(w http.ResponseWriter, r *http.Request) {
	if !h.authorizedForSession(w, r) {
		return
	}

	documentID, ok := h.pathInt64(w, r, "documentID")
	if !ok {
		return
	}
	facility := types.NormalizeIdentity(mux.Vars(r)["facility"])

	result, err := h.registry.RevokeAccess(r.Context(), documentID, facility)
	if err != nil {
		h.metrics.RecordTransaction(string(types.OpRevokeAccess), false)
		h.writeVitalError(w, err)
		return
	}
	h.metrics.RecordTransaction(string(types.OpRevokeAccess), true)

	writeJSON(w, http.StatusOK, result)
}

// CheckAccess reports whether a facility holds valid access to a document
func (h *Handlers) CheckAccess(w http.ResponseWriter, r *http.Request) {
	documentID, ok := h.pathInt64(w, r, "documentID")
	if !ok {
		return
	}
	facility := types.NormalizeIdentity(mux.Vars(r)["facility"])

	valid, err := h.registry.HasValidAccess(r.Context(), documentID, facility)
	if err != nil {
		h.writeVitalError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"document_id": documentID,
		"facility":    facility,
		"has_access":  valid,
	})
}

// HealthCheck reports service liveness
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"service": "registry-service",
		"session": h.session.Status().State,
	})
}

// authorizedForSession rejects mutating calls whose token identity does not
// match the active wallet session: the service signs as the session
// identity, so a mismatched token must never drive a transaction.
func (h *Handlers) authorizedForSession(w http.ResponseWriter, r *http.Request) bool {
	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "No authenticated identity")
		return false
	}

	status := h.session.Status()
	if status.State != types.SessionConnected || status.Identity != identity {
		writeError(w, http.StatusForbidden, "identity_mismatch", "Token identity does not match the active wallet session")
		return false
	}

	return true
}

func (h *Handlers) pathInt64(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	raw := mux.Vars(r)[name]
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "Invalid "+name)
		return 0, false
	}
	return value, true
}

// writeVitalError maps domain error codes onto HTTP statuses
func (h *Handlers) writeVitalError(w http.ResponseWriter, err error) {
	ve, ok := types.AsVitalError(err)
	if !ok {
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}

	status := http.StatusInternalServerError
	switch ve.Code {
	case types.ErrCodeInvalidInput:
		status = http.StatusBadRequest
	case types.ErrCodeNotOwner:
		status = http.StatusForbidden
	case types.ErrCodeNotFound:
		status = http.StatusNotFound
	case types.ErrCodeNotConnected:
		status = http.StatusConflict
	case types.ErrCodeWalletUnavailable, types.ErrCodeNoAccounts, types.ErrCodeNetworkSwitchRejected, types.ErrCodeSubmissionFailed:
		status = http.StatusBadGateway
	case types.ErrCodeConfirmationTimeout:
		status = http.StatusGatewayTimeout
	}

	writeError(w, status, ve.Code, ve.Message)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Headers are already gone; nothing useful left to do
		return
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}
