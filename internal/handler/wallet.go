package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/walletkit/walletd/internal/model"
	"github.com/walletkit/walletd/internal/wallet"
)

// WalletHandler exposes the lifecycle operations over HTTP.
type WalletHandler struct {
	svc *wallet.Service
}

// NewWalletHandler creates a WalletHandler around the lifecycle service.
func NewWalletHandler(svc *wallet.Service) *WalletHandler {
	return &WalletHandler{svc: svc}
}

// Create handles POST /wallet/create
// @Summary      Create new wallet
// @Description  Generates a recovery phrase and a new wallet sealed under the PIN. The phrase is returned exactly once.
// @Tags         wallet
// @Accept       json
// @Produce      json
// @Param        request  body      model.CreateRequest  true  "Owner, PIN and display name"
// @Success      200      {object}  model.CreateResponse
// @Router       /wallet/create [post]
func (h *WalletHandler) Create(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed. Should be POST", http.StatusMethodNotAllowed)
		return
	}

	var req model.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, err)
		return
	}

	created, err := h.svc.Create(r.Context(), req.OwnerID, req.PIN, req.Name)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, model.CreateResponse{
		Address: created.Wallet.PublicKey,
		Phrase:  created.Phrase,
		QR:      addressQR(created.Wallet.PublicKey),
	})
}

// ImportPhrase handles POST /wallet/import/phrase
// @Summary      Import wallet from recovery phrase
// @Description  Validates the phrase, derives the keypair and restores any pending progress backup for that key.
// @Tags         wallet
// @Accept       json
// @Produce      json
// @Param        request  body      model.ImportPhraseRequest  true  "Owner, phrase, PIN and display name"
// @Success      200      {object}  model.CreateResponse
// @Router       /wallet/import/phrase [post]
func (h *WalletHandler) ImportPhrase(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed. Should be POST", http.StatusMethodNotAllowed)
		return
	}

	var req model.ImportPhraseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, err)
		return
	}

	created, err := h.svc.ImportFromPhrase(r.Context(), req.OwnerID, req.Phrase, req.PIN, req.Name)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, model.CreateResponse{
		Address: created.Wallet.PublicKey,
		QR:      addressQR(created.Wallet.PublicKey),
	})
}

// ImportKey handles POST /wallet/import/key
// @Summary      Import wallet from raw secret key
// @Description  Accepts the secret key as base58, base64, JSON byte array or hex.
// @Tags         wallet
// @Accept       json
// @Produce      json
// @Param        request  body      model.ImportKeyRequest  true  "Owner, secret key, PIN and display name"
// @Success      200      {object}  model.CreateResponse
// @Router       /wallet/import/key [post]
func (h *WalletHandler) ImportKey(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed. Should be POST", http.StatusMethodNotAllowed)
		return
	}

	var req model.ImportKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, err)
		return
	}

	created, err := h.svc.ImportFromSecretKey(r.Context(), req.OwnerID, req.Secret, req.PIN, req.Name)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, model.CreateResponse{
		Address: created.Wallet.PublicKey,
		QR:      addressQR(created.Wallet.PublicKey),
	})
}

// Delete handles POST /wallet/delete
// @Summary      Delete wallet
// @Description  Verifies the PIN, snapshots progress keyed by the public key, removes the wallet and resets progress.
// @Tags         wallet
// @Accept       json
// @Produce      json
// @Param        request  body      model.PINRequest  true  "Owner and PIN"
// @Success      200      {object}  model.OKResponse
// @Router       /wallet/delete [post]
func (h *WalletHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed. Should be POST", http.StatusMethodNotAllowed)
		return
	}

	var req model.PINRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, err)
		return
	}

	if err := h.svc.Delete(r.Context(), req.OwnerID, req.PIN); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, model.OKResponse{Success: true, Message: "Wallet deleted"})
}

// ChangePIN handles POST /wallet/pin
// @Summary      Change wallet PIN
// @Description  Re-seals both secrets and recomputes the verification hash under the new PIN atomically.
// @Tags         wallet
// @Accept       json
// @Produce      json
// @Param        request  body      model.ChangePINRequest  true  "Owner, old PIN and new PIN"
// @Success      200      {object}  model.OKResponse
// @Router       /wallet/pin [post]
func (h *WalletHandler) ChangePIN(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed. Should be POST", http.StatusMethodNotAllowed)
		return
	}

	var req model.ChangePINRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, err)
		return
	}

	if err := h.svc.ChangePIN(r.Context(), req.OwnerID, req.OldPIN, req.NewPIN); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, model.OKResponse{Success: true, Message: "PIN changed"})
}

// Deactivate handles POST /wallet/deactivate
// @Summary      Deactivate wallet
// @Description  Verifies the PIN and flips the wallet inactive without deleting anything.
// @Tags         wallet
// @Accept       json
// @Produce      json
// @Param        request  body      model.PINRequest  true  "Owner and PIN"
// @Success      200      {object}  model.OKResponse
// @Router       /wallet/deactivate [post]
func (h *WalletHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed. Should be POST", http.StatusMethodNotAllowed)
		return
	}

	var req model.PINRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, err)
		return
	}

	if err := h.svc.Deactivate(r.Context(), req.OwnerID, req.PIN); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, model.OKResponse{Success: true, Message: "Wallet deactivated"})
}

// ExportPhrase handles POST /wallet/export/phrase
// @Summary      Read recovery phrase
// @Description  PIN-gated read. Fails for wallets imported from a raw secret key.
// @Tags         wallet
// @Accept       json
// @Produce      json
// @Param        request  body      model.PINRequest  true  "Owner and PIN"
// @Success      200      {object}  model.PhraseResponse
// @Router       /wallet/export/phrase [post]
func (h *WalletHandler) ExportPhrase(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed. Should be POST", http.StatusMethodNotAllowed)
		return
	}

	var req model.PINRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, err)
		return
	}

	phrase, err := h.svc.Phrase(r.Context(), req.OwnerID, req.PIN)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, model.PhraseResponse{Phrase: phrase})
}

// ExportKey handles POST /wallet/export/key
// @Summary      Read secret key
// @Description  PIN-gated read, returned base58 encoded.
// @Tags         wallet
// @Accept       json
// @Produce      json
// @Param        request  body      model.PINRequest  true  "Owner and PIN"
// @Success      200      {object}  model.SecretKeyResponse
// @Router       /wallet/export/key [post]
func (h *WalletHandler) ExportKey(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed. Should be POST", http.StatusMethodNotAllowed)
		return
	}

	var req model.PINRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, err)
		return
	}

	priv, err := h.svc.Keypair(r.Context(), req.OwnerID, req.PIN)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, model.SecretKeyResponse{SecretKey: priv.String()})
}

// Status handles GET /wallet/status
// @Summary      Wallet status
// @Description  Returns active wallet metadata for the owner. Never returns secret material.
// @Tags         wallet
// @Produce      json
// @Param        ownerId  query     string  true  "Owner id"
// @Success      200      {object}  model.StatusResponse
// @Router       /wallet/status [get]
func (h *WalletHandler) Status(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. Should be GET", http.StatusMethodNotAllowed)
		return
	}

	ownerID := r.URL.Query().Get("ownerId")
	if ownerID == "" {
		writeBadRequest(w, errors.New("ownerId is required"))
		return
	}

	wlt, err := h.svc.Status(r.Context(), ownerID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, model.StatusResponse{
		Address:   wlt.PublicKey,
		Name:      wlt.DisplayName,
		HasPhrase: wlt.HasPhrase(),
		CreatedAt: wlt.CreatedAt.Format(time.RFC3339),
		QR:        addressQR(wlt.PublicKey),
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(v)
}

func writeBadRequest(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	json.NewEncoder(w).Encode(model.ErrorResponse{Error: err.Error(), Code: "BAD_REQUEST"})
}

// writeError maps an operation failure to an HTTP status and stable code.
// AuthError and DecryptionFailed intentionally map to the same code and
// message so a caller cannot tell a wrong PIN from corrupted ciphertext.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	code := "STORAGE"
	message := model.ErrStorage.Error()

	switch {
	case errors.Is(err, model.ErrWeakPIN):
		status, code, message = http.StatusBadRequest, "WEAK_PIN", err.Error()
	case errors.Is(err, model.ErrInvalidPhrase):
		status, code, message = http.StatusBadRequest, "INVALID_PHRASE", err.Error()
	case errors.Is(err, model.ErrUnrecognizedFormat):
		status, code, message = http.StatusBadRequest, "UNRECOGNIZED_FORMAT", err.Error()
	case errors.Is(err, model.ErrConflict):
		status, code, message = http.StatusConflict, "CONFLICT", err.Error()
	case errors.Is(err, model.ErrDuplicateKey):
		status, code, message = http.StatusConflict, "DUPLICATE_KEY", err.Error()
	case errors.Is(err, model.ErrAuth), errors.Is(err, model.ErrDecryptionFailed):
		status, code, message = http.StatusUnauthorized, "AUTH", model.ErrAuth.Error()
	case errors.Is(err, model.ErrNotFound):
		status, code, message = http.StatusNotFound, "NOT_FOUND", err.Error()
	case errors.Is(err, model.ErrNoPhrase):
		status, code, message = http.StatusNotFound, "NO_PHRASE", err.Error()
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(model.ErrorResponse{Error: message, Code: code})
}
