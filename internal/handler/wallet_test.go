package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/walletkit/walletd/internal/model"
	"github.com/walletkit/walletd/internal/store"
	"github.com/walletkit/walletd/internal/wallet"
)

func newTestHandler(t *testing.T) *WalletHandler {
	t.Helper()
	st, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return NewWalletHandler(wallet.New(st, zap.NewNop(), 2))
}

func postJSON(t *testing.T, fn http.HandlerFunc, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	blob, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(blob))
	rec := httptest.NewRecorder()
	fn(rec, req)
	return rec
}

func TestCreateHandler(t *testing.T) {
	h := newTestHandler(t)

	rec := postJSON(t, h.Create, "/wallet/create",
		model.CreateRequest{OwnerID: "alice", PIN: "4812", Name: "main"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp model.CreateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Address)
	require.NotEmpty(t, resp.Phrase)
	require.NotEmpty(t, resp.QR)
}

func TestCreateHandlerErrorMapping(t *testing.T) {
	h := newTestHandler(t)

	// Weak PIN -> 400 with stable code.
	rec := postJSON(t, h.Create, "/wallet/create",
		model.CreateRequest{OwnerID: "alice", PIN: "0000", Name: "main"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var errResp model.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
	require.Equal(t, "WEAK_PIN", errResp.Code)

	// Second create for the same owner -> 409.
	rec = postJSON(t, h.Create, "/wallet/create",
		model.CreateRequest{OwnerID: "alice", PIN: "4812", Name: "main"})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = postJSON(t, h.Create, "/wallet/create",
		model.CreateRequest{OwnerID: "alice", PIN: "4812", Name: "again"})
	require.Equal(t, http.StatusConflict, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
	require.Equal(t, "CONFLICT", errResp.Code)
}

func TestAuthMappingHidesFailureMode(t *testing.T) {
	h := newTestHandler(t)

	rec := postJSON(t, h.Create, "/wallet/create",
		model.CreateRequest{OwnerID: "alice", PIN: "4812", Name: "main"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = postJSON(t, h.ExportKey, "/wallet/export/key",
		model.PINRequest{OwnerID: "alice", PIN: "9999"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	var errResp model.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
	require.Equal(t, "AUTH", errResp.Code)
	require.Equal(t, model.ErrAuth.Error(), errResp.Error)
}

func TestStatusHandler(t *testing.T) {
	h := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/wallet/status?ownerId=alice", nil)
	rec := httptest.NewRecorder()
	h.Status(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)

	postJSON(t, h.Create, "/wallet/create",
		model.CreateRequest{OwnerID: "alice", PIN: "4812", Name: "main"})

	req = httptest.NewRequest(http.MethodGet, "/wallet/status?ownerId=alice", nil)
	rec = httptest.NewRecorder()
	h.Status(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp model.StatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "main", resp.Name)
	require.True(t, resp.HasPhrase)
	require.NotContains(t, rec.Body.String(), "secretKey") // no secret material
}

func TestMethodNotAllowed(t *testing.T) {
	h := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/wallet/create", nil)
	rec := httptest.NewRecorder()
	h.Create(rec, req)
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
