package model

// CreateRequest is the body for POST /wallet/create.
type CreateRequest struct {
	OwnerID string `json:"ownerId"`
	PIN     string `json:"pin"`
	Name    string `json:"name"`
}

// ImportPhraseRequest is the body for POST /wallet/import/phrase.
type ImportPhraseRequest struct {
	OwnerID string `json:"ownerId"`
	Phrase  string `json:"phrase"`
	PIN     string `json:"pin"`
	Name    string `json:"name"`
}

// ImportKeyRequest is the body for POST /wallet/import/key.
type ImportKeyRequest struct {
	OwnerID string `json:"ownerId"`
	Secret  string `json:"secret"`
	PIN     string `json:"pin"`
	Name    string `json:"name"`
}

// PINRequest is the body for operations gated only by the wallet PIN.
type PINRequest struct {
	OwnerID string `json:"ownerId"`
	PIN     string `json:"pin"`
}

// ChangePINRequest is the body for POST /wallet/pin.
type ChangePINRequest struct {
	OwnerID string `json:"ownerId"`
	OldPIN  string `json:"oldPin"`
	NewPIN  string `json:"newPin"`
}

// CreateResponse returns the address and, exactly once, the recovery phrase.
type CreateResponse struct {
	Address string `json:"address"`
	Phrase  string `json:"phrase,omitempty"`
	QR      string `json:"qr,omitempty"` // base64 PNG of the address
}

// StatusResponse describes the owner's active wallet without secret material.
type StatusResponse struct {
	Address   string `json:"address"`
	Name      string `json:"name"`
	HasPhrase bool   `json:"hasPhrase"`
	CreatedAt string `json:"createdAt"`
	QR        string `json:"qr,omitempty"`
}

// PhraseResponse is the PIN-gated recovery phrase read.
type PhraseResponse struct {
	Phrase string `json:"phrase"`
}

// SecretKeyResponse is the PIN-gated secret key read, base58 encoded.
type SecretKeyResponse struct {
	SecretKey string `json:"secretKey"`
}

// OKResponse acknowledges a mutating operation with no payload.
type OKResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}
