package api

import (
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/walletkit/walletd/internal/handler"
	"github.com/walletkit/walletd/internal/wallet"
)

// SetupRouter sets up router with handlers
func SetupRouter(svc *wallet.Service) http.Handler {
	walletHandler := handler.NewWalletHandler(svc)

	mux := http.NewServeMux()

	// Swagger UI
	mux.HandleFunc("/swagger/", httpSwagger.WrapHandler)

	// Wallet endpoints
	mux.HandleFunc("/wallet/create", walletHandler.Create)
	mux.HandleFunc("/wallet/import/phrase", walletHandler.ImportPhrase)
	mux.HandleFunc("/wallet/import/key", walletHandler.ImportKey)
	mux.HandleFunc("/wallet/delete", walletHandler.Delete)
	mux.HandleFunc("/wallet/pin", walletHandler.ChangePIN)
	mux.HandleFunc("/wallet/deactivate", walletHandler.Deactivate)
	mux.HandleFunc("/wallet/export/phrase", walletHandler.ExportPhrase)
	mux.HandleFunc("/wallet/export/key", walletHandler.ExportKey)
	mux.HandleFunc("/wallet/status", walletHandler.Status)

	return mux
}
