package main

import (
	"net/http"
	"os"

	"go.uber.org/zap"

	"github.com/walletkit/walletd/internal/api"
	"github.com/walletkit/walletd/internal/config"
	"github.com/walletkit/walletd/internal/store"
	"github.com/walletkit/walletd/internal/wallet"
)

// @title        walletd API
// @version      1.0
// @description  Wallet lifecycle service: create, import, PIN management, delete with progress backup.
func main() {
	log, err := zap.NewProduction()
	if err != nil {
		os.Exit(1)
	}
	defer log.Sync()

	if err := config.Init(); err != nil {
		log.Fatal("config init failed", zap.Error(err))
	}

	st, err := store.Open(config.GetDBPath())
	if err != nil {
		log.Fatal("store open failed", zap.Error(err))
	}
	defer st.Close()

	svc := wallet.New(st, log, config.GetKDFWorkers())
	router := api.SetupRouter(svc)

	addr := ":" + config.GetPort()
	log.Info("walletd listening", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, router); err != nil {
		log.Fatal("server failed", zap.Error(err))
	}
}
