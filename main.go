// main is the entry point of the careai CLI.
package main

import (
	"github.com/joho/godotenv"

	"github.com/careai/careai/cmd"
	"github.com/careai/careai/internal/contract"
	"github.com/careai/careai/internal/iocache"
)

func main() {
	// A missing .env file is fine; real environment variables still apply.
	_ = godotenv.Load()

	cmd.SetCacheManager(iocache.Manager)
	defer iocache.CloseStores()

	if err := cmd.Execute(); err != nil {
		iocache.CloseStores()
		contract.LogFatal("careai failed", err)
	}
}
