package main

import (
	"os"

	"github.com/niyax/cvm/backend/cmd/cvm/commands"
)

// main is the entry point for the CVM CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/cvm [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
