package main

import (
	_ "github.com/dwarvesf/withdrawal-engine/docs"
	"github.com/dwarvesf/withdrawal-engine/internal/server"
)

// @title Withdrawal Engine API
// @version 1.0
// @description Queue-based withdrawal processing service for EVM networks.
// @BasePath /
func main() {
	server.Init()
}
