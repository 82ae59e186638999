// Package main is the entry point for the shopback-bot CLI.
package main

import (
	"github.com/joho/godotenv"

	"github.com/wdzeng/shopback-bot/cmd/shopback-bot/cmd"
)

func main() {
	_ = godotenv.Load()
	cmd.Execute()
}
