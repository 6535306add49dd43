package main

import (
	"os"

	"github.com/insightdelivered/bank-statement-analyzer/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
