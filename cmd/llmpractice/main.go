package main

import (
	"os"

	"github.com/levitang/llm-practice/cmd/llmpractice/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
