package main

import (
	"github.com/tallydeck/tallydeck/internal/cli"
)

func main() {
	cli.Execute()
}
