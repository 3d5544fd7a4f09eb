package main

import (
	"github.com/bizline/bizline/internal/cli"
)

func main() {
	cli.Execute()
}
