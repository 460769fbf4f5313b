package main

import (
	"os"

	"github.com/Michaszek224/sk2kahoot/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
