package main

import (
	"fmt"
	"os"

	"BigPictureWatch/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "bigpicture: %v\n", err)
		os.Exit(1)
	}
}
