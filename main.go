package main

import (
	"fmt"
	"os"

	"pagebuilder/internal/app"
)

func main() {
	if err := app.ServeMCP(); err != nil {
		fmt.Fprintln(os.Stderr, "pagebuilder:", err)
		os.Exit(1)
	}
}
