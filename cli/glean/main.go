package main

import (
	"os"

	gleancmder "github.com/papercomputeco/glean/cmd/glean"
)

func main() {
	cmd := gleancmder.NewGleanCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
