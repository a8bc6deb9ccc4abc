package main

import (
	"fmt"
	"os"

	"github.com/alvarorichard/animestream/internal/cli"
	"github.com/alvarorichard/animestream/internal/util"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, util.ErrorHandler(err))
		os.Exit(1)
	}
}
