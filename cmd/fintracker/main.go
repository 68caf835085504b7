// Command fintracker は家計簿APIサーバーを起動する。
//
// 使い方:
//
//	fintracker [serve|migrate|healthcheck]
package main

import (
	"fmt"
	"os"

	"github.com/hitoshi/fintracker/internal/app"
)

func main() {
	if err := app.Run(os.Stdout, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "fintracker: %v\n", err)
		os.Exit(1)
	}
}
