package main

import (
	"fmt"
	"os"

	_ "github.com/CodMac/coupling-lens/x/golang"
	_ "github.com/CodMac/coupling-lens/x/java"
	_ "github.com/CodMac/coupling-lens/x/typescript"
)

const version = "0.3.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		exitWithError("执行失败", err)
	}
}

func exitWithError(msg string, err error) {
	fmt.Fprintf(os.Stderr, "❌ %s: %v\n", msg, err)
	os.Exit(1)
}
