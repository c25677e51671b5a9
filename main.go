package main

import (
	"os"

	"github.com/Snider/Larder/cmd"
	"github.com/Snider/Larder/pkg/logger"
)

var osExit = os.Exit

func main() {
	Main()
}
func Main() {
	if err := cmd.Execute(); err != nil {
		logger.New(false).Error("fatal error", "err", err)
		osExit(1)
	}
}
