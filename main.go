package main

import (
	"booth-queue/cmd"
	_ "go.uber.org/automaxprocs"
)

func main() {
	cmd.Start()
}
