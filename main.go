package main

import "github.com/quorumtrade/quorum/internal/cli"

func main() {
	cli.Run()
}
