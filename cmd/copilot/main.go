package main

import "github.com/affiliateai/copilot/cmd/copilot/cli"

func main() {
	cli.Execute()
}
