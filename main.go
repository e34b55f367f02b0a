package main

import "github.com/minculusofia-wq/arbitrage-polymarket/cmd"

func main() {
	cmd.Execute()
}
