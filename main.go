package main

import "github.com/TruWeaveTrader/pairs-gym/cmd"

func main() {
	cmd.Execute()
}
