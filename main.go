package main

import "github.com/hermes-agent/hermesctl/cmd"

func main() {
	cmd.Execute()
}
