package main

import "github.com/netrapro/netra/cmd"

func main() {
	cmd.Execute()
}
