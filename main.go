package main

import "github.com/xmesh-net/trellis/cmd"

func main() {
	cmd.Execute()
}
