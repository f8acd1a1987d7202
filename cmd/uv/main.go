package main

import "github.com/ericmarkmartin/uv/internal/cli"

func main() {
	cli.Execute()
}
