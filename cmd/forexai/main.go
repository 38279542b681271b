package main

import "github.com/rustyeddy/forexai/internal/cli"

func main() {
	cli.Execute()
}
