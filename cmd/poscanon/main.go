package main

import "github.com/retailkit/poscanon/internal/cli"

func main() {
	cli.Execute()
}
