package main

import "github.com/mcoot/farklegame/internal/cli"

func main() {
	cli.Execute()
}
