package main

import "github.com/mcoot/competition-console/internal/cli"

func main() {
	cli.Execute()
}
