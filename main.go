package main

import "langprops/internal/cli"

func main() {
	cli.Execute()
}
