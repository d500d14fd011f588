package main

import "glucosewatch/internal/cli"

func main() {
	cli.Execute()
}
