package main

import "nerva/backend/internal/cli"

func main() {
	cli.Execute()
}
