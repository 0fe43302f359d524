package main

import "questdb/internal/cli"

func main() {
	cli.Execute()
}
