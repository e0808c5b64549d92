package main

import "github.com/filinglab/riskseg/internal/cli"

func main() {
	cli.Execute()
}
