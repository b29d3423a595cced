package main

import "github.com/dwax1324/roomescape-payment/internal/cli"

func main() {
	cli.Execute()
}
