package main

import "github.com/vietddude/ara/internal/cli"

func main() {
	cli.Execute()
}
