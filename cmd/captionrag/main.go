package main

import "captionrag/internal/cli"

func main() {
	cli.Execute()
}
