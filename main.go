package main

import "folder-albums/internal/cli"

func main() {
	cli.Execute()
}
