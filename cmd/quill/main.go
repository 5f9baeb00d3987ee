package main

import "github.com/atikulmunna/quill/internal/cmd"

func main() {
	cmd.Execute()
}
