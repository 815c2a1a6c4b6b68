package main

import "github.com/z-g-h/dafoam/cmd"

func main() {
	cmd.Execute()
}
