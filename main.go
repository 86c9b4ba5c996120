package main

import "github.com/tev2-toolkit/mrgen/cmd"

func main() {
	cmd.Execute()
}
