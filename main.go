package main

import "github.com/dotcommander/classlint/cmd"

func main() {
	cmd.Execute()
}
