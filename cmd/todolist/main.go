package main

import (
	"os"

	"todolist/cmd/todolist/cmd"
)

func main() {
	os.Exit(cmd.Execute(os.Args[1:], os.Stdout, os.Stderr, nil))
}
