package main

import "github.com/pagetutor/pagetutor/cmd"

func main() {
	cmd.Execute()
}
