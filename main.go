package main

import "splitter/cmd"

func main() {
	cmd.Execute()
}
