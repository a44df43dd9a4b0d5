package main

import "github.com/opsdeck/offboard/cmd"

func main() {
	cmd.Execute()
}
