package main

import "overwatch/cmd"

func main() {
	cmd.Execute()
}
