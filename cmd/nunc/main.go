package main

import "nunc/internal/cmd"

func main() {
	cmd.Run()
}
