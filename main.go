package main

import "github.com/RyanBlaney/track-analyzer/cmd"

func main() {
	cmd.Execute()
}
