package main

import "github.com/pders01/voice-schema/cmd"

func main() {
	cmd.Execute()
}
