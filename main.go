package main

import "github.com/KaramelBytes/healthrisk-cli/cmd"

func main() {
	cmd.Execute()
}
