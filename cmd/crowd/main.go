package main

import "github.com/arl/crowdsteer/cmd/crowd/cmd"

func main() {
	cmd.Execute()
}
