package main

import "github.com/sarchlab/clustersim/cmd/clustersim/cmd"

func main() {
	cmd.Execute()
}
