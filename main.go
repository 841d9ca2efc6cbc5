package main

import "github.com/phototools-dev/workflow-runner/pkg/cli"

func main() {
	cli.Execute()
}
