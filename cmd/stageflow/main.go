package main

import "github.com/kbukum/stageflow/cmd"

func main() {
	cmd.Execute()
}
