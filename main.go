package main

import "github.com/malkhasyann/data-analysis-tool/cmd"

func main() {
	cmd.Execute()
}
