package main

import "github.com/ponyo877/swapdesk/cli/cmd"

func main() {
	cmd.Execute()
}
