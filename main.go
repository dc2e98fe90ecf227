package main

import "github.com/peekknuf/dqfix/cmd"

func main() {
	cmd.Execute()
}
