package main

import "github.com/fakeyudi/clicktrail/cmd"

func main() {
	cmd.Execute()
}
