package main

import "github.com/backbone81/durable-kv/cmd/kvlog/cmd"

func main() {
	cmd.Execute()
}
