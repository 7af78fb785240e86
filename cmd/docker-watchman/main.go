package main

import "github.com/oshokin/docker-watchman/cmd/docker-watchman/cmd"

func main() {
	cmd.Execute()
}
