package main

import "github.com/the-dev-tools/dev-tools/packages/formtree/cmd/formtree/cmd"

func main() {
	cmd.Execute()
}
