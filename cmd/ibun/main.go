package main

import "github.com/materials-commons/mcbun/cmd/ibun/cmd"

func main() {
	cmd.Execute()
}
