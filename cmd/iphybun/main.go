package main

import "github.com/materials-commons/mcbun/cmd/iphybun/cmd"

func main() {
	cmd.Execute()
}
