package main

import "github.com/materials-commons/mcbun/cmd/mcbund/cmd"

func main() {
	cmd.Execute()
}
