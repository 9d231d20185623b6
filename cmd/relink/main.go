package main

import (
	"github.com/relink-tools/relink/cmd"
)

func main() {
	cmd.Execute()
}
