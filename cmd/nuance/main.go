package main

import (
	"github.com/nuancepkg/nuance/pkg/cmd"
)

func main() {
	cmd.Execute()
}
