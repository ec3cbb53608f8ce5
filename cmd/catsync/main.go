// Copyright © 2018 One Concern

package main

import (
	"github.com/oneconcern/catsync/cmd/catsync/cmd"
)

func main() {
	cmd.Execute()
}
