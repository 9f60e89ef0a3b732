package main

import (
	"fmt"
	"os"

	"fjacquet/finances/cmd/balance"
	"fjacquet/finances/cmd/categories"
	"fjacquet/finances/cmd/create"
	deletecmd "fjacquet/finances/cmd/delete"
	"fjacquet/finances/cmd/export"
	importcmd "fjacquet/finances/cmd/import"
	"fjacquet/finances/cmd/root"
)

func init() {
	root.Init()

	root.Cmd.AddCommand(create.Cmd)
	root.Cmd.AddCommand(deletecmd.Cmd)
	root.Cmd.AddCommand(importcmd.Cmd)
	root.Cmd.AddCommand(balance.Cmd)
	root.Cmd.AddCommand(categories.Cmd)
	root.Cmd.AddCommand(export.Cmd)
}

func main() {
	if err := root.Cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
