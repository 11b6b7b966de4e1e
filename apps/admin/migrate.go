package main

import (
	"path/filepath"

	"github.com/trezcool/goose"

	"github.com/darasahq/darasa/core"
)

var gooseRunFunc = goose.Run // mockable

func (cli *commandLine) migrate(args []string) error {
	arguments := make([]string, 0)
	if len(args) > 1 {
		arguments = append(arguments, args[1:]...)
	}
	// anchored to the project root so the command works from any directory
	dir := filepath.Join(core.Getwd(), "migrations")
	return gooseRunFunc(args[0], cli.db.DB, dir, arguments...)
}
