package main

import (
	"errors"
	"flag"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/darasahq/darasa/core"
	"github.com/darasahq/darasa/core/token"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	db        *sqlx.DB
	tokenRepo token.Repository
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate up|down|status [ARGS...]  - run database migrations")
	fmt.Println("  droptoken -user USER_ID           - delete a user's stored provider token (forces re-authentication)")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	dropTokenCmd := flag.NewFlagSet("droptoken", flag.ExitOnError)
	dropTokenUser := dropTokenCmd.String("user", "", "The user's id whose provider token should be deleted.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "droptoken":
		if err := dropTokenCmd.Parse(args[2:]); err != nil {
			return err
		}
		userID := core.CleanString(*dropTokenUser)
		if userID == "" {
			dropTokenCmd.Usage()
			return errHelp
		}
		return cli.dropToken(userID)
	default:
		cli.printUsage()
		return errHelp
	}
}
