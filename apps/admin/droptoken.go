package main

import "context"

func (cli *commandLine) dropToken(userID string) error {
	if err := cli.tokenRepo.DeleteTokenByUserID(context.Background(), userID); err != nil {
		return err
	}
	logger.Printf("provider token deleted for user %s; they will be asked to re-authenticate\n", userID)
	return nil
}
