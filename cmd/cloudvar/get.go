package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	cloudvar "github.com/cloudvarx/cloudvar-client-go"
)

var getCmd = &cobra.Command{
	Use:   "get NAME",
	Short: "Read a cloud variable",
	Args:  cobra.ExactArgs(1),
	RunE:  runGet,
}

func runGet(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	session, err := newSession(cfg, logger, nil)
	if err != nil {
		return err
	}
	defer session.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), flagTimeout)
	defer cancel()

	ready := make(chan struct{}, 1)
	session.Once(cloudvar.EventSetup, func(cloudvar.Event) { ready <- struct{}{} })

	if err := session.Connect(ctx); err != nil {
		return err
	}

	select {
	case <-ready:
	case <-session.Done():
		return errors.New("could not reach the cloud host")
	case <-ctx.Done():
		return errors.New("timed out waiting for the project's variables")
	}

	value, ok := session.Get(args[0])
	if !ok {
		return fmt.Errorf("variable %q not found", args[0])
	}
	fmt.Println(value)

	session.Close()
	<-session.Done()
	return nil
}
