package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	cloudvar "github.com/cloudvarx/cloudvar-client-go"
)

var setCmd = &cobra.Command{
	Use:   "set NAME VALUE",
	Short: "Set a cloud variable",
	Args:  cobra.ExactArgs(2),
	RunE:  runSet,
}

func runSet(cmd *cobra.Command, args []string) error {
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

	opened := make(chan struct{}, 1)
	session.Once(cloudvar.EventOpen, func(cloudvar.Event) { opened <- struct{}{} })

	if err := session.Connect(ctx); err != nil {
		return err
	}

	select {
	case <-opened:
	case <-session.Done():
		return errors.New("could not reach the cloud host")
	case <-ctx.Done():
		return fmt.Errorf("connecting: %w", ctx.Err())
	}

	session.Set(args[0], args[1])
	if value, ok := session.Get(args[0]); !ok || value != args[1] {
		return fmt.Errorf("value rejected: must be numeric and at most the host's length limit")
	}

	session.Close()
	<-session.Done()
	return nil
}
