package main

import (
	"fmt"

	"github.com/scott-cotton/cli"
)

func view(cfg *ViewConfig, cc *cli.Context, args []string) error {
	args, err := cfg.View.Parse(cc, args)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		args = []string{"-"}
	}
	for i, file := range args {
		v, err := readDoc(cfg.MainConfig, file)
		if err != nil {
			return err
		}
		d, err := cfg.encodeDoc(v)
		if err != nil {
			return fmt.Errorf("error encoding %s: %w", file, err)
		}
		fmt.Fprintf(cc.Out, "%s\n", d)
		if i < len(args)-1 {
			cc.Out.Write([]byte("\n---\n"))
		}
	}
	return nil
}
