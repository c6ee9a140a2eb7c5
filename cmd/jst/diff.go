package main

import (
	"fmt"

	"github.com/scott-cotton/cli"

	statetree "github.com/bmartel/jotai-state-tree"
	"github.com/bmartel/jotai-state-tree/encode"
)

func diff(cfg *DiffConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Diff.Parse(cc, args)
	if err != nil {
		return err
	}
	if len(args) != 2 {
		return fmt.Errorf("%w: diff takes exactly two snapshot files", cli.ErrUsage)
	}
	a, err := readDoc(cfg.MainConfig, args[0])
	if err != nil {
		return err
	}
	b, err := readDoc(cfg.MainConfig, args[1])
	if err != nil {
		return err
	}
	if cfg.Reverse {
		a, b = b, a
	}
	patches := statetree.Diff(a, b)
	if cfg.Wire {
		data, err := statetree.MarshalPatches(patches)
		if err != nil {
			return fmt.Errorf("error encoding patches: %w", err)
		}
		fmt.Fprintf(cc.Out, "%s\n", data)
		return nil
	}
	fmt.Fprint(cc.Out, encode.PatchText(patches, cfg.colors(cc.Out)))
	return nil
}
