package main

import (
	"fmt"

	"github.com/scott-cotton/cli"

	statetree "github.com/bmartel/jotai-state-tree"
	"github.com/bmartel/jotai-state-tree/encode"
)

func patch(cfg *PatchConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Patch.Parse(cc, args)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return fmt.Errorf("%w: patch needs a patch document", cli.ErrUsage)
	}
	raw := []byte(args[0])
	if cfg.File {
		raw, err = readFile(args[0])
		if err != nil {
			return err
		}
	}
	patches, err := statetree.ParsePatches(raw)
	if err != nil {
		return err
	}
	files := args[1:]
	if len(files) == 0 {
		files = []string{"-"}
	}
	for i, file := range files {
		if err := patchFile(cfg, cc, file, patches); err != nil {
			return err
		}
		if i < len(files)-1 {
			cc.Out.Write([]byte("\n---\n"))
		}
	}
	return nil
}

func patchFile(cfg *PatchConfig, cc *cli.Context, file string, patches []statetree.Patch) error {
	v, err := readDoc(cfg.MainConfig, file)
	if err != nil {
		return err
	}
	doc, err := encode.JSON(v)
	if err != nil {
		return fmt.Errorf("error encoding %s: %w", file, err)
	}
	out, err := statetree.ApplyToJSON(doc, patches)
	if err != nil {
		return fmt.Errorf("error patching %s: %w", file, err)
	}
	res, err := encode.ParseJSON(out)
	if err != nil {
		return fmt.Errorf("error decoding patched %s: %w", file, err)
	}
	d, err := cfg.encodeDoc(res)
	if err != nil {
		return fmt.Errorf("error encoding result for %s: %w", file, err)
	}
	fmt.Fprintf(cc.Out, "%s\n", d)
	return nil
}
