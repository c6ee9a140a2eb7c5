package main

import (
	"fmt"
	"strconv"

	"github.com/scott-cotton/cli"

	"github.com/bmartel/jotai-state-tree/jsonptr"
)

func get(cfg *GetConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Get.Parse(cc, args)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return fmt.Errorf("%w: get needs a json pointer", cli.ErrUsage)
	}
	segs := jsonptr.Split(args[0])
	files := args[1:]
	if len(files) == 0 {
		files = []string{"-"}
	}
	for i, file := range files {
		v, err := readDoc(cfg.MainConfig, file)
		if err != nil {
			return err
		}
		elt, err := resolve(v, segs)
		if err != nil {
			return fmt.Errorf("%s: %w", file, err)
		}
		d, err := cfg.encodeDoc(elt)
		if err != nil {
			return fmt.Errorf("error encoding element from %s: %w", file, err)
		}
		fmt.Fprintf(cc.Out, "%s\n", d)
		if i < len(files)-1 {
			cc.Out.Write([]byte("\n---\n"))
		}
	}
	return nil
}

func resolve(v any, segs []string) (any, error) {
	for _, seg := range segs {
		switch x := v.(type) {
		case map[string]any:
			elt, ok := x[seg]
			if !ok {
				return nil, fmt.Errorf("no element %q", seg)
			}
			v = elt
		case []any:
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= len(x) {
				return nil, fmt.Errorf("bad index %q", seg)
			}
			v = x[idx]
		default:
			return nil, fmt.Errorf("%q does not address into %T", seg, v)
		}
	}
	return v, nil
}
