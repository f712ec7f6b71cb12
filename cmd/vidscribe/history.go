package main

import (
	"fmt"

	"vidscribe/pkg/config"
	"vidscribe/pkg/history"
)

type HistoryCMD struct {
	Lines int `short:"n" default:"20" help:"Number of runs to show, 0 for all"`
}

func (h *HistoryCMD) Run(ctx *Context) error {
	dir, err := config.Dir()
	if err != nil {
		return err
	}
	store, err := history.NewStore(dir)
	if err != nil {
		return err
	}

	lines, err := store.Tail(h.Lines)
	if err != nil {
		return err
	}
	if len(lines) == 0 {
		fmt.Println("No transcriptions yet.")
		return nil
	}
	for _, l := range lines {
		fmt.Println(l)
	}
	return nil
}
