package commands

import (
	"context"
	"fmt"

	"git.home.luguber.info/inful/doccatalog/internal/config"
	"git.home.luguber.info/inful/doccatalog/internal/credentials"
	"git.home.luguber.info/inful/doccatalog/internal/gitsource"
	"git.home.luguber.info/inful/doccatalog/internal/limiter"
	"git.home.luguber.info/inful/doccatalog/internal/refs"
)

// RefsCmd implements the 'refs' command: it resolves every source and prints
// the refs its patterns select, without reading any content.
type RefsCmd struct {
	Fetch bool `help:"Refresh previously cloned repositories before listing"`
}

func (r *RefsCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return err
	}
	if r.Fetch {
		cfg.Runtime.Fetch = true
	}

	store, err := credentials.Open(cfg.Git.Credentials)
	if err != nil {
		return err
	}
	resolver := gitsource.NewResolver(cfg, limiter.New("fetch", cfg.Git.FetchConcurrency), store)

	ctx := context.Background()
	for _, src := range cfg.Content.Sources {
		resolved, err := resolver.Resolve(ctx, src)
		if err != nil {
			return err
		}
		matched, err := refs.Enumerate(resolved.Repo, src.Branches, src.Tags, resolved.DefaultBranch)
		if err != nil {
			return err
		}
		fmt.Printf("%s (%d refs)\n", src.URL, len(matched))
		for _, ref := range matched {
			fmt.Printf("  %s %s\n", ref.Type, ref.Name)
		}
	}
	return nil
}
