package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"git.home.luguber.info/inful/doccatalog/internal/config"
	"git.home.luguber.info/inful/doccatalog/internal/content"
	"git.home.luguber.info/inful/doccatalog/internal/service"
)

// AggregateCmd implements the 'aggregate' command.
type AggregateCmd struct {
	Fetch bool `help:"Refresh previously cloned repositories before reading"`
	JSON  bool `help:"Print the catalog summary as JSON"`
}

type versionSummary struct {
	Version        string            `json:"version"`
	DisplayVersion string            `json:"display_version,omitempty"`
	Latest         bool              `json:"latest,omitempty"`
	Prerelease     bool              `json:"prerelease,omitempty"`
	Files          int            `json:"files"`
	ByFamily       map[string]int `json:"by_family"`
}

type componentSummary struct {
	Name     string           `json:"name"`
	Versions []versionSummary `json:"versions"`
}

type catalogSummary struct {
	Components []componentSummary `json:"components"`
	Redirects  map[string]string  `json:"redirects,omitempty"`
	Warnings   []string           `json:"warnings,omitempty"`
}

func (a *AggregateCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return err
	}
	if a.Fetch {
		cfg.Runtime.Fetch = true
	}

	result, err := service.New(cfg, nil, nil).Run(context.Background())
	if err != nil {
		return err
	}

	cat := result.Catalog
	if a.JSON {
		summary := catalogSummary{Redirects: cat.Redirects(), Warnings: cat.Warnings}
		for _, comp := range cat.GetComponents() {
			cs := componentSummary{Name: comp.Name}
			for _, cv := range comp.Versions {
				byFamily := map[string]int{}
				for _, f := range cv.Files {
					byFamily[string(f.Src.Family)]++
				}
				cs.Versions = append(cs.Versions, versionSummary{
					Version:        cv.Version,
					DisplayVersion: cv.DisplayVersion,
					Latest:         cv.Latest,
					Prerelease:     cv.Prerelease,
					Files:          len(cv.Files),
					ByFamily:       byFamily,
				})
			}
			summary.Components = append(summary.Components, cs)
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	}

	for _, comp := range cat.GetComponents() {
		fmt.Printf("%s\n", comp.Name)
		for _, cv := range comp.Versions {
			marker := ""
			if cv.Latest {
				marker = " (latest)"
			}
			pages := 0
			for _, f := range cv.Files {
				if f.Src.Family == content.FamilyPage {
					pages++
				}
			}
			fmt.Printf("  %s%s: %d files, %d pages\n", cv.Version, marker, len(cv.Files), pages)
		}
	}
	for _, w := range cat.Warnings {
		fmt.Printf("warning: %s\n", w)
	}
	fmt.Printf("Aggregated %d component(s) in %s\n", len(cat.GetComponents()), result.Elapsed.Round(time.Millisecond))
	return nil
}
