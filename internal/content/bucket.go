package content

import "git.home.luguber.info/inful/doccatalog/internal/util/sets"

// VersionKey identifies a component version across sources and refs.
type VersionKey struct {
	Component string
	Version   string
}

// Bucket holds one component version's files and provenance before
// classification. Buckets with the same key produced by different sources or
// refs are merged by the aggregator.
type Bucket struct {
	Name               string
	Version            string
	DisplayVersion     string
	Title              string
	StartPage          string
	Prerelease         bool
	PrereleaseLabel    string
	AsciidocAttributes map[string]any
	NavPaths           []string
	Origins            []*Origin
	Files              []*File
}

// Key returns the bucket's (component, version) identity.
func (b *Bucket) Key() VersionKey {
	return VersionKey{Component: b.Name, Version: b.Version}
}

// Merge folds other into b. Descriptor metadata from the earlier-declared
// bucket is kept; files are concatenated and origins unioned. Duplicate file
// keys are left for the classifier, which resolves them against the
// configured policy with full knowledge of source order.
func (b *Bucket) Merge(other *Bucket) {
	if b.DisplayVersion == "" {
		b.DisplayVersion = other.DisplayVersion
	}
	if b.Title == "" {
		b.Title = other.Title
	}
	if b.StartPage == "" {
		b.StartPage = other.StartPage
	}
	if !b.Prerelease && other.Prerelease {
		b.Prerelease = other.Prerelease
		b.PrereleaseLabel = other.PrereleaseLabel
	}
	for k, v := range other.AsciidocAttributes {
		if b.AsciidocAttributes == nil {
			b.AsciidocAttributes = map[string]any{}
		}
		if _, exists := b.AsciidocAttributes[k]; !exists {
			b.AsciidocAttributes[k] = v
		}
	}
	b.NavPaths = appendMissing(b.NavPaths, other.NavPaths)
	b.Files = append(b.Files, other.Files...)

	seen := sets.New(b.Origins...)
	for _, o := range other.Origins {
		if !seen.Has(o) {
			seen.Add(o)
			b.Origins = append(b.Origins, o)
		}
	}
}

func appendMissing(dst, src []string) []string {
	for _, s := range src {
		found := false
		for _, d := range dst {
			if d == s {
				found = true
				break
			}
		}
		if !found {
			dst = append(dst, s)
		}
	}
	return dst
}
