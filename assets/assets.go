// Package assets loads the binary payloads a report needs before it can be
// rendered: the regular and bold weights of the report font, the header and
// footer underlay graphics, and the top and bottom banners.
//
// Every asset is fetched at most once per Cache. Concurrent requests for an
// asset that is still loading wait for the same fetch.
package assets

import (
	"embed"
	"sort"
)

//go:embed static/*.svg
var static embed.FS

// Name is the logical name of an asset.
type Name string

const (
	FontRegular      Name = "font-regular"
	FontBold         Name = "font-bold"
	HeaderBackground Name = "background-header"
	FooterBackground Name = "background-footer"
	TopBanner        Name = "banner-top"
	BottomBanner     Name = "banner-bottom"
)

// Source tells the cache where an asset lives and whether the report can be
// produced without it.
type Source struct {
	Name     Name   `json:"name" mapstructure:"name"`
	Location string `json:"location" mapstructure:"location"`
	Required bool   `json:"required" mapstructure:"required"`
}

// DefaultSources returns the built-in asset set: the Go font family and the
// embedded underlay graphics. Banners have no default.
func DefaultSources() []Source {
	return []Source{
		{Name: FontRegular, Location: "embed:go-regular", Required: true},
		{Name: FontBold, Location: "embed:go-bold", Required: true},
		{Name: HeaderBackground, Location: "embed:header.svg"},
		{Name: FooterBackground, Location: "embed:footer.svg"},
		{Name: TopBanner},
		{Name: BottomBanner},
	}
}

// Bundle is the set of assets available once the cache is ready. Optional
// assets that failed to load are absent.
type Bundle struct {
	items map[Name][]byte
}

// Get returns the payload for name and whether it is present.
func (b *Bundle) Get(name Name) ([]byte, bool) {
	if b == nil {
		return nil, false
	}
	data, ok := b.items[name]
	return data, ok && len(data) > 0
}

// Has reports whether name is present.
func (b *Bundle) Has(name Name) bool {
	_, ok := b.Get(name)
	return ok
}

// Names lists the present assets.
func (b *Bundle) Names() []Name {
	if b == nil {
		return nil
	}
	names := make([]Name, 0, len(b.items))
	for name := range b.items {
		if b.Has(name) {
			names = append(names, name)
		}
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

// NewBundle builds a bundle from ready payloads.
func NewBundle(items map[Name][]byte) *Bundle {
	b := &Bundle{items: make(map[Name][]byte, len(items))}
	for k, v := range items {
		b.items[k] = v
	}
	return b
}
