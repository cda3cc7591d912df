// Package generator produces synthetic assets and climate readings for demos and load tests.
package generator

import (
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit/v7"
)

// Asset is a synthetic air-conditioning unit.
type Asset struct {
	InstalledOn time.Time
	Brand       string `fake:"{randomstring:[Daikin,Carrier,Trane,Mitsubishi,LG,Fujitsu]}"`
	Location    string `fake:"{randomstring:[Server room,Data hall A,Data hall B,Office 1F,Office 2F,Lab,Warehouse]}"`
	Serial      int    `fake:"{number:100,999}"`
}

// Name returns the display name of the asset.
func (a Asset) Name() string {
	return fmt.Sprintf("%s-%d", a.Brand, a.Serial)
}

// Generator creates synthetic data from a single faker, so a fixed seed yields a fixed sequence.
type Generator struct {
	faker *gofakeit.Faker
}

// New creates a Generator. A zero seed picks a random one.
func New(seed uint64) *Generator {
	return &Generator{faker: gofakeit.New(seed)}
}

// Asset returns a new synthetic asset installed within the last five years.
func (g *Generator) Asset() (Asset, error) {
	var a Asset
	if err := g.faker.Struct(&a); err != nil {
		return Asset{}, fmt.Errorf("failed to generate asset: %w", err)
	}
	now := time.Now().UTC()
	a.InstalledOn = g.faker.DateRange(now.AddDate(-5, 0, 0), now).Truncate(24 * time.Hour)
	return a, nil
}

// Assets returns n synthetic assets.
func (g *Generator) Assets(n int) ([]Asset, error) {
	out := make([]Asset, 0, n)
	for range n {
		a, err := g.Asset()
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}
