package provider

import (
	"fmt"
	"sort"

	"github.com/javiersolana/crypto-swarm/internal/domain/models"
)

// Chain holds the ordered fallback lists of guarded providers, one list
// per entity category. Immutable after Build.
type Chain struct {
	byCategory map[models.Category][]*Guard
}

// Registration pairs a source with its descriptor for chain assembly.
type Registration struct {
	Source     Source
	Descriptor Descriptor
}

// Build assembles a chain from registrations. Every descriptor must
// serve at least one category; within a category, providers are ordered
// by priority ascending.
func Build(regs []Registration) (*Chain, error) {
	byCategory := make(map[models.Category][]*Guard)

	for _, reg := range regs {
		if len(reg.Descriptor.Categories) == 0 {
			return nil, fmt.Errorf("provider %q serves no categories", reg.Descriptor.Name)
		}
		guard := NewGuard(reg.Source, reg.Descriptor)
		for _, cat := range reg.Descriptor.Categories {
			byCategory[cat] = append(byCategory[cat], guard)
		}
	}

	for cat := range byCategory {
		guards := byCategory[cat]
		sort.SliceStable(guards, func(i, j int) bool {
			return guards[i].desc.Priority < guards[j].desc.Priority
		})
	}

	return &Chain{byCategory: byCategory}, nil
}

// For returns the ordered provider list for a category. The returned
// slice must not be mutated by callers.
func (c *Chain) For(cat models.Category) []*Guard {
	return c.byCategory[cat]
}

// Categories lists every category the chain can serve.
func (c *Chain) Categories() []models.Category {
	cats := make([]models.Category, 0, len(c.byCategory))
	for cat := range c.byCategory {
		cats = append(cats, cat)
	}
	return cats
}
