// Package blood holds the vocabulary shared by donations, requests and
// inventory: ABO/Rh groups and blood components.
package blood

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrUnknownGroup     = errors.New("unknown blood group")
	ErrUnknownComponent = errors.New("unknown component type")
)

type Group string

const (
	APos  Group = "A+"
	ANeg  Group = "A-"
	BPos  Group = "B+"
	BNeg  Group = "B-"
	ABPos Group = "AB+"
	ABNeg Group = "AB-"
	OPos  Group = "O+"
	ONeg  Group = "O-"
)

var Groups = []Group{APos, ANeg, BPos, BNeg, ABPos, ABNeg, OPos, ONeg}

// ParseGroup normalizes case and surrounding space ("ab+ " -> "AB+").
func ParseGroup(s string) (Group, error) {
	g := Group(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range Groups {
		if g == known {
			return g, nil
		}
	}
	return "", fmt.Errorf("%w %q", ErrUnknownGroup, s)
}

type Component string

const (
	WholeBlood Component = "whole-blood"
	RedCells   Component = "red-cells"
	Platelets  Component = "platelets"
	Plasma     Component = "plasma"
	Cryo       Component = "cryo"
)

var shelfLife = map[Component]time.Duration{
	WholeBlood: 35 * 24 * time.Hour,
	RedCells:   42 * 24 * time.Hour,
	Platelets:  5 * 24 * time.Hour,
	Plasma:     365 * 24 * time.Hour,
	Cryo:       365 * 24 * time.Hour,
}

// ParseComponent defaults an empty value to whole blood.
func ParseComponent(s string) (Component, error) {
	c := Component(strings.ToLower(strings.TrimSpace(s)))
	if c == "" {
		return WholeBlood, nil
	}
	if _, ok := shelfLife[c]; !ok {
		return "", fmt.Errorf("%w %q", ErrUnknownComponent, s)
	}
	return c, nil
}

// ExpiresAt is the end of the storage window for a unit collected at t.
func (c Component) ExpiresAt(collected time.Time) time.Time {
	life, ok := shelfLife[c]
	if !ok {
		life = shelfLife[WholeBlood]
	}
	return collected.Add(life)
}
