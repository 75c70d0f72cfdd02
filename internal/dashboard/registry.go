package dashboard

import (
	"fmt"
	"maps"
	"slices"
	"sync"
)

// Card renders a view for one card configuration.
type Card interface {
	Type() string
	Render(config *CardConfig, store StateStore) any
}

// Registry holds the card types known to the dashboard server.
type Registry struct {
	lock  sync.RWMutex
	cards map[string]Card
}

func NewRegistry() *Registry {
	return &Registry{cards: make(map[string]Card)}
}

func (r *Registry) Register(card Card) error {
	if card == nil || card.Type() == "" {
		return fmt.Errorf("dashboard: card type is empty")
	}
	r.lock.Lock()
	defer r.lock.Unlock()
	if _, ok := r.cards[card.Type()]; ok {
		return fmt.Errorf("dashboard: card %v already registered", card.Type())
	}
	r.cards[card.Type()] = card
	return nil
}

func (r *Registry) Lookup(cardType string) (Card, bool) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	card, ok := r.cards[cardType]
	return card, ok
}

// Types returns the registered card types in sorted order.
func (r *Registry) Types() []string {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return slices.Sorted(maps.Keys(r.cards))
}

// RegisterCards registers the built-in cards. Call once at start-up.
func RegisterCards(registry *Registry) error {
	for _, card := range []Card{HouseCard{}, StatusCard{}} {
		if err := registry.Register(card); err != nil {
			return err
		}
	}
	return nil
}

// HouseCard 房屋示意图卡片
type HouseCard struct{}

func (HouseCard) Type() string {
	return "quatt-house-card"
}

func (HouseCard) Render(config *CardConfig, store StateStore) any {
	return Render(config, store)
}

// StatusCard is a compact summary of the installation.
type StatusCard struct{}

type StatusView struct {
	Ready         bool   `json:"ready"`
	Category      string `json:"category,omitempty"`
	SystemVersion string `json:"system_version,omitempty"`
	SystemState   string `json:"system_state,omitempty"`
	HeatPower     any    `json:"heat_power,omitempty"`
	Cop           any    `json:"cop,omitempty"`
}

func (StatusCard) Type() string {
	return "quatt-status-card"
}

func (StatusCard) Render(config *CardConfig, store StateStore) any {
	r := NewResolver(config, store)
	system := r.Lookup(RoleSystemSetup, "system", Options{})
	if config == nil || system.Kind != KindRecord {
		return StatusView{}
	}
	topology := Evaluate(r)
	return StatusView{
		Ready:         true,
		Category:      topology.Category(),
		SystemVersion: topology.SystemVersion,
		SystemState:   system.String(),
		HeatPower:     r.reading(RoleHouse, "heat_power", 0, 1),
		Cop:           r.Lookup(RoleHouse, "cop", Options{Number: true, Decimals: Decimals(2), Fallback: "-"}).Raw(),
	}
}
