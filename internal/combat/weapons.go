package combat

import (
	"errors"
	"fmt"
)

// ErrUnknownWeapon is returned for weapon names missing from the loadout table
var ErrUnknownWeapon = errors.New("unknown weapon")

// Weapon names
const (
	WeaponSword  = "sword"
	WeaponStaff  = "staff"
	WeaponScythe = "scythe"
)

// WeaponDef lists the abilities a weapon grants
type WeaponDef struct {
	Name      string
	Abilities []string
}

// DefaultWeapons returns the shipped loadouts
func DefaultWeapons() map[string]WeaponDef {
	return map[string]WeaponDef{
		// Sword: melee sweep, knockback nova
		WeaponSword: {
			Name:      WeaponSword,
			Abilities: []string{AbilitySwordSweep, AbilitySmiteNova, AbilityShadowDash},
		},
		// Staff: ranged caster kit
		WeaponStaff: {
			Name: WeaponStaff,
			Abilities: []string{
				AbilityFrostBreath, AbilityArcaneBeam, AbilityBlizzard,
				AbilityChainLightning, AbilityShadowDash,
			},
		},
		// Scythe: close-range zone control
		WeaponScythe: {
			Name:      WeaponScythe,
			Abilities: []string{AbilitySwordSweep, AbilityInfernoRing, AbilityChainLightning, AbilityShadowDash},
		},
	}
}

func lookupWeapon(table map[string]WeaponDef, name string) (WeaponDef, error) {
	w, ok := table[name]
	if !ok {
		return WeaponDef{}, fmt.Errorf("weapon %q: %w", name, ErrUnknownWeapon)
	}
	return w, nil
}
