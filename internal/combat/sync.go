package combat

// SyncEffect describes a locally cast visual effect for remote clients.
// Damage is never transmitted; each client resolves its own.
type SyncEffect struct {
	Type      string  `json:"type" msgpack:"type"`
	AbilityID string  `json:"abilityId" msgpack:"abilityId"`
	CasterID  string  `json:"casterId" msgpack:"casterId"`
	Position  Vec3    `json:"position" msgpack:"position"`
	Direction Vec3    `json:"direction" msgpack:"direction"`
	Duration  int64   `json:"duration,omitempty" msgpack:"duration,omitempty"` // ms
	Radius    float64 `json:"radius,omitempty" msgpack:"radius,omitempty"`
	Range     float64 `json:"range,omitempty" msgpack:"range,omitempty"`
	Width     float64 `json:"width,omitempty" msgpack:"width,omitempty"`
	HalfAngle float64 `json:"halfAngle,omitempty" msgpack:"halfAngle,omitempty"`
	Jumps     []Vec3  `json:"jumps,omitempty" msgpack:"jumps,omitempty"`
	Level     int     `json:"level,omitempty" msgpack:"level,omitempty"`
}

// Effect types carried in SyncEffect.Type
const (
	EffectArea  = "area"
	EffectChain = "chain"
	EffectBeam  = "beam"
	EffectNova  = "nova"
	EffectCone  = "cone"
	EffectSwing = "swing"
)

func effectType(a Ability) string {
	switch a.Kind {
	case KindArea:
		return EffectArea
	case KindChain:
		return EffectChain
	}
	switch a.Shape {
	case ShapeStrip:
		return EffectBeam
	case ShapeRadius:
		return EffectNova
	case ShapeArc:
		return EffectSwing
	default:
		return EffectCone
	}
}
