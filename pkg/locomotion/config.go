package locomotion

// Config holds every tuning value the integrator uses. DefaultConfig is the
// canonical (extended) tuning; BasicConfig reproduces the simpler variant
// without speed caps, turning friction or control fade.
type Config struct {
	MinSpeedToSki float64 `json:"minSpeedToSki" mapstructure:"minSpeedToSki"`
	MaxSpeed      float64 `json:"maxSpeed" mapstructure:"maxSpeed"` // 0 = uncapped

	// Gravity drives slope acceleration while skiing. World gravity for
	// airborne ticks is separate.
	Gravity      float64 `json:"gravity" mapstructure:"gravity"`
	WorldGravity float64 `json:"worldGravity" mapstructure:"worldGravity"`

	GroundFriction       float64 `json:"groundFriction" mapstructure:"groundFriction"`
	SkiFriction          float64 `json:"skiFriction" mapstructure:"skiFriction"`
	FlatSkiFrictionScale float64 `json:"flatSkiFrictionScale" mapstructure:"flatSkiFrictionScale"`

	GroundControl          float64 `json:"groundControl" mapstructure:"groundControl"`
	SkiControl             float64 `json:"skiControl" mapstructure:"skiControl"`
	AirControl             float64 `json:"airControl" mapstructure:"airControl"`
	AirControlTakeoffBoost float64 `json:"airControlTakeoffBoost" mapstructure:"airControlTakeoffBoost"`
	AirControlSustained    float64 `json:"airControlSustained" mapstructure:"airControlSustained"`
	HighSpeedControlFloor  float64 `json:"highSpeedControlFloor" mapstructure:"highSpeedControlFloor"`

	GroundStickSpeed float64 `json:"groundStickSpeed" mapstructure:"groundStickSpeed"`

	UphillMomentumRetention float64 `json:"uphillMomentumRetention" mapstructure:"uphillMomentumRetention"`
	DownhillSpeedGain       float64 `json:"downhillSpeedGain" mapstructure:"downhillSpeedGain"`
	SlopeThreshold          float64 `json:"slopeThreshold" mapstructure:"slopeThreshold"`               // degrees
	MinSlopeAngleForBoost   float64 `json:"minSlopeAngleForBoost" mapstructure:"minSlopeAngleForBoost"` // degrees
	SlopeRange              float64 `json:"slopeRange" mapstructure:"slopeRange"`                       // degrees

	TurningFriction float64 `json:"turningFriction" mapstructure:"turningFriction"`
	TurnRange       float64 `json:"turnRange" mapstructure:"turnRange"` // degrees
	TurnBlendRate   float64 `json:"turnBlendRate" mapstructure:"turnBlendRate"`

	BrakeThreshold    float64 `json:"brakeThreshold" mapstructure:"brakeThreshold"` // <= 0 disables braking
	InputDeadzone     float64 `json:"inputDeadzone" mapstructure:"inputDeadzone"`
	WalkSpeedCapScale float64 `json:"walkSpeedCapScale" mapstructure:"walkSpeedCapScale"`
}

// DefaultConfig returns the canonical tuning.
func DefaultConfig() Config {
	return Config{
		MinSpeedToSki: 8,
		MaxSpeed:      35,

		Gravity:      18,
		WorldGravity: -9.81,

		GroundFriction:       4,
		SkiFriction:          0.3,
		FlatSkiFrictionScale: 2,

		GroundControl:          25,
		SkiControl:             20,
		AirControl:             1.2,
		AirControlTakeoffBoost: 2.5,
		AirControlSustained:    1.8,
		HighSpeedControlFloor:  0.6,

		GroundStickSpeed: 20,

		UphillMomentumRetention: 0.75,
		DownhillSpeedGain:       0.6,
		SlopeThreshold:          5,
		MinSlopeAngleForBoost:   15,
		SlopeRange:              45,

		TurningFriction: 1.5,
		TurnRange:       90,
		TurnBlendRate:   5,

		BrakeThreshold:    0.1,
		InputDeadzone:     0.1,
		WalkSpeedCapScale: 1.2,
	}
}

// BasicConfig returns the earlier, simpler tuning. Slope boost kicks in as
// soon as the ground counts as a slope.
func BasicConfig() Config {
	cfg := DefaultConfig()
	cfg.MaxSpeed = 0
	cfg.Gravity = 25
	cfg.GroundFriction = 2
	cfg.SkiFriction = 0.1
	cfg.FlatSkiFrictionScale = 1
	cfg.SkiControl = 15
	cfg.AirControl = 0.8
	cfg.HighSpeedControlFloor = 1
	cfg.GroundStickSpeed = 15
	cfg.UphillMomentumRetention = 0.85
	cfg.DownhillSpeedGain = 1
	cfg.MinSlopeAngleForBoost = cfg.SlopeThreshold
	cfg.TurningFriction = 0
	cfg.BrakeThreshold = 0
	return cfg
}
