package entities

// Unlimited marks plans that have no 24h query ceiling.
const Unlimited = -1

// PlanPolicy is the effective policy for one subscription tier. Limits are
// queries per rolling 24h window, not per calendar day.
type PlanPolicy struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Price       float64  `json:"price"`
	LimitPer24h int      `json:"limit_per_24h"`
	DeviceLimit int      `json:"device_limit"`
	Features    []string `json:"features"`
	Popular     bool     `json:"popular"`
}

// PlanOverride is a partial admin edit applied on top of a builtin plan.
// Nil fields mean "keep the builtin value".
type PlanOverride struct {
	Price       *float64  `json:"price,omitempty"`
	LimitPer24h *int      `json:"limit_per_24h,omitempty"`
	DeviceLimit *int      `json:"device_limit,omitempty"`
	Features    *[]string `json:"features,omitempty"`
}

// IsUnlimited reports whether the plan has no 24h ceiling.
func (p PlanPolicy) IsUnlimited() bool {
	return p.LimitPer24h == Unlimited
}

// BuiltinPlans returns the shipped tier table, keyed by plan ID. Admin
// overrides are layered on by the policy resolver, never written back here.
func BuiltinPlans() map[string]PlanPolicy {
	return map[string]PlanPolicy{
		"free": {
			ID:          "free",
			Name:        "Free",
			Price:       0,
			LimitPer24h: 1,
			DeviceLimit: 1,
			Features:    []string{"1 consulta a cada 24h", "1 dispositivo", "Base de conhecimento completa"},
		},
		"iniciante": {
			ID:          "iniciante",
			Name:        "Iniciante",
			Price:       9.99,
			LimitPer24h: 5,
			DeviceLimit: 1,
			Features:    []string{"5 consultas a cada 24h", "1 dispositivo", "Base de conhecimento completa"},
		},
		"profissional": {
			ID:          "profissional",
			Name:        "Profissional",
			Price:       19.99,
			LimitPer24h: Unlimited,
			DeviceLimit: 1,
			Features:    []string{"Consultas ilimitadas", "1 dispositivo", "Suporte prioritário"},
			Popular:     true,
		},
		"empresa": {
			ID:          "empresa",
			Name:        "Empresa",
			Price:       99.99,
			LimitPer24h: Unlimited,
			DeviceLimit: 5,
			Features:    []string{"Consultas ilimitadas", "Até 5 dispositivos", "Suporte prioritário"},
		},
	}
}
