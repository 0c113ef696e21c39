package notification

const (
	// GlobalCeiling bounds pending reminders per participant regardless of policy.
	GlobalCeiling = 60

	DefaultCategory = "study-session-reminder"
)

// Policy bounds how many requests are produced. PerInstanceCap overrides
// the even share MaxTotal / instances when positive.
type Policy struct {
	MaxTotal       int    `yaml:"max_total"`
	MaxPerCaller   int    `yaml:"max_per_caller"`
	PerInstanceCap int    `yaml:"per_instance_cap"`
	Category       string `yaml:"category"`
}

func DefaultPolicy() Policy {
	return Policy{
		MaxTotal:     GlobalCeiling,
		MaxPerCaller: GlobalCeiling,
		Category:     DefaultCategory,
	}
}

func (p Policy) normalized() Policy {
	if p.MaxTotal <= 0 || p.MaxTotal > GlobalCeiling {
		p.MaxTotal = GlobalCeiling
	}
	if p.MaxPerCaller <= 0 {
		p.MaxPerCaller = p.MaxTotal
	}
	if p.Category == "" {
		p.Category = DefaultCategory
	}
	return p
}

// Limit is the number of requests kept after global sorting.
func (p Policy) Limit() int {
	n := p.normalized()
	return min(n.MaxTotal, n.MaxPerCaller, GlobalCeiling)
}

func (p Policy) instanceCap(instances int) int {
	n := p.normalized()
	if n.PerInstanceCap > 0 {
		return n.PerInstanceCap
	}
	return max(1, n.MaxTotal/max(1, instances))
}
