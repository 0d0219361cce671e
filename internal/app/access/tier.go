package access

// Tier is an access level unlocked by holding tokens. It is unrelated to
// the reward tiers of the profit sharing program.
type Tier struct {
	Level     string   `json:"level"`
	Name      string   `json:"name"`
	MinTokens float64  `json:"minRequired"`
	Features  []string `json:"features"`
}

// Tiers is ordered from lowest to highest.
var Tiers = []Tier{
	{Level: "none", Name: "No Access", MinTokens: 0, Features: []string{}},
	{Level: "basic", Name: "Basic", MinTokens: 500000, Features: []string{
		"Image Generation (SD3 Medium)", "Thread Writer", "Meme Generator",
	}},
	{Level: "full", Name: "Full Access", MinTokens: 2000000, Features: []string{
		"All Basic Features", "Image Generation (Flux.1 Pro)", "Voice Cloner", "Vocal Remover",
	}},
	{Level: "god", Name: "God Mode", MinTokens: 10000000, Features: []string{
		"All Features", "Priority Processing", "Unlimited Requests", "Early Access",
	}},
}

// TierFor returns the highest tier balance reaches.
func TierFor(balance float64) Tier {
	t := Tiers[0]
	for _, tier := range Tiers {
		if balance >= tier.MinTokens {
			t = tier
		}
	}
	return t
}

// HasAccess reports whether balance reaches the tier named level.
func HasAccess(balance float64, level string) bool {
	for _, tier := range Tiers {
		if tier.Level == level {
			return balance >= tier.MinTokens
		}
	}
	return false
}
