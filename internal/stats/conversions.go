package stats

// Conversions turns raw ratings into combat percentages.
type Conversions struct {
	CritRatingPerPercent    float64 `yaml:"crit_rating_per_percent"`
	HitRatingPerPercent     float64 `yaml:"hit_rating_per_percent"`
	HasteRatingPerPercent   float64 `yaml:"haste_rating_per_percent"`
	ExpertisePerPercent     float64 `yaml:"expertise_per_percent"`
	IntellectPerCritPercent float64 `yaml:"intellect_per_crit_percent"`
	BaseSpellCritPercent    float64 `yaml:"base_spell_crit_percent"`
	BaseMeleeCritPercent    float64 `yaml:"base_melee_crit_percent"`
}

// DefaultConversions mirrors configs/constants.yaml.
func DefaultConversions() Conversions {
	return Conversions{
		CritRatingPerPercent:    14,
		HitRatingPerPercent:     12.6,
		HasteRatingPerPercent:   10,
		ExpertisePerPercent:     4,
		IntellectPerCritPercent: 60,
		BaseSpellCritPercent:    1.7,
		BaseMeleeCritPercent:    5,
	}
}

func ratingPercent(rating, perPercent float64) float64 {
	if perPercent <= 0 {
		return 0
	}
	return rating / perPercent
}

// CritChance returns the crit probability (0-1, unclamped) granted by stats.
func (c Conversions) CritChance(s Stats, melee bool) float64 {
	pct := ratingPercent(s[CritRating], c.CritRatingPerPercent)
	if melee {
		pct += c.BaseMeleeCritPercent
	} else {
		pct += c.BaseSpellCritPercent
		pct += ratingPercent(s[Intellect], c.IntellectPerCritPercent)
	}
	return pct / 100
}

// HitChance returns the miss reduction (0-1) granted by hit rating.
func (c Conversions) HitChance(s Stats) float64 {
	return ratingPercent(s[HitRating], c.HitRatingPerPercent) / 100
}

// DodgeReduction returns the dodge reduction (0-1) granted by expertise.
func (c Conversions) DodgeReduction(s Stats) float64 {
	return ratingPercent(s[Expertise], c.ExpertisePerPercent) / 100
}

// HasteMultiplier returns the divisor applied to cast times and the GCD.
func (c Conversions) HasteMultiplier(s Stats) float64 {
	m := 1 + ratingPercent(s[HasteRating], c.HasteRatingPerPercent)/100
	if m <= 0 {
		return 1
	}
	return m
}
