package specs

// conflagrateDotShare is the fraction of Immolate's full-duration periodic
// damage Conflagrate deals up front, whatever time is left on it.
const conflagrateDotShare = 0.6

var warlockHooks = map[string]Hook{
	"conflagrate": conflagrate,
}

func conflagrate(st HookState) HookResult {
	if st.Target == nil {
		return HookResult{}
	}
	immo := st.Target.Auras.Get("immolate")
	if immo == nil {
		return HookResult{}
	}
	ticks := immo.Def.TotalTicks()
	return HookResult{BaseBonus: immo.Snapshot.TickDamage * float64(ticks) * conflagrateDotShare}
}
