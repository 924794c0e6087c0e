package fw

// armAging schedules the next demand-aging pass, per spec.md §4.6:
// period = CCN_INTEREST_HALFLIFE_MICROSEC / 4, counters above
// CCN_UNIT_INTEREST scaled by 5/6 (≈ fourth root of 1/2, so four
// passes halve demand), counters at CCN_UNIT_INTEREST decremented by
// one, and zero counters swap-removed. The task suspends itself when
// the table empties and is re-armed on the next interest arrival.
func (d *Daemon) armAging() {
	if d.ageTask != nil {
		return
	}
	period := d.Cfg.Tables.InterestHalfLife / 4
	d.ageTask = d.Sched.Schedule(period, d.agingTick)
}

func (d *Daemon) agingTick(cancelled bool) {
	d.ageTask = nil
	if cancelled {
		return
	}

	d.IPT.AgePass(9) // "idle exceeds 8 passes" == the 9th consecutive empty pass removes it

	if d.IPT.Len() > 0 {
		d.armAging()
	}
}
