// Package slots augments attribute access with composable cross-cutting
// behaviors: logging, timing statistics, locking, caching, change
// notification, value transformation, and per-instance configuration.
//
// A Slot is a named attribute whose reads, writes, and deletes flow through
// an interception chain declared once per owning type:
//
//	var Voltage = slots.MustNew[float64]("voltage",
//		slots.WithLocking[float64](),
//		slots.WithLogging[float64](),
//		slots.WithStats[float64](),
//		slots.WithGetter(func(owner slots.Owner) (float64, error) {
//			return owner.(*PSU).readVoltage()
//		}),
//	).MustBind((*PSU)(nil))
//
// Layers compose in the order given, first outermost, and every layer keeps
// its per-instance state in the owner's namespaced storage, so one chain
// serves any number of instances without sharing caches, statistics, or
// configuration overrides. Owners advertise what they provide through small
// capability interfaces (HasStorage, HasLock, HasLogger, HasSignals,
// HasExecutor); embedding Base provides all of them. Binding a slot audits
// the owner type against the composed layers, so a missing capability fails
// before any instance exists.
//
// Method is the call-side counterpart for operations, with logging, locking,
// statistics, transformation, and background dispatch through a per-owner
// serial executor. DictSlot multiplexes one chain template over a key domain,
// giving each key independent caching, statistics, and change events.
package slots
