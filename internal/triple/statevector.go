package triple

import "maps"

// StateVector maps client id to the highest tick seen from that client.
// It represents a causal frontier: "everything the holder has seen, at
// or before this tick, from each client." A client absent from the
// vector means nothing from it is covered.
type StateVector map[string]uint64

// Covers reports whether ts lies at or behind the frontier described by
// sv. A nil StateVector covers everything (the "current" / unbounded
// view).
func (sv StateVector) Covers(ts Timestamp) bool {
	if sv == nil {
		return true
	}
	tick, ok := sv[ts.ClientID]
	return ok && ts.Tick <= tick
}

// Clone returns an independent copy of sv.
func (sv StateVector) Clone() StateVector {
	if sv == nil {
		return nil
	}
	return maps.Clone(sv)
}

// Merge returns a new StateVector that is the pointwise max of sv and o.
func (sv StateVector) Merge(o StateVector) StateVector {
	out := make(StateVector, len(sv)+len(o))
	maps.Copy(out, sv)
	for client, tick := range o {
		if cur, ok := out[client]; !ok || tick > cur {
			out[client] = tick
		}
	}
	return out
}

// BeforeVector builds the "before" state vector used by the Delta Engine
// (spec §4.8 step 2): for each client id appearing in newTriples, the
// frontier is one tick behind the lowest incoming tick from that client,
// i.e. everything from that client strictly older than the write batch.
// Clients that do not appear in newTriples are absent from the result,
// so Covers reports none of their triples; the Delta Engine adds them
// at full extent before materializing the pre-write ("before") views.
func BeforeVector(newTriples []Triple) StateVector {
	out := make(StateVector, len(newTriples))
	for _, t := range newTriples {
		cur, ok := out[t.Timestamp.ClientID]
		if !ok || t.Timestamp.Tick < cur {
			out[t.Timestamp.ClientID] = t.Timestamp.Tick
		}
	}
	for client, tick := range out {
		if tick == 0 {
			delete(out, client)
			continue
		}
		out[client] = tick - 1
	}
	return out
}
