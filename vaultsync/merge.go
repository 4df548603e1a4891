package vaultsync

import (
	"github.com/passnote/passnote/vaultcrypto"
	"github.com/passnote/passnote/vaultdata"
)

// mergeStats accumulates merge bookkeeping across the three maps.
// recordsPulled reports record entries only; takenRemote spans all three
// maps and feeds the vault-wide change detection.
type mergeStats struct {
	conflicts     int // keys present on both sides with differing values
	takenRemote   int // keys whose merged value came from the remote side
	recordsPulled int // record keys whose merged value came from the remote side
}

// mergeRecords merges two record maps per-key. When both sides carry the
// key, the newer last_modified wins; a tombstone with a strictly later
// timestamp wins over a live record. Ties break toward the remote side
// when preferRemote is set (pull), toward local otherwise (push).
func mergeRecords(local, remote map[string]*vaultdata.Record, preferRemote bool, stats *mergeStats) map[string]*vaultdata.Record {
	merged := make(map[string]*vaultdata.Record, len(local)+len(remote))

	for id, r := range local {
		merged[id] = r.Clone()
	}

	takeRemote := func(id string, rr *vaultdata.Record) {
		merged[id] = rr.Clone()
		stats.takenRemote++
		stats.recordsPulled++
	}

	for id, rr := range remote {
		lr, ok := merged[id]
		if !ok {
			takeRemote(id, rr)
			continue
		}

		if recordsEqual(lr, rr) {
			continue
		}

		stats.conflicts++

		switch {
		case rr.LastModified.After(lr.LastModified):
			takeRemote(id, rr)
		case lr.LastModified.After(rr.LastModified):
			// local wins
		case preferRemote:
			takeRemote(id, rr)
		}
	}

	return merged
}

// mergeEncryptedMap merges label or template maps. These entities carry
// no per-entry timestamp on the wire, so a both-sides key resolves by the
// tie-break side; differing ciphertexts count as a resolved conflict.
func mergeEncryptedMap(local, remote map[string]vaultcrypto.EncryptedData, preferRemote bool, stats *mergeStats) map[string]vaultcrypto.EncryptedData {
	merged := make(map[string]vaultcrypto.EncryptedData, len(local)+len(remote))

	for id, ed := range local {
		merged[id] = ed
	}

	for id, red := range remote {
		led, ok := merged[id]
		if !ok {
			merged[id] = red
			stats.takenRemote++

			continue
		}

		if led.Equal(red) {
			continue
		}

		stats.conflicts++

		if preferRemote {
			merged[id] = red
			stats.takenRemote++
		}
	}

	return merged
}

// mergeHistory returns the order-preserving union: local history first,
// then remote entries not already present.
func mergeHistory(local, remote []string) []string {
	merged := append([]string(nil), local...)

	seen := make(map[string]struct{}, len(local))
	for _, v := range local {
		seen[v] = struct{}{}
	}

	for _, v := range remote {
		if _, ok := seen[v]; ok {
			continue
		}

		seen[v] = struct{}{}

		merged = append(merged, v)
	}

	return merged
}

func recordsEqual(a, b *vaultdata.Record) bool {
	if a == nil || b == nil {
		return a == b
	}

	if a.Template != b.Template || a.LastModified != b.LastModified ||
		a.Deleted != b.Deleted || a.LocalOnly != b.LocalOnly {
		return false
	}

	if len(a.Labels) != len(b.Labels) || len(a.Fields) != len(b.Fields) {
		return false
	}

	for i := range a.Labels {
		if a.Labels[i] != b.Labels[i] {
			return false
		}
	}

	if (a.Title == nil) != (b.Title == nil) {
		return false
	}

	if a.Title != nil && !a.Title.Equal(*b.Title) {
		return false
	}

	for id, ed := range a.Fields {
		other, ok := b.Fields[id]
		if !ok || !ed.Equal(other) {
			return false
		}
	}

	return true
}
