// Package kvstore implements the repositories on top of kv.Store.
//
// Key layout:
//
//	user:<userID>            profile
//	scan_<ownerID>_<xid>     scan
//
// The xid suffix is unique per process and sorts by creation time, so two
// analyses started in the same millisecond by one owner never collide.
package kvstore

import (
	"strings"
	"time"

	"github.com/rs/xid"
)

const (
	profilePrefix = "user:"
	scanPrefix    = "scan_"
)

func profileKey(id string) string {
	return profilePrefix + id
}

func ownerScanPrefix(ownerID string) string {
	return scanPrefix + ownerID + "_"
}

func isScanKey(id string) bool {
	return strings.HasPrefix(id, scanPrefix) && len(id) > len(scanPrefix)
}

func newScanID(ownerID string, at time.Time) string {
	return ownerScanPrefix(ownerID) + xid.NewWithTime(at).String()
}
