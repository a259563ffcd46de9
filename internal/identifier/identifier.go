// Package identifier derives stable, deterministic identifiers for hunters
// and permit sheets from what a file carries.
package identifier

import (
	"crypto/md5"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
)

// Source records which rule produced a registry id.
type Source string

const (
	SourceFirearmPermit Source = "firearm-permit"
	SourceFileHash      Source = "file-hash"
	SourceEmergency     Source = "emergency"
)

// sheetHashDomain keeps sheet numbers independent of registry ids.
const sheetHashDomain = "permit-sheet:"

// ID is a hunter registry id together with its origin.
type ID struct {
	Value     string
	Source    Source
	Emergency bool
}

func (id ID) String() string { return id.Value }

// HunterRegistryID returns PA_<permit> when a firearm permit number is known
// and AUTO_<year>_<n> otherwise, n being derived from the file name.
func HunterRegistryID(firearmPermit, fileName string, year int) ID {
	if permit := strings.TrimSpace(firearmPermit); permit != "" {
		return ID{Value: "PA_" + permit, Source: SourceFirearmPermit}
	}

	sum := digest(filepath.Base(fileName))
	value := fmt.Sprintf("AUTO_%d_%d", year, binary.BigEndian.Uint32(sum[:4])%90000+10000)
	if value != "" {
		return ID{Value: value, Source: SourceFileHash}
	}

	// Unreachable while the AUTO_ rule above always yields a value.
	value = "EMERGENCY_" + strings.ToUpper(hex.EncodeToString(sum[:])[:12])
	slog.Error("emergency registry id generated", "file", fileName, "registry_id", value)
	return ID{Value: value, Source: SourceEmergency, Emergency: true}
}

// SheetNumber returns <year>_<authorization> when a regional authorization
// number is known and <year><n6> otherwise.
func SheetNumber(authorization, fileName string, year int) string {
	if auth := strings.TrimSpace(authorization); auth != "" {
		return fmt.Sprintf("%d_%s", year, auth)
	}

	sum := digest(sheetHashDomain + filepath.Base(fileName))
	n := binary.BigEndian.Uint32(sum[:4])%900000 + 100000
	return fmt.Sprintf("%d%d", year, n)
}

func digest(s string) [md5.Size]byte {
	return md5.Sum([]byte(s))
}
