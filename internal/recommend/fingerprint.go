package recommend

import (
	"cmp"
	"crypto/sha256"
	"encoding/hex"
	"slices"
	"strconv"
	"strings"

	"github.com/HendryAvila/teamfit/internal/team"
)

// Fingerprint is a stable hash of everything about a team that changes a
// recommendation: member IDs, rates, speeds, roles and availability. Member
// order does not matter.
func Fingerprint(members []team.Member) string {
	sorted := team.NormalizeMembers(members)
	slices.SortStableFunc(sorted, func(a, b team.Member) int { return cmp.Compare(a.ID, b.ID) })

	h := sha256.New()
	for _, m := range sorted {
		weeks := make([]string, len(m.WeeklyAvailableHours))
		for i, w := range m.WeeklyAvailableHours {
			weeks[i] = num(w)
		}
		roles := slices.Clone(m.Roles)
		slices.Sort(roles)
		line := strings.Join([]string{
			m.ID,
			num(m.HourlyRate),
			num(m.SpeedFactor),
			strings.Join(roles, ","),
			strings.Join(weeks, ","),
		}, "|")
		h.Write([]byte(line))
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}

func num(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
