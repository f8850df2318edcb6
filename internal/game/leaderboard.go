package game

import "sort"

// LeaderboardSize caps every leaderboard at the top ten.
const LeaderboardSize = 10

// LeaderboardEntry is one ranked live player.
type LeaderboardEntry struct {
	Address    string  `json:"address"`
	Name       string  `json:"name"`
	SolValue   uint64  `json:"solValue"`
	SolDisplay string  `json:"solDisplay"`
	Mass       float64 `json:"mass"`
	Zone       int     `json:"zone"`
	Rank       int     `json:"rank"`
}

// ComputeLeaderboard ranks live players by value, mass breaking ties, and
// truncates to the top ten. The slice is freshly allocated every call.
func ComputeLeaderboard(players map[string]*Player) []LeaderboardEntry {
	entries := make([]LeaderboardEntry, 0, len(players))
	for _, p := range players {
		if !p.Alive {
			continue
		}
		entries = append(entries, LeaderboardEntry{
			Address:    p.ID,
			Name:       p.Name,
			SolValue:   p.SolValue,
			SolDisplay: SolDisplay(p.SolValue),
			Mass:       p.Mass,
			Zone:       p.Zone,
		})
	}
	sortLeaderboard(entries)
	if len(entries) > LeaderboardSize {
		entries = entries[:LeaderboardSize]
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}

// MergeLeaderboards combines per-room boards into a global top ten.
func MergeLeaderboards(boards ...[]LeaderboardEntry) []LeaderboardEntry {
	var merged []LeaderboardEntry
	for _, b := range boards {
		merged = append(merged, b...)
	}
	sortLeaderboard(merged)
	if len(merged) > LeaderboardSize {
		merged = merged[:LeaderboardSize]
	}
	for i := range merged {
		merged[i].Rank = i + 1
	}
	return merged
}

func sortLeaderboard(entries []LeaderboardEntry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].SolValue != entries[j].SolValue {
			return entries[i].SolValue > entries[j].SolValue
		}
		return entries[i].Mass > entries[j].Mass
	})
}
