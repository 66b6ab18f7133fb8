package savefile

import "strings"

// GuessMemoryStreamName applies the heuristic the CLI falls back to when
// no explicit name is supplied: the save file's own name hints at which
// in-engine memory stream produced it (spec section 6).
func GuessMemoryStreamName(fileName string) (string, bool) {
	switch {
	case strings.Contains(fileName, "PlayerProfile"):
		if strings.Contains(fileName, "unrestricted") {
			return "<memory stream:PlayerProfile_unrestricted.dat>", true
		}
		return "<memory stream:PlayerProfile.dat>", true
	case strings.Contains(fileName, "All"):
		return "Content/Talos/All.dat", true
	case strings.Contains(fileName, "DLC"):
		return "Content/Talos/DLC.dat", true
	default:
		return "", false
	}
}
