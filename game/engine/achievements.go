package engine

import "fmt"

type achievementTier struct {
	count  int
	suffix string
}

var achievementTiers = []achievementTier{
	{10, "master"},
	{15, "god"},
	{20, "legend"},
}

// AchievementTitle builds the title for crop at a tier suffix, e.g. "potato master"
func AchievementTitle(crop PlantType, suffix string) string {
	return fmt.Sprintf("%s %s", crop, suffix)
}

// CheckAchievements unlocks every tier that count has reached for crop and
// returns the titles that are new. Titles already held are never repeated.
func CheckAchievements(held []string, crop PlantType, count int) (updated []string, unlocked []string) {
	updated = held
	for _, tier := range achievementTiers {
		if count < tier.count {
			continue
		}
		title := AchievementTitle(crop, tier.suffix)
		if containsString(updated, title) {
			continue
		}
		updated = append(updated, title)
		unlocked = append(unlocked, title)
	}
	return updated, unlocked
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
