package core

import "time"

const (
	AchievementFirstTransaction AchievementCode = "first_transaction"
	AchievementTenTransactions  AchievementCode = "ten_transactions"
	AchievementGoalReached      AchievementCode = "goal_reached"
)

const (
	IconStar   Icon = "star"
	IconTrophy Icon = "trophy"
	IconTarget Icon = "target"
	IconAward  Icon = "award"
)

type (
	AchievementCode string

	// Icon names a glyph the front end knows how to render.
	Icon string

	Achievement struct {
		ID          int64           `json:"id"`
		UserID      int64           `json:"user_id"`
		Code        AchievementCode `json:"code"`
		Name        string          `json:"name"`
		Description string          `json:"description"`
		Icon        Icon            `json:"icon"`
		EarnedAt    time.Time       `json:"earned_at"`
	}

	achievementInfo struct {
		name        string
		description string
		icon        Icon
	}
)

var achievementCatalog = map[AchievementCode]achievementInfo{
	AchievementFirstTransaction: {"First Transaction", "Recorded your first transaction", IconStar},
	AchievementTenTransactions:  {"Ten Transactions", "Recorded ten transactions", IconTrophy},
	AchievementGoalReached:      {"Goal Reached", "Reached a savings goal", IconTarget},
}

var knownIcons = map[Icon]bool{
	IconStar:   true,
	IconTrophy: true,
	IconTarget: true,
	IconAward:  true,
}

// LookupIcon maps a stored icon name to a known icon, IconAward otherwise.
func LookupIcon(name string) Icon {
	if icon := Icon(name); knownIcons[icon] {
		return icon
	}
	return IconAward
}

// NewAchievement fills name, description and icon from the catalog.
// Unknown codes keep the code as name and get the default icon.
func NewAchievement(userID int64, code AchievementCode) Achievement {
	a := Achievement{UserID: userID, Code: code, Name: string(code), Icon: IconAward}
	if info, ok := achievementCatalog[code]; ok {
		a.Name = info.name
		a.Description = info.description
		a.Icon = info.icon
	}
	return a
}
