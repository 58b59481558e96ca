package engine

import (
	"fmt"
	"strings"
)

// Message catalog keys
const (
	MsgWelcome               = "welcome"
	MsgPlanted               = "planted"
	MsgHarvested             = "harvested"
	MsgDayAdvanced           = "dayAdvanced"
	MsgMoved                 = "moved"
	MsgTileOccupied          = "noPlantHere"
	MsgConditionsNotMet      = "conditionsNotMet"
	MsgInsufficientNeighbors = "insufficientNeighbors"
	MsgNoInventory           = "noInventory"
	MsgNoActionsRemaining    = "noActionsRemaining"
	MsgNoActiveTile          = "noActiveTile"
	MsgNoPlantToHarvest      = "noPlantToHarvest"
	MsgInvalidPlantLevel     = "invalidPlantLevel"
	MsgPlantCannotGrow       = "plantCannotGrow"
	MsgUnknownCrop           = "unknownCrop"
	MsgBlocked               = "blocked"
	MsgUnknownDirection      = "unknownDirection"
	MsgUndo                  = "undo"
	MsgRedo                  = "redo"
	MsgUndoUnavailable       = "undoUnavailable"
	MsgRedoUnavailable       = "redoUnavailable"
	MsgGameSaved             = "gameSaved"
	MsgGameLoaded            = "gameLoaded"
	MsgNoSaveFound           = "noSaveFound"
	MsgCorruptSave           = "corruptSave"
	MsgAchievementUnlocked   = "achievementUnlocked"
)

// Messages is a message catalog. Templates may reference variables as {name}.
type Messages map[string]string

// DefaultMessages returns the built-in English catalog
func DefaultMessages() Messages {
	return Messages{
		MsgWelcome:               "Day {day}. Plant, harvest, and grow your farm!",
		MsgPlanted:               "Planted {crop} at ({row},{col})",
		MsgHarvested:             "Harvested {crop} at ({row},{col}) for {yield}",
		MsgDayAdvanced:           "Day {day} begins",
		MsgMoved:                 "Moved {direction} to ({row},{col})",
		MsgTileOccupied:          "This tile already has a plant",
		MsgConditionsNotMet:      "Not enough water to plant {crop}",
		MsgInsufficientNeighbors: "{crop} needs different neighbors",
		MsgNoInventory:           "No {crop} seeds left",
		MsgNoActionsRemaining:    "No actions remaining today",
		MsgNoActiveTile:          "No active tile",
		MsgNoPlantToHarvest:      "No plant to harvest",
		MsgInvalidPlantLevel:     "Invalid plant level",
		MsgPlantCannotGrow:       "Plant cannot grow",
		MsgUnknownCrop:           "Unknown crop {crop}",
		MsgBlocked:               "Can't move {direction}",
		MsgUnknownDirection:      "Unknown direction {direction}",
		MsgUndo:                  "Undid last action",
		MsgRedo:                  "Redid last action",
		MsgUndoUnavailable:       "Nothing to undo",
		MsgRedoUnavailable:       "Nothing to redo",
		MsgGameSaved:             "Game saved to slot {slot}",
		MsgGameLoaded:            "Game loaded from slot {slot}",
		MsgNoSaveFound:           "No save found in slot {slot}",
		MsgCorruptSave:           "Save in slot {slot} is corrupt",
		MsgAchievementUnlocked:   "Achievement unlocked: {title}",
	}
}

// Merge returns a copy of m with overrides applied on top
func (m Messages) Merge(overrides map[string]string) Messages {
	out := make(Messages, len(m)+len(overrides))
	for k, v := range m {
		out[k] = v
	}
	for k, v := range overrides {
		if v != "" {
			out[k] = v
		}
	}
	return out
}

// Translate renders the template for key. Unknown keys render as the key itself.
func (m Messages) Translate(key string, vars map[string]any) string {
	str, ok := m[key]
	if !ok {
		str = key
	}
	for name, value := range vars {
		str = strings.ReplaceAll(str, "{"+name+"}", fmt.Sprint(value))
	}
	return str
}
