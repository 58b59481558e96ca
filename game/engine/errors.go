package engine

import "errors"

// Validation failures. The action is refused and the farm is left unchanged.
var (
	ErrTileOccupied       = errors.New("tile already has a plant")
	ErrInsufficientWater  = errors.New("not enough water to plant")
	ErrNeighborsUnmet     = errors.New("neighbor requirements not met")
	ErrNoInventory        = errors.New("no seeds of that crop in inventory")
	ErrNoPlant            = errors.New("no plant on tile")
	ErrInvalidLevel       = errors.New("plant level is invalid")
	ErrNoActiveTile       = errors.New("player is not on a tile")
	ErrNoActionsRemaining = errors.New("no actions remaining today")
	ErrUnknownCrop        = errors.New("unknown crop")
	ErrBlocked            = errors.New("move blocked by grid edge")
	ErrUnknownDirection   = errors.New("unknown direction")
	ErrNothingToUndo      = errors.New("nothing to undo")
	ErrNothingToRedo      = errors.New("nothing to redo")
)

// Persistence and state failures
var (
	ErrNoSaveData    = errors.New("no save data in slot")
	ErrCorruptSave   = errors.New("save data is corrupt")
	ErrGridSize      = errors.New("grid buffer size mismatch")
	ErrBadTile       = errors.New("grid data holds an invalid tile")
	ErrInvalidConfig = errors.New("invalid game config")
)

// reasons maps each validation failure to a stable reason code and the
// message catalog key used to describe it.
var reasons = []struct {
	err        error
	code       string
	messageKey string
}{
	{ErrTileOccupied, "tile_occupied", MsgTileOccupied},
	{ErrInsufficientWater, "insufficient_water", MsgConditionsNotMet},
	{ErrNeighborsUnmet, "neighbors_unmet", MsgInsufficientNeighbors},
	{ErrNoInventory, "no_inventory", MsgNoInventory},
	{ErrNoPlant, "no_plant", MsgNoPlantToHarvest},
	{ErrInvalidLevel, "invalid_level", MsgInvalidPlantLevel},
	{ErrNoActiveTile, "no_active_tile", MsgNoActiveTile},
	{ErrNoActionsRemaining, "no_actions_remaining", MsgNoActionsRemaining},
	{ErrUnknownCrop, "unknown_crop", MsgUnknownCrop},
	{ErrBlocked, "blocked", MsgBlocked},
	{ErrUnknownDirection, "unknown_direction", MsgUnknownDirection},
	{ErrNothingToUndo, "undo_unavailable", MsgUndoUnavailable},
	{ErrNothingToRedo, "redo_unavailable", MsgRedoUnavailable},
	{ErrNoSaveData, "no_save_data", MsgNoSaveFound},
	{ErrCorruptSave, "corrupt_save", MsgCorruptSave},
}

// ReasonCode returns a stable snake_case code for a known failure, or "error"
func ReasonCode(err error) string {
	if err == nil {
		return ""
	}
	for _, r := range reasons {
		if errors.Is(err, r.err) {
			return r.code
		}
	}
	return "error"
}

func messageKeyFor(err error) string {
	for _, r := range reasons {
		if errors.Is(err, r.err) {
			return r.messageKey
		}
	}
	return ""
}
