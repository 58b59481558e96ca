package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlantSuccess(t *testing.T) {
	f := uniformFarm(3, 3, 50, 25)
	c := newTestController(fixedRandom{})

	require.NoError(t, c.Plant(f, 0, 0, Potato))

	tile := f.Grid.Tile(0, 0)
	assert.Equal(t, Potato, tile.Plant)
	assert.Equal(t, 1, tile.Level)
	assert.Equal(t, 5, tile.Water)
	assert.Equal(t, 0, f.Inventory.Potato)
}

func TestPlantFailuresLeaveFarmUnchanged(t *testing.T) {
	cases := []struct {
		name  string
		setup func(f *Farm)
		crop  PlantType
		want  error
	}{
		{
			name:  "occupied",
			setup: func(f *Farm) { plantAt(f.Grid, 1, 1, Cabbage, 2) },
			crop:  Potato,
			want:  ErrTileOccupied,
		},
		{
			name:  "water below potato threshold",
			setup: func(f *Farm) { f.Grid.Set(FieldWater, 1, 1, 19) },
			crop:  Potato,
			want:  ErrInsufficientWater,
		},
		{
			name:  "water below cabbage threshold",
			setup: func(f *Farm) { f.Grid.Set(FieldWater, 1, 1, 69) },
			crop:  Cabbage,
			want:  ErrInsufficientWater,
		},
		{
			name:  "no inventory",
			setup: func(f *Farm) { f.Inventory.Carrot = 0 },
			crop:  Carrot,
			want:  ErrNoInventory,
		},
		{
			name:  "unknown crop",
			setup: func(f *Farm) {},
			crop:  None,
			want:  ErrUnknownCrop,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := uniformFarm(3, 3, 50, 80)
			tc.setup(f)
			before := f.Snapshot()

			err := newTestController(fixedRandom{}).Plant(f, 1, 1, tc.crop)

			assert.ErrorIs(t, err, tc.want)
			assert.Equal(t, before, f.Snapshot())
		})
	}
}

func TestPlantLevelOneNeighborRule(t *testing.T) {
	rules := NewRuleBuilder().
		NeighborsCondition(Cabbage, 1, map[PlantType]int{Potato: 2}).
		Build()
	c := NewController(ControllerConfig{Rules: rules, Logger: quietLogger()})
	f := uniformFarm(3, 3, 50, 100)
	plantAt(f.Grid, 0, 0, Potato, 1)

	assert.ErrorIs(t, c.Plant(f, 1, 1, Cabbage), ErrNeighborsUnmet)

	plantAt(f.Grid, 2, 2, Potato, 1)
	assert.NoError(t, c.Plant(f, 1, 1, Cabbage))
}

func TestPlantLegacyCarrotRule(t *testing.T) {
	legacy := NewController(ControllerConfig{LegacyCarrotRule: true, Logger: quietLogger()})
	f := uniformFarm(3, 3, 50, 100)

	assert.ErrorIs(t, legacy.Plant(f, 1, 1, Carrot), ErrNeighborsUnmet)

	plantAt(f.Grid, 0, 0, Potato, 1) // diagonal only
	assert.ErrorIs(t, legacy.Plant(f, 1, 1, Carrot), ErrNeighborsUnmet)

	plantAt(f.Grid, 1, 0, Cabbage, 1)
	assert.NoError(t, legacy.Plant(f, 1, 1, Carrot))

	// without the flag carrots need no neighbors
	f2 := uniformFarm(3, 3, 50, 100)
	assert.NoError(t, newTestController(fixedRandom{}).Plant(f2, 1, 1, Carrot))
}

func TestHarvestYields(t *testing.T) {
	for level, want := range map[int]int{1: 1, 2: 2, 3: 4} {
		f := uniformFarm(1, 1, 0, 0)
		f.Inventory = Inventory{}
		plantAt(f.Grid, 0, 0, Carrot, level)

		result, err := newTestController(fixedRandom{}).Harvest(f, 0, 0)

		require.NoError(t, err)
		assert.Equal(t, want, result.Yield)
		assert.Equal(t, want, f.Inventory.Carrot)
		assert.Equal(t, None, f.Grid.Tile(0, 0).Plant)
		assert.Equal(t, 0, f.Grid.Tile(0, 0).Level)
	}
}

func TestHarvestFailures(t *testing.T) {
	f := uniformFarm(1, 2, 0, 0)
	g := f.Grid
	g.Set(FieldPlantType, 0, 1, uint8(Potato))
	c := newTestController(fixedRandom{})

	_, err := c.Harvest(f, 0, 0)
	assert.ErrorIs(t, err, ErrNoPlant)

	_, err = c.Harvest(f, 0, 1)
	assert.ErrorIs(t, err, ErrInvalidLevel)
}

func TestAchievementUnlockedOnce(t *testing.T) {
	f := uniformFarm(1, 1, 0, 0)
	f.Inventory.Potato = 9
	c := newTestController(fixedRandom{})

	for i := 0; i < 3; i++ {
		plantAt(f.Grid, 0, 0, Potato, 1)
		result, err := c.Harvest(f, 0, 0)
		require.NoError(t, err)
		if i == 0 {
			assert.Equal(t, []string{"potato master"}, result.Unlocked)
		} else {
			assert.Empty(t, result.Unlocked)
		}
	}

	assert.Equal(t, 12, f.Inventory.Potato)
	assert.Equal(t, []string{"potato master"}, f.Achievements)
}

func TestAchievementTiers(t *testing.T) {
	held, unlocked := CheckAchievements(nil, Cabbage, 20)
	assert.Equal(t, []string{"cabbage master", "cabbage god", "cabbage legend"}, unlocked)
	assert.Equal(t, held, unlocked)

	held, unlocked = CheckAchievements(held, Cabbage, 25)
	assert.Empty(t, unlocked)
	assert.Len(t, held, 3)
}

func TestAdvanceDay(t *testing.T) {
	f := uniformFarm(2, 2, 50, 25)
	f.ActionsRemaining = 0
	plantAt(f.Grid, 0, 0, Potato, 1)

	result := newTestController(fixedRandom{value: 100}).AdvanceDay(f)

	assert.Equal(t, 2, f.Day)
	assert.Equal(t, 2, result.Day)
	assert.Equal(t, DailyActionBudget, f.ActionsRemaining)
	require.Len(t, result.Grown, 1)
	// grew with the old weather (25-10), then rain added 30
	assert.Equal(t, 45, f.Grid.Tile(0, 0).Water)
	assert.Equal(t, 100, f.Grid.Tile(0, 0).Sunlight)
}

func TestControllerCustomBudget(t *testing.T) {
	c := NewController(ControllerConfig{DailyActions: 4, Logger: quietLogger()})
	f := uniformFarm(1, 1, 0, 0)
	c.AdvanceDay(f)
	assert.Equal(t, 4, f.ActionsRemaining)
}
