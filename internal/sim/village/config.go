package village

type Config struct {
	ID   string
	Seed int64

	TickRateHz int
	DayTicks   int
	GridRadius int // tiles span the square [-GridRadius, GridRadius]^2

	StartingBudget float64

	IncomeIntervalSec float64
	ChurnIntervalSec  float64
	SpawnIntervalSec  float64

	VillagerSpeedMin float64 // tiles per second
	VillagerSpeedMax float64
	IdleSecMin       float64
	IdleSecMax       float64
	MoveSecMin       float64
	MoveSecMax       float64
	WanderRadius     int

	TreeItemID   string
	InitialTrees int

	SnapshotEverySec float64
}

func (c *Config) applyDefaults() {
	if c.ID == "" {
		c.ID = "village_1"
	}
	if c.TickRateHz <= 0 {
		c.TickRateHz = 20
	}
	if c.DayTicks <= 0 {
		c.DayTicks = 4800
	}
	if c.GridRadius <= 0 {
		c.GridRadius = 30
	}
	// Zero is a valid broke start; only a negative value means "unset".
	if c.StartingBudget < 0 {
		c.StartingBudget = 800
	}
	if c.IncomeIntervalSec <= 0 {
		c.IncomeIntervalSec = 30
	}
	if c.ChurnIntervalSec <= 0 {
		c.ChurnIntervalSec = 45
	}
	if c.SpawnIntervalSec <= 0 {
		c.SpawnIntervalSec = 4
	}
	if c.VillagerSpeedMin <= 0 {
		c.VillagerSpeedMin = 1.2
	}
	if c.VillagerSpeedMax <= 0 {
		c.VillagerSpeedMax = 2.2
	}
	if c.IdleSecMin <= 0 {
		c.IdleSecMin = 2
	}
	if c.IdleSecMax <= 0 {
		c.IdleSecMax = 5
	}
	if c.MoveSecMin <= 0 {
		c.MoveSecMin = 3
	}
	if c.MoveSecMax <= 0 {
		c.MoveSecMax = 5
	}
	if c.WanderRadius <= 0 {
		c.WanderRadius = 5
	}
	if c.TreeItemID == "" {
		c.TreeItemID = "tree"
	}
	if c.InitialTrees < 0 {
		c.InitialTrees = 0
	}
	if c.SnapshotEverySec <= 0 {
		c.SnapshotEverySec = 60
	}
}
