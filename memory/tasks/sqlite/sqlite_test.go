package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/becomeliminal/nim-recall/memory"
	"github.com/becomeliminal/nim-recall/memory/index/chromem"
	"github.com/becomeliminal/nim-recall/memory/tasks/sqlite"
	"github.com/m-mizutani/gt"
)

func setupDB(t *testing.T) *sqlite.DB {
	t.Helper()
	db, err := sqlite.New(context.Background(), ":memory:")
	gt.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestTasksNumberPerLevel(t *testing.T) {
	ctx := context.Background()
	db := setupDB(t)
	now := time.Now()

	team := db.Level(memory.LevelTeam)
	org := db.Level(memory.LevelOrganization)

	first := memory.NewPlan("plan the sprint", 0.5, now, memory.LevelTeam)
	second := memory.NewPlan("hold the retro", 0.5, now, memory.LevelTeam)
	gt.NoError(t, team.AddTask(ctx, first))
	gt.NoError(t, org.AddTask(ctx, memory.NewPlan("grow", 0.5, now, memory.LevelOrganization)))
	gt.NoError(t, team.AddTask(ctx, second))

	tasks, err := team.Tasks(ctx)
	gt.NoError(t, err)
	gt.Equal(t, tasks, []memory.Task{
		{Number: 1, Description: "plan the sprint", PlanID: first.ID, Level: memory.LevelTeam},
		{Number: 2, Description: "hold the retro", PlanID: second.ID, Level: memory.LevelTeam},
	})

	orgTasks, err := org.Tasks(ctx)
	gt.NoError(t, err)
	gt.A(t, orgTasks).Length(1)
	gt.Equal(t, orgTasks[0].Number, 1)

	individual, err := db.Level(memory.LevelIndividual).Tasks(ctx)
	gt.NoError(t, err)
	gt.A(t, individual).Length(0)
}

func TestHierarchyWithStore(t *testing.T) {
	ctx := context.Background()
	db := setupDB(t)

	idx, err := chromem.New(2)
	gt.NoError(t, err)
	store := memory.NewStore(idx, memory.WithDimensions(2), memory.WithHierarchy(db.Hierarchy()))

	plan := memory.NewPlan("write the report", 0.8, time.Now(), memory.LevelIndividual)
	plan.Embedding = []float32{1, 0}
	gt.NoError(t, store.Add(ctx, plan))

	all, err := store.Hierarchy().AllTasks(ctx)
	gt.NoError(t, err)
	gt.A(t, all).Length(1)
	gt.Equal(t, all[0].PlanID, plan.ID)
	gt.Equal(t, all[0].Level, memory.LevelIndividual)
}

func TestPersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "tasks.db")

	db, err := sqlite.New(ctx, path)
	gt.NoError(t, err)
	gt.NoError(t, db.Level(memory.LevelTeam).AddTask(ctx, memory.NewPlan("ship", 0.5, time.Now(), memory.LevelTeam)))
	gt.NoError(t, db.Close())

	db, err = sqlite.New(ctx, path)
	gt.NoError(t, err)
	defer db.Close()

	tasks, err := db.Level(memory.LevelTeam).Tasks(ctx)
	gt.NoError(t, err)
	gt.A(t, tasks).Length(1)
	gt.Equal(t, tasks[0].Description, "ship")
}

func TestAddTaskIsIdempotentPerPlan(t *testing.T) {
	ctx := context.Background()
	db := setupDB(t)
	now := time.Now()

	team := db.Level(memory.LevelTeam)
	plan := memory.NewPlan("plan the sprint", 0.5, now, memory.LevelTeam)
	other := memory.NewPlan("hold the retro", 0.5, now, memory.LevelTeam)
	gt.NoError(t, team.AddTask(ctx, plan))
	gt.NoError(t, team.AddTask(ctx, plan))
	gt.NoError(t, team.AddTask(ctx, other))

	tasks, err := team.Tasks(ctx)
	gt.NoError(t, err)
	gt.Equal(t, tasks, []memory.Task{
		{Number: 1, Description: "plan the sprint", PlanID: plan.ID, Level: memory.LevelTeam},
		{Number: 2, Description: "hold the retro", PlanID: other.ID, Level: memory.LevelTeam},
	})

	// the same plan id is still new at another level
	org := db.Level(memory.LevelOrganization)
	gt.NoError(t, org.AddTask(ctx, plan))
	orgTasks, err := org.Tasks(ctx)
	gt.NoError(t, err)
	gt.A(t, orgTasks).Length(1)
}

func TestReseedAfterReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "tasks.db")
	plan := memory.NewPlan("ship", 0.5, time.Now(), memory.LevelTeam)

	for range 2 {
		db, err := sqlite.New(ctx, path)
		gt.NoError(t, err)
		gt.NoError(t, db.Level(memory.LevelTeam).AddTask(ctx, plan))
		gt.NoError(t, db.Close())
	}

	db, err := sqlite.New(ctx, path)
	gt.NoError(t, err)
	defer db.Close()

	tasks, err := db.Level(memory.LevelTeam).Tasks(ctx)
	gt.NoError(t, err)
	gt.A(t, tasks).Length(1)
	gt.Equal(t, tasks[0].Number, 1)
}
