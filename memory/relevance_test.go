package memory_test

import (
	"testing"

	"github.com/becomeliminal/nim-recall/memory"
	"github.com/m-mizutani/gt"
)

func TestFilterByTasks(t *testing.T) {
	step2 := memory.NewObservation("finished step 2", 0.5, t0)
	none := memory.NewObservation("nothing numbered", 0.5, t0)
	step12 := memory.NewObservation("step 12 and step 2", 0.5, t0)

	tasks := []memory.Task{
		{Number: 1, Level: memory.LevelIndividual},
		{Number: 2, Level: memory.LevelIndividual},
		{Number: 1, Level: memory.LevelTeam},
	}

	got := memory.FilterByTasks([]*memory.Record{step2, none, step12}, tasks)
	gt.Equal(t, ids(got), []string{step2.ID, step12.ID})
}

func TestFilterByTasksEmpty(t *testing.T) {
	rec := memory.NewObservation("step 1", 0.5, t0)

	gt.A(t, memory.FilterByTasks(nil, []memory.Task{{Number: 1}})).Length(0)
	gt.A(t, memory.FilterByTasks([]*memory.Record{rec}, nil)).Length(0)
}
