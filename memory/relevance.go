package memory

import (
	"strconv"
	"strings"
)

// FilterByTasks returns the candidates whose content contains the decimal
// number of at least one task, in candidate order. Each candidate appears at
// most once.
func FilterByTasks(candidates []*Record, tasks []Task) []*Record {
	numbers := make([]string, len(tasks))
	for i, task := range tasks {
		numbers[i] = strconv.Itoa(task.Number)
	}

	var relevant []*Record
	for _, rec := range candidates {
		for _, n := range numbers {
			if strings.Contains(rec.Content, n) {
				relevant = append(relevant, rec)
				break
			}
		}
	}
	return relevant
}
