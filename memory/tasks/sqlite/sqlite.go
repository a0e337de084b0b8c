// Package sqlite persists the task hierarchy in a SQLite database.
package sqlite

import (
	"context"
	"database/sql"

	"github.com/m-mizutani/goerr/v2"
	_ "modernc.org/sqlite"

	"github.com/becomeliminal/nim-recall/logging"
	"github.com/becomeliminal/nim-recall/memory"
)

const schema = `
	CREATE TABLE IF NOT EXISTS tasks (
		level TEXT NOT NULL,
		number INTEGER NOT NULL,
		description TEXT NOT NULL,
		plan_id TEXT NOT NULL,
		created_at TEXT DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (level, number)
	);
	CREATE UNIQUE INDEX IF NOT EXISTS tasks_level_plan ON tasks (level, plan_id);
`

// DB holds the tasks of all three levels in one table.
type DB struct {
	db *sql.DB
}

// New opens path, ":memory:" included, and creates the schema.
func New(ctx context.Context, path string) (*DB, error) {
	dsn := path
	if path != ":memory:" {
		dsn += "?_pragma=journal_mode(WAL)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open database", goerr.V("path", path))
	}
	if path == ":memory:" {
		// each connection would get its own empty database
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, goerr.Wrap(err, "failed to ping database", goerr.V("path", path))
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, goerr.Wrap(err, "failed to initialize schema")
	}

	return &DB{db: db}, nil
}

// Close closes the database.
func (d *DB) Close() error {
	if err := d.db.Close(); err != nil {
		return goerr.Wrap(err, "failed to close database")
	}
	return nil
}

// Hierarchy returns a hierarchy backed by this database.
func (d *DB) Hierarchy() memory.Hierarchy {
	return memory.Hierarchy{
		Individual:   d.Level(memory.LevelIndividual),
		Team:         d.Level(memory.LevelTeam),
		Organization: d.Level(memory.LevelOrganization),
	}
}

// Level returns the task store for one level.
func (d *DB) Level(level memory.Level) *Tasks {
	return &Tasks{db: d.db, level: level}
}

// Tasks is the memory.TaskStore of a single level.
type Tasks struct {
	db    *sql.DB
	level memory.Level
}

var _ memory.TaskStore = (*Tasks)(nil)

// AddTask appends plan as the next task of the level. A plan already
// registered at the level keeps its task number.
func (t *Tasks) AddTask(ctx context.Context, plan *memory.Record) error {
	const query = `
		INSERT INTO tasks (level, number, description, plan_id)
		SELECT ?, COALESCE(MAX(number), 0) + 1, ?, ?
		FROM tasks WHERE level = ?
		ON CONFLICT (level, plan_id) DO NOTHING
	`
	res, err := t.db.ExecContext(ctx, query, string(t.level), plan.Content, plan.ID, string(t.level))
	if err != nil {
		return goerr.Wrap(err, "failed to insert task", goerr.V("level", t.level), goerr.V("plan_id", plan.ID))
	}

	logger := logging.Component(ctx, "tasks")
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		logger.Debug("task already registered", "level", t.level, "plan_id", plan.ID)
		return nil
	}
	logger.Debug("task added", "level", t.level, "plan_id", plan.ID)
	return nil
}

// Tasks lists the level's tasks by number.
func (t *Tasks) Tasks(ctx context.Context) ([]memory.Task, error) {
	const query = `
		SELECT number, description, plan_id
		FROM tasks
		WHERE level = ?
		ORDER BY number
	`
	rows, err := t.db.QueryContext(ctx, query, string(t.level))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query tasks", goerr.V("level", t.level))
	}
	defer rows.Close()

	var tasks []memory.Task
	for rows.Next() {
		task := memory.Task{Level: t.level}
		if err := rows.Scan(&task.Number, &task.Description, &task.PlanID); err != nil {
			return nil, goerr.Wrap(err, "failed to scan task")
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "error iterating tasks")
	}
	return tasks, nil
}
