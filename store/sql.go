package store

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
)

// bindFunc rewrites a query's placeholders for the target driver. SQLite
// keeps '?', postgres needs '$1, $2, ...'.
type bindFunc func(query string) string

func bindQuestion(query string) string { return query }

func bindDollar(query string) string {
	var sb strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(n))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// =============================================================================
// SQLRunStore
// =============================================================================

type SQLRunStore struct {
	db   *sql.DB
	bind bindFunc
}

func (s *SQLRunStore) CreateRun(id, userRequest string) error {
	_, err := s.db.Exec(s.bind(
		`INSERT INTO runs (id, user_request, status) VALUES (?, ?, 'planning')`,
	), id, userRequest)
	if err != nil {
		return fmt.Errorf("create run: %w", err)
	}
	return nil
}

func (s *SQLRunStore) SavePlan(runID, planJSON string) error {
	_, err := s.db.Exec(s.bind(
		`UPDATE runs SET plan_json = ? WHERE id = ?`,
	), planJSON, runID)
	if err != nil {
		return fmt.Errorf("save plan: %w", err)
	}
	return nil
}

func (s *SQLRunStore) UpdateRunStatus(id, status string) error {
	var err error
	if isTerminalStatus(status) {
		_, err = s.db.Exec(s.bind(
			`UPDATE runs SET status = ?, finished_at = CURRENT_TIMESTAMP WHERE id = ?`,
		), status, id)
	} else {
		_, err = s.db.Exec(s.bind(
			`UPDATE runs SET status = ? WHERE id = ?`,
		), status, id)
	}
	if err != nil {
		return fmt.Errorf("update run status: %w", err)
	}
	return nil
}

func (s *SQLRunStore) GetRun(id string) (*RunRecord, error) {
	row := s.db.QueryRow(s.bind(
		`SELECT id, user_request, status, plan_json, started_at, finished_at FROM runs WHERE id = ?`,
	), id)

	var r RunRecord
	if err := row.Scan(&r.ID, &r.UserRequest, &r.Status, &r.PlanJSON, &r.StartedAt, &r.FinishedAt); err != nil {
		return nil, fmt.Errorf("get run %s: %w", id, err)
	}
	return &r, nil
}

func (s *SQLRunStore) ListRuns() ([]RunRecord, error) {
	rows, err := s.db.Query(
		`SELECT id, user_request, status, plan_json, started_at, finished_at FROM runs ORDER BY started_at`,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		var r RunRecord
		if err := rows.Scan(&r.ID, &r.UserRequest, &r.Status, &r.PlanJSON, &r.StartedAt, &r.FinishedAt); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

func (s *SQLRunStore) CreateTask(runID, taskID string) error {
	_, err := s.db.Exec(s.bind(
		`INSERT INTO run_tasks (run_id, task_id, status, started_at) VALUES (?, ?, 'running', CURRENT_TIMESTAMP)`,
	), runID, taskID)
	if err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

func (s *SQLRunStore) UpdateTaskStatus(runID, taskID, status string, output, errMsg *string) error {
	var err error
	if isTerminalStatus(status) {
		_, err = s.db.Exec(s.bind(
			`UPDATE run_tasks SET status = ?, output = ?, error = ?, finished_at = CURRENT_TIMESTAMP WHERE run_id = ? AND task_id = ?`,
		), status, output, errMsg, runID, taskID)
	} else {
		_, err = s.db.Exec(s.bind(
			`UPDATE run_tasks SET status = ?, output = ?, error = ? WHERE run_id = ? AND task_id = ?`,
		), status, output, errMsg, runID, taskID)
	}
	if err != nil {
		return fmt.Errorf("update task status: %w", err)
	}
	return nil
}

func (s *SQLRunStore) GetTasksByRun(runID string) ([]TaskRecord, error) {
	rows, err := s.db.Query(s.bind(
		`SELECT run_id, task_id, status, output, error, started_at, finished_at FROM run_tasks WHERE run_id = ? ORDER BY started_at`,
	), runID)
	if err != nil {
		return nil, fmt.Errorf("get tasks: %w", err)
	}
	defer rows.Close()

	var tasks []TaskRecord
	for rows.Next() {
		var t TaskRecord
		if err := rows.Scan(&t.RunID, &t.TaskID, &t.Status, &t.Output, &t.Error, &t.StartedAt, &t.FinishedAt); err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// =============================================================================
// SQLEventStore
// =============================================================================

type SQLEventStore struct {
	db   *sql.DB
	bind bindFunc
}

func (s *SQLEventStore) AppendEvent(runID, taskID, kind, payloadJSON string) error {
	_, err := s.db.Exec(s.bind(
		`INSERT INTO run_events (run_id, task_id, kind, payload_json) VALUES (?, ?, ?, ?)`,
	), runID, taskID, kind, payloadJSON)
	if err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	return nil
}

func (s *SQLEventStore) GetEventsByRun(runID string) ([]EventRecord, error) {
	rows, err := s.db.Query(s.bind(
		`SELECT id, run_id, task_id, kind, payload_json, created_at FROM run_events WHERE run_id = ? ORDER BY id`,
	), runID)
	if err != nil {
		return nil, fmt.Errorf("get events: %w", err)
	}
	defer rows.Close()

	var events []EventRecord
	for rows.Next() {
		var ev EventRecord
		if err := rows.Scan(&ev.ID, &ev.RunID, &ev.TaskID, &ev.Kind, &ev.PayloadJSON, &ev.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}
