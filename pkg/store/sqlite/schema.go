package sqlite

const schema = `
CREATE TABLE IF NOT EXISTS visions (
    id TEXT PRIMARY KEY,
    long_term_vision TEXT NOT NULL DEFAULT '',
    three_year_vision TEXT NOT NULL DEFAULT '',
    is_active INTEGER NOT NULL DEFAULT 1,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS cycles (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    start_date TEXT NOT NULL,
    end_date TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT 'active' CHECK(status IN ('active', 'completed', 'archived')),
    vision_id TEXT REFERENCES visions(id) ON DELETE SET NULL,
    overall_execution_score INTEGER,
    week_13_reflection TEXT NOT NULL DEFAULT '',
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);

-- At most one active cycle
CREATE UNIQUE INDEX IF NOT EXISTS idx_cycles_one_active ON cycles(status) WHERE status = 'active';

CREATE TABLE IF NOT EXISTS goals (
    id TEXT PRIMARY KEY,
    cycle_id TEXT NOT NULL,
    title TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    why_it_matters TEXT NOT NULL DEFAULT '',
    target_metric TEXT NOT NULL DEFAULT '',
    display_order INTEGER NOT NULL DEFAULT 0,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL,
    FOREIGN KEY (cycle_id) REFERENCES cycles(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_goals_cycle ON goals(cycle_id, display_order);

CREATE TABLE IF NOT EXISTS tactics (
    id TEXT PRIMARY KEY,
    goal_id TEXT NOT NULL,
    title TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    tactic_type TEXT NOT NULL CHECK(tactic_type IN ('one_time', 'recurring')),
    start_week INTEGER NOT NULL CHECK(start_week BETWEEN 1 AND 12),
    end_week INTEGER NOT NULL CHECK(end_week BETWEEN 1 AND 12),
    weekly_frequency INTEGER NOT NULL DEFAULT 0 CHECK(weekly_frequency BETWEEN 0 AND 7),
    priority TEXT NOT NULL DEFAULT 'medium',
    estimated_duration INTEGER NOT NULL DEFAULT 0,
    notes TEXT NOT NULL DEFAULT '',
    created_at TEXT NOT NULL,
    CHECK (start_week <= end_week),
    FOREIGN KEY (goal_id) REFERENCES goals(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_tactics_goal ON tactics(goal_id);

CREATE TABLE IF NOT EXISTS scheduled_tasks (
    id TEXT PRIMARY KEY,
    tactic_id TEXT NOT NULL,
    cycle_id TEXT NOT NULL,
    week_number INTEGER NOT NULL CHECK(week_number BETWEEN 1 AND 12),
    scheduled_date TEXT NOT NULL,
    is_completed INTEGER NOT NULL DEFAULT 0,
    completed_at TEXT,
    notes TEXT NOT NULL DEFAULT '',
    UNIQUE (tactic_id, scheduled_date),
    FOREIGN KEY (tactic_id) REFERENCES tactics(id) ON DELETE CASCADE,
    FOREIGN KEY (cycle_id) REFERENCES cycles(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_tasks_cycle_week ON scheduled_tasks(cycle_id, week_number);

CREATE TABLE IF NOT EXISTS weekly_reviews (
    id TEXT PRIMARY KEY,
    cycle_id TEXT NOT NULL,
    week_number INTEGER NOT NULL CHECK(week_number BETWEEN 1 AND 12),
    week_start_date TEXT NOT NULL,
    week_end_date TEXT NOT NULL,
    planned_tasks_count INTEGER NOT NULL DEFAULT 0,
    completed_tasks_count INTEGER NOT NULL DEFAULT 0,
    execution_percentage INTEGER NOT NULL DEFAULT 0,
    what_worked TEXT NOT NULL DEFAULT '',
    what_didnt_work TEXT NOT NULL DEFAULT '',
    adjustments_needed TEXT NOT NULL DEFAULT '',
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL,
    UNIQUE (cycle_id, week_number),
    FOREIGN KEY (cycle_id) REFERENCES cycles(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS goal_lag_indicators (
    id TEXT PRIMARY KEY,
    goal_id TEXT NOT NULL,
    name TEXT NOT NULL,
    metric_type TEXT NOT NULL,
    target_value REAL,
    display_order INTEGER NOT NULL DEFAULT 0,
    FOREIGN KEY (goal_id) REFERENCES goals(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS goal_lag_snapshots (
    id TEXT PRIMARY KEY,
    goal_lag_indicator_id TEXT NOT NULL,
    cycle_id TEXT NOT NULL,
    week_number INTEGER NOT NULL CHECK(week_number BETWEEN 1 AND 12),
    value REAL NOT NULL,
    notes TEXT NOT NULL DEFAULT '',
    recorded_at TEXT NOT NULL,
    UNIQUE (goal_lag_indicator_id, cycle_id, week_number),
    FOREIGN KEY (goal_lag_indicator_id) REFERENCES goal_lag_indicators(id) ON DELETE CASCADE,
    FOREIGN KEY (cycle_id) REFERENCES cycles(id) ON DELETE CASCADE
);
`
