package out

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	profile "mapdirect/internal/modules/profile/domain"
	"mapdirect/internal/modules/route/domain"
	waypoint "mapdirect/internal/modules/waypoint/domain"

	_ "modernc.org/sqlite"
)

// fixed width so updated_at sorts lexically
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteSessionLog keeps an audit trail of route sessions. Nothing reads it
// back into a running controller.
type SQLiteSessionLog struct {
	db *sql.DB
}

func NewSQLiteSessionLog(dbPath string) (*SQLiteSessionLog, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	l := &SQLiteSessionLog{db: db}
	if err := l.ensureSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return l, nil
}

func (l *SQLiteSessionLog) ensureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS route_sessions (
  run_id TEXT NOT NULL,
  session_id INTEGER NOT NULL,
  profile TEXT NOT NULL,
  waypoints TEXT NOT NULL,
  status TEXT NOT NULL,
  distance_m REAL NOT NULL DEFAULT 0,
  duration_s REAL NOT NULL DEFAULT 0,
  detail TEXT NOT NULL DEFAULT '',
  updated_at TEXT NOT NULL,
  PRIMARY KEY (run_id, session_id)
);
CREATE INDEX IF NOT EXISTS idx_route_sessions_updated ON route_sessions(updated_at);
`
	if _, err := l.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create route_sessions table: %w", err)
	}
	return nil
}

func (l *SQLiteSessionLog) Record(ctx context.Context, rec domain.SessionRecord) error {
	points, err := json.Marshal(rec.Waypoints)
	if err != nil {
		return fmt.Errorf("marshal waypoints: %w", err)
	}
	const stmt = `
INSERT INTO route_sessions (run_id, session_id, profile, waypoints, status, distance_m, duration_s, detail, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(run_id, session_id) DO UPDATE SET
  status = excluded.status,
  distance_m = excluded.distance_m,
  duration_s = excluded.duration_s,
  detail = excluded.detail,
  updated_at = excluded.updated_at;
`
	_, err = l.db.ExecContext(ctx, stmt,
		rec.RunID,
		int64(rec.SessionID),
		string(rec.Profile),
		string(points),
		string(rec.Status),
		rec.DistanceM,
		rec.DurationS,
		rec.Detail,
		rec.UpdatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("upsert route session: %w", err)
	}
	return nil
}

// List returns the most recently updated sessions first.
func (l *SQLiteSessionLog) List(ctx context.Context, limit int) ([]domain.SessionRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := l.db.QueryContext(ctx, `
SELECT run_id, session_id, profile, waypoints, status, distance_m, duration_s, detail, updated_at
FROM route_sessions
ORDER BY updated_at DESC, session_id DESC
LIMIT ?;
`, limit)
	if err != nil {
		return nil, fmt.Errorf("list route sessions: %w", err)
	}
	defer rows.Close()

	out := make([]domain.SessionRecord, 0, limit)
	for rows.Next() {
		var (
			rec       domain.SessionRecord
			sessionID int64
			prof      string
			points    string
			status    string
			updatedAt string
		)
		if err := rows.Scan(&rec.RunID, &sessionID, &prof, &points, &status, &rec.DistanceM, &rec.DurationS, &rec.Detail, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan route session: %w", err)
		}
		rec.SessionID = uint64(sessionID)
		rec.Profile = profile.Profile(prof)
		rec.Status = domain.SessionStatus(status)
		rec.Waypoints = []waypoint.LatLng{}
		if err := json.Unmarshal([]byte(points), &rec.Waypoints); err != nil {
			return nil, fmt.Errorf("decode waypoints: %w", err)
		}
		if rec.UpdatedAt, err = time.Parse(timeLayout, updatedAt); err != nil {
			return nil, fmt.Errorf("parse updated_at: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate route sessions: %w", err)
	}
	return out, nil
}

func (l *SQLiteSessionLog) Close() error {
	return l.db.Close()
}
