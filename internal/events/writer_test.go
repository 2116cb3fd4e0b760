package events

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"scoreline/internal/db"
	"scoreline/internal/migrate"
)

func TestAppendWritesInsideTx(t *testing.T) {
	conn, err := db.Open(db.Config{InMemory: true})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer conn.Close()
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	ctx := context.Background()
	w := Writer{DB: conn, Now: func() time.Time { return time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC) }}

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := w.Append(ctx, tx, GameStarted, "game", 7, EventPayload{"game_type": "501"}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := w.Append(ctx, tx, PlayerDeleted, "player", 0, nil); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}

	rows, err := conn.QueryContext(ctx, `SELECT ts,type,entity_id,payload_json FROM events ORDER BY id`)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	defer rows.Close()
	type row struct {
		ts, typ, payload string
		id               sql.NullString
	}
	var got []row
	for rows.Next() {
		var r row
		if err := rows.Scan(&r.ts, &r.typ, &r.id, &r.payload); err != nil {
			t.Fatalf("scan: %v", err)
		}
		got = append(got, r)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 events, got %d", len(got))
	}
	if got[0].ts != "2024-01-01T12:00:00Z" || got[0].id.String != "7" || got[0].payload != `{"game_type":"501"}` {
		t.Fatalf("unexpected first event %+v", got[0])
	}
	if got[1].id.Valid || got[1].payload != "{}" {
		t.Fatalf("expected null entity id and empty payload, got %+v", got[1])
	}
}

func TestAppendRollsBackWithTx(t *testing.T) {
	conn, err := db.Open(db.Config{InMemory: true})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer conn.Close()
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	ctx := context.Background()
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := (Writer{DB: conn}).Append(ctx, tx, GameThrow, "game", 1, nil); err != nil {
		t.Fatalf("append: %v", err)
	}
	tx.Rollback()
	var n int
	if err := conn.QueryRow(`SELECT COUNT(*) FROM events`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected rollback to drop the event, got %d", n)
	}
}
