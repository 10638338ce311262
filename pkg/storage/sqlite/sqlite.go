// Package sqlite provides a SQLite-backed storage driver. Statements are
// built with ent's dialect-aware SQL builder.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	_ "github.com/mattn/go-sqlite3"

	"github.com/costwise/costwise/pkg/storage"
	"github.com/costwise/costwise/pkg/transcript"
)

const (
	turnsTable    = "turns"
	messagesTable = "messages"

	// timeLayout is fixed width so stored timestamps sort lexically.
	timeLayout = "2006-01-02T15:04:05.000000000Z"
)

// Driver implements storage.Driver using SQLite.
type Driver struct {
	db      *sql.DB
	builder *entsql.DialectBuilder
}

var _ storage.Driver = (*Driver)(nil)

// NewDriver opens (creating if needed) the database at dbPath.
// The dbPath can be a file path or ":memory:" for an in-memory database.
func NewDriver(ctx context.Context, dbPath string) (*Driver, error) {
	// Open the database using the github.com/mattn/go-sqlite3 driver (registered as "sqlite3")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A single connection keeps ":memory:" databases alive and serializes
	// writers.
	db.SetMaxOpenConns(1)

	d := &Driver{
		db:      db,
		builder: entsql.Dialect(dialect.SQLite),
	}

	if err := d.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return d, nil
}

const createMessagesIndex = "CREATE INDEX IF NOT EXISTS messages_conversation_id ON " + messagesTable + " (conversation_id)"

func (d *Driver) migrate(ctx context.Context) error {
	stmts := []entsql.Querier{
		d.builder.CreateTable(turnsTable).IfNotExists().
			Columns(
				entsql.Column("id").Type("TEXT").Attr("PRIMARY KEY"),
				entsql.Column("conversation_id").Type("TEXT").Attr("NOT NULL"),
				entsql.Column("user_id").Type("TEXT").Attr("NOT NULL"),
				entsql.Column("outcome").Type("TEXT").Attr("NOT NULL"),
				entsql.Column("started_at").Type("TEXT").Attr("NOT NULL"),
				entsql.Column("completed_at").Type("TEXT").Attr("NOT NULL"),
			),
		d.builder.CreateTable(messagesTable).IfNotExists().
			Columns(
				entsql.Column("seq").Type("INTEGER").Attr("PRIMARY KEY AUTOINCREMENT"),
				entsql.Column("id").Type("TEXT").Attr("NOT NULL UNIQUE"),
				entsql.Column("turn_id").Type("TEXT").Attr("NOT NULL"),
				entsql.Column("conversation_id").Type("TEXT").Attr("NOT NULL"),
				entsql.Column("user_id").Type("TEXT").Attr("NOT NULL"),
				entsql.Column("role").Type("TEXT").Attr("NOT NULL"),
				entsql.Column("content").Type("TEXT").Attr("NOT NULL"),
				entsql.Column("created_at").Type("TEXT").Attr("NOT NULL"),
			),
	}

	for _, stmt := range stmts {
		query, args := stmt.Query()
		if _, err := d.db.ExecContext(ctx, query, args...); err != nil {
			return err
		}
	}

	_, err := d.db.ExecContext(ctx, createMessagesIndex)
	return err
}

// SaveTurn stores a turn and its messages in one transaction.
func (d *Driver) SaveTurn(ctx context.Context, turn *storage.Turn) error {
	if turn == nil {
		return errors.New("cannot store nil turn")
	}
	if turn.ConversationID == "" {
		return errors.New("turn has no conversation id")
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query, args := d.builder.Insert(turnsTable).
		Columns("id", "conversation_id", "user_id", "outcome", "started_at", "completed_at").
		Values(
			turn.ID,
			turn.ConversationID,
			turn.UserID,
			turn.Outcome,
			formatTime(turn.StartedAt),
			formatTime(turn.CompletedAt),
		).
		Query()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert turn %s: %w", turn.ID, err)
	}

	if len(turn.Messages) > 0 {
		insert := d.builder.Insert(messagesTable).
			Columns("id", "turn_id", "conversation_id", "user_id", "role", "content", "created_at")
		for _, m := range turn.Messages {
			insert.Values(m.ID, turn.ID, turn.ConversationID, turn.UserID, string(m.Role), m.Content, formatTime(m.CreatedAt))
		}

		query, args = insert.Query()
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to insert messages of turn %s: %w", turn.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit turn %s: %w", turn.ID, err)
	}
	return nil
}

// Messages returns the stored messages of a conversation in save order.
func (d *Driver) Messages(ctx context.Context, conversationID string) ([]transcript.Message, error) {
	query, args := d.builder.Select("id", "role", "content", "created_at").
		From(entsql.Table(messagesTable)).
		Where(entsql.EQ("conversation_id", conversationID)).
		OrderBy("seq").
		Query()

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var out []transcript.Message
	for rows.Next() {
		var (
			m         transcript.Message
			role      string
			createdAt string
		)
		if err := rows.Scan(&m.ID, &role, &m.Content, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		m.Role = transcript.Role(role)
		if m.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read messages: %w", err)
	}

	if len(out) == 0 {
		return nil, storage.NotFoundError{ConversationID: conversationID}
	}
	return out, nil
}

// Conversations lists stored conversations, most recent activity first.
func (d *Driver) Conversations(ctx context.Context) ([]storage.Conversation, error) {
	query, args := d.builder.Select(
		"conversation_id",
		entsql.As(entsql.Max("user_id"), "user_id"),
		entsql.As(entsql.Count("id"), "message_count"),
		entsql.As(entsql.Max("created_at"), "last_activity"),
	).
		From(entsql.Table(messagesTable)).
		GroupBy("conversation_id").
		OrderBy(entsql.Desc("last_activity"), "conversation_id").
		Query()

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query conversations: %w", err)
	}
	defer rows.Close()

	var out []storage.Conversation
	for rows.Next() {
		var (
			c    storage.Conversation
			last string
		)
		if err := rows.Scan(&c.ID, &c.UserID, &c.Messages, &last); err != nil {
			return nil, fmt.Errorf("failed to scan conversation: %w", err)
		}
		if c.LastActivity, err = parseTime(last); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read conversations: %w", err)
	}
	return out, nil
}

// DeleteConversation removes every turn and message of a conversation.
func (d *Driver) DeleteConversation(ctx context.Context, conversationID string) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query, args := d.builder.Delete(messagesTable).
		Where(entsql.EQ("conversation_id", conversationID)).
		Query()
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to delete messages: %w", err)
	}

	query, args = d.builder.Delete(turnsTable).
		Where(entsql.EQ("conversation_id", conversationID)).
		Query()
	turns, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to delete turns: %w", err)
	}

	msgCount, _ := res.RowsAffected()
	turnCount, _ := turns.RowsAffected()
	if msgCount == 0 && turnCount == 0 {
		return storage.NotFoundError{ConversationID: conversationID}
	}

	return tx.Commit()
}

// Close closes the database.
func (d *Driver) Close() error {
	return d.db.Close()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse stored time %q: %w", s, err)
	}
	return t, nil
}
