package postgres

import (
	"Parley/internal/pkg/realtime"
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const reconnectDelay = 2 * time.Second

// NotifySource 通过 LISTEN/NOTIFY 接收数据库触发器推送的行变更
type NotifySource struct {
	pool    *pgxpool.Pool
	channel string
}

func NewNotifySource(pool *pgxpool.Pool, channel string) *NotifySource {
	return &NotifySource{pool: pool, channel: channel}
}

// Run 连接断开后自动重连，直到 ctx 结束
func (s *NotifySource) Run(ctx context.Context, sink realtime.Publisher) error {
	for {
		err := s.listen(ctx, sink)
		if ctx.Err() != nil {
			return nil
		}
		log.Error("Postgres listener stopped, reconnecting", "channel", s.channel, "err", err)
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(reconnectDelay):
		}
	}
}

func (s *NotifySource) listen(ctx context.Context, sink realtime.Publisher) error {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{s.channel}.Sanitize()); err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	log.Info("Postgres realtime source started", "channel", s.channel)

	for {
		n, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		change, err := realtime.DecodeChange([]byte(n.Payload))
		if err != nil {
			log.WarnContext(ctx, "Skip malformed notification", "channel", n.Channel, "err", err)
			continue
		}
		if err := sink.Publish(ctx, change); err != nil {
			log.ErrorContext(ctx, "Failed to dispatch change", "table", change.Table, "err", err)
		}
	}
}

// InstallTriggers 为同步相关的表安装 NOTIFY 触发器，可重复执行
func InstallTriggers(ctx context.Context, pool *pgxpool.Pool, channel string) error {
	fn := fmt.Sprintf(`CREATE OR REPLACE FUNCTION parley_notify_change() RETURNS trigger AS $$
BEGIN
  PERFORM pg_notify(%s, json_build_object(
    'table', TG_TABLE_NAME,
    'type', TG_OP,
    'record', row_to_json(COALESCE(NEW, OLD)),
    'commit_time', now()
  )::text);
  RETURN COALESCE(NEW, OLD);
END;
$$ LANGUAGE plpgsql`, quoteLiteral(channel))

	if _, err := pool.Exec(ctx, fn); err != nil {
		return fmt.Errorf("create notify function: %w", err)
	}
	for _, table := range []string{realtime.TableParticipants, realtime.TableMessages} {
		trigger := pgx.Identifier{"parley_notify_" + table}.Sanitize()
		ident := pgx.Identifier{table}.Sanitize()
		stmts := []string{
			fmt.Sprintf("DROP TRIGGER IF EXISTS %s ON %s", trigger, ident),
			fmt.Sprintf("CREATE TRIGGER %s AFTER INSERT OR UPDATE OR DELETE ON %s FOR EACH ROW EXECUTE FUNCTION parley_notify_change()", trigger, ident),
		}
		for _, stmt := range stmts {
			if _, err := pool.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("install trigger on %s: %w", table, err)
			}
		}
	}
	return nil
}

func quoteLiteral(s string) string {
	out := make([]byte, 0, len(s)+2)
	out = append(out, '\'')
	for i := 0; i < len(s); i++ {
		if s[i] == '\'' {
			out = append(out, '\'')
		}
		out = append(out, s[i])
	}
	return string(append(out, '\''))
}
