package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/Shillmaster/JJcbjee/internal/domain/models"
	domrepo "github.com/Shillmaster/JJcbjee/internal/domain/repository"
	pkgch "github.com/Shillmaster/JJcbjee/pkg/clickhouse"
	applogger "github.com/Shillmaster/JJcbjee/pkg/logger"
)

const (
	signalsTable = "signals"
	maxQueryRows = 1000
)

const signalColumns = `id, symbol, profile, asof, current_price, target, bias, confidence,
        tail_risk, timing_action, target_price, sample_size, hit_rate,
        p10, p25, p50, p75, p90, degenerate, violations, created_at`

// SignalSchema returns the DDL for the journal table in database.
func SignalSchema(database string) []string {
	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
            id            String,
            symbol        LowCardinality(String),
            profile       LowCardinality(String),
            asof          DateTime64(3, 'UTC'),
            current_price Float64,
            target        String,
            bias          LowCardinality(String),
            confidence    Float64,
            tail_risk     Float64,
            timing_action LowCardinality(String),
            target_price  Float64,
            sample_size   UInt32,
            hit_rate      Float64,
            p10           Float64,
            p25           Float64,
            p50           Float64,
            p75           Float64,
            p90           Float64,
            degenerate    UInt8,
            violations    Array(String),
            created_at    DateTime64(3, 'UTC')
        )
        ENGINE = ReplacingMergeTree(created_at)
        PARTITION BY toYYYYMM(asof)
        ORDER BY (symbol, asof, id)
        TTL toDateTime(asof) + INTERVAL 365 DAY`, qualify(database, signalsTable)),
	}
}

func qualify(database, table string) string {
	if database == "" {
		return table
	}
	return database + "." + table
}

// ClickHouseSignalJournal implements SignalJournal backed by ClickHouse.
type ClickHouseSignalJournal struct {
	client *pkgch.Client
	db     *sql.DB
	table  string
	schema []string
	l      *applogger.Logger
}

func NewClickHouseSignalJournal(ch *pkgch.Client, database string, l *applogger.Logger) *ClickHouseSignalJournal {
	if l == nil {
		l = applogger.Nop()
	}
	return &ClickHouseSignalJournal{
		client: ch,
		db:     ch.DB(),
		table:  qualify(database, signalsTable),
		schema: SignalSchema(database),
		l:      l,
	}
}

var _ domrepo.SignalJournal = (*ClickHouseSignalJournal)(nil)

func (s *ClickHouseSignalJournal) Init(ctx context.Context) error {
	if err := s.client.InitSchema(ctx, s.schema); err != nil {
		return fmt.Errorf("signal journal: %w", err)
	}
	s.l.Info("clickhouse signal journal ready", applogger.String("table", s.table))
	return nil
}

func (s *ClickHouseSignalJournal) Store(ctx context.Context, e *models.SignalEvent) error {
	if e == nil {
		return nil
	}
	q := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.table, signalColumns)
	_, err := s.db.ExecContext(ctx, q, signalArgs(e)...)
	if err != nil {
		s.l.Error("clickhouse store_signal error",
			applogger.String("symbol", e.Symbol),
			applogger.String("id", e.ID),
			applogger.Error(err),
		)
		return fmt.Errorf("store signal: %w", err)
	}
	return nil
}

func signalArgs(e *models.SignalEvent) []interface{} {
	sig := e.Signal
	var degenerate uint8
	if sig.Degenerate {
		degenerate = 1
	}
	violations := sig.Violations
	if violations == nil {
		violations = []string{}
	}
	return []interface{}{
		e.ID,
		e.Symbol,
		e.Profile,
		e.AsOf.UTC(),
		e.CurrentPrice,
		e.Target,
		string(sig.Bias),
		sig.Confidence,
		sig.TailRisk,
		string(sig.TimingAction),
		sig.TargetPrice,
		uint32(max(sig.SampleSize, 0)),
		sig.HitRate,
		sig.Quantiles.P10,
		sig.Quantiles.P25,
		sig.Quantiles.P50,
		sig.Quantiles.P75,
		sig.Quantiles.P90,
		degenerate,
		violations,
		e.CreatedAt.UTC(),
	}
}

// Query returns events for symbol in [from, to], newest first.
func (s *ClickHouseSignalJournal) Query(ctx context.Context, symbol string, from, to time.Time, limit int) ([]*models.SignalEvent, error) {
	start := time.Now()
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return nil, fmt.Errorf("query signals: symbol is required")
	}
	if limit <= 0 || limit > maxQueryRows {
		limit = maxQueryRows
	}

	q := fmt.Sprintf(`
        SELECT %s
        FROM %s FINAL
        WHERE symbol = ? AND asof >= ? AND asof <= ?
        ORDER BY asof DESC
        LIMIT ?`, signalColumns, s.table)

	rows, err := s.db.QueryContext(ctx, q, symbol, from.UTC(), to.UTC(), limit)
	if err != nil {
		s.l.Error("clickhouse query_signals error",
			applogger.String("symbol", symbol),
			applogger.Error(err),
		)
		return nil, fmt.Errorf("query signals: %w", err)
	}
	defer rows.Close()

	out := make([]*models.SignalEvent, 0, limit)
	for rows.Next() {
		e, err := scanSignal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan signal: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	s.l.Debug("clickhouse query_signals ok",
		applogger.String("symbol", symbol),
		applogger.Int("rows", len(out)),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return out, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSignal(r rowScanner) (*models.SignalEvent, error) {
	var (
		e            models.SignalEvent
		bias, action string
		sampleSize   uint32
		degenerate   uint8
		violations   []string
	)
	sig := &e.Signal
	q := &e.Signal.Quantiles
	err := r.Scan(
		&e.ID, &e.Symbol, &e.Profile, &e.AsOf, &e.CurrentPrice, &e.Target,
		&bias, &sig.Confidence, &sig.TailRisk, &action, &sig.TargetPrice,
		&sampleSize, &sig.HitRate,
		&q.P10, &q.P25, &q.P50, &q.P75, &q.P90,
		&degenerate, &violations, &e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	sig.Bias = models.Bias(bias)
	sig.TimingAction = models.TimingAction(action)
	sig.SampleSize = int(sampleSize)
	sig.Degenerate = degenerate == 1
	if len(violations) > 0 {
		sig.Violations = violations
	}
	return &e, nil
}

func (s *ClickHouseSignalJournal) Health(ctx context.Context) error {
	return s.client.Health(ctx)
}

func (s *ClickHouseSignalJournal) Close() error {
	return s.client.Close()
}
