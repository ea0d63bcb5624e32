package obs

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const maxStatementLen = 300

type pgxSpanKey struct{}

// PGXTracer opens one span per query. Spans are named after the sqlc query
// ("db InsertWebhookEventIfNew") when the statement carries a "-- name:" header.
type PGXTracer struct{}

func (PGXTracer) TraceQueryStart(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	name, op := describeQuery(data.SQL)
	ctx, span := otel.Tracer("db.pgx").Start(ctx, "db "+name, trace.WithSpanKind(trace.SpanKindClient))
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", op),
		attribute.String("db.query.text", truncateSQL(data.SQL)),
	)
	return context.WithValue(ctx, pgxSpanKey{}, span)
}

func (PGXTracer) TraceQueryEnd(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryEndData) {
	span, ok := ctx.Value(pgxSpanKey{}).(trace.Span)
	if !ok {
		return
	}
	defer span.End()
	span.SetAttributes(attribute.Int64("db.rows_affected", data.CommandTag.RowsAffected()))
	if data.Err != nil {
		span.RecordError(data.Err)
		span.SetStatus(codes.Error, "query failed")
	}
}

// describeQuery returns the sqlc query name (or the leading SQL keyword when
// there is none) and the SQL verb.
func describeQuery(sql string) (name, op string) {
	body := strings.TrimSpace(sql)
	if rest, ok := strings.CutPrefix(body, "-- name:"); ok {
		header, stmt, _ := strings.Cut(rest, "\n")
		if fields := strings.Fields(header); len(fields) > 0 {
			name = fields[0]
		}
		body = strings.TrimSpace(stmt)
	}
	if fields := strings.Fields(body); len(fields) > 0 {
		op = strings.ToUpper(fields[0])
	}
	if name == "" {
		name = op
	}
	if name == "" {
		name = "query"
	}
	return name, op
}

func truncateSQL(sql string) string {
	trimmed := strings.TrimSpace(sql)
	if len(trimmed) > maxStatementLen {
		return trimmed[:maxStatementLen] + "..."
	}
	return trimmed
}
