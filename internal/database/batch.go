package database

import (
	"context"
	"fmt"
	"strings"
)

// Batch accumulates statements that must succeed or fail together. At
// Execute time all statements are wrapped in BEGIN TRANSACTION / COMMIT
// TRANSACTION and sent as one query. Variables are namespaced per
// statement so that two statements may both bind, say, $run_id without
// clobbering each other.
//
// There is no isolation between Add calls; the batch only guarantees
// atomicity of the final commit.
type Batch struct {
	statements []string
	vars       map[string]interface{}
	counter    int
}

// NewBatch creates an empty batch.
func NewBatch() *Batch {
	return &Batch{vars: make(map[string]interface{})}
}

// Add appends a statement to the batch, rewriting its variable references
// to namespaced names.
func (b *Batch) Add(query string, vars map[string]interface{}) *Batch {
	b.counter++
	rewritten := query
	for name, value := range vars {
		scoped := fmt.Sprintf("b%d_%s", b.counter, name)
		rewritten = strings.ReplaceAll(rewritten, "$"+name, "$"+scoped)
		b.vars[scoped] = value
	}
	b.statements = append(b.statements, rewritten)
	return b
}

// Len returns the number of accumulated statements.
func (b *Batch) Len() int {
	return len(b.statements)
}

// Execute runs the batch atomically. An empty batch is a no-op.
func (b *Batch) Execute(ctx context.Context, db Database) error {
	if len(b.statements) == 0 {
		return nil
	}

	var sb strings.Builder
	sb.WriteString("BEGIN TRANSACTION;\n")
	for _, stmt := range b.statements {
		sb.WriteString(stmt)
		sb.WriteString(";\n")
	}
	sb.WriteString("COMMIT TRANSACTION;")

	if _, err := db.Query(ctx, sb.String(), b.vars); err != nil {
		return fmt.Errorf("batch commit: %w", err)
	}
	return nil
}
