package db

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/dietrichf/geocss/internal/cascade"
	"github.com/dietrichf/geocss/internal/types"
)

// Catalog stores compiled stylesheets: the raw source plus one JSON rule
// document per compiled rule, in stylesheet order.
type Catalog struct {
	db  *sqlx.DB
	q   *Queries
	log *zap.Logger
}

// NewCatalog wraps a connection with the catalog queries. A nil logger is
// replaced with a no-op one.
func NewCatalog(db *sqlx.DB, log *zap.Logger) (*Catalog, error) {
	q, err := LoadQueries(db)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Catalog{db: db, q: q, log: log.Named("catalog")}, nil
}

// StylesheetRow is a catalog listing entry.
type StylesheetRow struct {
	SheetID   types.SheetID `db:"sheet_id"`
	Name      string        `db:"name"`
	CreatedAt time.Time     `db:"created_at"`
	RuleCount int           `db:"rule_count"`
}

type stylesheetRecord struct {
	SheetID   types.SheetID `db:"sheet_id"`
	Name      string        `db:"name"`
	Source    string        `db:"source"`
	CreatedAt time.Time     `db:"created_at"`
}

type ruleRecord struct {
	RuleID   types.RuleID `db:"rule_id"`
	Position int          `db:"position"`
	Title    *string      `db:"title"`
	Abstract *string      `db:"abstract"`
	Doc      string       `db:"doc"`
}

// SaveStylesheet stores a stylesheet and its compiled rule documents in one
// transaction and returns the generated sheet id.
func (c *Catalog) SaveStylesheet(name, source string, docs []cascade.Doc) (types.SheetID, error) {
	insertSheet, err := c.q.Raw("insert-stylesheet")
	if err != nil {
		return "", err
	}
	insertRule, err := c.q.Raw("insert-rule")
	if err != nil {
		return "", err
	}

	sheetID := types.NewSheetID()

	tx, err := c.db.Beginx()
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}

	if _, err := tx.Exec(insertSheet, sheetID, name, source, time.Now().UTC()); err != nil {
		tx.Rollback()
		return "", fmt.Errorf("failed to insert stylesheet: %w", err)
	}

	for i, doc := range docs {
		payload, err := json.Marshal(doc)
		if err != nil {
			tx.Rollback()
			return "", fmt.Errorf("failed to encode rule %d: %w", i, err)
		}

		var title, abstract *string
		if doc.Title != "" {
			title = &doc.Title
		}
		if doc.Abstract != "" {
			abstract = &doc.Abstract
		}

		if _, err := tx.Exec(insertRule, types.NewRuleID(), sheetID, i, title, abstract, string(payload)); err != nil {
			tx.Rollback()
			return "", fmt.Errorf("failed to insert rule %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit stylesheet: %w", err)
	}

	c.log.Info("stored stylesheet",
		zap.String("sheet_id", string(sheetID)),
		zap.String("name", name),
		zap.Int("rules", len(docs)))
	return sheetID, nil
}

// ListStylesheets returns catalog entries, newest first.
func (c *Catalog) ListStylesheets() ([]StylesheetRow, error) {
	var rows []StylesheetRow
	if err := c.q.Select("list-stylesheets", &rows); err != nil {
		return nil, fmt.Errorf("failed to list stylesheets: %w", err)
	}
	return rows, nil
}

// GetStylesheet loads a stored stylesheet's source and rule documents in
// stylesheet order.
func (c *Catalog) GetStylesheet(id types.SheetID) (name, source string, docs []cascade.Doc, err error) {
	var sheet stylesheetRecord
	if err := c.q.Get("get-stylesheet", &sheet, id); err != nil {
		return "", "", nil, fmt.Errorf("stylesheet %s: %w", id, err)
	}

	var records []ruleRecord
	if err := c.q.Select("list-rules", &records, id); err != nil {
		return "", "", nil, fmt.Errorf("rules of stylesheet %s: %w", id, err)
	}

	docs = make([]cascade.Doc, 0, len(records))
	for _, r := range records {
		var doc cascade.Doc
		if err := json.Unmarshal([]byte(r.Doc), &doc); err != nil {
			return "", "", nil, fmt.Errorf("rule %s of stylesheet %s: %w", r.RuleID, id, err)
		}
		docs = append(docs, doc)
	}

	return sheet.Name, sheet.Source, docs, nil
}
