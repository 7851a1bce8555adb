package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/digkill/TivoaArt/internal/models"
)

// SectionTable names a table of ordered heading/text sections.
type SectionTable string

const (
	TermsSections         SectionTable = "terms_sections"
	PrivacyPolicySections SectionTable = "privacy_policy_sections"
)

func (t SectionTable) valid() bool {
	return t == TermsSections || t == PrivacyPolicySections
}

// ContentRepository stores the editable static pages. Saves replace the whole page.
type ContentRepository struct {
	db *sql.DB
}

func NewContentRepository(db *sql.DB) *ContentRepository {
	return &ContentRepository{db: db}
}

func (r *ContentRepository) About(ctx context.Context) ([]models.AboutSection, []models.FAQ, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, section_order, text FROM about_sections ORDER BY section_order ASC`)
	if err != nil {
		return nil, nil, fmt.Errorf("query about sections: %w", err)
	}
	defer rows.Close()

	sections := []models.AboutSection{}
	for rows.Next() {
		var s models.AboutSection
		if err := rows.Scan(&s.ID, &s.Order, &s.Text); err != nil {
			return nil, nil, fmt.Errorf("scan about section: %w", err)
		}
		sections = append(sections, s)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	faqRows, err := r.db.QueryContext(ctx, `SELECT id, faq_order, question, answer FROM faqs ORDER BY faq_order ASC`)
	if err != nil {
		return nil, nil, fmt.Errorf("query faqs: %w", err)
	}
	defer faqRows.Close()

	faqs := []models.FAQ{}
	for faqRows.Next() {
		var f models.FAQ
		if err := faqRows.Scan(&f.ID, &f.Order, &f.Question, &f.Answer); err != nil {
			return nil, nil, fmt.Errorf("scan faq: %w", err)
		}
		faqs = append(faqs, f)
	}
	return sections, faqs, faqRows.Err()
}

func (r *ContentRepository) ReplaceAbout(ctx context.Context, sections []models.AboutSection, faqs []models.FAQ) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM about_sections`); err != nil {
			return fmt.Errorf("clear about sections: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM faqs`); err != nil {
			return fmt.Errorf("clear faqs: %w", err)
		}
		for _, s := range sections {
			if _, err := tx.ExecContext(ctx, `INSERT INTO about_sections (section_order, text) VALUES (?, ?)`, s.Order, s.Text); err != nil {
				return fmt.Errorf("insert about section: %w", err)
			}
		}
		for _, f := range faqs {
			if _, err := tx.ExecContext(ctx, `INSERT INTO faqs (faq_order, question, answer) VALUES (?, ?, ?)`, f.Order, f.Question, f.Answer); err != nil {
				return fmt.Errorf("insert faq: %w", err)
			}
		}
		return nil
	})
}

func (r *ContentRepository) Sections(ctx context.Context, table SectionTable) ([]models.Section, error) {
	if !table.valid() {
		return nil, fmt.Errorf("unknown section table %q", table)
	}
	rows, err := r.db.QueryContext(ctx, `SELECT id, heading, text FROM `+string(table)+` ORDER BY section_order ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	sections := []models.Section{}
	for rows.Next() {
		var s models.Section
		if err := rows.Scan(&s.ID, &s.Heading, &s.Text); err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		sections = append(sections, s)
	}
	return sections, rows.Err()
}

// ReplaceSections stores sections in the given order.
func (r *ContentRepository) ReplaceSections(ctx context.Context, table SectionTable, sections []models.Section) error {
	if !table.valid() {
		return fmt.Errorf("unknown section table %q", table)
	}
	return r.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+string(table)); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
		insert := `INSERT INTO ` + string(table) + ` (section_order, heading, text) VALUES (?, ?, ?)`
		for i, s := range sections {
			if _, err := tx.ExecContext(ctx, insert, i+1, s.Heading, s.Text); err != nil {
				return fmt.Errorf("insert %s: %w", table, err)
			}
		}
		return nil
	})
}

func (r *ContentRepository) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}
