package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/digkill/TivoaArt/internal/models"
	"github.com/digkill/TivoaArt/internal/repository"
)

type ContentStore interface {
	About(ctx context.Context) ([]models.AboutSection, []models.FAQ, error)
	ReplaceAbout(ctx context.Context, sections []models.AboutSection, faqs []models.FAQ) error
	Sections(ctx context.Context, table repository.SectionTable) ([]models.Section, error)
	ReplaceSections(ctx context.Context, table repository.SectionTable, sections []models.Section) error
}

// ContentService manages the editable static pages: about, terms and privacy policy.
type ContentService struct {
	store ContentStore
	log   *zap.Logger
}

func NewContentService(store ContentStore, log *zap.Logger) *ContentService {
	if log == nil {
		log = zap.NewNop()
	}
	return &ContentService{store: store, log: log}
}

type AboutPage struct {
	AboutSections []models.AboutSection `json:"aboutSections"`
	FAQs          []models.FAQ          `json:"faqs"`
}

func (s *ContentService) About(ctx context.Context) (*AboutPage, error) {
	sections, faqs, err := s.store.About(ctx)
	if err != nil {
		return nil, err
	}
	if sections == nil {
		sections = []models.AboutSection{}
	}
	if faqs == nil {
		faqs = []models.FAQ{}
	}
	return &AboutPage{AboutSections: sections, FAQs: faqs}, nil
}

// SaveAbout replaces every about section and FAQ. At least one section is required.
func (s *ContentService) SaveAbout(ctx context.Context, page AboutPage) error {
	if len(page.AboutSections) == 0 || page.FAQs == nil {
		return invalid("Sections and FAQs are required.")
	}
	for i := range page.AboutSections {
		page.AboutSections[i].Text = strings.TrimSpace(page.AboutSections[i].Text)
		if page.AboutSections[i].Text == "" {
			return invalid("Section text is required.")
		}
	}
	for i := range page.FAQs {
		if strings.TrimSpace(page.FAQs[i].Question) == "" {
			return invalid("FAQ question is required.")
		}
	}
	if err := s.store.ReplaceAbout(ctx, page.AboutSections, page.FAQs); err != nil {
		return err
	}
	s.log.Info("about page replaced", zap.Int("sections", len(page.AboutSections)), zap.Int("faqs", len(page.FAQs)))
	return nil
}

func (s *ContentService) Sections(ctx context.Context, table repository.SectionTable) ([]models.Section, error) {
	sections, err := s.store.Sections(ctx, table)
	if err != nil {
		return nil, err
	}
	if sections == nil {
		sections = []models.Section{}
	}
	return sections, nil
}

func (s *ContentService) SaveSections(ctx context.Context, table repository.SectionTable, sections []models.Section) error {
	if len(sections) == 0 {
		return invalid("Sections are required.")
	}
	for _, sec := range sections {
		if strings.TrimSpace(sec.Heading) == "" && strings.TrimSpace(sec.Text) == "" {
			return invalid("Section heading or text is required.")
		}
	}
	if err := s.store.ReplaceSections(ctx, table, sections); err != nil {
		return err
	}
	s.log.Info("sections replaced", zap.String("table", string(table)), zap.Int("count", len(sections)))
	return nil
}
