package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/study-assistant/internal/llm"
	"github.com/study-assistant/internal/models"
	"github.com/study-assistant/internal/repository"
)

var (
	ErrContentFetch = errors.New("failed to fetch content")
)

// Summary modes accepted by the generate endpoints.
const (
	ModeParagraph = "paragraph"
	ModeBullets   = "bullets"
	ModeKeyPoints = "keypoints"
)

const (
	defaultLanguage  = "English"
	defaultWordLimit = 300
)

// ContentLoader resolves a URL to raw text.
type ContentLoader interface {
	Load(ctx context.Context, url string) (string, error)
}

// Progress receives staged updates during a generation run. May be nil.
type Progress func(stage, message string)

// StudyService orchestrates one generation action: load content, prompt the
// model, persist the result, and optionally derive MCQs and keywords.
type StudyService struct {
	historyRepo *repository.HistoryRepository
	loader      ContentLoader
	completer   llm.Completer
}

// NewStudyService creates a new StudyService
func NewStudyService(historyRepo *repository.HistoryRepository, loader ContentLoader, completer llm.Completer) *StudyService {
	return &StudyService{
		historyRepo: historyRepo,
		loader:      loader,
		completer:   completer,
	}
}

// GenerateRequest represents one generation action. Validation happens at
// binding time, before any external call is made.
type GenerateRequest struct {
	URL       string `json:"url" binding:"required,url"`
	APIKey    string `json:"api_key" binding:"required"`
	Mode      string `json:"mode" binding:"omitempty,oneof=paragraph bullets keypoints"`
	Language  string `json:"language" binding:"omitempty,oneof=English Hindi French German"`
	WordLimit int    `json:"word_limit" binding:"omitempty,min=100,max=600"`
	MCQs      bool   `json:"mcqs"`
	Keywords  bool   `json:"keywords"`
}

func (r *GenerateRequest) applyDefaults() {
	if r.Mode == "" {
		r.Mode = ModeParagraph
	}
	if r.Language == "" {
		r.Language = defaultLanguage
	}
	if r.WordLimit == 0 {
		r.WordLimit = defaultWordLimit
	}
}

// GenerateResult is the output of one generation action.
type GenerateResult struct {
	Summary  string `json:"summary"`
	MCQs     string `json:"mcqs,omitempty"`
	Keywords string `json:"keywords,omitempty"`
}

// Generate runs the full pipeline for an authenticated user and appends the
// summary to their history. LLM errors pass through with their sentinel
// types so the handler can distinguish a bad key from an upstream outage.
func (s *StudyService) Generate(ctx context.Context, userID uint, req *GenerateRequest, progress Progress) (*GenerateResult, error) {
	req.applyDefaults()
	report := func(stage, message string) {
		if progress != nil {
			progress(stage, message)
		}
	}

	report("loading", "fetching content")
	text, err := s.loader.Load(ctx, req.URL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrContentFetch, err)
	}

	report("summarizing", "generating summary")
	prompt := buildPrompt(req.Mode, req.Language, req.WordLimit) + "\n\n" + text
	summary, err := s.completer.Complete(ctx, req.APIKey, prompt)
	if err != nil {
		return nil, err
	}

	report("saving", "writing history")
	entry := &models.HistoryEntry{
		UserID:  userID,
		Summary: summary,
	}
	if err := s.historyRepo.Create(entry); err != nil {
		return nil, err
	}

	result := &GenerateResult{Summary: summary}

	if req.MCQs {
		report("mcqs", "generating mcqs")
		out, err := s.completer.Complete(ctx, req.APIKey, "Generate 5 MCQs from:\n"+summary)
		if err != nil {
			return nil, err
		}
		result.MCQs = out
	}

	if req.Keywords {
		report("keywords", "extracting keywords")
		out, err := s.completer.Complete(ctx, req.APIKey, "Extract 10 keywords from:\n"+summary)
		if err != nil {
			return nil, err
		}
		result.Keywords = out
	}

	return result, nil
}

// History returns a user's past summaries, newest first.
func (s *StudyService) History(userID uint, page, pageSize int) ([]models.HistoryEntry, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return s.historyRepo.GetByUserIDPaginated(userID, page, pageSize)
}

// buildPrompt assembles the instruction prefix for the summary request.
func buildPrompt(mode, language string, wordLimit int) string {
	base := fmt.Sprintf("Write in %s. Limit %d words.", language, wordLimit)
	switch mode {
	case ModeBullets:
		return base + " Use exam-oriented bullet points."
	case ModeKeyPoints:
		return base + " Use key points and a conclusion."
	default:
		return base
	}
}
