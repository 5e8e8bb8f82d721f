package service

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/exam-service/internal/domain"
	"github.com/spec-kit/exam-service/internal/persistence"
	"github.com/spec-kit/exam-service/internal/repository"
	apperrors "github.com/spec-kit/exam-service/pkg/util"
)

const examCacheKeyPrefix = "exam:category:"

// ExamService serves random questions from the exam bank. Category listings
// are cached in Redis; sampling happens in process so cached entries stay
// shuffle-free.
type ExamService struct {
	exams    repository.ExamRepository
	cache    *persistence.Redis
	cacheTTL time.Duration
	maxCount int
	logger   *zap.Logger
}

// ExamDependencies encapsulates collaborator requirements for the service.
type ExamDependencies struct {
	ExamRepo repository.ExamRepository
	Cache    *persistence.Redis
	CacheTTL time.Duration
	MaxCount int
	Logger   *zap.Logger
}

// NewExamService builds the service.
func NewExamService(deps ExamDependencies) *ExamService {
	maxCount := deps.MaxCount
	if maxCount <= 0 {
		maxCount = 20
	}
	return &ExamService{
		exams:    deps.ExamRepo,
		cache:    deps.Cache,
		cacheTTL: deps.CacheTTL,
		maxCount: maxCount,
		logger:   deps.Logger,
	}
}

// Random returns up to count randomly picked questions from the category; an
// empty category draws from the whole bank.
func (s *ExamService) Random(ctx context.Context, category string, count int) ([]domain.Exam, error) {
	if count <= 0 {
		return nil, apperrors.NewValidationError("count must be positive", nil)
	}
	if count > s.maxCount {
		count = s.maxCount
	}

	exams, err := s.listCached(ctx, category)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	rand.Shuffle(len(exams), func(i, j int) {
		exams[i], exams[j] = exams[j], exams[i]
	})
	if count < len(exams) {
		exams = exams[:count]
	}
	return exams, nil
}

// Categories lists the distinct categories in the bank.
func (s *ExamService) Categories(ctx context.Context) ([]string, error) {
	categories, err := s.exams.Categories(ctx)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return categories, nil
}

func (s *ExamService) listCached(ctx context.Context, category string) ([]domain.Exam, error) {
	key := examCacheKeyPrefix + category

	if s.cacheReady() {
		cached, err := s.cache.Client.Get(ctx, key).Result()
		if err == nil {
			var exams []domain.Exam
			if err := json.Unmarshal([]byte(cached), &exams); err == nil {
				return exams, nil
			}
			// fall through to the repository on a corrupt entry
		}
	}

	exams, err := s.exams.ListByCategory(ctx, category)
	if err != nil {
		return nil, err
	}

	if s.cacheReady() && len(exams) > 0 {
		encoded, err := json.Marshal(exams)
		if err == nil {
			if err := s.cache.Client.Set(ctx, key, encoded, s.cacheTTL).Err(); err != nil {
				s.logger.Warn("unable to cache exam listing", zap.String("key", key), zap.Error(err))
			}
		}
	}
	return exams, nil
}

func (s *ExamService) cacheReady() bool {
	return s.cache != nil && s.cache.Client != nil
}
