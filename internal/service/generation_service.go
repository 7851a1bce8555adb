package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/digkill/TivoaArt/internal/models"
	"github.com/digkill/TivoaArt/internal/repository"
	"github.com/digkill/TivoaArt/internal/runware"
)

const (
	defaultSteps = 30
	maxImages    = 10
)

const CodeInsufficientCredits = "INSUFFICIENT_CREDITS"

type ImageGenerator interface {
	Generate(ctx context.Context, req runware.Request) (*runware.Result, error)
}

// ImageMirror copies an upstream image into our own storage and returns its public URL.
type ImageMirror interface {
	Mirror(ctx context.Context, sourceURL string) (string, error)
}

type GenerationStore interface {
	WithGenerationTx(ctx context.Context, fn func(repository.GenerationTx) error) error
}

type UserImageStore interface {
	ListByUser(ctx context.Context, userID int64, limit int) ([]models.UserImage, error)
	SetFavorite(ctx context.Context, userID, imageID int64, favorite bool) (bool, error)
	SoftDelete(ctx context.Context, userID, imageID int64) (bool, error)
}

type GenerationService struct {
	store     GenerationStore
	images    UserImageStore
	generator ImageGenerator
	mirror    ImageMirror
	log       *zap.Logger
}

// NewGenerationService builds the service. mirror may be nil, in which case upstream URLs are stored.
func NewGenerationService(store GenerationStore, images UserImageStore, generator ImageGenerator, mirror ImageMirror, log *zap.Logger) *GenerationService {
	if log == nil {
		log = zap.NewNop()
	}
	return &GenerationService{store: store, images: images, generator: generator, mirror: mirror, log: log}
}

type GenerateRequest struct {
	Prompt      string
	AspectRatio string
	NumImages   int
	// Enhance is accepted from clients but has no REST equivalent.
	Enhance bool
	Seed    int
}

// Generate charges one credit per returned image. The user's row stays locked
// from the balance check until the debit commits.
func (s *GenerationService) Generate(ctx context.Context, userID int64, req GenerateRequest) ([]runware.Image, error) {
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return nil, invalid("Missing or invalid prompt")
	}
	numImages := req.NumImages
	if numImages <= 0 {
		numImages = 1
	}
	if numImages > maxImages {
		return nil, invalid("Too many images requested")
	}
	steps := req.Seed
	if steps <= 0 {
		steps = defaultSteps
	}
	aspect := req.AspectRatio
	if aspect == "" {
		aspect = "1:1"
	}

	var images []runware.Image
	err := s.store.WithGenerationTx(ctx, func(tx repository.GenerationTx) error {
		credits, found, err := tx.LockCredits(ctx, userID)
		if err != nil {
			return err
		}
		if !found {
			return newError(ErrUnauthenticated, "User not found")
		}
		if credits < int64(numImages) {
			return newError(ErrInsufficientCredits, CodeInsufficientCredits).
				withFields(map[string]any{"needed": numImages, "have": credits})
		}

		result, err := s.generator.Generate(ctx, runware.Request{
			Prompt:      prompt,
			AspectRatio: aspect,
			NumImages:   numImages,
			Steps:       steps,
		})
		if err != nil {
			return err
		}

		returned := result.Images()
		// Never store or charge for more images than were requested and checked against the balance.
		if len(returned) > numImages {
			returned = returned[:numImages]
		}
		images = s.mirrorImages(ctx, returned)
		urls := make([]string, 0, len(images))
		for _, img := range images {
			urls = append(urls, img.ImageURL)
		}
		if err := tx.InsertImages(ctx, userID, urls); err != nil {
			return err
		}
		return tx.DebitCredits(ctx, userID, int64(len(images)))
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("images generated",
		zap.Int64("user_id", userID),
		zap.Int("requested", numImages),
		zap.Int("returned", len(images)),
		zap.String("aspect_ratio", aspect),
	)
	return images, nil
}

func (s *GenerationService) mirrorImages(ctx context.Context, images []runware.Image) []runware.Image {
	if s.mirror == nil {
		return images
	}
	out := make([]runware.Image, len(images))
	for i, img := range images {
		out[i] = img
		mirrored, err := s.mirror.Mirror(ctx, img.ImageURL)
		if err != nil {
			s.log.Warn("image mirror failed, keeping upstream url", zap.String("url", img.ImageURL), zap.Error(err))
			continue
		}
		out[i].ImageURL = mirrored
	}
	return out
}

// Mine lists the caller's non-deleted images, newest first.
func (s *GenerationService) Mine(ctx context.Context, userID int64) ([]models.UserImage, error) {
	images, err := s.images.ListByUser(ctx, userID, 0)
	if err != nil {
		return nil, err
	}
	if images == nil {
		images = []models.UserImage{}
	}
	return images, nil
}

func (s *GenerationService) SetFavorite(ctx context.Context, userID, imageID int64, favorite bool) error {
	found, err := s.images.SetFavorite(ctx, userID, imageID, favorite)
	if err != nil {
		return err
	}
	if !found {
		return newError(ErrNotFound, "Image not found")
	}
	return nil
}

func (s *GenerationService) DeleteImage(ctx context.Context, userID, imageID int64) error {
	found, err := s.images.SoftDelete(ctx, userID, imageID)
	if err != nil {
		return err
	}
	if !found {
		return newError(ErrNotFound, "Image not found")
	}
	return nil
}
